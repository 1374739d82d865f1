package game

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// scheduleDrawingDeadline arms a timer that closes the drawing phase at the
// room's deadline. Any earlier FinishDrawing call makes the timer a no-op.
func (e *Engine) scheduleDrawingDeadline(room *Room) {
	if room == nil || room.RoundEndTime == 0 {
		return
	}
	roomID := room.ID
	duration := room.Deadline().Sub(e.clock.Now())
	if duration <= 0 {
		go e.finishDrawingOnDeadline(roomID)
		return
	}
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	if existing, ok := e.timers[roomID]; ok {
		existing.Stop()
	}
	e.timers[roomID] = e.clock.AfterFunc(duration, func() {
		e.finishDrawingOnDeadline(roomID)
	})
}

func (e *Engine) cancelDrawingDeadline(roomID string) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	if timer, ok := e.timers[roomID]; ok {
		timer.Stop()
		delete(e.timers, roomID)
	}
}

func (e *Engine) finishDrawingOnDeadline(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	advanced, err := e.finishDrawing(ctx, roomID, "timeout")
	if err != nil {
		if errors.Is(err, ErrPreconditionFailed) {
			log.Debug().Err(err).Str("room_id", roomID).Msg("deadline timer skipped")
			return
		}
		log.Error().Err(err).Str("room_id", roomID).Msg("deadline advance failed")
		return
	}
	if !advanced {
		e.cancelDrawingDeadline(roomID)
		log.Debug().Str("room_id", roomID).Msg("deadline timer found room already advanced")
	}
}

func (e *Engine) pendingTimers() int {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	return len(e.timers)
}
