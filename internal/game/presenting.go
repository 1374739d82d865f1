package game

import (
	"context"

	"github.com/rs/zerolog/log"
)

// AdvancePresenter moves to the next presenter. After the last presenter the
// index rests at len(PresentationOrder), meaning nobody is presenting.
func (e *Engine) AdvancePresenter(ctx context.Context, roomID, actorID string) error {
	room, changed, err := e.updateRoom(ctx, roomID, func(room *Room) error {
		if err := presenterGuard(room, actorID); err != nil {
			return err
		}
		if room.CurrentPresenterIndex >= len(room.PresentationOrder) {
			return guard("no presenter left to advance past")
		}
		room.CurrentPresenterIndex++
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		log.Info().Str("room_id", room.ID).Int("index", room.CurrentPresenterIndex).Int("presenters", len(room.PresentationOrder)).Msg("presenter advanced")
		e.record(ctx, room.ID, actorID, eventPresenterAdvanced, EventPayload{Phase: room.Phase, PresenterIndex: room.CurrentPresenterIndex})
	}
	return nil
}

// AdvanceOrFinish is the host's single "next" action: it advances to the next
// presenter, or ends the game after the last one. observedIndex is the presenter
// index the caller was looking at; when the room has already moved on the call
// is a no-op, so a repeated click never skips a presenter. A negative
// observedIndex disables the check.
func (e *Engine) AdvanceOrFinish(ctx context.Context, roomID, actorID string, observedIndex int) (Phase, error) {
	var ended bool
	room, changed, err := e.updateRoom(ctx, roomID, func(room *Room) error {
		ended = false
		if err := presenterGuard(room, actorID); err != nil {
			return err
		}
		if observedIndex >= 0 && observedIndex != room.CurrentPresenterIndex {
			return errUnchanged
		}
		if room.IsLastPresenter() {
			room.CurrentPresenterIndex = len(room.PresentationOrder)
			room.Phase = PhaseGameOver
			ended = true
			return nil
		}
		room.CurrentPresenterIndex++
		return nil
	})
	if err != nil {
		return "", err
	}
	if !changed {
		return room.Phase, nil
	}
	if ended {
		log.Info().Str("room_id", room.ID).Str("from", string(PhasePresenting)).Str("to", string(room.Phase)).Msg("game ended")
		e.record(ctx, room.ID, actorID, eventGameEnded, EventPayload{Phase: room.Phase, Reason: "last_presenter"})
	} else {
		log.Info().Str("room_id", room.ID).Int("index", room.CurrentPresenterIndex).Int("presenters", len(room.PresentationOrder)).Msg("presenter advanced")
		e.record(ctx, room.ID, actorID, eventPresenterAdvanced, EventPayload{Phase: room.Phase, PresenterIndex: room.CurrentPresenterIndex})
	}
	return room.Phase, nil
}

func presenterGuard(room *Room, actorID string) error {
	if !room.IsHost(actorID) {
		return guard("only the host can advance presentations")
	}
	switch room.Phase {
	case PhasePresenting:
		return nil
	case PhaseGameOver:
		return errUnchanged
	default:
		return guard("presentations have not started")
	}
}
