package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type phaseTransition struct {
	to       Phase
	hostOnly bool
	action   string
	// ready rejects the transition with a guard error, or with errUnchanged
	// when the exit condition simply has not happened yet.
	ready func(e *Engine, room *Room) error
	apply func(e *Engine, room *Room) error
}

var phaseTransitions = map[Phase]phaseTransition{
	PhaseLobby: {
		to:       PhaseSubmitting,
		hostOnly: true,
		action:   "start the game",
		ready: func(e *Engine, room *Room) error {
			if len(room.Players) < e.cfg.MinPlayers {
				return guard("need at least %d players to start, have %d", e.cfg.MinPlayers, len(room.Players))
			}
			return nil
		},
	},
	PhaseSubmitting: {
		to: PhaseDrawing,
		ready: func(e *Engine, room *Room) error {
			if !room.inventionsComplete() {
				return errUnchanged
			}
			return nil
		},
		apply: func(e *Engine, room *Room) error {
			assignments, err := Reassign(room.PlayerIDs(), room.Inventions, e.shuffle)
			if err != nil {
				return guard("%v", err)
			}
			room.Assignments = assignments
			room.RoundEndTime = e.clock.Now().Add(e.drawDuration()).UnixMilli()
			return nil
		},
	},
	PhaseDrawing: {
		to: PhasePresenting,
		ready: func(e *Engine, room *Room) error {
			if e.cfg.EndDrawingWhenAllSubmitted && room.drawingsComplete() {
				return nil
			}
			if e.clock.Now().UnixMilli() < room.RoundEndTime {
				return guard("drawing time is not over until %s", room.Deadline().UTC().Format(time.RFC3339))
			}
			return nil
		},
		apply: func(e *Engine, room *Room) error {
			room.PresentationOrder = presentationOrder(room.Assignments, e.shuffle)
			room.CurrentPresenterIndex = 0
			return nil
		},
	},
	PhasePresenting: {
		to:       PhaseGameOver,
		hostOnly: true,
		action:   "end the game",
	},
}

// advancePhase moves the room out of from. A room already past from is left
// alone and reported unchanged, so duplicate triggers are harmless. A room not
// yet in from is a guard failure unless passive is set.
func (e *Engine) advancePhase(ctx context.Context, roomID string, from Phase, actorID string, passive bool) (*Room, bool, error) {
	transition, ok := phaseTransitions[from]
	if !ok {
		return nil, false, guard("no phase follows %s", from)
	}
	return e.updateRoom(ctx, roomID, func(room *Room) error {
		if transition.hostOnly && !room.IsHost(actorID) {
			return guard("only the host can %s", transition.action)
		}
		if room.Phase != from {
			if from.Before(room.Phase) || passive {
				return errUnchanged
			}
			return guard("room is in %s, not %s", room.Phase, from)
		}
		if transition.ready != nil {
			if err := transition.ready(e, room); err != nil {
				return err
			}
		}
		if transition.apply != nil {
			if err := transition.apply(e, room); err != nil {
				return err
			}
		}
		room.Phase = transition.to
		return nil
	})
}

func (e *Engine) StartGame(ctx context.Context, roomID, actorID string) error {
	room, changed, err := e.advancePhase(ctx, roomID, PhaseLobby, actorID, false)
	if err != nil {
		return err
	}
	if changed {
		log.Info().Str("room_id", room.ID).Int("players", len(room.Players)).Str("from", string(PhaseLobby)).Str("to", string(room.Phase)).Msg("game started")
		e.record(ctx, room.ID, actorID, eventGameStarted, EventPayload{Phase: room.Phase, Players: len(room.Players)})
	}
	return nil
}

// CheckAllInventionsSubmitted reassigns inventions and opens the drawing phase
// once every player has submitted. Any caller may run it any number of times;
// it reports whether this call performed the transition.
func (e *Engine) CheckAllInventionsSubmitted(ctx context.Context, roomID string) (bool, error) {
	room, changed, err := e.advancePhase(ctx, roomID, PhaseSubmitting, "", true)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	log.Info().Str("room_id", room.ID).Int("players", len(room.Assignments)).Time("deadline", room.Deadline()).Str("from", string(PhaseSubmitting)).Str("to", string(room.Phase)).Msg("drawing started")
	e.record(ctx, room.ID, "", eventDrawingStarted, EventPayload{Phase: room.Phase, Players: len(room.Assignments), RoundEndTime: room.RoundEndTime})
	e.scheduleDrawingDeadline(room)
	return true, nil
}

// FinishDrawing closes the drawing phase once its deadline has passed. It is
// safe for every client that notices the deadline to call it.
func (e *Engine) FinishDrawing(ctx context.Context, roomID string) (bool, error) {
	return e.finishDrawing(ctx, roomID, "deadline")
}

func (e *Engine) finishDrawing(ctx context.Context, roomID, reason string) (bool, error) {
	room, changed, err := e.advancePhase(ctx, roomID, PhaseDrawing, "", false)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	log.Info().Str("room_id", room.ID).Int("submitted", room.DrawingsSubmitted()).Int("assigned", len(room.Assignments)).Str("reason", reason).Str("from", string(PhaseDrawing)).Str("to", string(room.Phase)).Msg("presentations started")
	e.record(ctx, room.ID, "", eventPresentingStarted, EventPayload{Phase: room.Phase, Reason: reason, Players: len(room.PresentationOrder)})
	e.cancelDrawingDeadline(room.ID)
	return true, nil
}

func (e *Engine) EndGame(ctx context.Context, roomID, actorID string) error {
	room, changed, err := e.advancePhase(ctx, roomID, PhasePresenting, actorID, false)
	if err != nil {
		return err
	}
	if changed {
		log.Info().Str("room_id", room.ID).Str("from", string(PhasePresenting)).Str("to", string(room.Phase)).Msg("game ended")
		e.record(ctx, room.ID, actorID, eventGameEnded, EventPayload{Phase: room.Phase, Reason: "host_ended"})
	}
	return nil
}
