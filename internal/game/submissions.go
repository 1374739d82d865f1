package game

import (
	"context"

	"github.com/rs/zerolog/log"
)

// SubmitInvention stores the player's invention, once, and then runs the
// completion check so the last submitter's call opens the drawing phase.
func (e *Engine) SubmitInvention(ctx context.Context, roomID, playerID, text string) error {
	if err := ValidateInvention(text, e.cfg.MaxInventionLength); err != nil {
		return err
	}
	room, _, err := e.updateRoom(ctx, roomID, func(room *Room) error {
		if !room.HasPlayer(playerID) {
			return guard("player %s has not joined this room", playerID)
		}
		if room.Phase != PhaseSubmitting {
			return guard("inventions are not being collected")
		}
		if _, exists := room.Inventions[playerID]; exists {
			return guard("invention already submitted")
		}
		if room.Inventions == nil {
			room.Inventions = make(map[string]Invention)
		}
		room.Inventions[playerID] = Invention{Text: text, AuthorID: playerID}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("room_id", room.ID).Str("player_id", playerID).Int("submitted", len(room.Inventions)).Int("players", len(room.Players)).Msg("invention submitted")
	e.record(ctx, room.ID, playerID, eventInventionSubmitted, EventPayload{Phase: room.Phase, Players: len(room.Inventions)})

	if _, err := e.CheckAllInventionsSubmitted(ctx, room.ID); err != nil {
		// the invention is stored; any later check can still open the phase
		log.Warn().Err(err).Str("room_id", room.ID).Msg("invention completion check failed")
	}
	return nil
}

// SubmitDrawingAndPitch writes the player's drawing and pitch into their own
// assignment slot. The guards and the write share one room transaction, so a
// drawing never lands after the phase has moved on and only one submission wins.
func (e *Engine) SubmitDrawingAndPitch(ctx context.Context, roomID, playerID, drawing, pitch string) error {
	if err := ValidateDrawing(drawing, e.cfg.MaxDrawingBytes); err != nil {
		return err
	}
	if err := ValidatePitch(pitch, e.cfg.MaxPitchLength); err != nil {
		return err
	}
	room, _, err := e.updateRoom(ctx, roomID, func(room *Room) error {
		if room.Phase != PhaseDrawing {
			return guard("drawings are not being collected")
		}
		assignment, ok := room.Assignments[playerID]
		if !ok {
			return guard("player %s has no assignment", playerID)
		}
		if assignment.Submitted() {
			return guard("drawing already submitted")
		}
		assignment.Drawing = drawing
		assignment.Pitch = pitch
		room.Assignments[playerID] = assignment
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("room_id", room.ID).Str("player_id", playerID).Int("drawing_bytes", len(drawing)).Msg("drawing submitted")
	e.record(ctx, room.ID, playerID, eventDrawingSubmitted, EventPayload{Phase: room.Phase})

	if e.cfg.EndDrawingWhenAllSubmitted {
		e.finishDrawingIfComplete(ctx, room.ID)
	}
	return nil
}

func (e *Engine) finishDrawingIfComplete(ctx context.Context, roomID string) {
	room, err := e.GetRoom(ctx, roomID)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("drawing completion check failed")
		return
	}
	if room.Phase != PhaseDrawing || !room.drawingsComplete() {
		return
	}
	if _, err := e.finishDrawing(ctx, roomID, "all_submitted"); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("early drawing finish failed")
	}
}
