package game

import (
	"context"

	"github.com/rs/zerolog/log"
)

const (
	eventRoomCreated        = "room_created"
	eventPlayerJoined       = "player_joined"
	eventGameStarted        = "game_started"
	eventInventionSubmitted = "invention_submitted"
	eventDrawingStarted     = "drawing_started"
	eventDrawingSubmitted   = "drawing_submitted"
	eventPresentingStarted  = "presenting_started"
	eventPresenterAdvanced  = "presenter_advanced"
	eventGameEnded          = "game_ended"
)

// EventSink receives an audit trail of room mutations.
type EventSink interface {
	Record(ctx context.Context, roomID, playerID, eventType string, payload any) error
}

type EventPayload struct {
	PlayerName     string `json:"player,omitempty"`
	Phase          Phase  `json:"phase,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Players        int    `json:"players,omitempty"`
	RoundEndTime   int64  `json:"round_end_time,omitempty"`
	PresenterIndex int    `json:"presenter_index,omitempty"`
	LateJoin       bool   `json:"late_join,omitempty"`
}

func (e *Engine) record(ctx context.Context, roomID, playerID, eventType string, payload EventPayload) {
	if e.events == nil {
		return
	}
	if err := e.events.Record(ctx, roomID, playerID, eventType, payload); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Str("event", eventType).Msg("record event failed")
	}
}
