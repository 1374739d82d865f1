package game

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

type Phase string

const (
	PhaseLobby      Phase = "LOBBY"
	PhaseSubmitting Phase = "SUBMITTING_INVENTIONS"
	PhaseDrawing    Phase = "DRAWING_PITCHING"
	PhasePresenting Phase = "PRESENTING"
	PhaseGameOver   Phase = "GAME_OVER"
)

var phaseRank = map[Phase]int{
	PhaseLobby:      0,
	PhaseSubmitting: 1,
	PhaseDrawing:    2,
	PhasePresenting: 3,
	PhaseGameOver:   4,
}

func (p Phase) Valid() bool {
	_, ok := phaseRank[p]
	return ok
}

// Before reports whether p comes earlier in the game than other.
func (p Phase) Before(other Phase) bool {
	return phaseRank[p] < phaseRank[other]
}

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Invention struct {
	Text     string `json:"text"`
	AuthorID string `json:"authorId"`
}

type Assignment struct {
	Invention        string `json:"invention"`
	OriginalAuthorID string `json:"originalAuthorId"`
	Drawing          string `json:"drawing,omitempty"`
	Pitch            string `json:"pitch,omitempty"`
}

func (a Assignment) Submitted() bool {
	return a.Drawing != ""
}

type Room struct {
	ID                    string                `json:"id"`
	HostID                string                `json:"hostId"`
	Phase                 Phase                 `json:"phase"`
	Players               map[string]Player     `json:"players"`
	Inventions            map[string]Invention  `json:"inventions,omitempty"`
	Assignments           map[string]Assignment `json:"assignments,omitempty"`
	RoundEndTime          int64                 `json:"roundEndTime,omitempty"`
	PresentationOrder     []string              `json:"presentationOrder,omitempty"`
	CurrentPresenterIndex int                   `json:"currentPresenterIndex"`
	CreatedAt             int64                 `json:"createdAt,omitempty"`
}

func decodeRoom(raw json.RawMessage) (*Room, error) {
	if raw == nil {
		return nil, nil
	}
	var room Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &room, nil
}

func (r *Room) IsHost(playerID string) bool {
	return playerID != "" && r.HostID == playerID
}

func (r *Room) HasPlayer(playerID string) bool {
	_, ok := r.Players[playerID]
	return ok
}

// PlayerIDs returns the player ids in a fixed (sorted) order.
func (r *Room) PlayerIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Room) inventionsComplete() bool {
	if len(r.Players) < 2 {
		return false
	}
	for id := range r.Players {
		if _, ok := r.Inventions[id]; !ok {
			return false
		}
	}
	return true
}

func (r *Room) DrawingsSubmitted() int {
	count := 0
	for _, assignment := range r.Assignments {
		if assignment.Submitted() {
			count++
		}
	}
	return count
}

func (r *Room) drawingsComplete() bool {
	return len(r.Assignments) > 0 && r.DrawingsSubmitted() == len(r.Assignments)
}

func (r *Room) Deadline() time.Time {
	if r.RoundEndTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.RoundEndTime)
}

// Presenter returns the player currently presenting, if any remain.
func (r *Room) Presenter() (string, bool) {
	if r.Phase != PhasePresenting {
		return "", false
	}
	if r.CurrentPresenterIndex < 0 || r.CurrentPresenterIndex >= len(r.PresentationOrder) {
		return "", false
	}
	return r.PresentationOrder[r.CurrentPresenterIndex], true
}

func (r *Room) IsLastPresenter() bool {
	return r.CurrentPresenterIndex >= len(r.PresentationOrder)-1
}
