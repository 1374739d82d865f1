// Package game implements the room lifecycle: admission, phase transitions,
// invention reassignment and presentation order. All state lives in a
// roomstore.Store; the engine holds nothing but timers.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"hear-me-out/internal/config"
	"hear-me-out/internal/roomstore"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Engine struct {
	store   roomstore.Store
	cfg     config.Config
	clock   clockwork.Clock
	events  EventSink
	shuffle Shuffler
	newCode func(length int) (string, error)

	timersMu sync.Mutex
	timers   map[string]clockwork.Timer
}

type Option func(*Engine)

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithEventSink(sink EventSink) Option {
	return func(e *Engine) {
		e.events = sink
	}
}

func WithShuffler(shuffle Shuffler) Option {
	return func(e *Engine) {
		e.shuffle = shuffle
	}
}

func New(store roomstore.Store, cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		shuffle: defaultShuffle,
		newCode: newRoomCode,
		timers:  make(map[string]clockwork.Timer),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.MinPlayers < 2 {
		e.cfg.MinPlayers = 2
	}
	if e.cfg.RoomCodeLength > config.MaxRoomCodeLength {
		e.cfg.RoomCodeLength = config.MaxRoomCodeLength
	}
	if e.cfg.RoomCodeAttempts <= 0 {
		e.cfg.RoomCodeAttempts = 1
	}
	return e
}

// Close stops pending deadline timers.
func (e *Engine) Close() {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	for roomID, timer := range e.timers {
		timer.Stop()
		delete(e.timers, roomID)
	}
}

func (e *Engine) nowMillis() int64 {
	return e.clock.Now().UnixMilli()
}

func (e *Engine) drawDuration() time.Duration {
	return time.Duration(e.cfg.DrawDurationSeconds) * time.Second
}

var errCodeTaken = errors.New("room code taken")

func (e *Engine) CreateRoom(ctx context.Context, host Player) (string, error) {
	host, err := e.normalizePlayer(host)
	if err != nil {
		return "", err
	}
	for attempt := 1; attempt <= e.cfg.RoomCodeAttempts; attempt++ {
		code, err := e.newCode(e.cfg.RoomCodeLength)
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		room := &Room{
			ID:        code,
			HostID:    host.ID,
			Phase:     PhaseLobby,
			Players:   map[string]Player{host.ID: host},
			CreatedAt: e.nowMillis(),
		}
		_, err = e.store.Transact(ctx, roomstore.RoomPath(code), func(current json.RawMessage) (any, error) {
			if current != nil {
				return nil, errCodeTaken
			}
			return room, nil
		})
		if errors.Is(err, errCodeTaken) || errors.Is(err, roomstore.ErrConflict) {
			log.Debug().Str("room_id", code).Int("attempt", attempt).Msg("room code collision")
			continue
		}
		if err != nil {
			return "", storeError(err)
		}
		log.Info().Str("room_id", code).Str("host_id", host.ID).Msg("room created")
		e.record(ctx, code, host.ID, eventRoomCreated, EventPayload{PlayerName: host.Name, Phase: PhaseLobby})
		return code, nil
	}
	return "", fmt.Errorf("%w: no free room code after %d attempts", ErrStoreUnavailable, e.cfg.RoomCodeAttempts)
}

// JoinRoom adds the player or refreshes their name when they are already in.
// Joining after the lobby is accepted; such players get no assignment.
func (e *Engine) JoinRoom(ctx context.Context, roomID string, player Player) error {
	roomID = NormalizeRoomID(roomID)
	player, err := e.normalizePlayer(player)
	if err != nil {
		return err
	}
	room, err := e.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	lateJoin := room.Phase != PhaseLobby && !room.HasPlayer(player.ID)
	if err := e.store.Set(ctx, roomstore.RoomPath(roomID, "players", player.ID), player); err != nil {
		return storeError(err)
	}
	if lateJoin {
		log.Warn().Str("room_id", roomID).Str("player_id", player.ID).Str("phase", string(room.Phase)).Msg("player joined after lobby")
	} else {
		log.Info().Str("room_id", roomID).Str("player_id", player.ID).Msg("player joined")
	}
	e.record(ctx, roomID, player.ID, eventPlayerJoined, EventPayload{PlayerName: player.Name, Phase: room.Phase, LateJoin: lateJoin})
	return nil
}

func (e *Engine) GetRoom(ctx context.Context, roomID string) (*Room, error) {
	roomID = NormalizeRoomID(roomID)
	if !validRoomID(roomID) {
		return nil, notFound(roomID)
	}
	raw, err := e.store.Get(ctx, roomstore.RoomPath(roomID))
	if err != nil {
		return nil, storeError(err)
	}
	room, err := decodeRoom(raw)
	if err != nil {
		return nil, storeError(err)
	}
	if room == nil {
		return nil, notFound(roomID)
	}
	return room, nil
}

// Subscribe calls fn with the room now and after every change. fn receives nil
// when the room does not exist.
func (e *Engine) Subscribe(ctx context.Context, roomID string, fn func(*Room)) (roomstore.Subscription, error) {
	roomID = NormalizeRoomID(roomID)
	if !validRoomID(roomID) {
		return nil, notFound(roomID)
	}
	sub, err := e.store.Subscribe(ctx, roomstore.RoomPath(roomID), func(raw json.RawMessage) {
		room, err := decodeRoom(raw)
		if err != nil {
			log.Warn().Err(err).Str("room_id", roomID).Msg("skipping undecodable room update")
			return
		}
		fn(room)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return sub, nil
}

// updateRoom runs fn on the decoded room inside a store transaction and writes
// the result back. It reports whether a write happened; fn returns errUnchanged
// to finish without writing.
func (e *Engine) updateRoom(ctx context.Context, roomID string, fn func(room *Room) error) (*Room, bool, error) {
	roomID = NormalizeRoomID(roomID)
	if !validRoomID(roomID) {
		return nil, false, notFound(roomID)
	}
	changed := false
	raw, err := e.store.Transact(ctx, roomstore.RoomPath(roomID), func(current json.RawMessage) (any, error) {
		changed = false
		room, err := decodeRoom(current)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, notFound(roomID)
		}
		if err := fn(room); err != nil {
			if errors.Is(err, errUnchanged) {
				return nil, roomstore.ErrNoChange
			}
			return nil, err
		}
		changed = true
		return room, nil
	})
	if err != nil {
		return nil, false, storeError(err)
	}
	room, err := decodeRoom(raw)
	if err != nil {
		return nil, false, storeError(err)
	}
	if room == nil {
		return nil, false, notFound(roomID)
	}
	return room, changed, nil
}

func (e *Engine) normalizePlayer(player Player) (Player, error) {
	if !ValidPlayerID(player.ID) {
		return Player{}, invalid("player id is invalid")
	}
	name, err := ValidateName(player.Name, e.cfg.MaxNameLength)
	if err != nil {
		return Player{}, err
	}
	return Player{ID: player.ID, Name: name}, nil
}
