// Package roomstore holds shared room records as a tree of JSON values addressed
// by slash separated paths such as "rooms/ABCD/players/p1".
package roomstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnavailable = errors.New("room store unavailable")
	ErrConflict    = errors.New("room store conflict")
	ErrInvalidPath = errors.New("invalid store path")
	// ErrNoChange returned from a TransactFunc leaves the value untouched.
	ErrNoChange = errors.New("no change")
)

// RoomsRoot is the namespace every room record lives under.
const RoomsRoot = "rooms"

// TransactFunc receives the current value at a path (nil when absent) and
// returns the value to store in its place. It runs while the path is locked and
// must not call back into the store.
type TransactFunc func(current json.RawMessage) (any, error)

type Store interface {
	// Get returns the JSON value at path, or nil when nothing is stored there.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Set replaces the value at path. A nil value deletes it.
	Set(ctx context.Context, path string, value any) error
	// Update applies every path/value pair as one atomic unit.
	Update(ctx context.Context, values map[string]any) error
	// Transact performs a read-modify-write of path that is atomic with respect
	// to every other write. It returns the value left at path.
	Transact(ctx context.Context, path string, fn TransactFunc) (json.RawMessage, error)
	// Subscribe calls fn with the current value at path and again, in order,
	// each time it changes.
	Subscribe(ctx context.Context, path string, fn func(json.RawMessage)) (Subscription, error)
}

type Subscription interface {
	Close()
}

// RoomPath builds a path below rooms/{roomID}.
func RoomPath(roomID string, parts ...string) string {
	all := make([]string, 0, len(parts)+2)
	all = append(all, RoomsRoot, roomID)
	all = append(all, parts...)
	return strings.Join(all, "/")
}

func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	parts := strings.Split(trimmed, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		if strings.ContainsAny(part, "#$[]") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return parts, nil
}

// roomKey extracts the room id from a path below the rooms namespace.
func roomKey(parts []string) (string, bool) {
	if len(parts) < 2 || parts[0] != RoomsRoot {
		return "", false
	}
	return parts[1], true
}
