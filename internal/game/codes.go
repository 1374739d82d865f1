package game

import (
	"crypto/rand"
	"errors"
	"strings"

	"hear-me-out/internal/config"

	"github.com/google/uuid"
)

const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newRoomCode draws length characters from an alphabet without look-alike
// characters. The alphabet has 32 symbols, so byte%32 is unbiased.
func newRoomCode(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("room code length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeRoomID accepts codes typed in any case with stray whitespace.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func validRoomID(id string) bool {
	if id == "" || len(id) > config.MaxRoomCodeLength {
		return false
	}
	for _, r := range id {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// NewPlayerID returns a fresh stable player identifier.
func NewPlayerID() string {
	return "player_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// ValidPlayerID reports whether id is usable as a path segment and cookie value.
func ValidPlayerID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
