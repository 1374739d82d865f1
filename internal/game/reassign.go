package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
)

// Shuffler permutes ids in place. Implementations must be unbiased.
type Shuffler func(ids []string)

func defaultShuffle(ids []string) {
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// NewShuffler wraps a seeded source; *rand.Rand is not safe for concurrent use.
func NewShuffler(r *rand.Rand) Shuffler {
	var mu sync.Mutex
	return func(ids []string) {
		mu.Lock()
		defer mu.Unlock()
		r.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})
	}
}

var errTooFewPlayers = errors.New("reassignment needs at least two players")

// Reassign shuffles the players into a ring and hands each one the invention of
// the next player in the ring. An offset of one in a ring of two or more never
// maps a player onto itself, and every invention is used exactly once.
func Reassign(playerIDs []string, inventions map[string]Invention, shuffle Shuffler) (map[string]Assignment, error) {
	n := len(playerIDs)
	if n < 2 {
		return nil, errTooFewPlayers
	}
	if shuffle == nil {
		shuffle = defaultShuffle
	}
	ring := slices.Clone(playerIDs)
	shuffle(ring)

	assignments := make(map[string]Assignment, n)
	for i, playerID := range ring {
		ownerID := ring[(i+1)%n]
		invention, ok := inventions[ownerID]
		if !ok {
			return nil, fmt.Errorf("missing invention for player %s", ownerID)
		}
		authorID := invention.AuthorID
		if authorID == "" {
			authorID = ownerID
		}
		if _, dup := assignments[playerID]; dup {
			return nil, fmt.Errorf("duplicate player %s", playerID)
		}
		assignments[playerID] = Assignment{
			Invention:        invention.Text,
			OriginalAuthorID: authorID,
		}
	}
	return assignments, nil
}

func presentationOrder(assignments map[string]Assignment, shuffle Shuffler) []string {
	order := make([]string, 0, len(assignments))
	for playerID := range assignments {
		order = append(order, playerID)
	}
	slices.Sort(order)
	shuffle(order)
	return order
}
