package roomstore

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// subscriber delivers values to a callback on its own goroutine, in the order
// they were queued, skipping values equal to the last one delivered.
type subscriber struct {
	id     string
	path   []string
	fn     func(json.RawMessage)
	remove func(id string)

	mu    sync.Mutex
	queue []json.RawMessage

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscriber(path []string, fn func(json.RawMessage), remove func(id string)) *subscriber {
	return &subscriber{
		id:     uuid.NewString(),
		path:   path,
		fn:     fn,
		remove: remove,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *subscriber) start(ctx context.Context) {
	go s.run()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
}

func (s *subscriber) enqueue(value json.RawMessage) {
	s.mu.Lock()
	s.queue = append(s.queue, value)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	var (
		last      json.RawMessage
		delivered bool
	)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		s.mu.Lock()
		pending := s.queue
		s.queue = nil
		s.mu.Unlock()
		for _, value := range pending {
			select {
			case <-s.done:
				return
			default:
			}
			if delivered && bytes.Equal(last, value) {
				continue
			}
			last = value
			delivered = true
			s.fn(value)
		}
	}
}

func (s *subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.remove != nil {
			s.remove(s.id)
		}
	})
}
