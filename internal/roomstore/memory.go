package roomstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Memory is a process-local Store. Every write is serialized behind one mutex,
// which also makes Update and Transact atomic.
type Memory struct {
	mu   sync.Mutex
	root map[string]any
	subs map[string]*subscriber
}

func NewMemory() *Memory {
	return &Memory{
		root: make(map[string]any),
		subs: make(map[string]*subscriber),
	}
}

func (m *Memory) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return encodeNode(getNode(m.root, parts))
}

func (m *Memory) Set(ctx context.Context, path string, value any) error {
	return m.Update(ctx, map[string]any{path: value})
}

func (m *Memory) Update(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	type write struct {
		parts []string
		value any
	}
	writes := make([]write, 0, len(values))
	for path, value := range values {
		parts, err := splitPath(path)
		if err != nil {
			return err
		}
		normalized, err := normalize(value)
		if err != nil {
			return err
		}
		writes = append(writes, write{parts: parts, value: normalized})
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := make([][]string, 0, len(writes))
	for _, w := range writes {
		setNode(m.root, w.parts, w.value)
		changed = append(changed, w.parts)
	}
	m.notifyLocked(changed)
	return nil
}

func (m *Memory) Transact(ctx context.Context, path string, fn TransactFunc) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, err := encodeNode(getNode(m.root, parts))
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if errors.Is(err, ErrNoChange) {
		return current, nil
	}
	if err != nil {
		return nil, err
	}
	normalized, err := normalize(next)
	if err != nil {
		return nil, err
	}
	setNode(m.root, parts, normalized)
	m.notifyLocked([][]string{parts})
	return encodeNode(normalized)
}

func (m *Memory) Subscribe(ctx context.Context, path string, fn func(json.RawMessage)) (Subscription, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	sub := newSubscriber(parts, fn, m.unsubscribe)
	m.mu.Lock()
	current, err := encodeNode(getNode(m.root, parts))
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.subs[sub.id] = sub
	sub.enqueue(current)
	m.mu.Unlock()
	sub.start(ctx)
	return sub, nil
}

func (m *Memory) unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
}

// notifyLocked queues the new value for every subscriber whose path overlaps a
// changed path. Queuing under m.mu keeps each subscriber's view in write order.
func (m *Memory) notifyLocked(changed [][]string) {
	for _, sub := range m.subs {
		for _, parts := range changed {
			if !overlaps(sub.path, parts) {
				continue
			}
			value, err := encodeNode(getNode(m.root, sub.path))
			if err != nil {
				break
			}
			sub.enqueue(value)
			break
		}
	}
}
