package roomstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemorySetGetRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	text := "  A toaster   that\tsings lullabies  "
	if err := store.Set(ctx, "rooms/ABCD/inventions/p1", map[string]string{"text": text, "authorId": "p1"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, err := store.Get(ctx, "rooms/ABCD/inventions/p1/text")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != text {
		t.Fatalf("expected %q, got %q", text, got)
	}
}

func TestMemoryGetAbsent(t *testing.T) {
	store := NewMemory()
	raw, err := store.Get(context.Background(), "rooms/NOPE")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if raw != nil {
		t.Fatalf("expected nil for absent path, got %s", raw)
	}
}

func TestMemorySetNilDeletesAndPrunes(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	if err := store.Set(ctx, "rooms/ABCD/players/p1", map[string]string{"id": "p1"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "rooms/ABCD/players/p1", nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	raw, err := store.Get(ctx, "rooms/ABCD")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if raw != nil {
		t.Fatalf("expected empty room to be pruned, got %s", raw)
	}
}

func TestMemoryUpdateIsAtomicForSubscribers(t *testing.T) {
	store := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var (
		mu     sync.Mutex
		values []map[string]any
	)
	_, err := store.Subscribe(ctx, "rooms/ABCD", func(raw json.RawMessage) {
		var value map[string]any
		_ = json.Unmarshal(raw, &value)
		mu.Lock()
		values = append(values, value)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := store.Update(ctx, map[string]any{
		"rooms/ABCD/phase":        "DRAWING_PITCHING",
		"rooms/ABCD/roundEndTime": 1700000000000,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(values) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if values[0] != nil {
		t.Fatalf("expected initial absent value, got %#v", values[0])
	}
	last := values[1]
	if last["phase"] != "DRAWING_PITCHING" || last["roundEndTime"] == nil {
		t.Fatalf("expected both fields in one delivery, got %#v", last)
	}
}

func TestMemoryTransactNoChange(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	if err := store.Set(ctx, "rooms/ABCD/phase", "LOBBY"); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, err := store.Transact(ctx, "rooms/ABCD/phase", func(current json.RawMessage) (any, error) {
		return nil, ErrNoChange
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}
	if string(raw) != `"LOBBY"` {
		t.Fatalf("expected current value back, got %s", raw)
	}
}

func TestMemoryTransactErrorLeavesValue(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	if err := store.Set(ctx, "rooms/ABCD/phase", "LOBBY"); err != nil {
		t.Fatalf("set: %v", err)
	}
	boom := errors.New("boom")
	_, err := store.Transact(ctx, "rooms/ABCD/phase", func(current json.RawMessage) (any, error) {
		return "GAME_OVER", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	raw, _ := store.Get(ctx, "rooms/ABCD/phase")
	if string(raw) != `"LOBBY"` {
		t.Fatalf("expected value untouched, got %s", raw)
	}
}

func TestMemoryTransactSerializesCounters(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Transact(ctx, "rooms/ABCD/counter", func(current json.RawMessage) (any, error) {
				var n int
				if current != nil {
					if err := json.Unmarshal(current, &n); err != nil {
						return nil, err
					}
				}
				return n + 1, nil
			})
			if err != nil {
				t.Errorf("transact: %v", err)
			}
		}()
	}
	wg.Wait()

	raw, _ := store.Get(ctx, "rooms/ABCD/counter")
	if string(raw) != "50" {
		t.Fatalf("expected 50 increments, got %s", raw)
	}
}

func TestMemorySubscribeOrderAndDedupe(t *testing.T) {
	store := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var (
		mu   sync.Mutex
		seen []string
	)
	sub, err := store.Subscribe(ctx, "rooms/ABCD/phase", func(raw json.RawMessage) {
		mu.Lock()
		seen = append(seen, string(raw))
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	for _, phase := range []string{"LOBBY", "LOBBY", "SUBMITTING_INVENTIONS", "DRAWING_PITCHING"} {
		if err := store.Set(ctx, "rooms/ABCD/phase", phase); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	// unrelated sibling must not produce a delivery
	if err := store.Set(ctx, "rooms/ABCD/players/p1/name", "Ada"); err != nil {
		t.Fatalf("set sibling: %v", err)
	}

	want := []string{"", `"LOBBY"`, `"SUBMITTING_INVENTIONS"`, `"DRAWING_PITCHING"`}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= len(want)
	})
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(want) {
		t.Fatalf("expected %d deliveries, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("delivery %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
}

func TestMemorySubscriptionCloseStopsDelivery(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	var (
		mu    sync.Mutex
		count int
	)
	sub, err := store.Subscribe(ctx, "rooms/ABCD", func(json.RawMessage) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	})
	sub.Close()
	sub.Close()

	if err := store.Set(ctx, "rooms/ABCD/phase", "LOBBY"); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("expected no deliveries after close, got %d", count)
	}
	if len(store.subs) != 0 {
		t.Fatalf("expected subscriber removed, got %d", len(store.subs))
	}
}

func TestMemoryRejectsInvalidPaths(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	for _, path := range []string{"", "/", "rooms//x", "rooms/../x", "rooms/a$b"} {
		if err := store.Set(ctx, path, "x"); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("path %q: expected ErrInvalidPath, got %v", path, err)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
