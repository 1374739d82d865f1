package server

import (
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hear-me-out/internal/config"
	"hear-me-out/internal/game"
	"hear-me-out/internal/roomstore"

	"github.com/jonboulle/clockwork"
)

type testApp struct {
	ts     *httptest.Server
	srv    *Server
	engine *game.Engine
	clock  *clockwork.FakeClock
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *testApp {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	engine := game.New(roomstore.NewMemory(), cfg,
		game.WithClock(clock),
		game.WithShuffler(game.NewShuffler(rand.New(rand.NewPCG(9, 4)))),
	)
	t.Cleanup(engine.Close)
	srv := New(engine, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)
	return &testApp{ts: ts, srv: srv, engine: engine, clock: clock}
}
