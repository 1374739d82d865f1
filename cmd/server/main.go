package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hear-me-out/internal/config"
	"hear-me-out/internal/db"
	"hear-me-out/internal/game"
	"hear-me-out/internal/logger"
	"hear-me-out/internal/roomstore"
	"hear-me-out/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, opts, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("room store setup failed")
	}
	engine := game.New(store, cfg, opts...)
	defer engine.Close()

	srv := server.New(engine, cfg)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", httpServer.Addr).Str("backend", cfg.StoreBackend).Msg("hear-me-out server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server shut down")
}

func openStore(ctx context.Context, cfg config.Config) (roomstore.Store, []game.Option, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return roomstore.NewMemory(), nil, nil
	case config.StorePostgres:
		conn, err := db.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		store := roomstore.NewPostgres(conn, cfg.NotifyChannel)
		go func() {
			if err := store.Listen(ctx, cfg.DatabaseURL); err != nil {
				log.Error().Err(err).Msg("room change listener stopped")
			}
		}()
		return store, []game.Option{game.WithEventSink(db.NewEventLog(conn))}, nil
	}
	return nil, nil, errors.New("unknown STORE_BACKEND " + cfg.StoreBackend)
}
