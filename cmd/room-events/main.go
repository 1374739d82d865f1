package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"strconv"
	"time"

	"hear-me-out/internal/config"
	"hear-me-out/internal/db"
	"hear-me-out/internal/game"
	"hear-me-out/internal/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	room := flag.String("room", "", "room code")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.SetupWriter(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	code := game.NormalizeRoomID(*room)
	if code == "" {
		log.Fatal().Msg("room code is required")
	}
	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	events, err := db.NewEventLog(conn).RoomEvents(ctx, code)
	if err != nil {
		log.Fatal().Err(err).Str("room_id", code).Msg("failed to read events")
	}
	if err := writeEvents(os.Stdout, events); err != nil {
		log.Fatal().Err(err).Msg("failed to write events")
	}
	log.Info().Str("room_id", code).Int("events", len(events)).Msg("exported room events")
}

func writeEvents(out io.Writer, events []db.Event) error {
	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"id", "created_at", "type", "player_id", "payload"}); err != nil {
		return err
	}
	for _, event := range events {
		playerID := ""
		if event.PlayerID != nil {
			playerID = *event.PlayerID
		}
		row := []string{
			strconv.FormatUint(uint64(event.ID), 10),
			event.CreatedAt.UTC().Format(time.RFC3339),
			event.Type,
			playerID,
			string(event.Payload),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
