package main

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"hear-me-out/internal/db"

	"gorm.io/datatypes"
)

func TestWriteEvents(t *testing.T) {
	player := "player_1"
	events := []db.Event{
		{ID: 1, RoomCode: "ABCD", PlayerID: &player, Type: "room_created", Payload: datatypes.JSON(`{"player":"Ada, the host"}`), CreatedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)},
		{ID: 2, RoomCode: "ABCD", Type: "drawing_started", Payload: datatypes.JSON(`{"phase":"DRAWING_PITCHING"}`), CreatedAt: time.Date(2026, 10, 19, 12, 5, 0, 0, time.UTC)},
	}
	var buf bytes.Buffer
	if err := writeEvents(&buf, events); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[1][2] != "room_created" || rows[1][3] != "player_1" || rows[1][4] != `{"player":"Ada, the host"}` {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if rows[2][3] != "" || rows[2][1] != "2026-10-19T12:05:00Z" {
		t.Fatalf("unexpected second row %v", rows[2])
	}
}
