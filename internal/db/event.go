package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomCode  string         `gorm:"size:12;index;not null"`
	PlayerID  *string        `gorm:"size:64;index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

// EventLog appends room events to the events table.
type EventLog struct {
	conn *gorm.DB
}

func NewEventLog(conn *gorm.DB) *EventLog {
	return &EventLog{conn: conn}
}

func (l *EventLog) Record(ctx context.Context, roomID, playerID, eventType string, payload any) error {
	if l == nil || l.conn == nil {
		return errors.New("db connection is nil")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := Event{
		RoomCode: roomID,
		Type:     eventType,
		Payload:  datatypes.JSON(data),
	}
	if playerID != "" {
		event.PlayerID = &playerID
	}
	return l.conn.WithContext(ctx).Create(&event).Error
}

// RoomEvents lists the events of a room oldest first.
func (l *EventLog) RoomEvents(ctx context.Context, roomID string) ([]Event, error) {
	if l == nil || l.conn == nil {
		return nil, errors.New("db connection is nil")
	}
	var events []Event
	err := l.conn.WithContext(ctx).
		Where("room_code = ?", roomID).
		Order("id asc").
		Find(&events).Error
	return events, err
}
