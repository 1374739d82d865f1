package db

import (
	"time"

	"gorm.io/datatypes"
)

// Room holds one room record as a JSON document. Version increases on every
// write of the row.
type Room struct {
	Code      string         `gorm:"primaryKey;size:12"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	Version   int64          `gorm:"not null;default:1"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
