package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is an append-only notification record consumed by the change-feed
// relay. It does not use BaseModel because rows are never updated.
type Event struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Timestamp     time.Time  `json:"timestamp" gorm:"not null;index"`
	ObjID         *uuid.UUID `json:"obj_id,omitempty" gorm:"type:uuid"`
	UserID        uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	InterestedIDs []string   `json:"interested_ids" gorm:"type:text;serializer:json"`
	Title         string     `json:"title" gorm:"type:text;not null"`
	Content       string     `json:"content" gorm:"type:text"`
}

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}
