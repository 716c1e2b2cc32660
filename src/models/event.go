package models

import (
	"time"

	"ticketbooth/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `json:"title,omitempty"`
	Location    string     `json:"location,omitempty"`
	OrganizerID uuid.UUID  `gorm:"type:uuid;index" json:"organizerId"`
	StartsAt    *time.Time `json:"startsAt,omitempty"`

	types.Timestamps
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
