package models

import (
	"ticketbooth/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Ticket struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	EventID       uuid.UUID          `gorm:"type:uuid;index:idx_tickets_tier;not null" json:"eventId"`
	Price         decimal.Decimal    `gorm:"type:numeric(12,2);index:idx_tickets_tier;not null" json:"price"`
	Currency      string             `gorm:"size:3;default:'usd'" json:"currency"`
	Status        types.TicketStatus `gorm:"size:16;index;default:'available'" json:"status"`
	ReservationID *uuid.UUID         `gorm:"type:uuid;index" json:"reservationId,omitempty"`

	Event *Event `gorm:"constraint:OnDelete:RESTRICT" json:"event,omitempty"`

	types.Timestamps
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Ticket) Available() bool {
	return t.Status == types.TICKET_AVAILABLE
}
