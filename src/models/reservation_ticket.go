package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationTicket links a ticket to a reservation. The row is kept after a
// release so that partial cancellations leave a history.
type ReservationTicket struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReservationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"reservationId"`
	TicketID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"ticketId"`
	ReleasedAt    *time.Time `json:"releasedAt,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`

	Ticket *Ticket `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

func (rt *ReservationTicket) BeforeCreate(tx *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}

func (rt *ReservationTicket) Active() bool {
	return rt.ReleasedAt == nil
}
