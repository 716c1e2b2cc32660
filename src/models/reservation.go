package models

import (
	"time"

	"ticketbooth/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Reservation struct {
	ID     uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID               `gorm:"type:uuid;index;not null" json:"userId"`
	Status types.ReservationStatus `gorm:"size:16;index;default:'pending'" json:"status"`
	// PaymentStartedAt is set while a charge is in flight and cleared once it settles.
	PaymentStartedAt *time.Time `gorm:"index" json:"-"`

	User    *User               `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Items   []ReservationTicket `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payment *Payment            `gorm:"constraint:OnDelete:CASCADE" json:"payment,omitempty"`

	// Tickets are the currently held tickets, derived from the active Items.
	Tickets []*Ticket `gorm:"-" json:"tickets"`

	types.Timestamps
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// AfterFind fills Tickets from the preloaded active items.
func (r *Reservation) AfterFind(tx *gorm.DB) error {
	r.Tickets = make([]*Ticket, 0, len(r.Items))
	for i := range r.Items {
		if r.Items[i].Active() && r.Items[i].Ticket != nil {
			r.Tickets = append(r.Tickets, r.Items[i].Ticket)
		}
	}
	return nil
}

func (r *Reservation) Cancelled() bool {
	return r.Status == types.RESERVATION_CANCELLED
}

func (r *Reservation) OwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// Total sums the prices of the tickets still held by the reservation.
func (r *Reservation) Total() decimal.Decimal {
	total := decimal.Zero
	for _, t := range r.Tickets {
		total = total.Add(t.Price)
	}
	return total
}

// EventID is the event of the first held ticket, falling back to released ones.
func (r *Reservation) EventID() uuid.UUID {
	if len(r.Tickets) > 0 {
		return r.Tickets[0].EventID
	}
	for _, item := range r.Items {
		if item.Ticket != nil {
			return item.Ticket.EventID
		}
	}
	return uuid.Nil
}

func (r *Reservation) TicketIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Tickets))
	for _, t := range r.Tickets {
		ids = append(ids, t.ID)
	}
	return ids
}
