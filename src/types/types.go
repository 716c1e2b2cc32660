package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Timestamps carries no DeletedAt: reservations, tickets and payments are never
// soft-deleted, so queries must always see every row.
type Timestamps struct {
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type TicketStatus string

const (
	TICKET_AVAILABLE TicketStatus = "available"
	TICKET_BOOKED    TicketStatus = "booked"
)

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_CANCELLED ReservationStatus = "cancelled"
)

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_COMPLETED PaymentStatus = "completed"
	PAYMENT_FAILED    PaymentStatus = "failed"
)

type Role string

const (
	ROLE_ADMIN     Role = "Admin"
	ROLE_ORGANIZER Role = "Organizer"
	ROLE_CUSTOMER  Role = "Customer"
)

// ParseRole accepts role names case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, r := range []Role{ROLE_ADMIN, ROLE_ORGANIZER, ROLE_CUSTOMER} {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

// Principal is the authenticated caller as handed over by the auth layer.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) Authenticated() bool {
	return p.UserID != uuid.Nil && p.Role != ""
}

func (p Principal) Is(role Role) bool {
	return p.Role == role
}

type ReservationTicket struct {
	TicketID uuid.UUID `json:"ticketId" binding:"required"`
	Quantity int       `json:"quantity" binding:"omitempty,min=1,max=50"`
}

type CreateReservationRequestBody struct {
	Tickets []ReservationTicket `json:"tickets" binding:"required,min=1,max=20,dive"`
}

type CancelReservationRequestBody struct {
	Quantity *int `json:"quantity" binding:"omitempty,min=0"`
}

type CreatePaymentRequestBody struct {
	ReservationID uuid.UUID       `json:"reservationId" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required,gt=0"`
}

type CreateTicketsRequestBody struct {
	EventID  uuid.UUID       `json:"eventId" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required,gt=0"`
	Count    int             `json:"count" binding:"omitempty,min=1,max=1000"`
	Currency string          `json:"currency" binding:"omitempty,len=3"`
}

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type Availability struct {
	EventID   uuid.UUID `json:"eventId"`
	Available int64     `json:"available"`
	Booked    int64     `json:"booked"`
}
