package models

import (
	"ticketbooth/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	ReservationID uuid.UUID           `gorm:"type:uuid;uniqueIndex;not null" json:"reservationId"`
	Amount        decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency      string              `gorm:"size:3" json:"currency"`
	Status        types.PaymentStatus `gorm:"size:16;index;default:'pending'" json:"status"`
	Gateway       string              `gorm:"size:32" json:"gateway,omitempty"`
	GatewayRef    string              `json:"gatewayRef,omitempty"`
	FailureReason string              `json:"failureReason,omitempty"`
	Attempts      int                 `gorm:"default:0" json:"attempts"`

	types.Timestamps
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Payment) Completed() bool {
	return p.Status == types.PAYMENT_COMPLETED
}
