package scopes

import (
	"time"

	"ticketbooth/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func WithID(id uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithIDs(ids ...uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", ids)
	}
}

func WithPendingStatus(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", types.RESERVATION_PENDING)
}

func NotCancelled(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ?", types.RESERVATION_CANCELLED)
}

// NoPaymentInFlight skips reservations with a charge started after since.
func NoPaymentInFlight(since time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("payment_started_at IS NULL OR payment_started_at < ?", since)
	}
}

// ActiveItems limits reservation_tickets to links that were never released.
func ActiveItems(db *gorm.DB) *gorm.DB {
	return db.Where("reservation_tickets.released_at IS NULL")
}

func OrderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("reservation_tickets.created_at ASC")
}
