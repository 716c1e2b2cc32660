package controllers

import (
	"context"
	"fmt"
	"log"
	"time"

	"ticketbooth/src/inventory"
	"ticketbooth/src/lib"
	"ticketbooth/src/models"
	"ticketbooth/src/models/scopes"
	"ticketbooth/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CancelResult struct {
	Reservation       *models.Reservation     `json:"reservation"`
	Status            types.ReservationStatus `json:"status"`
	EventID           uuid.UUID               `json:"eventId"`
	ReleasedTicketIDs []uuid.UUID             `json:"releasedTicketIds"`
}

func (r *CancelResult) Cancelled() bool {
	return r.Status == types.RESERVATION_CANCELLED
}

type CancellationManager struct {
	db        *gorm.DB
	inventory *inventory.Store
	events    lib.Publisher
}

func NewCancellationManager(db *gorm.DB, store *inventory.Store, events lib.Publisher) *CancellationManager {
	return &CancellationManager{db: db, inventory: store, events: events}
}

// CancelReservation releases tickets back to the pool. With a positive
// quantity only that many tickets are released and the reservation stays
// open while it still holds any.
func (c *CancellationManager) CancelReservation(ctx context.Context, principal types.Principal, reservationID uuid.UUID, quantity *int) (*CancelResult, error) {
	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	limit := 0
	if quantity != nil {
		if *quantity < 0 {
			return nil, types.NewValidationError("Validation Error", types.FieldError{Field: "quantity", Message: "must not be negative"})
		}
		limit = *quantity
	}

	reservation, err := loadReservation(ctx, c.db, reservationID)
	if err != nil {
		return nil, err
	}
	if !reservation.OwnedBy(principal.UserID) && !principal.Is(types.ROLE_ADMIN) {
		return nil, types.NewForbiddenError("You can only cancel your own reservations")
	}
	if reservation.Cancelled() {
		return nil, types.NewConflictError("Reservation is already cancelled")
	}

	result, err := c.release(ctx, reservation, limit, scopes.NotCancelled)
	if err != nil {
		return nil, err
	}
	lib.TicketsReleased.WithLabelValues("cancel").Add(float64(len(result.ReleasedTicketIDs)))

	kind := lib.RESERVATION_RELEASED
	if result.Cancelled() {
		kind = lib.RESERVATION_CANCELLED
	}
	c.emit(ctx, kind, reservation, result)
	return result, nil
}

// ExpireStale cancels pending reservations created before cutoff. Reservations
// with a charge in flight, or that get paid while being expired, are left alone.
func (c *CancellationManager) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	var ids []uuid.UUID
	err := c.db.WithContext(ctx).Model(&models.Reservation{}).
		Scopes(scopes.WithPendingStatus, scopes.NoPaymentInFlight(time.Now().Add(-PaymentWindow))).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(100).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("find stale reservations: %w", err)
	}

	expired := 0
	for _, id := range ids {
		reservation, err := loadReservation(ctx, c.db, id)
		if err != nil {
			return expired, err
		}
		if reservation.Status != types.RESERVATION_PENDING || (reservation.Payment != nil && reservation.Payment.Completed()) {
			continue
		}
		result, err := c.release(ctx, reservation, 0, scopes.WithPendingStatus)
		if types.IsKind(err, types.ErrConflict) {
			continue
		}
		if err != nil {
			return expired, err
		}
		lib.TicketsReleased.WithLabelValues("expiry").Add(float64(len(result.ReleasedTicketIDs)))
		c.emit(ctx, lib.RESERVATION_EXPIRED, reservation, result)
		expired++
	}
	return expired, nil
}

// release runs one transaction: free the selected tickets, stamp their links
// and cancel the reservation once nothing is left. guard restricts which
// reservation statuses may become cancelled.
func (c *CancellationManager) release(ctx context.Context, reservation *models.Reservation, limit int, guard func(*gorm.DB) *gorm.DB) (*CancelResult, error) {
	eventID := reservation.EventID()
	released := []uuid.UUID{}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		claim := tx.Model(&models.Reservation{}).
			Scopes(scopes.WithID(reservation.ID), guard, scopes.NoPaymentInFlight(now.Add(-PaymentWindow))).
			Update("updated_at", now)
		if claim.Error != nil {
			return fmt.Errorf("lock reservation: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return types.NewConflictError("Reservation is being paid or has changed, please retry")
		}

		var links []models.ReservationTicket
		q := tx.Model(&models.ReservationTicket{}).
			Select("reservation_tickets.*").
			Joins("JOIN tickets ON tickets.id = reservation_tickets.ticket_id").
			Where("reservation_tickets.reservation_id = ?", reservation.ID).
			Scopes(scopes.ActiveItems)
		if limit > 0 {
			q = q.Where("tickets.status = ?", types.TICKET_BOOKED).
				Order("reservation_tickets.created_at DESC").
				Limit(limit)
		}
		if err := q.Find(&links).Error; err != nil {
			return fmt.Errorf("find reservation tickets: %w", err)
		}

		if len(links) > 0 {
			ticketIDs := make([]uuid.UUID, 0, len(links))
			linkIDs := make([]uuid.UUID, 0, len(links))
			for _, link := range links {
				ticketIDs = append(ticketIDs, link.TicketID)
				linkIDs = append(linkIDs, link.ID)
			}
			count, err := c.inventory.WithTx(tx).Release(ctx, reservation.ID, ticketIDs)
			if err != nil {
				return err
			}
			if count != int64(len(ticketIDs)) {
				log.Printf("[CANCELLATIONS] Reservation %s released %d of %d linked tickets\n", reservation.ID, count, len(ticketIDs))
			}
			err = tx.Model(&models.ReservationTicket{}).
				Scopes(scopes.WithIDs(linkIDs...), scopes.ActiveItems).
				Update("released_at", now.UTC()).Error
			if err != nil {
				return fmt.Errorf("stamp released tickets: %w", err)
			}
			released = ticketIDs
		}

		var remaining int64
		err := tx.Model(&models.ReservationTicket{}).
			Where("reservation_id = ? AND released_at IS NULL", reservation.ID).
			Count(&remaining).Error
		if err != nil {
			return fmt.Errorf("count held tickets: %w", err)
		}
		if remaining > 0 {
			return nil
		}
		res := tx.Model(&models.Reservation{}).
			Scopes(scopes.WithID(reservation.ID), guard).
			Update("status", types.RESERVATION_CANCELLED)
		if res.Error != nil {
			return fmt.Errorf("cancel reservation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return types.NewConflictError("Reservation status changed, please retry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := loadReservation(ctx, c.db, reservation.ID)
	if err != nil {
		return nil, err
	}
	return &CancelResult{
		Reservation:       updated,
		Status:            updated.Status,
		EventID:           eventID,
		ReleasedTicketIDs: released,
	}, nil
}

func (c *CancellationManager) emit(ctx context.Context, kind lib.EventType, reservation *models.Reservation, result *CancelResult) {
	evt := lib.NewReservationEvent(kind, reservation.ID, reservation.UserID, result.Status)
	evt.EventID = result.EventID
	evt.TicketIDs = result.ReleasedTicketIDs
	lib.Emit(ctx, c.events, evt)
}
