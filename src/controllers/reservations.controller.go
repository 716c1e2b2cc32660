package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ticketbooth/src/inventory"
	"ticketbooth/src/lib"
	"ticketbooth/src/models"
	"ticketbooth/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationManager struct {
	db        *gorm.DB
	inventory *inventory.Store
	events    lib.Publisher
}

func NewReservationManager(db *gorm.DB, store *inventory.Store, events lib.Publisher) *ReservationManager {
	return &ReservationManager{db: db, inventory: store, events: events}
}

// CreateReservation holds the selected tickets for a customer. Either every
// ticket is booked for the new reservation or nothing is written.
func (m *ReservationManager) CreateReservation(ctx context.Context, principal types.Principal, selections []types.ReservationTicket) (*models.Reservation, error) {
	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	if !principal.Is(types.ROLE_CUSTOMER) {
		return nil, types.NewForbiddenError("Only customers can reserve tickets")
	}

	tickets, err := m.resolveSelections(ctx, principal.UserID, selections)
	if err != nil {
		if types.IsKind(err, types.ErrConflict) {
			lib.ReservationConflicts.WithLabelValues("check").Inc()
		}
		return nil, err
	}

	reservation := models.Reservation{
		ID:     uuid.New(),
		UserID: principal.UserID,
		Status: types.RESERVATION_PENDING,
	}
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reservation).Error; err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		store := m.inventory.WithTx(tx)
		items := make([]models.ReservationTicket, 0, len(tickets))
		for _, ticket := range tickets {
			if err := store.Book(ctx, ticket.ID, reservation.ID); err != nil {
				if errors.Is(err, inventory.ErrTicketUnavailable) {
					return types.NewConflictError("Ticket is no longer available").Wrap(err)
				}
				return err
			}
			items = append(items, models.ReservationTicket{ReservationID: reservation.ID, TicketID: ticket.ID})
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("link reservation tickets: %w", err)
		}
		return nil
	})
	if err != nil {
		if types.IsKind(err, types.ErrConflict) {
			lib.ReservationConflicts.WithLabelValues("commit").Inc()
		} else {
			log.Printf("[RESERVATIONS] Error creating reservation: %s\n", err.Error())
		}
		return nil, err
	}
	lib.ReservationsCreated.Inc()

	created, err := loadReservation(ctx, m.db, reservation.ID)
	if err != nil {
		return nil, err
	}
	evt := lib.NewReservationEvent(lib.RESERVATION_CREATED, created.ID, created.UserID, created.Status)
	evt.EventID = created.EventID()
	evt.TicketIDs = created.TicketIDs()
	lib.Emit(ctx, m.events, evt)
	return created, nil
}

// resolveSelections expands the request into concrete tickets. Every check
// that can be made without mutating state happens here.
func (m *ReservationManager) resolveSelections(ctx context.Context, userID uuid.UUID, selections []types.ReservationTicket) ([]*models.Ticket, error) {
	if len(selections) == 0 {
		return nil, types.NewValidationError("Validation Error", types.FieldError{Field: "tickets", Message: "at least one ticket is required"})
	}

	requested := make([]uuid.UUID, 0, len(selections))
	seen := make(map[uuid.UUID]bool, len(selections))
	for i, sel := range selections {
		field := fmt.Sprintf("tickets[%d]", i)
		if sel.TicketID == uuid.Nil {
			return nil, types.NewValidationError("Validation Error", types.FieldError{Field: field + ".ticketId", Message: "is required"})
		}
		if sel.Quantity < 0 {
			return nil, types.NewValidationError("Validation Error", types.FieldError{Field: field + ".quantity", Message: "must be at least 1"})
		}
		if seen[sel.TicketID] {
			return nil, types.NewValidationError("Validation Error", types.FieldError{Field: field + ".ticketId", Message: "is listed more than once"})
		}
		seen[sel.TicketID] = true
		requested = append(requested, sel.TicketID)
	}

	found, err := m.inventory.FindTickets(ctx, requested)
	if err != nil {
		return nil, err
	}

	checkedEvents := make(map[uuid.UUID]bool)
	claimed := make([]*models.Ticket, 0, len(selections))
	exclude := append([]uuid.UUID(nil), requested...)
	for _, sel := range selections {
		ticket, ok := found[sel.TicketID]
		if !ok {
			return nil, types.NewNotFoundError(fmt.Sprintf("Ticket %s not found", sel.TicketID))
		}
		if !checkedEvents[ticket.EventID] {
			if _, err := m.inventory.FindEvent(ctx, ticket.EventID); err != nil {
				if errors.Is(err, inventory.ErrEventNotFound) {
					return nil, types.NewNotFoundError("Event not found")
				}
				return nil, err
			}
			checkedEvents[ticket.EventID] = true
		}

		held, err := m.holdsTicket(ctx, userID, ticket.ID)
		if err != nil {
			return nil, err
		}
		if held {
			return nil, types.NewConflictError("You already have a reservation for this ticket")
		}
		if !ticket.Available() {
			return nil, types.NewConflictError("Ticket is not available for reservation")
		}
		claimed = append(claimed, ticket)

		extra := sel.Quantity - 1
		if extra <= 0 {
			continue
		}
		siblings, err := m.inventory.Siblings(ctx, ticket, exclude, extra)
		if err != nil {
			return nil, err
		}
		if len(siblings) < extra {
			return nil, types.NewConflictError(fmt.Sprintf("Only %d tickets available in this tier", len(siblings)+1))
		}
		for _, s := range siblings {
			exclude = append(exclude, s.ID)
		}
		claimed = append(claimed, siblings...)
	}
	return claimed, nil
}

func (m *ReservationManager) holdsTicket(ctx context.Context, userID, ticketID uuid.UUID) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).Model(&models.ReservationTicket{}).
		Joins("JOIN reservations ON reservations.id = reservation_tickets.reservation_id").
		Where("reservation_tickets.ticket_id = ? AND reservation_tickets.released_at IS NULL", ticketID).
		Where("reservations.user_id = ? AND reservations.status <> ?", userID, types.RESERVATION_CANCELLED).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check existing holds: %w", err)
	}
	return count > 0, nil
}

// ListReservations returns the caller's reservations; admins and organizers see all of them.
func (m *ReservationManager) ListReservations(ctx context.Context, principal types.Principal) ([]models.Reservation, error) {
	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	q := m.db.WithContext(ctx).Scopes(withReservationDetails).Order("created_at DESC")
	if principal.Is(types.ROLE_CUSTOMER) {
		q = q.Where("user_id = ?", principal.UserID)
	}
	reservations := []models.Reservation{}
	if err := q.Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

func (m *ReservationManager) GetReservation(ctx context.Context, principal types.Principal, id uuid.UUID) (*models.Reservation, error) {
	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	reservation, err := loadReservation(ctx, m.db, id)
	if err != nil {
		return nil, err
	}
	if !reservation.OwnedBy(principal.UserID) && principal.Is(types.ROLE_CUSTOMER) {
		return nil, types.NewForbiddenError("You can only view your own reservations")
	}
	return reservation, nil
}

// CountConfirmed counts the caller's paid reservations.
func (m *ReservationManager) CountConfirmed(ctx context.Context, principal types.Principal) (int64, error) {
	if err := requireAuthenticated(principal); err != nil {
		return 0, err
	}
	var count int64
	err := m.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("user_id = ? AND status = ?", principal.UserID, types.RESERVATION_CONFIRMED).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}
