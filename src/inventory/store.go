// Package inventory owns ticket status. Every transition between available and
// booked goes through a conditional update so that two reservations can never
// hold the same ticket.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"ticketbooth/src/models"
	"ticketbooth/src/models/scopes"
	"ticketbooth/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrTicketUnavailable = errors.New("ticket is not available")
	ErrEventNotFound     = errors.New("event not found")
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store whose statements run inside tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) FindTickets(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Ticket, error) {
	found := make(map[uuid.UUID]*models.Ticket, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var tickets []*models.Ticket
	if err := s.db.WithContext(ctx).Scopes(scopes.WithIDs(ids...)).Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("find tickets: %w", err)
	}
	for _, t := range tickets {
		found[t.ID] = t
	}
	return found, nil
}

func (s *Store) FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

// Siblings returns up to limit available tickets from the same tier as t
// (same event, same price), skipping the ids in exclude.
func (s *Store) Siblings(ctx context.Context, t *models.Ticket, exclude []uuid.UUID, limit int) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	if limit <= 0 {
		return tickets, nil
	}
	q := s.db.WithContext(ctx).
		Where("event_id = ? AND price = ? AND status = ?", t.EventID, t.Price, types.TICKET_AVAILABLE)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	if err := q.Order("created_at ASC").Limit(limit).Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("find tier tickets: %w", err)
	}
	return tickets, nil
}

// Book claims an available ticket for a reservation. It returns
// ErrTicketUnavailable when another writer got there first.
func (s *Store) Book(ctx context.Context, ticketID, reservationID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND status = ?", ticketID, types.TICKET_AVAILABLE).
		Updates(map[string]any{
			"status":         types.TICKET_BOOKED,
			"reservation_id": reservationID,
		})
	if res.Error != nil {
		return fmt.Errorf("book ticket %s: %w", ticketID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTicketUnavailable
	}
	return nil
}

// Confirm re-asserts booked status on the tickets still linked to the
// reservation. Tickets already booked are left as they are.
func (s *Store) Confirm(ctx context.Context, reservationID uuid.UUID, ticketIDs []uuid.UUID) (int64, error) {
	if len(ticketIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id IN ? AND reservation_id = ? AND status <> ?", ticketIDs, reservationID, types.TICKET_BOOKED).
		Update("status", types.TICKET_BOOKED)
	if res.Error != nil {
		return 0, fmt.Errorf("confirm tickets: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Release returns tickets to the pool. Only tickets still linked to the
// reservation are touched; the count of released rows is returned.
func (s *Store) Release(ctx context.Context, reservationID uuid.UUID, ticketIDs []uuid.UUID) (int64, error) {
	if len(ticketIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id IN ? AND reservation_id = ? AND status = ?", ticketIDs, reservationID, types.TICKET_BOOKED).
		Updates(map[string]any{
			"status":         types.TICKET_AVAILABLE,
			"reservation_id": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("release tickets: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CreateTier adds count available tickets at one price to an event.
func (s *Store) CreateTier(ctx context.Context, eventID uuid.UUID, price decimal.Decimal, currency string, count int) ([]models.Ticket, error) {
	if _, err := s.FindEvent(ctx, eventID); err != nil {
		return nil, err
	}
	tickets := make([]models.Ticket, count)
	for i := range tickets {
		tickets[i] = models.Ticket{
			EventID:  eventID,
			Price:    price.Round(2),
			Currency: currency,
			Status:   types.TICKET_AVAILABLE,
		}
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&tickets, 200).Error; err != nil {
		return nil, fmt.Errorf("create tickets: %w", err)
	}
	return tickets, nil
}

func (s *Store) Availability(ctx context.Context, eventID uuid.UUID) (*types.Availability, error) {
	if _, err := s.FindEvent(ctx, eventID); err != nil {
		return nil, err
	}
	var rows []struct {
		Status types.TicketStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Select("status, COUNT(*) AS count").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}

	availability := &types.Availability{EventID: eventID}
	for _, row := range rows {
		switch row.Status {
		case types.TICKET_AVAILABLE:
			availability.Available = row.Count
		case types.TICKET_BOOKED:
			availability.Booked = row.Count
		}
	}
	return availability, nil
}
