package controllers

import (
	"context"
	"errors"
	"fmt"

	"ticketbooth/src/models"
	"ticketbooth/src/models/scopes"
	"ticketbooth/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func withReservationDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", scopes.OrderedItems).
		Preload("Items.Ticket").
		Preload("Payment")
}

func loadReservation(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := db.WithContext(ctx).
		Scopes(withReservationDetails, scopes.WithID(id)).
		First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFoundError("Reservation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load reservation %s: %w", id, err)
	}
	return &reservation, nil
}

func requireAuthenticated(principal types.Principal) error {
	if !principal.Authenticated() {
		return types.NewUnauthorizedError("User not authenticated")
	}
	return nil
}
