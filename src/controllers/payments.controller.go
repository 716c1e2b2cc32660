package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ticketbooth/src/inventory"
	"ticketbooth/src/lib"
	"ticketbooth/src/models"
	"ticketbooth/src/models/scopes"
	"ticketbooth/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentWindow bounds one gateway charge. A reservation stays protected from
// cancellation for this long after a charge starts.
const PaymentWindow = 2 * time.Minute

type PaymentProcessor struct {
	db        *gorm.DB
	inventory *inventory.Store
	gateway   lib.Gateway
	events    lib.Publisher
	currency  string
}

func NewPaymentProcessor(db *gorm.DB, store *inventory.Store, gateway lib.Gateway, events lib.Publisher, currency string) *PaymentProcessor {
	return &PaymentProcessor{db: db, inventory: store, gateway: gateway, events: events, currency: currency}
}

// SubmitPayment charges the reservation total and records the outcome. A
// declined charge is stored as a failed payment and reported as a conflict so
// the client can retry.
func (p *PaymentProcessor) SubmitPayment(ctx context.Context, principal types.Principal, reservationID uuid.UUID, amount decimal.Decimal) (*models.Payment, error) {
	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, types.NewValidationError("Validation Error", types.FieldError{Field: "amount", Message: "must be greater than 0"})
	}

	reservation, err := loadReservation(ctx, p.db, reservationID)
	if err != nil {
		return nil, err
	}
	if !reservation.OwnedBy(principal.UserID) {
		return nil, types.NewForbiddenError("You can only pay for your own reservations")
	}
	if reservation.Cancelled() {
		return nil, types.NewConflictError("Cannot process payment for a cancelled reservation")
	}
	if reservation.Payment != nil && reservation.Payment.Completed() {
		return nil, types.NewConflictError("Payment has already been completed for this reservation")
	}
	total := reservation.Total()
	if !amount.Equal(total) {
		return nil, types.NewValidationError("Amount does not match the reservation total", types.FieldError{
			Field:   "amount",
			Message: fmt.Sprintf("must equal %s", total.StringFixed(2)),
		})
	}

	currency := p.currency
	if len(reservation.Tickets) > 0 && reservation.Tickets[0].Currency != "" {
		currency = reservation.Tickets[0].Currency
	}

	payment := models.Payment{
		ReservationID: reservation.ID,
		Amount:        amount,
		Currency:      currency,
		Status:        types.PAYMENT_PENDING,
		Gateway:       p.gateway.Name(),
	}
	if err := p.startAttempt(ctx, &payment); err != nil {
		return nil, err
	}

	chargeCtx, cancel := context.WithTimeout(ctx, PaymentWindow)
	result, err := p.gateway.Charge(chargeCtx, lib.ChargeRequest{
		ReservationID:  reservation.ID,
		CustomerID:     principal.UserID,
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: fmt.Sprintf("%s:%d", reservation.ID, payment.Attempts),
	})
	cancel()
	if err != nil {
		log.Printf("[PAYMENTS] Gateway %s error for reservation %s: %s\n", p.gateway.Name(), reservation.ID, err.Error())
		result = &lib.ChargeResult{Status: types.PAYMENT_FAILED, FailureReason: "payment gateway unavailable"}
	}

	payment.Status = result.Status
	payment.GatewayRef = result.Reference
	payment.FailureReason = result.FailureReason
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := settlePayment(tx, &payment); err != nil {
			return err
		}
		if !result.Succeeded() {
			return nil
		}
		res := tx.Model(&models.Reservation{}).
			Scopes(scopes.WithID(reservation.ID), scopes.NotCancelled).
			Update("status", types.RESERVATION_CONFIRMED)
		if res.Error != nil {
			return fmt.Errorf("confirm reservation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return types.NewConflictError("Reservation was cancelled before the payment completed")
		}
		_, err := p.inventory.WithTx(tx).Confirm(ctx, reservation.ID, reservation.TicketIDs())
		return err
	})
	if err != nil {
		if result.Succeeded() {
			log.Printf("[PAYMENTS] Charge %s settled but not recorded for reservation %s: %s\n", result.Reference, reservation.ID, err.Error())
		}
		return nil, err
	}
	lib.PaymentsProcessed.WithLabelValues(p.gateway.Name(), string(result.Status)).Inc()

	evt := lib.NewReservationEvent(lib.RESERVATION_CONFIRMED, reservation.ID, reservation.UserID, types.RESERVATION_CONFIRMED)
	if !result.Succeeded() {
		evt = lib.NewReservationEvent(lib.RESERVATION_PAYMENT_FAILED, reservation.ID, reservation.UserID, reservation.Status)
	}
	evt.EventID = reservation.EventID()
	evt.TicketIDs = reservation.TicketIDs()
	evt.Amount = &payment.Amount
	lib.Emit(ctx, p.events, evt)

	if !result.Succeeded() {
		return &payment, types.NewConflictError("Payment failed. Please try again.")
	}
	return &payment, nil
}

// startAttempt marks the reservation as being charged and records a pending
// payment. Cancellation and expiry leave the reservation alone until the
// attempt settles or PaymentWindow passes.
func (p *PaymentProcessor) startAttempt(ctx context.Context, payment *models.Payment) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Reservation{}).
			Scopes(scopes.WithID(payment.ReservationID), scopes.NotCancelled, scopes.NoPaymentInFlight(now.Add(-PaymentWindow))).
			Update("payment_started_at", now)
		if res.Error != nil {
			return fmt.Errorf("start payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return types.NewConflictError("Reservation was cancelled or is already being paid")
		}
		return upsertPayment(tx, payment)
	})
}

// settlePayment stores the gateway outcome of the current attempt and clears
// the in-flight marker.
func settlePayment(tx *gorm.DB, payment *models.Payment) error {
	upd := tx.Model(&models.Payment{}).
		Where("id = ? AND status <> ?", payment.ID, types.PAYMENT_COMPLETED).
		Updates(map[string]any{
			"status":         payment.Status,
			"gateway_ref":    payment.GatewayRef,
			"failure_reason": payment.FailureReason,
		})
	if upd.Error != nil {
		return fmt.Errorf("settle payment: %w", upd.Error)
	}
	if upd.RowsAffected == 0 {
		return types.NewConflictError("Payment has already been completed for this reservation")
	}
	err := tx.Model(&models.Reservation{}).
		Scopes(scopes.WithID(payment.ReservationID)).
		Update("payment_started_at", nil).Error
	if err != nil {
		return fmt.Errorf("clear payment marker: %w", err)
	}
	return nil
}

// upsertPayment keeps a single payment row per reservation. A completed row is
// never overwritten.
func upsertPayment(tx *gorm.DB, payment *models.Payment) error {
	var existing models.Payment
	res := tx.Where("reservation_id = ?", payment.ReservationID).Limit(1).Find(&existing)
	if res.Error != nil {
		return fmt.Errorf("find payment: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		payment.Attempts = 1
		if err := tx.Create(payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return types.NewConflictError("A payment for this reservation is already being processed").Wrap(err)
			}
			return fmt.Errorf("create payment: %w", err)
		}
		return nil
	}

	upd := tx.Model(&models.Payment{}).
		Where("id = ? AND status <> ?", existing.ID, types.PAYMENT_COMPLETED).
		Updates(map[string]any{
			"amount":         payment.Amount,
			"currency":       payment.Currency,
			"status":         payment.Status,
			"gateway":        payment.Gateway,
			"gateway_ref":    payment.GatewayRef,
			"failure_reason": payment.FailureReason,
			"attempts":       gorm.Expr("attempts + 1"),
		})
	if upd.Error != nil {
		return fmt.Errorf("update payment: %w", upd.Error)
	}
	if upd.RowsAffected == 0 {
		return types.NewConflictError("Payment has already been completed for this reservation")
	}
	if err := tx.Where("id = ?", existing.ID).First(payment).Error; err != nil {
		return fmt.Errorf("reload payment: %w", err)
	}
	return nil
}
