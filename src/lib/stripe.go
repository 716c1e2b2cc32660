package lib

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ticketbooth/src/types"

	"github.com/stripe/stripe-go/v82"
)

func GetStripeClient(apiKey string) *stripe.Client {
	return stripe.NewClient(apiKey)
}

// StripeGateway confirms a PaymentIntent synchronously with a stored payment method.
type StripeGateway struct {
	client        *stripe.Client
	paymentMethod string
}

func NewStripeGateway(client *stripe.Client, paymentMethod string) *StripeGateway {
	return &StripeGateway{client: client, paymentMethod: paymentMethod}
}

func (s *StripeGateway) Name() string {
	return "stripe"
}

func (s *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:             stripe.Int64(req.Amount.Shift(2).Round(0).IntPart()),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(s.paymentMethod),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.AddMetadata("reservation_id", req.ReservationID.String())
	params.AddMetadata("customer_id", req.CustomerID.String())
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := s.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			result := &ChargeResult{Status: types.PAYMENT_FAILED, FailureReason: stripeErr.Msg}
			if stripeErr.PaymentIntent != nil {
				result.Reference = stripeErr.PaymentIntent.ID
			}
			return result, nil
		}
		log.Printf("[STRIPE] Error creating payment intent: %s\n", err.Error())
		return nil, err
	}

	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		return &ChargeResult{Status: types.PAYMENT_COMPLETED, Reference: pi.ID}, nil
	}
	return &ChargeResult{
		Status:        types.PAYMENT_FAILED,
		Reference:     pi.ID,
		FailureReason: fmt.Sprintf("payment intent %s", pi.Status),
	}, nil
}
