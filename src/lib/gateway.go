package lib

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"ticketbooth/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	ReservationID  uuid.UUID
	CustomerID     uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

// ChargeResult is a definite outcome: PAYMENT_COMPLETED or PAYMENT_FAILED.
type ChargeResult struct {
	Status        types.PaymentStatus
	Reference     string
	FailureReason string
}

func (r *ChargeResult) Succeeded() bool {
	return r.Status == types.PAYMENT_COMPLETED
}

// Gateway settles a charge. A returned error means the outcome is unknown.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// SimulatedGateway approves a fixed share of charges at random.
type SimulatedGateway struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	successRate float64
}

func NewSimulatedGateway(successRate float64) *SimulatedGateway {
	seed := uint64(time.Now().UnixNano())
	return NewSimulatedGatewayWithSource(successRate, rand.NewPCG(seed, seed>>1))
}

func NewSimulatedGatewayWithSource(successRate float64, src rand.Source) *SimulatedGateway {
	return &SimulatedGateway{rnd: rand.New(src), successRate: successRate}
}

func (g *SimulatedGateway) Name() string {
	return "simulated"
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	roll := g.rnd.Float64()
	g.mu.Unlock()

	ref := fmt.Sprintf("sim_%s", uuid.NewString())
	if roll < g.successRate {
		return &ChargeResult{Status: types.PAYMENT_COMPLETED, Reference: ref}, nil
	}
	return &ChargeResult{Status: types.PAYMENT_FAILED, Reference: ref, FailureReason: "declined by simulated gateway"}, nil
}
