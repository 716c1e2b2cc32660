package boot

import (
	"context"
	"testing"
	"time"

	"ticketbooth/src/config"
	"ticketbooth/src/db/testdb"
	"ticketbooth/src/lib"
	"ticketbooth/src/models"
	"ticketbooth/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitGatewaySimulated(t *testing.T) {
	gateway := InitGateway(&config.Config{PaymentGateway: config.GATEWAY_SIMULATED, PaymentSuccessRate: 1})
	assert.Equal(t, "simulated", gateway.Name())
}

func TestInitGatewayStripe(t *testing.T) {
	gateway := InitGateway(&config.Config{PaymentGateway: config.GATEWAY_STRIPE, StripeSecretKey: "sk_test_123"})
	assert.Equal(t, "stripe", gateway.Name())
}

func TestInitBrokerDefaultsToLog(t *testing.T) {
	publisher := InitBroker(context.Background(), &config.Config{EventsBroker: config.BROKER_NONE})
	assert.Equal(t, "log", publisher.Name())
}

func TestExpireReservations(t *testing.T) {
	gdb := testdb.New(t)
	events := &lib.MemoryPublisher{}
	app := NewApp(&config.Config{Currency: "usd", ReservationHoldTTL: time.Minute}, gdb, nil, lib.NewSimulatedGateway(1), events)

	customer := testdb.SeedUser(t, gdb, types.ROLE_CUSTOMER)
	organizer := testdb.SeedUser(t, gdb, types.ROLE_ORGANIZER)
	event := testdb.SeedEvent(t, gdb, organizer.ID)
	tickets := testdb.SeedTickets(t, gdb, event.ID, "15.00", 1)

	_, err := app.Reservations.CreateReservation(context.Background(), testdb.Principal(customer), []types.ReservationTicket{{TicketID: tickets[0].ID}})
	require.NoError(t, err)

	assert.Equal(t, 1, app.ExpireReservations(context.Background(), time.Now().Add(time.Second)))

	var ticket models.Ticket
	require.NoError(t, gdb.Where("id = ?", tickets[0].ID).First(&ticket).Error)
	assert.Equal(t, types.TICKET_AVAILABLE, ticket.Status)
	assert.Equal(t, []lib.EventType{lib.RESERVATION_CREATED, lib.RESERVATION_EXPIRED}, events.Types())
}
