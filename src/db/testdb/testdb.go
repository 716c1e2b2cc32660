// Package testdb provides throwaway in-memory databases for package tests.
package testdb

import (
	"fmt"
	"testing"
	"time"

	"ticketbooth/src/db"
	"ticketbooth/src/models"
	"ticketbooth/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New opens a migrated in-memory sqlite database private to the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	gdb, err := db.OpenDialector(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func SeedUser(t testing.TB, gdb *gorm.DB, role types.Role) models.User {
	t.Helper()
	user := models.User{Name: string(role), Email: uuid.NewString() + "@example.com", Role: role}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

func SeedEvent(t testing.TB, gdb *gorm.DB, organizerID uuid.UUID) models.Event {
	t.Helper()
	starts := time.Now().Add(72 * time.Hour)
	event := models.Event{Title: "Launch Party", Location: "Main Hall", OrganizerID: organizerID, StartsAt: &starts}
	require.NoError(t, gdb.Create(&event).Error)
	return event
}

// SeedTickets creates count available tickets of one price tier.
func SeedTickets(t testing.TB, gdb *gorm.DB, eventID uuid.UUID, price string, count int) []models.Ticket {
	t.Helper()
	tickets := make([]models.Ticket, count)
	for i := range tickets {
		tickets[i] = models.Ticket{
			EventID:  eventID,
			Price:    decimal.RequireFromString(price),
			Currency: "usd",
			Status:   types.TICKET_AVAILABLE,
		}
	}
	require.NoError(t, gdb.Create(&tickets).Error)
	return tickets
}

func Principal(user models.User) types.Principal {
	return types.Principal{UserID: user.ID, Role: user.Role}
}

// NewMock returns a postgres-dialect handle backed by sqlmock for asserting
// the exact statements a component issues.
func NewMock(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	gdb, err := db.OpenDialector(postgres.New(postgres.Config{Conn: conn}))
	require.NoError(t, err)
	return gdb, mock
}
