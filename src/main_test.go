package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ticketbooth/src/boot"
	"ticketbooth/src/config"
	"ticketbooth/src/db/testdb"
	"ticketbooth/src/lib"
	"ticketbooth/src/models"
	"ticketbooth/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

const jwtSecret = "test-secret"

type TestSuite struct {
	suite.Suite
	DB     *gorm.DB
	App    *boot.App
	Router *gin.Engine
	Events *lib.MemoryPublisher

	organizer models.User
	alice     models.User
	bob       models.User
	event     models.Event
	tickets   []models.Ticket
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *TestSuite) SetupTest() {
	s.DB = testdb.New(s.T())
	s.Events = &lib.MemoryPublisher{}
	cfg := &config.Config{
		Env:              string(types.Test),
		AppHost:          "http://localhost:3000",
		Currency:         "usd",
		JWTSecret:        jwtSecret,
		AuthTrustHeaders: true,
	}
	s.App = boot.NewApp(cfg, s.DB, nil, lib.NewSimulatedGateway(1), s.Events)
	s.Router = registerRoutes(setupRouter(), s.App)

	s.organizer = testdb.SeedUser(s.T(), s.DB, types.ROLE_ORGANIZER)
	s.alice = testdb.SeedUser(s.T(), s.DB, types.ROLE_CUSTOMER)
	s.bob = testdb.SeedUser(s.T(), s.DB, types.ROLE_CUSTOMER)
	s.event = testdb.SeedEvent(s.T(), s.DB, s.organizer.ID)
	s.tickets = testdb.SeedTickets(s.T(), s.DB, s.event.ID, "40.00", 3)
}

func (s *TestSuite) do(method, url string, user *models.User, body any) (int, string) {
	var payload *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		payload = strings.NewReader(string(b))
	} else {
		payload = strings.NewReader("")
	}
	req := httptest.NewRequest(method, url, payload)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("x-user-id", user.ID.String())
		req.Header.Set("x-user-role", string(user.Role))
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w.Code, w.Body.String()
}

func (s *TestSuite) reserve(user *models.User, tickets ...models.Ticket) (int, string) {
	selections := make([]map[string]any, 0, len(tickets))
	for _, t := range tickets {
		selections = append(selections, map[string]any{"ticketId": t.ID, "quantity": 1})
	}
	return s.do(http.MethodPost, apiPrefix+"/reservations", user, map[string]any{"tickets": selections})
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.True(s.T(), gjson.Get(w.Body.String(), "success").Bool())
}

func (s *TestSuite) TestMetricsRoute() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	router := setupRouter()
	router = maintenanceModeMiddleware(router, true)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
	assert.False(s.T(), gjson.Get(w.Body.String(), "success").Bool())
}

func (s *TestSuite) TestCorsOrigins() {
	s.Run("Should allow the configured host", func() {
		router := gin.New()
		router.Use(corsMiddleware(&config.Config{Env: "production", AppHost: "https://tickets.example.com/app"}))
		router.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://tickets.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "https://tickets.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	s.Run("Should not panic on a host without a scheme", func() {
		for _, host := range []string{"", "tickets.example.com", "ftp://tickets.example.com", "://bad"} {
			assert.NotPanics(s.T(), func() {
				corsMiddleware(&config.Config{Env: "production", AppHost: host})
			}, host)
		}
	})
}

func (s *TestSuite) TestAuthentication() {
	s.Run("Should reject missing credentials", func() {
		code, body := s.do(http.MethodGet, apiPrefix+"/reservations", nil, nil)
		assert.Equal(s.T(), 401, code)
		assert.Equal(s.T(), "User not authenticated", gjson.Get(body, "message").String())
	})

	s.Run("Should accept a signed token", func() {
		claims := types.Claims{
			Role: string(types.ROLE_CUSTOMER),
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   s.alice.ID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
		s.Require().NoError(err)

		req := httptest.NewRequest(http.MethodGet, apiPrefix+"/reservations", nil)
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		w := httptest.NewRecorder()
		s.Router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), int64(0), gjson.Get(w.Body.String(), "data.count").Int())
	})
}

func (s *TestSuite) TestReservationLifecycle() {
	code, body := s.reserve(&s.alice, s.tickets[0], s.tickets[1])
	s.Require().Equal(201, code, body)
	reservationID := gjson.Get(body, "data.id").String()
	assert.Equal(s.T(), "pending", gjson.Get(body, "data.status").String())
	assert.Len(s.T(), gjson.Get(body, "data.tickets").Array(), 2)

	s.Run("Should reject a conflicting reservation", func() {
		code, body := s.reserve(&s.bob, s.tickets[0])
		assert.Equal(s.T(), 409, code, body)
	})

	s.Run("Should hide the reservation from other customers", func() {
		code, _ := s.do(http.MethodGet, apiPrefix+"/reservations/"+reservationID, &s.bob, nil)
		assert.Equal(s.T(), 403, code)
	})

	s.Run("Should reject a mismatched amount", func() {
		code, body := s.do(http.MethodPost, apiPrefix+"/payments", &s.alice, map[string]any{
			"reservationId": reservationID,
			"amount":        10,
		})
		assert.Equal(s.T(), 400, code)
		assert.Equal(s.T(), "amount", gjson.Get(body, "errors.0.field").String())
	})

	s.Run("Should confirm on payment", func() {
		code, body := s.do(http.MethodPost, apiPrefix+"/payments", &s.alice, map[string]any{
			"reservationId": reservationID,
			"amount":        80,
		})
		s.Require().Equal(201, code, body)
		assert.Equal(s.T(), "completed", gjson.Get(body, "data.status").String())
		assert.Equal(s.T(), 80.0, gjson.Get(body, "data.amount").Float())

		code, body = s.do(http.MethodGet, apiPrefix+"/reservations/"+reservationID, &s.alice, nil)
		s.Require().Equal(200, code)
		assert.Equal(s.T(), "confirmed", gjson.Get(body, "data.status").String())
		assert.Equal(s.T(), "booked", gjson.Get(body, "data.tickets.0.status").String())

		code, body = s.do(http.MethodGet, apiPrefix+"/reservations/count", &s.alice, nil)
		s.Require().Equal(200, code)
		assert.Equal(s.T(), int64(1), gjson.Get(body, "data.count").Int())
	})

	s.Run("Should refuse a second payment", func() {
		code, _ := s.do(http.MethodPost, apiPrefix+"/payments", &s.alice, map[string]any{
			"reservationId": reservationID,
			"amount":        80,
		})
		assert.Equal(s.T(), 409, code)
	})

	s.Run("Should release part of a confirmed reservation", func() {
		code, body := s.do(http.MethodDelete, apiPrefix+"/reservations/"+reservationID, &s.alice, map[string]any{"quantity": 1})
		s.Require().Equal(200, code, body)
		assert.Equal(s.T(), s.event.ID.String(), gjson.Get(body, "data.eventId").String())
		assert.Len(s.T(), gjson.Get(body, "data.releasedTicketIds").Array(), 1)
		assert.Equal(s.T(), "confirmed", gjson.Get(body, "data.status").String())
	})

	s.Run("Should cancel what remains", func() {
		code, body := s.do(http.MethodPost, apiPrefix+"/reservations/"+reservationID+"/cancel", &s.alice, nil)
		s.Require().Equal(200, code, body)
		assert.Equal(s.T(), "cancelled", gjson.Get(body, "data.status").String())

		code, _ = s.do(http.MethodDelete, apiPrefix+"/reservations/"+reservationID, &s.alice, nil)
		assert.Equal(s.T(), 409, code)
	})

	code, body = s.do(http.MethodGet, apiPrefix+"/events/"+s.event.ID.String()+"/availability", nil, nil)
	s.Require().Equal(200, code)
	assert.Equal(s.T(), int64(3), gjson.Get(body, "data.available").Int())
	assert.Equal(s.T(), int64(0), gjson.Get(body, "data.booked").Int())

	assert.Equal(s.T(), []lib.EventType{
		lib.RESERVATION_CREATED,
		lib.RESERVATION_CONFIRMED,
		lib.RESERVATION_RELEASED,
		lib.RESERVATION_CANCELLED,
	}, s.Events.Types())
}

func (s *TestSuite) TestValidation() {
	s.Run("Should reject an empty selection", func() {
		code, body := s.do(http.MethodPost, apiPrefix+"/reservations", &s.alice, map[string]any{"tickets": []any{}})
		assert.Equal(s.T(), 400, code)
		assert.Equal(s.T(), "tickets", gjson.Get(body, "errors.0.field").String())
	})

	s.Run("Should reject a malformed id", func() {
		code, body := s.do(http.MethodGet, apiPrefix+"/reservations/not-a-uuid", &s.alice, nil)
		assert.Equal(s.T(), 400, code)
		assert.Equal(s.T(), "id", gjson.Get(body, "errors.0.field").String())
	})

	s.Run("Should report an unknown reservation", func() {
		code, body := s.do(http.MethodGet, apiPrefix+"/reservations/"+uuid.NewString(), &s.alice, nil)
		assert.Equal(s.T(), 404, code)
		assert.Equal(s.T(), "Reservation not found", gjson.Get(body, "message").String())
	})

	s.Run("Should reject a negative partial cancellation", func() {
		code, body := s.reserve(&s.alice, s.tickets[2])
		s.Require().Equal(201, code, body)
		id := gjson.Get(body, "data.id").String()
		code, _ = s.do(http.MethodDelete, apiPrefix+"/reservations/"+id, &s.alice, map[string]any{"quantity": -1})
		assert.Equal(s.T(), 400, code)
	})
}

func (s *TestSuite) TestCreateTickets() {
	s.Run("Should let the organizer add a tier", func() {
		code, body := s.do(http.MethodPost, apiPrefix+"/tickets", &s.organizer, map[string]any{
			"eventId": s.event.ID,
			"price":   "15.50",
			"count":   5,
		})
		s.Require().Equal(201, code, body)
		assert.Len(s.T(), gjson.Get(body, "data").Array(), 5)
		assert.Equal(s.T(), "usd", gjson.Get(body, "data.0.currency").String())
	})

	s.Run("Should forbid customers", func() {
		code, _ := s.do(http.MethodPost, apiPrefix+"/tickets", &s.alice, map[string]any{
			"eventId": s.event.ID,
			"price":   "15.50",
		})
		assert.Equal(s.T(), 403, code)
	})

	s.Run("Should forbid other organizers", func() {
		other := testdb.SeedUser(s.T(), s.DB, types.ROLE_ORGANIZER)
		code, _ := s.do(http.MethodPost, apiPrefix+"/tickets", &other, map[string]any{
			"eventId": s.event.ID,
			"price":   "15.50",
		})
		assert.Equal(s.T(), 403, code)
	})

	s.Run("Should report an unknown event", func() {
		code, _ := s.do(http.MethodPost, apiPrefix+"/tickets", &s.organizer, map[string]any{
			"eventId": uuid.New(),
			"price":   "15.50",
		})
		assert.Equal(s.T(), 404, code)
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
