package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DRIVER_POSTGRES = "postgres"
	DRIVER_SQLITE   = "sqlite"

	GATEWAY_STRIPE    = "stripe"
	GATEWAY_SIMULATED = "simulated"

	BROKER_KAFKA = "kafka"
	BROKER_SQS   = "sqs"
	BROKER_NONE  = "none"
)

type Config struct {
	Env      string
	Port     string
	AppHost  string
	LogDir   string
	Currency string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret        string
	AuthTrustHeaders bool

	RedisHost       string
	RateLimit       int64
	RateLimitWindow time.Duration

	PaymentGateway      string
	PaymentSuccessRate  float64
	StripeSecretKey     string
	StripePaymentMethod string

	EventsBroker string
	KafkaBroker  string
	EventsTopic  string
	EventsQueue  string

	ReservationHoldTTL time.Duration
	ExpiryInterval     time.Duration

	MaintenanceMode bool
}

// Load reads the process environment. A .env file is only honoured in local mode.
func Load() *Config {
	env := getEnv("API_ENV", "local")
	if env == "local" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("Error loading .env file: %s\n", err.Error())
		}
	}

	driver := strings.ToLower(getEnv("DATABASE_DRIVER", DRIVER_POSTGRES))
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		if driver == DRIVER_SQLITE {
			dsn = getEnv("DATABASE_NAME", "ticketbooth.db")
		} else {
			dsn = GetDSN()
		}
	}

	return &Config{
		Env:      env,
		Port:     getEnv("PORT", "3000"),
		AppHost:  getEnv("APP_HOST", "http://localhost:3000"),
		LogDir:   os.Getenv("LOG_DIR"),
		Currency: strings.ToLower(getEnv("CURRENCY", "usd")),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		JWTSecret:        os.Getenv("JWT_SECRET"),
		AuthTrustHeaders: getBool("AUTH_TRUST_HEADERS", false),

		RedisHost:       os.Getenv("REDIS_HOST"),
		RateLimit:       int64(getInt("RATE_LIMIT", 30)),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),

		PaymentGateway:      strings.ToLower(getEnv("PAYMENT_GATEWAY", GATEWAY_SIMULATED)),
		PaymentSuccessRate:  getFloat("PAYMENT_SUCCESS_RATE", 0.9),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripePaymentMethod: getEnv("STRIPE_PAYMENT_METHOD", "pm_card_visa"),

		EventsBroker: strings.ToLower(getEnv("EVENTS_BROKER", BROKER_NONE)),
		KafkaBroker:  getEnv("KAFKA_BROKER", "localhost:9092"),
		EventsTopic:  getEnv("EVENTS_TOPIC", "reservations"),
		EventsQueue:  getEnv("EVENTS_QUEUE", "reservation-events"),

		ReservationHoldTTL: getDuration("RESERVATION_HOLD_TTL", 15*time.Minute),
		ExpiryInterval:     getDuration("EXPIRY_INTERVAL", time.Minute),

		MaintenanceMode: getBool("MAINTENANCE_MODE", false),
	}
}

func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

func GetDSN() string {
	DATABASE_HOST := getEnv("DATABASE_HOST", "localhost")
	DATABASE_PORT := getEnv("DATABASE_PORT", "5432")
	DATABASE_SSLMODE := getEnv("DATABASE_SSLMODE", "disable")
	DATABASE_TIMEZONE := getEnv("DATABASE_TIMEZONE", "UTC")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("90s") or bare seconds ("90").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Invalid duration for %s: %s\n", key, raw)
	return fallback
}
