package boot

import (
	"context"
	"log"
	"time"

	"ticketbooth/src/config"
	"ticketbooth/src/controllers"
	"ticketbooth/src/db"
	"ticketbooth/src/inventory"
	"ticketbooth/src/lib"
	"ticketbooth/src/lib/aws"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App holds the long-lived dependencies shared by the HTTP handlers and jobs.
type App struct {
	Config        *config.Config
	DB            *gorm.DB
	Redis         *redis.Client
	Events        lib.Publisher
	Inventory     *inventory.Store
	Reservations  *controllers.ReservationManager
	Payments      *controllers.PaymentProcessor
	Cancellations *controllers.CancellationManager

	scheduler lib.Scheduler
}

func NewApp(cfg *config.Config, gdb *gorm.DB, rdb *redis.Client, gateway lib.Gateway, events lib.Publisher) *App {
	store := inventory.NewStore(gdb)
	return &App{
		Config:        cfg,
		DB:            gdb,
		Redis:         rdb,
		Events:        events,
		Inventory:     store,
		Reservations:  controllers.NewReservationManager(gdb, store, events),
		Payments:      controllers.NewPaymentProcessor(gdb, store, gateway, events, cfg.Currency),
		Cancellations: controllers.NewCancellationManager(gdb, store, events),
	}
}

func InitDb(cfg *config.Config) *gorm.DB {
	gdb, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	return gdb
}

func InitGateway(cfg *config.Config) lib.Gateway {
	if cfg.PaymentGateway == config.GATEWAY_STRIPE {
		if cfg.StripeSecretKey == "" {
			log.Fatalln("STRIPE_SECRET_KEY is required for the stripe payment gateway")
		}
		return lib.NewStripeGateway(lib.GetStripeClient(cfg.StripeSecretKey), cfg.StripePaymentMethod)
	}
	log.Printf("Using simulated payment gateway (success rate %.2f)\n", cfg.PaymentSuccessRate)
	return lib.NewSimulatedGateway(cfg.PaymentSuccessRate)
}

// InitBroker picks the lifecycle event publisher. Broker failures fall back to
// logging so that reservations keep working without one.
func InitBroker(ctx context.Context, cfg *config.Config) lib.Publisher {
	switch cfg.EventsBroker {
	case config.BROKER_KAFKA:
		p, err := lib.NewKafkaPublisher(cfg.KafkaBroker, cfg.EventsTopic)
		if err == nil {
			return p
		}
	case config.BROKER_SQS:
		client, err := aws.GetSQSClient(ctx)
		if err == nil {
			p, err := aws.NewSQSPublisher(ctx, client, cfg.EventsQueue)
			if err == nil {
				return p
			}
		}
	}
	log.Printf("Publishing reservation events to the log (broker=%s)\n", cfg.EventsBroker)
	return lib.LogPublisher{}
}

// InitScheduler starts the hold expiry job. A zero TTL disables expiry.
func (a *App) InitScheduler() error {
	if a.Config.ReservationHoldTTL <= 0 {
		return nil
	}
	sched, err := lib.NewCronScheduler()
	if err != nil {
		return err
	}
	ttl := a.Config.ReservationHoldTTL
	err = sched.Every("expire-reservations", a.Config.ExpiryInterval, func(ctx context.Context) {
		a.ExpireReservations(ctx, time.Now().Add(-ttl))
	})
	if err != nil {
		return err
	}
	sched.Start()
	a.scheduler = sched
	return nil
}

func (a *App) ExpireReservations(ctx context.Context, cutoff time.Time) int {
	expired, err := a.Cancellations.ExpireStale(ctx, cutoff)
	if err != nil {
		log.Printf("[EXPIRY] Error expiring reservations: %s\n", err.Error())
	}
	if expired > 0 {
		log.Printf("[EXPIRY] Released %d stale reservations\n", expired)
	}
	return expired
}

func (a *App) Shutdown() {
	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(); err != nil {
			log.Printf("Error stopping scheduler: %s\n", err.Error())
		}
	}
	if a.Events != nil {
		a.Events.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
