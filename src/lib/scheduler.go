package lib

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type Scheduler interface {
	Name() string
	Every(name string, interval time.Duration, task func(ctx context.Context)) error
	Start()
	Shutdown() error
}

type CronScheduler struct {
	inner gocron.Scheduler
	ctx   context.Context
	stop  context.CancelFunc
}

func NewCronScheduler() (*CronScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error initializing Scheduler: %s\n", err.Error())
		return nil, err
	}
	ctx, stop := context.WithCancel(context.Background())
	return &CronScheduler{inner: sched, ctx: ctx, stop: stop}, nil
}

func (c *CronScheduler) Name() string {
	return "gocron"
}

// Every registers a singleton-mode job so a slow run is never overlapped by the next tick.
func (c *CronScheduler) Every(name string, interval time.Duration, task func(ctx context.Context)) error {
	j, err := c.inner.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { task(c.ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Error creating job %s: %s\n", name, err.Error())
		return err
	}
	log.Printf("Job: %s %s every %s\n", j.ID().String(), j.Name(), interval)
	return nil
}

func (c *CronScheduler) Start() {
	c.inner.Start()
	log.Printf("Jobs in queue: %d\n", len(c.inner.Jobs()))
}

func (c *CronScheduler) Shutdown() error {
	c.stop()
	return c.inner.Shutdown()
}
