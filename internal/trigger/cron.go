// Package trigger schedules digest runs.
package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/feedherald/feedherald/internal/config"
)

// Cron fires an event on a cron schedule. Events are dropped rather than
// queued when a run is still in flight.
type Cron struct {
	schedule string
	timezone string
	cron     *cron.Cron
	events   chan time.Time
}

func NewCron(cfg config.CronTrigger) *Cron {
	return &Cron{
		schedule: cfg.Schedule,
		timezone: cfg.Timezone,
	}
}

func (c *Cron) Start(ctx context.Context) (<-chan time.Time, error) {
	if c.schedule == "" {
		return nil, fmt.Errorf("cron schedule is required")
	}

	location := time.UTC
	if c.timezone != "" {
		tz, err := time.LoadLocation(c.timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone: %w", err)
		}
		location = tz
	}

	c.events = make(chan time.Time, 1)
	c.cron = cron.New(cron.WithLocation(location))
	_, err := c.cron.AddFunc(c.schedule, func() {
		select {
		case c.events <- time.Now().UTC():
		default:
		}
	})
	if err != nil {
		return nil, err
	}

	c.cron.Start()

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()

	return c.events, nil
}

func (c *Cron) Stop() error {
	if c.cron != nil {
		ctx := c.cron.Stop()
		<-ctx.Done()
	}
	if c.events != nil {
		close(c.events)
	}
	return nil
}
