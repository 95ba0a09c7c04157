package trigger

import (
	"context"
	"testing"

	"github.com/feedherald/feedherald/internal/config"
)

func TestCronStartRejectsEmptySchedule(t *testing.T) {
	cronTrigger := NewCron(config.CronTrigger{})
	if _, err := cronTrigger.Start(context.Background()); err == nil {
		t.Fatalf("expected error for empty schedule")
	}
}

func TestCronStartRejectsInvalidSchedule(t *testing.T) {
	cronTrigger := NewCron(config.CronTrigger{Schedule: "not a schedule"})
	if _, err := cronTrigger.Start(context.Background()); err == nil {
		t.Fatalf("expected error for unparseable schedule")
	}
}

func TestCronStartRejectsInvalidTimezone(t *testing.T) {
	cronTrigger := NewCron(config.CronTrigger{Schedule: "0 9 * * *", Timezone: "Not/AZone"})
	if _, err := cronTrigger.Start(context.Background()); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestCronStopClosesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cronTrigger := NewCron(config.CronTrigger{Schedule: "0 9 * * *", Timezone: "Asia/Seoul"})
	events, err := cronTrigger.Start(ctx)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	cancel()

	// The context goroutine stops the scheduler and closes the channel.
	if _, ok := <-events; ok {
		t.Fatalf("expected closed event channel after cancellation")
	}
}
