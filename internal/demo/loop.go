package demo

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/autorl-dev/autorl/internal/domain"
	"github.com/autorl-dev/autorl/internal/notify"
	"github.com/autorl-dev/autorl/internal/sim"
)

// ParseCron parses a standard five-field cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// Loop starts one scenario per scheduled cycle, round-robin. At most one
// cycle is in flight at a time.
type Loop struct {
	engine    *sim.Engine
	scenarios []Scenario
	schedule  cron.Schedule
	observe   sim.Observer
	notifier  notify.Notifier

	mu        sync.Mutex
	next      int
	running   bool
	lastCycle time.Time

	// poll interval, overridable in tests
	tick time.Duration
}

// NewLoop creates a demo loop. observe receives every lifecycle event of
// the demo runs; notifier may be nil.
func NewLoop(engine *sim.Engine, scenarios []Scenario, cronExpr string, observe sim.Observer, notifier notify.Notifier) (*Loop, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("at least one scenario is required")
	}
	schedule, err := ParseCron(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	return &Loop{
		engine:    engine,
		scenarios: scenarios,
		schedule:  schedule,
		observe:   observe,
		notifier:  notifier,
		tick:      time.Minute,
	}, nil
}

// NextRun returns the next scheduled cycle time
func (l *Loop) NextRun() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	last := l.lastCycle
	if last.IsZero() {
		last = time.Now()
	}
	return l.schedule.Next(last)
}

// ShouldRun reports whether a cycle is due
func (l *Loop) ShouldRun(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return false
	}

	last := l.lastCycle
	if last.IsZero() {
		last = now.Add(-24 * time.Hour)
	}
	return now.After(l.schedule.Next(last))
}

// Start polls the schedule until ctx is cancelled
func (l *Loop) Start(ctx context.Context) {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if l.ShouldRun(time.Now()) {
				l.markRunning()
				go l.runCycle()
			}
		}
	}
}

// runCycle starts the next scenario and waits for its completion
func (l *Loop) runCycle() {
	sc := l.nextScenario()
	log.Printf("demo cycle: starting %q on %s", sc.Task, sc.Device)

	done := make(chan struct{})
	req := domain.TaskRequest{
		TaskDescription: sc.Task,
		DeviceID:        sc.Device,
		Learning:        sc.Learning,
	}
	handle := l.engine.StartRun(req, func(ev domain.LifecycleEvent) {
		l.observe(ev)
		if ev.Kind == domain.KindCompleted {
			close(done)
		}
	})
	<-done

	l.markComplete()
	log.Printf("demo cycle: run %d finished", handle.RunID)

	if l.notifier != nil {
		l.notifier.Send(notify.Notification{
			Title:    "Demo run complete",
			Message:  fmt.Sprintf("%q finished on %s", sc.Task, sc.Device),
			Type:     notify.NotifySuccess,
			RunID:    handle.RunID,
			DeviceID: sc.Device,
		})
	}
}

func (l *Loop) nextScenario() Scenario {
	l.mu.Lock()
	defer l.mu.Unlock()
	sc := l.scenarios[l.next%len(l.scenarios)]
	l.next++
	return sc
}

func (l *Loop) markRunning() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = true
}

func (l *Loop) markComplete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
	l.lastCycle = time.Now()
}
