// Package sim implements the task simulation engine. A run walks a fixed
// lifecycle (perception, planning, execution, optional error recovery,
// completion) and emits one timed event per state to a caller-supplied
// observer. Runs never fail; the "error" event is narrative content.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/autorl-dev/autorl/internal/domain"
	"github.com/autorl-dev/autorl/internal/episodes"
)

// Observer receives lifecycle events, one call per event, in run order
type Observer func(domain.LifecycleEvent)

// Timings holds the sequential delay before each event emission
type Timings struct {
	Perception      time.Duration
	Planning        time.Duration
	ExecutionStart  time.Duration
	Error           time.Duration
	RecoveryAnalyze time.Duration
	RecoveryPlan    time.Duration
	RecoveryExecute time.Duration
	Completed       time.Duration
}

// DefaultTimings returns the reference pacing
func DefaultTimings() Timings {
	return Timings{
		Perception:      700 * time.Millisecond,
		Planning:        1000 * time.Millisecond,
		ExecutionStart:  500 * time.Millisecond,
		Error:           600 * time.Millisecond,
		RecoveryAnalyze: 900 * time.Millisecond,
		RecoveryPlan:    800 * time.Millisecond,
		RecoveryExecute: 700 * time.Millisecond,
		Completed:       600 * time.Millisecond,
	}
}

// Config holds engine tunables
type Config struct {
	Timings          Timings
	ErrorProbability float64
}

// DefaultConfig returns the reference configuration
func DefaultConfig() Config {
	return Config{
		Timings:          DefaultTimings(),
		ErrorProbability: 0.45,
	}
}

// Engine produces simulation runs. Safe for concurrent use; each run owns
// its own delay chain and appends to the shared episode log independently.
type Engine struct {
	mu   sync.Mutex
	cfg  Config
	draw func() float64

	episodes *episodes.Log
	nextRun  atomic.Int64
}

// Option configures an Engine
type Option func(*Engine)

// WithConfig overrides the default configuration
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithRandom injects the random source used for the error-path draw.
// The function must return values in [0, 1).
func WithRandom(draw func() float64) Option {
	return func(e *Engine) { e.draw = draw }
}

// WithSeed installs a seeded random source, for reproducible runs
func WithSeed(seed int64) Option {
	rng := rand.New(rand.NewSource(seed))
	return func(e *Engine) { e.draw = rng.Float64 }
}

// New creates an engine that records episodes into log
func New(log *episodes.Log, opts ...Option) *Engine {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	e := &Engine{
		cfg:      DefaultConfig(),
		draw:     rng.Float64,
		episodes: log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetConfig swaps the engine configuration. Runs already in flight keep
// the timings they started with.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
}

func (e *Engine) config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// RunHandle identifies a started run and allows cancelling it
type RunHandle struct {
	RunID  int64  `json:"run_id"`
	Status string `json:"status"`

	cancel context.CancelFunc
}

// Cancel stops further emission for the run. No completed event follows
// and no episode is recorded.
func (h RunHandle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}

// StartRun schedules a simulation run and returns immediately. Empty
// request fields take documented defaults; the call never fails. Events
// are delivered asynchronously via observe, strictly ordered within the
// run. The error-path draw happens once, here, and is fixed for the run.
func (e *Engine) StartRun(req domain.TaskRequest, observe Observer) RunHandle {
	req = req.Normalized()
	runID := e.nextRun.Add(1)

	cfg := e.config()
	e.mu.Lock()
	errorPath := e.draw() < cfg.ErrorProbability
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	go e.run(ctx, runID, req, errorPath, cfg.Timings, observe)

	return RunHandle{RunID: runID, Status: "started", cancel: cancel}
}

func (e *Engine) run(ctx context.Context, runID int64, req domain.TaskRequest, errorPath bool, timings Timings, observe Observer) {
	for _, step := range runScript(req, errorPath, timings) {
		if !sleepCtx(ctx, step.delay) {
			return
		}
		ev := step.event
		ev.RunID = runID
		ev.Timestamp = time.Now()
		observe(ev)
	}

	if !req.LearningEnabled() {
		return
	}

	ep := domain.Episode{
		RunID:           runID,
		TaskDescription: req.TaskDescription,
		DeviceID:        req.DeviceID,
		Timestamp:       time.Now(),
	}
	if e.episodes != nil {
		e.episodes.Append(ep)
	}
	observe(memorySavedEvent(runID, req))
}

// sleepCtx waits d or until ctx is cancelled; reports whether to continue
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
