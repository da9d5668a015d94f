package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nba-ingest-service/internal/ingest"
	"nba-ingest-service/internal/logging"
	"nba-ingest-service/internal/metrics"
	"nba-ingest-service/internal/providers"
)

const defaultInterval = 5 * time.Minute

// Runner executes ingest units; *ingest.Pipeline satisfies it.
type Runner interface {
	Provider() string
	Run(ctx context.Context, unit ingest.Unit, opts ingest.Options) (ingest.Result, error)
}

// Poller ingests today's games on an interval.
type Poller struct {
	runner   Runner
	logger   *slog.Logger
	metrics  *metrics.Recorder
	interval time.Duration
	loc      *time.Location
	now      func() time.Time

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the poller loop.
type Status struct {
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
	LastAttempt         time.Time `json:"last_attempt"`
	LastSuccess         time.Time `json:"last_success"`
	LastUnit            string    `json:"last_unit,omitempty"`
	LastState           string    `json:"last_state,omitempty"`
}

// IsReady reports whether the poller has had a recent success and is not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// New constructs a Poller with sane defaults. "Today" is resolved in loc
// (UTC when nil).
func New(runner Runner, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration, loc *time.Location) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Poller{
		runner:   runner,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		loc:      loc,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start begins polling until the context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.startMu.Lock()
	if p.started {
		p.startMu.Unlock()
		return
	}
	p.started = true
	p.startMu.Unlock()

	p.ticker = time.NewTicker(p.interval)

	go func() {
		logging.Info(p.logger, "poller started", slog.Int64(logging.FieldDurationMS, p.interval.Milliseconds()))
		p.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				p.stopTicker()
				logging.Info(p.logger, "poller stopped")
				return
			case <-p.done:
				p.stopTicker()
				logging.Info(p.logger, "poller stopped")
				return
			case <-p.ticker.C:
				p.runOnce(ctx)
			}
		}
	}()
}

// Stop halts the polling loop.
func (p *Poller) Stop(ctx context.Context) error {
	_ = ctx
	p.stopOnce.Do(func() {
		close(p.done)
		p.stopTicker()
	})
	return nil
}

func (p *Poller) runOnce(ctx context.Context) {
	start := p.now()
	p.recordAttempt(start)
	unit := ingest.GamesUnit(p.runner.Provider(), providers.LocalDate(start, p.loc))
	res, err := p.runner.Run(ctx, unit, ingest.Options{})
	elapsed := time.Since(start)
	p.metrics.RecordPollerCycle(elapsed, err)
	if err != nil {
		logging.Error(p.logger, "poller ingest failed", err,
			logging.FieldUnit, unit.ID(),
			logging.FieldDurationMS, elapsed.Milliseconds(),
		)
		p.recordFailure(err, start, unit, res)
		return
	}

	p.recordSuccess(start, unit, res)
	logging.Info(p.logger, "poller ingested games",
		logging.FieldUnit, unit.ID(),
		logging.FieldState, string(res.State),
		logging.FieldCount, res.Counts.Accepted,
		"skipped", res.Skipped,
		logging.FieldDurationMS, elapsed.Milliseconds(),
	)
}

func (p *Poller) stopTicker() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}

func (p *Poller) recordAttempt(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.LastAttempt = at
}

func (p *Poller) recordSuccess(at time.Time, unit ingest.Unit, res ingest.Result) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures = 0
	p.status.LastError = ""
	p.status.LastSuccess = at
	p.status.LastUnit = unit.ID()
	p.status.LastState = string(res.State)
}

func (p *Poller) recordFailure(err error, at time.Time, unit ingest.Unit, res ingest.Result) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures++
	if err != nil {
		p.status.LastError = err.Error()
	}
	p.status.LastAttempt = at
	p.status.LastUnit = unit.ID()
	p.status.LastState = string(res.State)
}

// Status returns a snapshot of the poller's recent health.
func (p *Poller) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}
