package teststubs

import (
	"context"
	"sync"
	"sync/atomic"

	"nba-ingest-service/internal/ingest"
)

// StubRunner is a test double for anything that runs ingest units.
type StubRunner struct {
	Name   string
	Result ingest.Result
	Err    error
	Calls  atomic.Int32
	Notify chan struct{}

	mu    sync.Mutex
	units []ingest.Unit
	opts  []ingest.Options
}

// Provider returns the configured provider name, "stub" by default.
func (s *StubRunner) Provider() string {
	if s.Name == "" {
		return "stub"
	}
	return s.Name
}

// Run records the unit and returns the configured result and error.
func (s *StubRunner) Run(ctx context.Context, unit ingest.Unit, opts ingest.Options) (ingest.Result, error) {
	_ = ctx
	if s.Notify != nil {
		select {
		case <-s.Notify:
		default:
			close(s.Notify)
		}
	}
	s.Calls.Add(1)
	s.mu.Lock()
	s.units = append(s.units, unit)
	s.opts = append(s.opts, opts)
	s.mu.Unlock()

	res := s.Result
	res.UnitID = unit.ID()
	res.Kind = unit.Kind
	if res.State == "" {
		res.State = ingest.StateDone
		if s.Err != nil {
			res.State = ingest.StateFailed
		}
	}
	return res, s.Err
}

// RunMany runs each unit in order.
func (s *StubRunner) RunMany(ctx context.Context, units []ingest.Unit, opts ingest.Options, concurrency int) ([]ingest.Result, error) {
	_ = concurrency
	out := make([]ingest.Result, 0, len(units))
	var firstErr error
	for _, u := range units {
		res, err := s.Run(ctx, u, opts)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		out = append(out, res)
	}
	return out, firstErr
}

// Units returns the units run so far.
func (s *StubRunner) Units() []ingest.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ingest.Unit(nil), s.units...)
}

// Options returns the options passed with each run.
func (s *StubRunner) Options() []ingest.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ingest.Options(nil), s.opts...)
}
