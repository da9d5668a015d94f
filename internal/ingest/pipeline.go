// Package ingest runs units of work through fetch, normalize, validate and
// persist, and records a manifest for each unit that reaches persistence.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"nba-ingest-service/internal/contracts"
	"nba-ingest-service/internal/logging"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/providers"
	"nba-ingest-service/internal/ratelimit"
	"nba-ingest-service/internal/store"
	"nba-ingest-service/internal/validate"
)

// Recorder captures run outcomes.
type Recorder interface {
	RecordIngestRun(kind, state string, duration time.Duration, accepted, rejected int)
}

// Config wires a pipeline to one provider source.
type Config struct {
	Source    providers.Source
	Tier      providers.Tier
	Validator *validate.Validator
	Entities  store.Entities
	Manifests manifest.Store
	// Deadline bounds runs that do not supply their own; zero means none.
	Deadline time.Duration
	Metrics  Recorder
	Logger   *slog.Logger
}

// Options tune a single run.
type Options struct {
	ForceRefresh bool
	DryRun       bool
	// Deadline overrides the pipeline default when non-zero.
	Deadline time.Time
}

// Result reports what a run did. Manifest is set when one was written or,
// for skipped runs, when the existing one was found.
type Result struct {
	UnitID          string               `json:"unit_id"`
	Kind            Kind                 `json:"kind"`
	State           State                `json:"state"`
	Transitions     []Transition         `json:"transitions"`
	Hash            string               `json:"hash,omitempty"`
	Skipped         bool                 `json:"skipped"`
	DryRun          bool                 `json:"dry_run"`
	AlreadyIngested bool                 `json:"already_ingested"`
	Counts          manifest.Counts      `json:"counts"`
	Rejections      []validate.Rejection `json:"rejections,omitempty"`
	Warnings        []validate.Warning   `json:"warnings,omitempty"`
	EntityIDs       []string             `json:"entity_ids,omitempty"`
	TransactionID   string               `json:"transaction_id,omitempty"`
	Partial         bool                 `json:"partial"`
	BatchRejected   bool                 `json:"batch_rejected"`
	Manifest        *manifest.Manifest   `json:"manifest,omitempty"`
	Error           string               `json:"error,omitempty"`
	Duration        time.Duration        `json:"duration_ns"`
}

// Pipeline executes units of work against one provider.
type Pipeline struct {
	source    providers.Source
	tier      providers.Tier
	validator *validate.Validator
	entities  store.Entities
	manifests manifest.Store
	deadline  time.Duration
	metrics   Recorder
	logger    *slog.Logger
	now       func() time.Time
	newTxID   func() string
}

// New validates cfg and builds a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source.Client == nil || cfg.Source.Normalizer == nil {
		return nil, errors.New("ingest: source client and normalizer are required")
	}
	if cfg.Entities == nil {
		return nil, errors.New("ingest: entity store is required")
	}
	if cfg.Manifests == nil {
		return nil, errors.New("ingest: manifest store is required")
	}
	v := cfg.Validator
	if v == nil {
		v = validate.New(validate.DefaultTeamCount, cfg.Logger)
	}
	return &Pipeline{
		source:    cfg.Source,
		tier:      cfg.Tier,
		validator: v,
		entities:  cfg.Entities,
		manifests: cfg.Manifests,
		deadline:  cfg.Deadline,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       time.Now,
		newTxID:   uuid.NewString,
	}, nil
}

// Provider is the name units for this pipeline must carry.
func (p *Pipeline) Provider() string {
	return p.source.Client.Provider()
}

// Run executes one unit of work. The returned error is a *RunError whenever
// the run ended FAILED; the result is populated either way.
func (p *Pipeline) Run(ctx context.Context, unit Unit, opts Options) (Result, error) {
	start := p.now()
	deadline := opts.Deadline
	if deadline.IsZero() && p.deadline > 0 {
		deadline = start.Add(p.deadline)
	}
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	logger := logging.FromContext(ctx, p.logger)
	if logger != nil {
		logger = logger.With(logging.FieldUnit, unit.ID(), logging.FieldProvider, unit.Provider)
	}
	r := &run{
		p:      p,
		unit:   unit,
		opts:   opts,
		logger: logger,
		res: Result{
			UnitID: unit.ID(),
			Kind:   unit.Kind,
			DryRun: opts.DryRun,
		},
	}

	err := r.execute(ctx)
	if err != nil {
		r.res.Error = err.Error()
	}
	r.res.Duration = p.now().Sub(start)
	if p.metrics != nil {
		p.metrics.RecordIngestRun(string(unit.Kind), string(r.res.State), r.res.Duration,
			r.res.Counts.Accepted, r.res.Counts.Rejected)
	}
	logging.Info(logger, "ingest run finished",
		logging.FieldState, string(r.res.State),
		logging.FieldHash, r.res.Hash,
		"accepted", r.res.Counts.Accepted,
		"rejected", r.res.Counts.Rejected,
		"skipped", r.res.Skipped,
		logging.FieldDurationMS, r.res.Duration.Milliseconds(),
	)
	return r.res, err
}

type run struct {
	p          *Pipeline
	unit       Unit
	opts       Options
	logger     *slog.Logger
	res        Result
	bodies     [][]byte
	endpoint   string
	fromCache  bool
	observedAt time.Time
}

func (r *run) transition(s State) {
	r.res.State = s
	r.res.Transitions = append(r.res.Transitions, Transition{State: s, At: r.p.now().UTC()})
	if r.logger != nil {
		r.logger.Debug("ingest state", logging.FieldState, string(s))
	}
}

func (r *run) fail(stage State, err error) error {
	r.transition(StateFailed)
	return &RunError{Unit: r.unit.ID(), Stage: stage, Err: err}
}

func (r *run) execute(ctx context.Context) error {
	r.transition(StateFetching)
	if err := r.unit.Validate(); err != nil {
		return r.fail(StateFetching, err)
	}
	if r.unit.Provider != r.p.Provider() {
		return r.fail(StateFetching, fmt.Errorf("%w: %s", ErrProviderMismatch, r.unit.Provider))
	}

	if err := r.fetch(ctx); err != nil {
		return r.fail(StateFetching, err)
	}

	r.res.Hash = manifest.ComputeHash(r.unit.ID(), r.bodies)
	existing, err := r.p.manifests.Get(ctx, r.res.Hash)
	switch {
	case err == nil:
		r.res.AlreadyIngested = true
		if !r.opts.DryRun {
			r.res.Skipped = true
			r.res.Manifest = &existing
			logging.Info(r.logger, "input already ingested", logging.FieldHash, r.res.Hash)
			r.transition(StateDone)
			return nil
		}
	case !errors.Is(err, manifest.ErrNotFound):
		return r.fail(StateFetching, fmt.Errorf("check manifest: %w", err))
	}

	v := r.p.validator
	n := r.p.source.Normalizer
	switch r.unit.Kind {
	case KindTeams:
		return process(ctx, r, n.Teams, v.Teams, r.p.entities.UpsertTeam)
	case KindGames:
		return process(ctx, r, n.Games, v.Games, r.p.entities.UpsertGame)
	default:
		return process(ctx, r, n.SeasonStats, v.SeasonStats, r.p.entities.UpsertSeasonStat)
	}
}

func (r *run) request() providers.Request {
	n := r.p.source.Normalizer
	var req providers.Request
	switch r.unit.Kind {
	case KindGames:
		req = n.GamesRequest(r.unit.Date)
	case KindStats:
		req = n.SeasonStatsRequest(r.unit.Season)
	default:
		req = n.TeamsRequest()
	}
	req.ForceRefresh = r.opts.ForceRefresh
	return req
}

func (r *run) fetch(ctx context.Context) error {
	req := r.request()
	r.endpoint = req.Endpoint
	pages, err := providers.FetchAll(ctx, r.p.source.Client, req, r.p.tier, r.p.source.MaxPages)
	if err != nil {
		if errors.Is(err, providers.ErrPageLimit) && len(pages) > 0 {
			logging.Warn(r.logger, "page limit reached, ingesting partial listing", "error", err)
			r.res.Warnings = append(r.res.Warnings, validate.Warning{
				Ref: r.unit.ID(), Rule: "page_limit", Detail: err.Error(),
			})
		} else {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ratelimit.ErrTimeout) ||
				errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %w", ErrDeadlineExceeded, err)
			}
			return err
		}
	}

	r.bodies = providers.Bodies(pages)
	for _, pg := range pages {
		r.fromCache = r.fromCache || pg.FromCache
		if pg.FetchedAt.After(r.observedAt) {
			r.observedAt = pg.FetchedAt
		}
	}
	if r.observedAt.IsZero() {
		r.observedAt = r.p.now()
	}
	r.observedAt = r.observedAt.UTC()
	return nil
}

type entity interface {
	EntityID() string
}

// process drives the normalize, validate and persist stages for one record
// type.
func process[R any, T entity](
	ctx context.Context,
	r *run,
	normalize func([][]byte) (contracts.Batch[R], error),
	check func([]R, time.Time) (validate.Result[T], error),
	upsert func(context.Context, T) error,
) error {
	r.transition(StateNormalizing)
	batch, err := normalize(r.bodies)
	if err != nil {
		r.dropCached(ctx)
		return r.fail(StateNormalizing, err)
	}
	r.res.Counts.Fetched = batch.Fetched
	r.res.Counts.Normalized = len(batch.Records)
	for _, f := range batch.Failures {
		r.res.Rejections = append(r.res.Rejections, validate.Rejection{
			Ref: f.Ref, Pass: validate.PassSchema, Reason: f.Reason,
		})
	}

	r.transition(StateValidating)
	checked, err := check(batch.Records, r.observedAt)
	r.res.Rejections = append(r.res.Rejections, checked.Rejections...)
	r.res.Warnings = append(r.res.Warnings, checked.Warnings...)
	r.res.Counts.Warned = len(r.res.Warnings)
	if err != nil {
		if sErr, ok := validate.AsSanityError(err); ok {
			return r.rejectBatch(ctx, sErr)
		}
		return r.fail(StateValidating, err)
	}
	r.res.Counts.Rejected = len(r.res.Rejections)
	r.res.Counts.Accepted = len(checked.Accepted)

	if r.opts.DryRun {
		r.transition(StateDone)
		return nil
	}

	r.transition(StatePersisting)
	var errs []string
	ids := make([]string, 0, len(checked.Accepted))
	for _, e := range checked.Accepted {
		if err := upsert(ctx, e); err != nil {
			logging.Error(r.logger, "upsert failed", err, "entity", e.EntityID())
			errs = append(errs, fmt.Sprintf("%s: persist: %v", e.EntityID(), err))
			continue
		}
		ids = append(ids, e.EntityID())
	}
	r.res.EntityIDs = ids
	r.res.Counts.Accepted = len(ids)
	r.res.Counts.PersistFailed = len(checked.Accepted) - len(ids)
	r.res.Partial = r.res.Counts.PersistFailed > 0
	if len(ids) > 0 {
		r.res.TransactionID = r.p.newTxID()
	}

	if err := r.record(ctx, errs); err != nil {
		return r.fail(StatePersisting, err)
	}
	r.transition(StateDone)
	return nil
}

// dropCached evicts cached pages that failed to normalize so the next run
// fetches them again.
func (r *run) dropCached(ctx context.Context) {
	if !r.fromCache {
		return
	}
	inv, ok := r.p.source.Client.(providers.Invalidator)
	if !ok {
		return
	}
	if _, err := inv.Invalidate(ctx, r.endpoint); err != nil {
		logging.Warn(r.logger, "cache invalidation failed", logging.FieldEndpoint, r.endpoint, "error", err)
	}
}

// rejectBatch handles a systemic sanity failure: nothing is persisted and the
// rejection is recorded against the input hash.
func (r *run) rejectBatch(ctx context.Context, sErr *validate.SanityError) error {
	logging.Warn(r.logger, "batch rejected", "rule", sErr.Rule, "detail", sErr.Detail)
	r.res.BatchRejected = true
	r.res.Counts.Accepted = 0
	r.res.Counts.Rejected = r.res.Counts.Fetched
	if !r.opts.DryRun {
		if err := r.record(ctx, []string{sErr.Error()}); err != nil {
			return r.fail(StateValidating, errors.Join(sErr, err))
		}
	}
	return r.fail(StateValidating, sErr)
}

// record archives the raw pages when the store supports it and appends the
// manifest as the last write of the run.
func (r *run) record(ctx context.Context, extra []string) error {
	if archiver, ok := r.p.manifests.(manifest.RawArchiver); ok {
		if err := archiver.ArchiveRaw(ctx, r.res.Hash, r.bodies); err != nil {
			return fmt.Errorf("archive raw pages: %w", err)
		}
	}

	m := manifest.Manifest{
		Hash:          r.res.Hash,
		UnitID:        r.unit.ID(),
		UnitKind:      string(r.unit.Kind),
		Provider:      r.unit.Provider,
		CreatedAt:     r.p.now(),
		Counts:        r.res.Counts,
		Errors:        append(extra, rejectionSummaries(r.res.Rejections)...),
		Warnings:      warningSummaries(r.res.Warnings),
		TransactionID: r.res.TransactionID,
		EntityIDs:     r.res.EntityIDs,
		BatchRejected: r.res.BatchRejected,
		Partial:       r.res.Partial,
	}
	sealed, err := r.p.manifests.Append(ctx, m)
	if errors.Is(err, manifest.ErrDuplicate) {
		// A concurrent run with the same input won the append.
		logging.Warn(r.logger, "manifest already appended by concurrent run", logging.FieldHash, r.res.Hash)
		r.res.Skipped = true
		r.res.AlreadyIngested = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("append manifest: %w", err)
	}
	r.res.Manifest = &sealed
	return nil
}

func rejectionSummaries(rs []validate.Rejection) []string {
	out := make([]string, 0, len(rs))
	for _, rj := range rs {
		out = append(out, fmt.Sprintf("%s: %s: %s", rj.Ref, rj.Pass, rj.Reason))
	}
	return out
}

func warningSummaries(ws []validate.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, fmt.Sprintf("%s: %s: %s", w.Ref, w.Rule, w.Detail))
	}
	return out
}
