package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/arloliu/spanq/bucket"
	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/frame"
	"github.com/arloliu/spanq/internal/options"
	"github.com/arloliu/spanq/source"
)

// State is the engine lifecycle state.
type State uint8

const (
	// StateUninitialized means the max duration probe has not succeeded yet.
	StateUninitialized State = iota
	// StateMaxDurKnown means the probe result and trace bounds are cached.
	// It is terminal.
	StateMaxDurKnown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateMaxDurKnown:
		return "MaxDurKnown"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// maxWindowPs bounds |timestamp| in picoseconds. It equals 2^63, so any
// product below it still rounds to a valid int64.
const maxWindowPs = float64(math.MaxInt64)

// Engine builds frames for one track scope. See the package documentation.
type Engine struct {
	src   source.IntervalSource
	scope source.Scope
	cfg   *Config
	log   *slog.Logger

	state    State
	maxDurPs int64
	bounds   source.Bounds
}

// New creates an engine reading scope from src.
func New(src source.IntervalSource, scope source.Scope, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil interval source", errs.ErrInvalidConfig)
	}

	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.name == "" {
		cfg.name = scope.String()
	}

	return &Engine{
		src:   src,
		scope: scope,
		cfg:   cfg,
		log:   cfg.logger.With("track", cfg.name),
	}, nil
}

// Name returns the engine label used in logs and metrics.
func (e *Engine) Name() string { return e.cfg.name }

// Scope returns the track scope the engine queries.
func (e *Engine) Scope() source.Scope { return e.scope }

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// MaxDurationPs returns the cached longest slice duration. It is zero until
// the engine reaches StateMaxDurKnown.
func (e *Engine) MaxDurationPs() int64 { return e.maxDurPs }

// TraceBounds returns the cached trace bounds; ok is false before the first
// successful probe.
func (e *Engine) TraceBounds() (source.Bounds, bool) {
	return e.bounds, e.state == StateMaxDurKnown
}

// OnBoundsChange builds the frame for the window [start, end] at the given
// resolution, all in seconds.
//
// A source failure fails the whole call with an error matching
// errs.ErrSourceUnavailable; no partial frame is returned. If the failure
// happens during the first probe the engine stays uninitialized and the
// next call probes again.
func (e *Engine) OnBoundsChange(ctx context.Context, start, end, resolution float64) (*frame.Frame, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startPs := bucket.ToPs(start)
	endPs := bucket.ToPs(end)
	bucketPs := bucket.Size(resolution, e.cfg.pixelSize)

	if err := e.ensureMaxDuration(ctx); err != nil {
		return nil, err
	}

	q := source.Query{
		Scope:         e.scope,
		WindowStartPs: saturatingSub(startPs, e.maxDurPs),
		WindowEndPs:   endPs,
		BucketPs:      bucketPs,
		WithCategory:  e.cfg.policy.NeedsCategory(),
	}

	began := time.Now()
	rows, err := e.src.FetchIntervals(ctx, q)
	e.cfg.metrics.observeFetch(e.cfg.name, time.Since(began))
	if err != nil {
		e.cfg.metrics.recordError(e.cfg.name, StageFetch)
		e.log.Warn("interval fetch failed", "window_start_ps", q.WindowStartPs, "window_end_ps", q.WindowEndPs, "error", err)

		return nil, fmt.Errorf("%w: fetch intervals for tracks [%s]: %w", errs.ErrSourceUnavailable, e.scope, err)
	}

	f := frame.Aggregate(rows, frame.Params{
		Start:      start,
		End:        end,
		Resolution: resolution,
		BucketPs:   bucketPs,
		TraceEndPs: e.bounds.EndPs,
		Policy:     e.cfg.policy,
		Convert:    e.cfg.convert,
	})
	e.cfg.metrics.recordFrame(e.cfg.name, f.Len())
	e.log.Debug("frame built",
		"rows", f.Len(),
		"strings", len(f.Strings),
		"bucket_ps", bucketPs,
		"window_start_ps", q.WindowStartPs,
		"window_end_ps", q.WindowEndPs,
	)

	return f, nil
}

// ensureMaxDuration runs the one-time probe. The state only advances when
// both the probe and the bounds lookup succeed.
func (e *Engine) ensureMaxDuration(ctx context.Context) error {
	if e.state == StateMaxDurKnown {
		return nil
	}

	maxDur, ok, err := e.src.ProbeMaxDuration(ctx, e.scope)
	e.cfg.metrics.recordProbe(e.cfg.name, err)
	if err != nil {
		e.cfg.metrics.recordError(e.cfg.name, StageProbe)
		e.log.Warn("max duration probe failed", "error", err)

		return fmt.Errorf("%w: probe max duration for tracks [%s]: %w", errs.ErrSourceUnavailable, e.scope, err)
	}
	if !ok || maxDur < 0 {
		maxDur = 0
	}

	bounds, err := e.src.TraceBounds(ctx)
	if err != nil {
		e.cfg.metrics.recordError(e.cfg.name, StageBounds)
		e.log.Warn("trace bounds lookup failed", "error", err)

		return fmt.Errorf("%w: trace bounds: %w", errs.ErrSourceUnavailable, err)
	}

	e.maxDurPs = maxDur
	e.bounds = bounds
	e.state = StateMaxDurKnown
	e.log.Debug("max duration known", "max_dur_ps", maxDur, "trace_end_ps", bounds.EndPs)

	return nil
}

func validateWindow(start, end float64) error {
	for _, v := range []float64{start, end} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v*bucket.PsPerSecond) >= maxWindowPs {
			return fmt.Errorf("%w: non-finite or out of range bound %v", errs.ErrInvalidWindow, v)
		}
	}
	if end < start {
		return fmt.Errorf("%w: end %v before start %v", errs.ErrInvalidWindow, end, start)
	}

	return nil
}

func saturatingSub(a, b int64) int64 {
	if b > 0 && a < math.MinInt64+b {
		return math.MinInt64
	}

	return a - b
}
