// Package smearing runs the detector-resolution smearing engine over an
// event dataset: for every event it derives a kernel width per axis from the
// resolution model and replaces the true value by a truncated normal draw.
package smearing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/smear/internal/domain/detector"
	"github.com/okian/smear/internal/domain/model"
	"github.com/okian/smear/internal/domain/sampler"
	"github.com/okian/smear/pkg/logger"
	"github.com/okian/smear/pkg/metrics"
)

// FWHMToSigma converts a full width at half maximum to a standard deviation.
const FWHMToSigma = 2.3548200450309493 // 2*sqrt(2*ln 2)

// MinDirectionSigma floors the direction kernel so that it never degenerates.
const MinDirectionSigma = 0.001

// progressSteps is the number of progress reports over a run.
const progressSteps = 100

// EventSource yields events in dataset order.
type EventSource interface {
	// Len returns the number of events the source will yield.
	Len() int64
	// Next returns the next event, or io.EOF after the last one.
	Next(ctx context.Context) (model.Event, error)
}

// EventSink receives smeared events.
type EventSink interface {
	Append(ctx context.Context, e model.Event) error
}

// Engine smears one dataset. An Engine runs at most once; the diagnostics
// and the pseudorandom stream belong to that run.
type Engine struct {
	cfg   Config
	rng   sampler.Source
	runID string
	label string
	now   func() time.Time

	logger logger.Logger

	mu    sync.Mutex
	state State
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRunID sets the identifier reported in logs and diagnostics.
func WithRunID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.runID = id
		}
	}
}

// WithLabel sets the output label used for run metrics, e.g. "10_percent".
func WithLabel(label string) Option {
	return func(e *Engine) {
		if label != "" {
			e.label = label
		}
	}
}

// WithClock replaces time.Now for elapsed-time accounting.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an idle Engine drawing from rng.
func New(cfg Config, rng sampler.Source, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg,
		rng:   rng,
		runID: uuid.New().String(),
		label: string(cfg.Profile),
		now:   time.Now,
		state: Idle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.GetOrNop().Named("smearing")
	}
	return e
}

// State returns the engine's lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run smears every event of src, in order and exactly once, appending the
// result to sink. On failure the returned diagnostics cover the events
// appended so far and the sink contents must be discarded.
func (e *Engine) Run(ctx context.Context, src EventSource, sink EventSink) (Diagnostics, error) {
	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		return Diagnostics{}, ErrAlreadyRun
	}
	m, err := e.cfg.model()
	if err != nil {
		e.mu.Unlock()
		return Diagnostics{}, err
	}
	if e.rng == nil {
		e.mu.Unlock()
		return Diagnostics{}, fmt.Errorf("%w: no random source", detector.ErrConfiguration)
	}
	e.state = Running
	e.mu.Unlock()

	r := &run{
		Engine:    e,
		model:     m,
		energy:    sampler.New(sampler.WithMaxDraws(e.cfg.MaxDraws), sampler.WithAxis(model.AxisEnergy)),
		direction: sampler.New(sampler.WithMaxDraws(e.cfg.MaxDraws), sampler.WithAxis(model.AxisDirection)),
		diag:      Diagnostics{RunID: e.runID},
	}

	start := e.now()
	err = r.loop(ctx, src, sink)
	r.diag.Elapsed = e.now().Sub(start)

	if err != nil {
		e.setState(Failed)
		metrics.RecordRun(Failed.String())
		metrics.RecordErrorByComponent("engine", errorType(err))
		e.logger.Error(ctx, "smearing run failed",
			logger.String("runID", e.runID),
			logger.Int64("events", r.diag.Events),
			logger.Error(err),
		)
		return r.diag, err
	}

	e.setState(Completed)
	metrics.RecordRun(Completed.String())
	metrics.RecordRunCompleted(e.label, r.diag.Events, r.diag.RejectionOverhead(), r.diag.Elapsed.Seconds())
	e.logger.Info(ctx, "smearing run completed",
		logger.String("runID", e.runID),
		logger.Int64("events", r.diag.Events),
		logger.Int64("draws", r.diag.Draws),
		logger.Float64("overheadPercent", r.diag.Overhead()),
		logger.Duration("elapsed", r.diag.Elapsed),
	)
	return r.diag, nil
}

// Run smears src into sink with a fresh Engine.
func Run(ctx context.Context, cfg Config, src EventSource, sink EventSink, rng sampler.Source, opts ...Option) (Diagnostics, error) {
	return New(cfg, rng, opts...).Run(ctx, src, sink)
}

// run holds the per-run state of an Engine.
type run struct {
	*Engine
	model     *detector.Model
	energy    *sampler.Sampler
	direction *sampler.Sampler
	diag      Diagnostics
}

func (r *run) loop(ctx context.Context, src EventSource, sink EventSink) error {
	total := src.Len()
	step := total / progressSteps
	if step < 1 {
		step = 1
	}

	r.logger.Info(ctx, "smearing run started",
		logger.String("runID", r.runID),
		logger.String("detector", string(r.cfg.Profile)),
		logger.String("strategy", string(r.cfg.Strategy)),
		logger.Float64("smearLevel", r.cfg.SmearLevel),
		logger.Float64("asymmetryEnergy", r.cfg.AsymmetryEnergy),
		logger.Float64("asymmetryDirection", r.cfg.AsymmetryDirection),
		logger.Int64("events", total),
	)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("smearing cancelled after %d events: %w", r.diag.Events, err)
		}

		ev, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read event %d: %w", r.diag.Events, err)
		}

		if err := r.smear(&ev); err != nil {
			return fmt.Errorf("event %d: %w", r.diag.Events, err)
		}
		if err := sink.Append(ctx, ev); err != nil {
			return fmt.Errorf("append event %d: %w", r.diag.Events, err)
		}
		r.diag.Events++
		metrics.RecordEventSmeared()

		if r.diag.Events%step == 0 && total > 0 {
			r.logger.Info(ctx, "smearing progress",
				logger.Int64("processed", r.diag.Events),
				logger.Int64("percent", r.diag.Events*100/total),
			)
		}
	}
}

// smear fills the smeared fields of ev.
func (r *run) smear(ev *model.Event) error {
	if !finite(ev.EnergyTrue) || ev.EnergyTrue <= 0 {
		return fmt.Errorf("%w: true energy %v is not positive", ErrInvalidEvent, ev.EnergyTrue)
	}
	if !finite(ev.CosZenithTrue) || ev.CosZenithTrue < -1 || ev.CosZenithTrue > 1 {
		return fmt.Errorf("%w: true direction cosine %v is outside [-1,1]", ErrInvalidEvent, ev.CosZenithTrue)
	}

	fwhmEn, err := r.model.FWHM(model.AxisEnergy, ev.EnergyTrue, r.cfg.SmearLevel)
	if err != nil {
		return err
	}
	fwhmDir, err := r.model.FWHM(model.AxisDirection, ev.CosZenithTrue, r.cfg.SmearLevel)
	if err != nil {
		return err
	}

	sigmaEn := fwhmEn / FWHMToSigma * r.cfg.AsymmetryEnergy
	sigmaDir := math.Max(fwhmDir/FWHMToSigma*r.cfg.AsymmetryDirection, MinDirectionSigma)

	en, d1, err := r.energy.Sample(ev.EnergyTrue, sigmaEn, sampler.Positive, r.rng)
	r.count(model.AxisEnergy, d1, sigmaEn)
	if err != nil {
		return err
	}
	dir, d2, err := r.direction.Sample(ev.CosZenithTrue, sigmaDir, sampler.UnitInterval, r.rng)
	r.count(model.AxisDirection, d2, sigmaDir)
	if err != nil {
		return err
	}

	ev.EnergySmeared = en
	ev.CosZenithSmeared = dir
	return nil
}

func (r *run) count(a model.Axis, draws int, sigma float64) {
	if draws == 0 {
		return
	}
	r.diag.Draws += int64(draws)
	if a == model.AxisEnergy {
		r.diag.EnergyDraws += int64(draws)
	} else {
		r.diag.DirectionDraws += int64(draws)
	}
	metrics.RecordSample(a.String(), draws, sigma)
}

// errorType classifies a run failure for metrics.
func errorType(err error) string {
	switch {
	case errors.Is(err, sampler.ErrSamplingStalled):
		return "sampling_stalled"
	case errors.Is(err, sampler.ErrInvalidSigma):
		return "invalid_sigma"
	case errors.Is(err, detector.ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrInvalidEvent):
		return "invalid_event"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "io"
	}
}
