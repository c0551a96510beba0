// Package service wires configuration, datasets and the smearing engine
// into a single run.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/smear/internal/adapters/dataset"
	"github.com/okian/smear/internal/config"
	"github.com/okian/smear/internal/domain/detector"
	"github.com/okian/smear/internal/domain/smearing"
	"github.com/okian/smear/pkg/logger"
	"github.com/okian/smear/pkg/metrics"
)

// Result summarizes a completed run.
type Result struct {
	Diagnostics smearing.Diagnostics
	Seed        int64
	Label       string
	Input       string
	Output      string
}

// Service runs smearing jobs for one configuration.
type Service struct {
	cfg     *config.Config
	entropy func() int64
	now     func() time.Time
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEntropy replaces the seed source used under the entropy policy.
func WithEntropy(f func() int64) Option {
	return func(s *Service) {
		if f != nil {
			s.entropy = f
		}
	}
}

// WithClock replaces time.Now for elapsed-time accounting.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service for cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		entropy: EntropySeed,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.GetOrNop().Named("service")
	}
	return s
}

// EngineConfig converts the run configuration into engine settings.
func EngineConfig(cfg *config.Config) (smearing.Config, error) {
	p, err := detector.ParseProfile(cfg.Detector)
	if err != nil {
		return smearing.Config{}, err
	}
	st, err := detector.ParseStrategy(cfg.Strategy)
	if err != nil {
		return smearing.Config{}, err
	}
	params, err := cfg.Params(p)
	if err != nil {
		return smearing.Config{}, err
	}
	ec := smearing.Config{
		Profile:            p,
		Strategy:           st,
		SmearLevel:         cfg.SmearLevel,
		AsymmetryEnergy:    cfg.AsymmetryEnergy,
		AsymmetryDirection: cfg.AsymmetryDirection,
		Params:             params,
		MaxDraws:           cfg.MaxDraws,
	}
	return ec, ec.Validate()
}

// Fields returns the true-value columns selected by cfg.
func Fields(cfg *config.Config) (dataset.Fields, error) {
	f, err := dataset.FieldsFor(cfg.FieldConvention)
	if err != nil {
		return dataset.Fields{}, err
	}
	return f.Override(dataset.Fields{Energy: cfg.EnergyField, CosZenith: cfg.CosZenithField}), nil
}

// Smear reads input, smears every event and writes output. A failed run
// leaves no output file behind.
func (s *Service) Smear(ctx context.Context, input, output string) (Result, error) {
	res := Result{Input: input, Output: output}

	if err := s.cfg.Validate(); err != nil {
		return res, err
	}
	ec, err := EngineConfig(s.cfg)
	if err != nil {
		return res, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	fields, err := Fields(s.cfg)
	if err != nil {
		return res, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	same, err := samePath(input, output)
	if err != nil {
		return res, fmt.Errorf("%w: %v", dataset.ErrOpen, err)
	}
	if same {
		return res, fmt.Errorf("%w: %s", ErrSameFile, output)
	}

	res.Label = OutputLabel(ec)
	res.Seed = seedFor(s.cfg, s.entropy)
	runID := uuid.New().String()

	s.logger.Info(ctx, "starting smearing run",
		logger.String("runID", runID),
		logger.String("input", input),
		logger.String("output", output),
		logger.String("label", res.Label),
		logger.String("seedPolicy", s.cfg.SeedPolicy),
		logger.Int64("seed", res.Seed),
		logger.String("energyField", fields.Energy),
		logger.String("cosZenithField", fields.CosZenith),
	)

	dsOpts := []dataset.Option{dataset.WithTable(s.cfg.Tree), dataset.WithLogger(s.logger.Named("dataset"))}
	src, err := dataset.OpenSource(ctx, input, fields, dsOpts...)
	if err != nil {
		metrics.RecordErrorByComponent("dataset", "open")
		return res, err
	}
	defer func() { _ = src.Close() }()

	sink, err := dataset.CreateSink(ctx, output, src.Schema(), dsOpts...)
	if err != nil {
		metrics.RecordErrorByComponent("dataset", "create")
		return res, err
	}

	engine := smearing.New(ec, rand.New(rand.NewSource(res.Seed)),
		smearing.WithRunID(runID),
		smearing.WithLabel(res.Label),
		smearing.WithClock(s.now),
		smearing.WithLogger(s.logger.Named("engine")),
	)
	res.Diagnostics, err = engine.Run(ctx, src, sink)
	if err != nil {
		s.discard(ctx, sink, output)
		return res, fmt.Errorf("%w: %w", ErrRunFailed, err)
	}
	if err := sink.Close(); err != nil {
		s.discard(ctx, sink, output)
		metrics.RecordErrorByComponent("dataset", "commit")
		return res, err
	}

	if s.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			s.logger.Warn(ctx, "could not write metrics file",
				logger.String("path", s.cfg.MetricsFile),
				logger.Error(err),
			)
		}
	}

	s.logger.Info(ctx, "smearing run finished",
		logger.String("runID", runID),
		logger.Int64("events", res.Diagnostics.Events),
		logger.Int64("draws", res.Diagnostics.Draws),
		logger.Float64("overheadPercent", res.Diagnostics.Overhead()),
		logger.Float64("rejectionOverheadPercent", res.Diagnostics.RejectionOverhead()),
		logger.Duration("elapsed", res.Diagnostics.Elapsed),
	)
	return res, nil
}

// discard drops the partial output of a failed run.
func (s *Service) discard(ctx context.Context, sink *dataset.Sink, output string) {
	if err := sink.Abort(); err != nil {
		s.logger.Warn(ctx, "could not abort output", logger.String("output", output), logger.Error(err))
	}
	if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn(ctx, "could not remove partial output", logger.String("output", output), logger.Error(err))
	}
}

// AddCan writes the can geometry of profile into the SQLite dataset at path.
func AddCan(ctx context.Context, path string, profile detector.Profile) error {
	can, err := detector.Can(profile)
	if err != nil {
		return err
	}
	return dataset.WriteCanDimensions(ctx, path, can)
}

func samePath(a, b string) (bool, error) {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if aa == bb {
		return true, nil
	}
	ai, errA := os.Stat(aa)
	bi, errB := os.Stat(bb)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(ai, bi), nil
}
