// Package generator writes synthetic true-event datasets: energies drawn
// log-uniformly between two bounds and isotropic direction cosines, plus a
// few passthrough columns.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/okian/smear/internal/adapters/dataset"
	"github.com/okian/smear/pkg/logger"
)

// Passthrough columns written after the true-value fields.
const (
	ColumnEventID = "event_id"
	ColumnFlavour = "flavour"
	ColumnIsCC    = "is_cc"
	ColumnWeight  = "weight"
)

// ccFraction is the share of charged-current interactions.
const ccFraction = 0.7

var flavours = []string{"nue", "numu", "nutau"} //nolint:gochecknoglobals // fixed lookup table

// Config controls event generation.
type Config struct {
	Events    int
	Seed      int64
	EnergyMin float64
	EnergyMax float64
	Fields    dataset.Fields
}

// DefaultConfig generates 10000 events between 1 and 1000 GeV under the
// "true" field convention.
func DefaultConfig() Config {
	return Config{
		Events:    10_000,
		Seed:      1,
		EnergyMin: 1,
		EnergyMax: 1000,
		Fields:    dataset.DefaultFields(),
	}
}

// Validate checks the generation bounds.
func (c Config) Validate() error {
	if c.Events < 0 {
		return fmt.Errorf("%w: events must not be negative, got %d", ErrInvalidConfig, c.Events)
	}
	if !(c.EnergyMin > 0) || !(c.EnergyMax >= c.EnergyMin) || math.IsInf(c.EnergyMax, 0) {
		return fmt.Errorf("%w: energy range [%v, %v] must be positive and ordered", ErrInvalidConfig, c.EnergyMin, c.EnergyMax)
	}
	if c.Fields.Energy == "" || c.Fields.CosZenith == "" {
		return fmt.Errorf("%w: field names must be set", ErrInvalidConfig)
	}
	return nil
}

// Schema returns the columns written for fields.
func Schema(fields dataset.Fields) dataset.Schema {
	return dataset.Schema{
		{Name: fields.Energy, Type: dataset.TypeReal},
		{Name: fields.CosZenith, Type: dataset.TypeReal},
		{Name: ColumnEventID, Type: dataset.TypeInteger},
		{Name: ColumnFlavour, Type: dataset.TypeText},
		{Name: ColumnIsCC, Type: dataset.TypeInteger},
		{Name: ColumnWeight, Type: dataset.TypeReal},
	}
}

// Stats summarizes a generation run.
type Stats struct {
	Events  int
	Elapsed time.Duration
}

// Generate writes cfg.Events records to w. The same seed yields the same
// records. w is neither committed nor aborted.
func Generate(ctx context.Context, cfg Config, w dataset.RowWriter) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	log := logger.GetOrNop().Named("generator")
	log.Info(ctx, "generating events",
		logger.Int("numEvents", cfg.Events),
		logger.Int64("seed", cfg.Seed),
		logger.Float64("energyMin", cfg.EnergyMin),
		logger.Float64("energyMax", cfg.EnergyMax),
	)

	start := time.Now()
	r := rand.New(rand.NewSource(cfg.Seed))
	span := math.Log(cfg.EnergyMax / cfg.EnergyMin)

	var stats Stats
	for i := 0; i < cfg.Events; i++ {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("context cancelled during event generation: %w", err)
		}
		energy := cfg.EnergyMin * math.Exp(r.Float64()*span)
		cos := 2*r.Float64() - 1
		isCC := int64(0)
		if r.Float64() < ccFraction {
			isCC = 1
		}
		row := []any{
			energy,
			cos,
			int64(i),
			flavours[r.Intn(len(flavours))],
			isCC,
			spectrumWeight(energy, span),
		}
		if err := w.Write(ctx, row); err != nil {
			return stats, fmt.Errorf("failed to write event %d: %w", i, err)
		}
		stats.Events++
	}
	stats.Elapsed = time.Since(start)

	log.Info(ctx, "event generation complete",
		logger.Int("numEvents", stats.Events),
		logger.Duration("elapsed", stats.Elapsed),
	)
	return stats, nil
}

// spectrumWeight reweights a log-uniform sample to an E^-2 spectrum.
func spectrumWeight(energy, span float64) float64 {
	if span == 0 {
		return 1 / (energy * energy)
	}
	return span / energy
}

// GenerateFile writes a new dataset at path. A failed run leaves no file.
func GenerateFile(ctx context.Context, cfg Config, path string, opts ...dataset.Option) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	w, err := dataset.CreateWriter(ctx, path, Schema(cfg.Fields), opts...)
	if err != nil {
		return Stats{}, err
	}
	stats, err := Generate(ctx, cfg, w)
	if err != nil {
		return stats, errors.Join(err, w.Abort())
	}
	if err := w.Close(); err != nil {
		return stats, errors.Join(err, w.Abort())
	}
	return stats, nil
}
