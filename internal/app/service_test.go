package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/smear/internal/adapters/dataset"
	service "github.com/okian/smear/internal/app"
	"github.com/okian/smear/internal/config"
	"github.com/okian/smear/internal/domain/detector"
	"github.com/okian/smear/internal/domain/smearing"
	"github.com/okian/smear/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.InitWithWriter(io.Discard)
	if err != nil {
		panic(err)
	}
}

var schema = dataset.Schema{
	{Name: "energy_true", Type: dataset.TypeReal},
	{Name: "cos_zenith_true", Type: dataset.TypeReal},
	{Name: "event_id", Type: dataset.TypeInteger},
}

func writeInput(path string, rows [][]any) {
	ctx := context.Background()
	w, err := dataset.CreateWriter(ctx, path, schema)
	So(err, ShouldBeNil)
	for _, r := range rows {
		So(w.Write(ctx, r), ShouldBeNil)
	}
	So(w.Close(), ShouldBeNil)
}

func sampleRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{float64(i + 1), float64(i%21)/10 - 1, int64(i)}
	}
	return rows
}

func readOutput(path string) [][]any {
	ctx := context.Background()
	r, err := dataset.OpenReader(ctx, path)
	So(err, ShouldBeNil)
	defer func() { _ = r.Close() }()
	So(r.Schema(), ShouldResemble, schema.WithSmeared())
	var rows [][]any
	for {
		row, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			return rows
		}
		So(err, ShouldBeNil)
		rows = append(rows, row)
	}
}

func fixedConfig(seed int64) *config.Config {
	cfg := config.New()
	cfg.SeedPolicy = config.SeedFixed
	cfg.Seed = seed
	return cfg
}

func TestOutputLabel(t *testing.T) {
	Convey("Given engine configurations", t, func() {
		cf := func(level float64) smearing.Config {
			c := smearing.DefaultConfig()
			c.SmearLevel = level
			return c
		}

		So(service.OutputLabel(cf(0.1)), ShouldEqual, "10_percent")
		So(service.OutputLabel(cf(0.07)), ShouldEqual, "7_percent")
		So(service.OutputLabel(cf(5)), ShouldEqual, "500_percent")
		So(service.OutputLabel(cf(0.125)), ShouldEqual, "12.5_percent")
		So(service.OutputLabel(smearing.Config{Profile: detector.Orca6, Strategy: detector.Parametric}), ShouldEqual, "orca6")
		So(service.OutputLabel(smearing.Config{Profile: detector.Antares, Strategy: detector.Parametric}), ShouldEqual, "antares")
	})
}

func TestEntropySeed(t *testing.T) {
	Convey("Given entropy seeds", t, func() {
		a, b := service.EntropySeed(), service.EntropySeed()
		So(a, ShouldBeGreaterThanOrEqualTo, 0)
		So(b, ShouldBeGreaterThanOrEqualTo, 0)
		So(a, ShouldNotEqual, b)
	})
}

func TestEngineConfig(t *testing.T) {
	Convey("Given a parametric ANTARES configuration with an override", t, func() {
		cfg := config.New()
		cfg.Strategy = "parametric"
		cfg.SmearLevel = 0.2
		cfg.Profiles = map[string]config.Coefficients{"antares": {Direction: []float64{1, 1, 1, 0}}}

		ec, err := service.EngineConfig(cfg)

		So(err, ShouldBeNil)
		So(ec.Profile, ShouldEqual, detector.Antares)
		So(ec.Strategy, ShouldEqual, detector.Parametric)
		So(ec.SmearLevel, ShouldEqual, 0.2)
		So(ec.Params, ShouldNotBeNil)
		So(ec.Params.Direction, ShouldResemble, detector.Curve{A: 1, B: 1, C: 1, D: 0})
	})

	Convey("Given field settings", t, func() {
		cfg := config.New()
		cfg.FieldConvention = dataset.ConventionRecoTrue
		cfg.CosZenithField = "cz"

		f, err := service.Fields(cfg)
		So(err, ShouldBeNil)
		So(f, ShouldResemble, dataset.Fields{Energy: "energy_recoTrue", CosZenith: "cz"})
	})
}

func TestService_Smear(t *testing.T) {
	Convey("Given a SQLite input dataset", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		input := filepath.Join(dir, "input.db")
		writeInput(input, sampleRows(200))

		Convey("When it is smeared twice with the same fixed seed", func() {
			first := filepath.Join(dir, "first.db")
			second := filepath.Join(dir, "second.msgpack")

			res1, err := service.New(fixedConfig(99)).Smear(ctx, input, first)
			So(err, ShouldBeNil)
			res2, err := service.New(fixedConfig(99)).Smear(ctx, input, second)
			So(err, ShouldBeNil)

			Convey("Then both outputs hold the same smeared values", func() {
				So(res1.Seed, ShouldEqual, int64(99))
				So(res1.Label, ShouldEqual, "10_percent")
				So(res1.Diagnostics.Events, ShouldEqual, int64(200))
				So(res1.Diagnostics.Draws, ShouldEqual, res2.Diagnostics.Draws)

				a, b := readOutput(first), readOutput(second)
				So(len(a), ShouldEqual, 200)
				So(b, ShouldResemble, a)
				for _, row := range a {
					So(row[3].(float64), ShouldBeGreaterThan, 0)
					So(row[4].(float64), ShouldBeBetweenOrEqual, -1, 1)
				}
			})
		})

		Convey("When the entropy policy is used", func() {
			out := filepath.Join(dir, "entropy.db")
			svc := service.New(config.New(), service.WithEntropy(func() int64 { return 1234 }))

			res, err := svc.Smear(ctx, input, out)

			So(err, ShouldBeNil)
			So(res.Seed, ShouldEqual, int64(1234))
		})

		Convey("When a metrics file is configured", func() {
			cfg := fixedConfig(1)
			cfg.MetricsFile = filepath.Join(dir, "smear.prom")

			_, err := service.New(cfg).Smear(ctx, input, filepath.Join(dir, "out.db"))
			So(err, ShouldBeNil)

			data, err := os.ReadFile(cfg.MetricsFile)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "smear_engine_events_smeared_total")
		})

		Convey("When output and input are the same file", func() {
			_, err := service.New(fixedConfig(1)).Smear(ctx, input, input)

			So(errors.Is(err, service.ErrSameFile), ShouldBeTrue)
			_, statErr := os.Stat(input)
			So(statErr, ShouldBeNil)
		})

		Convey("When the configured fields are missing", func() {
			cfg := fixedConfig(1)
			cfg.FieldConvention = dataset.ConventionRecoTrue
			out := filepath.Join(dir, "missing.db")

			_, err := service.New(cfg).Smear(ctx, input, out)

			So(errors.Is(err, dataset.ErrMissingField), ShouldBeTrue)
			_, statErr := os.Stat(out)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})

		Convey("When the configuration is invalid", func() {
			cfg := fixedConfig(1)
			cfg.Detector = "ORCA6"

			_, err := service.New(cfg).Smear(ctx, input, filepath.Join(dir, "bad.db"))

			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given an input with an unphysical event", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		input := filepath.Join(dir, "bad.db")
		rows := sampleRows(10)
		rows[6][1] = 2.5
		writeInput(input, rows)
		out := filepath.Join(dir, "out.db")

		res, err := service.New(fixedConfig(5)).Smear(ctx, input, out)

		Convey("Then the run fails and leaves no partial output", func() {
			So(errors.Is(err, service.ErrRunFailed), ShouldBeTrue)
			So(errors.Is(err, smearing.ErrInvalidEvent), ShouldBeTrue)
			So(res.Diagnostics.Events, ShouldEqual, int64(6))
			_, statErr := os.Stat(out)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})
	})

	Convey("Given a missing input", t, func() {
		dir := t.TempDir()
		_, err := service.New(fixedConfig(1)).Smear(context.Background(), filepath.Join(dir, "none.db"), filepath.Join(dir, "out.db"))
		So(errors.Is(err, dataset.ErrOpen), ShouldBeTrue)
	})
}

func TestAddCan(t *testing.T) {
	Convey("Given a smeared SQLite dataset", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "smeared.db")
		writeInput(path, sampleRows(3))

		Convey("When the ANTARES can is added", func() {
			So(service.AddCan(ctx, path, detector.Antares), ShouldBeNil)

			can, err := dataset.ReadCanDimensions(ctx, path)
			So(err, ShouldBeNil)
			So(can, ShouldResemble, detector.CanDimensions{ZMin: -271.42, ZMax: 357.94, Radius: 279.45})
		})

		Convey("When a profile without geometry is used", func() {
			err := service.AddCan(ctx, path, detector.Orca6)
			So(errors.Is(err, detector.ErrNoGeometry), ShouldBeTrue)
		})
	})
}

func TestService_UnresolvablePaths(t *testing.T) {
	Convey("Given a working directory that no longer exists", t, func() {
		dir := filepath.Join(t.TempDir(), "gone")
		So(os.Mkdir(dir, 0o755), ShouldBeNil)
		t.Chdir(dir)
		So(os.Remove(dir), ShouldBeNil)

		Convey("When relative paths are smeared", func() {
			_, err := service.New(fixedConfig(1)).Smear(context.Background(), "in.db", "out.db")

			Convey("Then the failure is an open error, not a same-file error", func() {
				So(errors.Is(err, dataset.ErrOpen), ShouldBeTrue)
				So(errors.Is(err, service.ErrSameFile), ShouldBeFalse)
			})
		})
	})
}
