package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/smear/internal/adapters/dataset"
	"github.com/okian/smear/internal/cli"
	"github.com/okian/smear/internal/config"
	"github.com/okian/smear/internal/generator"
	"github.com/okian/smear/pkg/logger"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

func execute(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := cli.Execute(context.Background(), newRootCmd(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeEvents(path string, n int) {
	cfg := generator.DefaultConfig()
	cfg.Events = n
	_, err := generator.GenerateFile(context.Background(), cfg, path)
	convey.So(err, convey.ShouldBeNil)
}

func TestApplyArgs(t *testing.T) {
	convey.Convey("Given positional arguments", t, func() {
		convey.Convey("When four are given", func() {
			cfg := config.New()
			in, out, err := applyArgs(cfg, []string{"in.db", "out.db", "10", "N"})

			convey.So(err, convey.ShouldBeNil)
			convey.So(in, convey.ShouldEqual, "in.db")
			convey.So(out, convey.ShouldEqual, "out.db")
			convey.So(cfg.SmearLevel, convey.ShouldAlmostEqual, 0.1)
			convey.So(cfg.Strategy, convey.ShouldEqual, "constant-fraction")
			convey.So(cfg.Detector, convey.ShouldEqual, "ANTARES")
		})

		convey.Convey("When seven are given", func() {
			cfg := config.New()
			_, _, err := applyArgs(cfg, []string{"in.db", "out.db", "0", "Y", "orca115", "1.2", "0.8"})

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Strategy, convey.ShouldEqual, "parametric")
			convey.So(cfg.Detector, convey.ShouldEqual, "ORCA115")
			convey.So(cfg.AsymmetryEnergy, convey.ShouldEqual, 1.2)
			convey.So(cfg.AsymmetryDirection, convey.ShouldEqual, 0.8)
		})

		convey.Convey("When values are malformed", func() {
			for _, args := range [][]string{
				{"in.db", "out.db", "ten", "N"},
				{"in.db", "out.db", "-5", "N"},
				{"in.db", "out.db", "10", "maybe"},
				{"in.db", "out.db", "10", "Y", "KM3NET"},
				{"in.db", "out.db", "10", "Y", "ORCA6", "x", "1"},
			} {
				_, _, err := applyArgs(config.New(), args)
				convey.So(err, convey.ShouldNotBeNil)
			}
		})
	})
}

func TestSmearCommand(t *testing.T) {
	convey.Convey("Given a generated input dataset", t, func() {
		for _, env := range []string{"SMEAR_CONFIG", "SMEAR_SEED", "SMEAR_SEED_POLICY"} {
			_ = os.Unsetenv(env)
		}
		dir := t.TempDir()
		input := filepath.Join(dir, "events.db")
		writeEvents(input, 100)

		convey.Convey("When smearing with a fixed seed", func() {
			output := filepath.Join(dir, "smeared.db")
			code, stdout, _ := execute(input, output, "10", "N", "--seed", "7")

			convey.Convey("Then it succeeds and writes the output", func() {
				convey.So(code, convey.ShouldEqual, cli.ExitOK)
				convey.So(stdout, convey.ShouldContainSubstring, "Smeared 100 events")
				convey.So(stdout, convey.ShouldContainSubstring, "10_percent, seed 7")
				convey.So(stdout, convey.ShouldContainSubstring, "Additional percentage of random samplings")

				r, err := dataset.OpenReader(context.Background(), output)
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.Len(), convey.ShouldEqual, int64(100))
				convey.So(r.Schema().Index(dataset.EnergySmeared), convey.ShouldBeGreaterThan, 0)
				convey.So(r.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When smearing parametrically for ORCA6 into MessagePack", func() {
			output := filepath.Join(dir, "orca6.msgpack")
			code, stdout, _ := execute(input, output, "10", "Y", "ORCA6", "--seed", "1")

			convey.So(code, convey.ShouldEqual, cli.ExitOK)
			convey.So(stdout, convey.ShouldContainSubstring, "(orca6, seed 1)")
		})

		convey.Convey("When the arity is wrong", func() {
			code, _, stderr := execute(input, "out.db", "10")

			convey.So(code, convey.ShouldEqual, cli.ExitUsage)
			convey.So(stderr, convey.ShouldContainSubstring, "Usage:")
		})

		convey.Convey("When constant fraction is asked of ORCA", func() {
			code, _, stderr := execute(input, filepath.Join(dir, "x.db"), "10", "N", "ORCA6")

			convey.So(code, convey.ShouldEqual, cli.ExitUsage)
			convey.So(stderr, convey.ShouldContainSubstring, "does not support")
		})

		convey.Convey("When both seed flags are set", func() {
			code, _, _ := execute(input, filepath.Join(dir, "x.db"), "10", "N", "--seed", "1", "--entropy-seed")
			convey.So(code, convey.ShouldEqual, cli.ExitUsage)
		})

		convey.Convey("When the input does not exist", func() {
			output := filepath.Join(dir, "none-out.db")
			code, _, stderr := execute(filepath.Join(dir, "missing.db"), output, "10", "N")

			convey.So(code, convey.ShouldEqual, cli.ExitFailure)
			convey.So(stderr, convey.ShouldContainSubstring, "dataset open failed")
			_, err := os.Stat(output)
			convey.So(os.IsNotExist(err), convey.ShouldBeTrue)
		})

		convey.Convey("When the field convention does not match the input", func() {
			code, _, _ := execute(input, filepath.Join(dir, "reco.db"), "10", "N", "--fields", "recoTrue")
			convey.So(code, convey.ShouldEqual, cli.ExitFailure)
		})
	})
}
