package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/smear/internal/adapters/dataset"
	"github.com/okian/smear/internal/cli"
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

func TestAddCanCommand(t *testing.T) {
	convey.Convey("Given a SQLite dataset", t, func() {
		path := filepath.Join(t.TempDir(), "events.db")
		cfg := generator.DefaultConfig()
		cfg.Events = 5
		_, err := generator.GenerateFile(context.Background(), cfg, path)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the can is added", func() {
			code, stdout, _ := execute(path)

			convey.So(code, convey.ShouldEqual, cli.ExitOK)
			convey.So(stdout, convey.ShouldContainSubstring, "ANTARES")

			can, err := dataset.ReadCanDimensions(context.Background(), path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(can.ZMin, convey.ShouldEqual, -271.42)
			convey.So(can.ZMax, convey.ShouldEqual, 357.94)
			convey.So(can.Radius, convey.ShouldEqual, 279.45)
		})

		convey.Convey("When the can is added twice", func() {
			code, _, _ := execute(path)
			convey.So(code, convey.ShouldEqual, cli.ExitOK)
			code, _, _ = execute(path)
			convey.So(code, convey.ShouldEqual, cli.ExitOK)
		})

		convey.Convey("When no path is given", func() {
			code, _, stderr := execute()
			convey.So(code, convey.ShouldEqual, cli.ExitFailure)
			convey.So(stderr, convey.ShouldContainSubstring, "Usage:")
		})

		convey.Convey("When the detector has no recorded geometry", func() {
			code, _, _ := execute(path, "--detector", "ORCA6")
			convey.So(code, convey.ShouldEqual, cli.ExitFailure)
		})

		convey.Convey("When the detector is unknown", func() {
			code, _, _ := execute(path, "--detector", "KM3NET")
			convey.So(code, convey.ShouldEqual, cli.ExitUsage)
		})

		convey.Convey("When the dataset is not SQLite", func() {
			code, _, _ := execute(filepath.Join(t.TempDir(), "events.msgpack"))
			convey.So(code, convey.ShouldEqual, cli.ExitFailure)
		})
	})
}
