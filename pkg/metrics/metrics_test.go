package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "smear")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithDrawBuckets([]float64{1, 2, 4}),
				WithDurationBuckets([]float64{0.1, 1}),
				WithCustomLabels(map[string]string{"detector": "ANTARES"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.drawBuckets, ShouldResemble, []float64{1, 2, 4})
			})
		})

		Convey("When creating with empty options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithDrawBuckets(nil),
				WithCustomLabels(nil),
				WithPrometheusRegistry(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "smear")
				So(manager.subsystem, ShouldEqual, "engine")
				So(len(manager.drawBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording a sample that needed three draws", func() {
			before := testutil.ToFloat64(globalManager.rejectedDraws.WithLabelValues("energy"))
			beforeDraws := testutil.ToFloat64(globalManager.draws.WithLabelValues("energy"))
			RecordSample("energy", 3, 0.42)

			Convey("Then draws and rejections are counted", func() {
				So(testutil.ToFloat64(globalManager.draws.WithLabelValues("energy"))-beforeDraws, ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.rejectedDraws.WithLabelValues("energy"))-before, ShouldEqual, 2)
			})
		})

		Convey("When recording a completed run", func() {
			RecordRunCompleted("10_percent", 1000, 3.5, 1.2)

			Convey("Then the run gauges hold the diagnostics", func() {
				So(testutil.ToFloat64(globalManager.runEvents.WithLabelValues("10_percent")), ShouldEqual, 1000)
				So(testutil.ToFloat64(globalManager.runOverhead.WithLabelValues("10_percent")), ShouldEqual, 3.5)
			})
		})

		Convey("When recording other metrics", func() {
			So(func() {
				RecordEventSmeared()
				RecordRun("completed")
				RecordRun("failed")
				RecordDatasetRecord("sqlite", "read")
				RecordErrorByComponent("engine", "sampling_stalled")
			}, ShouldNotPanic)
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a metrics file path", t, func() {
		RecordEventSmeared()
		path := filepath.Join(t.TempDir(), "smear.prom")

		Convey("When writing the registry", func() {
			err := WriteTextfile(path)

			Convey("Then the file holds the text exposition", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "smear_engine_events_smeared_total")
			})
		})

		Convey("When the directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "smear.prom"))

			Convey("Then a write error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given the custom registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
	})
}
