package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every collector is registered", func() {
				So(manager, ShouldNotBeNil)
				manager.cycles.WithLabelValues(OutcomeSuccess).Inc()
				manager.fetchErrors.WithLabelValues("fetch").Inc()
				manager.httpRequests.WithLabelValues("stats", "GET", "200").Inc()
				manager.httpRequestDuration.WithLabelValues("stats", "GET", "200").Observe(1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldEqual, 13)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithCustomLabels(map[string]string{"contest": "final"}),
				WithPrometheusRegistry(registry),
			)
			manager.topScore.Set(100)

			Convey("Then names and labels follow the options", func() {
				expected := `
# HELP test_unit_top_score Score of the rank-1 participant in the last export
# TYPE test_unit_top_score gauge
test_unit_top_score{contest="final"} 100
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_unit_top_score")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording cycles", func() {
			success := testutil.ToFloat64(globalManager.cycles.WithLabelValues(OutcomeSuccess))
			failure := testutil.ToFloat64(globalManager.cycles.WithLabelValues(OutcomeFailure))

			RecordCycle(true, 120)
			RecordCycle(false, 30)
			RecordCycle(false, 40)

			Convey("Then outcomes are counted separately", func() {
				So(testutil.ToFloat64(globalManager.cycles.WithLabelValues(OutcomeSuccess)), ShouldEqual, success+1)
				So(testutil.ToFloat64(globalManager.cycles.WithLabelValues(OutcomeFailure)), ShouldEqual, failure+2)
			})
		})

		Convey("When recording an export", func() {
			RecordExport(137, 100, 1_700_000_000, 12)

			Convey("Then the gauges reflect the last export", func() {
				So(testutil.ToFloat64(globalManager.exportedRecords), ShouldEqual, 137)
				So(testutil.ToFloat64(globalManager.topScore), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.lastSuccessUnix), ShouldEqual, 1_700_000_000)
			})
		})

		Convey("When recording source activity", func() {
			pages := testutil.ToFloat64(globalManager.pagesFetched)
			skipped := testutil.ToFloat64(globalManager.recordsSkipped)
			fetchErrs := testutil.ToFloat64(globalManager.fetchErrors.WithLabelValues("parse"))

			RecordPageFetched(80)
			RecordPageFetched(90)
			RecordRecordSkipped()
			RecordFetchError("parse")

			Convey("Then counters advance", func() {
				So(testutil.ToFloat64(globalManager.pagesFetched), ShouldEqual, pages+2)
				So(testutil.ToFloat64(globalManager.recordsSkipped), ShouldEqual, skipped+1)
				So(testutil.ToFloat64(globalManager.fetchErrors.WithLabelValues("parse")), ShouldEqual, fetchErrs+1)
			})
		})

		Convey("When recording HTTP and write errors", func() {
			So(func() {
				RecordHTTPRequest("stats", "GET", "200")
				RecordHTTPRequestDuration("stats", "GET", "200", 3)
				RecordExportWriteError()
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
