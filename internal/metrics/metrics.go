// Package metrics counts what a harvest run did and dumps the counters as a
// Prometheus textfile once the run ends.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Harvest holds the counters of one harvest run. It uses its own registry so
// a run can be dumped to a node_exporter textfile at exit.
type Harvest struct {
	Registry *prometheus.Registry

	CandidatesListed prometheus.Gauge
	CandidatesNew    prometheus.Gauge
	FetchOutcomes    *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	RowsAppended     prometheus.Counter
	FallbackWrites   prometheus.Counter
	RunAborted       prometheus.Gauge
	LastRunFinished  prometheus.Gauge
}

func NewHarvest() *Harvest {
	h := &Harvest{
		Registry: prometheus.NewRegistry(),
		CandidatesListed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "animeharvest_candidates_listed",
			Help: "Candidates returned by the seasonal listing.",
		}),
		CandidatesNew: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "animeharvest_candidates_new",
			Help: "Candidates left after dropping ids already stored.",
		}),
		FetchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animeharvest_fetch_outcomes_total",
			Help: "Detail fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "animeharvest_fetch_duration_seconds",
			Help:    "Duration of detail fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		RowsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animeharvest_rows_appended_total",
			Help: "Rows appended to the Animes table.",
		}),
		FallbackWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animeharvest_fallback_writes_total",
			Help: "Times the fallback CSV was written because the store append failed.",
		}),
		RunAborted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "animeharvest_run_aborted",
			Help: "1 when the last run stopped before its last candidate.",
		}),
		LastRunFinished: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "animeharvest_last_run_finished_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}

	h.Registry.MustRegister(
		h.CandidatesListed,
		h.CandidatesNew,
		h.FetchOutcomes,
		h.FetchDuration,
		h.RowsAppended,
		h.FallbackWrites,
		h.RunAborted,
		h.LastRunFinished,
	)
	return h
}

// WriteTextfile dumps the registry in the text exposition format.
func (h *Harvest) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, h.Registry)
}
