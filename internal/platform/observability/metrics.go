package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendradar_events_ingested_total",
		Help: "The total number of ingested raw events",
	}, []string{"source"})

	EventsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendradar_events_deduplicated_total",
		Help: "The total number of raw events dropped as duplicates",
	}, []string{"source"})

	MatchVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendradar_match_verdicts_total",
		Help: "The total number of matcher verdicts by outcome",
	}, []string{"outcome"})

	MatchConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trendradar_match_confidence",
		Help:    "Distribution of accepted match confidence values",
		Buckets: []float64{0.80, 0.82, 0.85, 0.88, 0.90, 0.92, 0.95, 0.98, 1.0},
	})

	MatchBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trendradar_match_backlog_size",
		Help: "Number of events awaiting a match verdict",
	})

	AggregatesComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendradar_aggregates_computed_total",
		Help: "The total number of daily rollups computed",
	}, []string{"status"})

	AnalysesProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendradar_analyses_produced_total",
		Help: "The total number of emerging analyses produced",
	}, []string{"stage"})

	AnalysisScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trendradar_analysis_score",
		Help:    "Distribution of final analysis scores",
		Buckets: []float64{0, 5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	AnalysisBatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trendradar_analysis_batch_duration_seconds",
		Help:    "Duration in seconds to analyze one day's cohort",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendradar_jobs_processed_total",
		Help: "The total number of ingest jobs processed",
	}, []string{"job_type", "status"})

	JobBacklog = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trendradar_job_backlog_size",
		Help: "Number of ingest jobs by status",
	}, []string{"status"})

	FetchRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendradar_fetch_request_duration_seconds",
		Help:    "Duration of outbound fetch requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"host"})

	FetchRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendradar_fetch_retries_total",
		Help: "The total number of retried outbound fetches",
	}, []string{"host"})

	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendradar_alerts_emitted_total",
		Help: "The total number of alerts emitted",
	}, []string{"kind"})
)
