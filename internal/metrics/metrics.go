package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis metrics
var (
	// AnalysesTotal counts completed analysis cycles by final verdict
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquamind_analyses_total",
			Help: "Total number of completed water analyses by verdict",
		},
		[]string{"verdict", "profile"},
	)

	// AnalysesRejected counts triggers rejected while busy or cooling down
	AnalysesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aquamind_analyses_rejected_total",
			Help: "Total number of analysis triggers rejected by the busy/cooldown guard",
		},
	)

	// AnalysisDuration tracks the wall time of one full analysis cycle
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aquamind_analysis_duration_seconds",
			Help:    "Duration of complete analysis cycles in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// OverridesTotal counts safety override rule triggers
	OverridesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquamind_safety_overrides_total",
			Help: "Total number of safety override rule triggers",
		},
		[]string{"rule"},
	)

	// LastJalScore exposes the most recent Jal-Score
	LastJalScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aquamind_last_jal_score",
			Help: "Jal-Score of the most recent analysis",
		},
	)

	// LastStability exposes the most recent aggregate stability
	LastStability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aquamind_last_stability_percent",
			Help: "Aggregate sensor stability of the most recent analysis",
		},
	)
)

// Database metrics
var (
	// DBQueriesTotal tracks the total number of database queries
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries executed",
		},
		[]string{"query_type", "table", "status"},
	)

	// DBQueryDuration tracks the duration of database queries
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type", "table"},
	)
)

// App metrics
var (
	// AppInfo provides static information about the application
	AppInfo = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aquamind_app_info",
			Help: "Application information (always 1)",
		},
	)

	// AppStartTime records when the application started
	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aquamind_app_start_time_seconds",
			Help: "Unix timestamp of when the application started",
		},
	)
)

func init() {
	AppInfo.Set(1)
	AppStartTime.SetToCurrentTime()
}

// RecordAnalysis records a completed analysis cycle
func RecordAnalysis(verdict, profile string, jalScore int, stability float64, duration time.Duration) {
	AnalysesTotal.WithLabelValues(verdict, profile).Inc()
	AnalysisDuration.Observe(duration.Seconds())
	LastJalScore.Set(float64(jalScore))
	LastStability.Set(stability)
}

// RecordOverride records a safety override rule trigger
func RecordOverride(rule string) {
	OverridesTotal.WithLabelValues(rule).Inc()
}

// RecordDBQuery records a database query execution
func RecordDBQuery(queryType, table string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueriesTotal.WithLabelValues(queryType, table, status).Inc()
	DBQueryDuration.WithLabelValues(queryType, table).Observe(duration.Seconds())
}
