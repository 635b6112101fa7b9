package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powertracker_requests_total",
			Help: "Total number of API requests per path",
		},
		[]string{"path"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "powertracker_request_duration_seconds",
			Help:    "Request duration in seconds per path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powertracker_request_errors_total",
			Help: "Total number of error responses per path and code",
		},
		[]string{"path", "code"},
	)

	BillsCalculatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "powertracker_bills_calculated_total",
			Help: "Total number of bills computed",
		},
	)

	BillsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powertracker_bills_rejected_total",
			Help: "Total number of bill calculations rejected per reason",
		},
		[]string{"reason"},
	)

	UnitsConsumed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "powertracker_units_consumed",
			Help:    "Distribution of units consumed per calculated bill",
			Buckets: []float64{10, 50, 100, 150, 200, 300, 500, 1000},
		},
	)

	ForecastsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "powertracker_forecasts_generated_total",
			Help: "Total number of forecasts computed from history",
		},
	)
)

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "powertracker_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "powertracker_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powertracker_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
