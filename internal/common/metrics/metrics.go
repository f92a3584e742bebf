// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	DraftSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draft_saves_total",
			Help: "Total draft save operations by direction",
		},
		[]string{"direction"},
	)

	AccessOTPValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_otp_validations_total",
			Help: "Total OTP validation attempts by outcome",
		},
		[]string{"outcome"},
	)

	BankSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bank_submissions_total",
			Help: "Total partner bank submissions by bank and outcome",
		},
		[]string{"bank_id", "outcome"},
	)
)
