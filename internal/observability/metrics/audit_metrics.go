package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	JobReasonDeadlineExceeded     = "deadline_exceeded"
	JobReasonDBLockTimeout        = "db_lock_timeout"
	JobReasonSerializationFailure = "serialization_failure"
	JobReasonUniqueViolation      = "unique_violation"
	JobReasonUnknown              = "unknown"
)

// AuditMetrics captures calculation pipeline and background job health.
type AuditMetrics struct {
	runs            *prometheus.CounterVec
	classes         *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	recommendations prometheus.Histogram
	tariffFallbacks *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobErrors       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobProcessed    *prometheus.CounterVec
}

var (
	auditMetricsOnce sync.Once
	auditMetrics     *AuditMetrics
)

// Audit returns the process-wide audit metrics registered on the default registerer.
func Audit() *AuditMetrics {
	return AuditWithConfig(Config{})
}

func AuditWithConfig(cfg Config) *AuditMetrics {
	auditMetricsOnce.Do(func() {
		auditMetrics = NewAuditMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return auditMetrics
}

// NewAuditMetrics registers a fresh set of collectors; tests pass their own registry.
func NewAuditMetrics(registerer prometheus.Registerer, cfg Config) *AuditMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "voltix"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &AuditMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "voltix_audit_runs_total",
			Help:        "Audit runs by outcome (success or failure reason).",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		classes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "voltix_audit_energy_class_total",
			Help:        "Successful audits by assigned energy class.",
			ConstLabels: constLabels,
		}, []string{"class"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "voltix_audit_run_duration_seconds",
			Help:        "End-to-end audit run latency.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "voltix_audit_stage_duration_seconds",
			Help:        "Latency of each audit pipeline stage.",
			Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			ConstLabels: constLabels,
		}, []string{"stage"}),
		recommendations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "voltix_audit_recommendations",
			Help:        "Recommendations produced per successful audit.",
			Buckets:     []float64{1, 2, 3, 4, 5},
			ConstLabels: constLabels,
		}),
		tariffFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "voltix_tariff_fallback_total",
			Help:        "Audits priced with the fallback tariff because the country code was unknown.",
			ConstLabels: constLabels,
		}, []string{"country"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "voltix_scheduler_job_runs_total",
			Help:        "Scheduler job runs by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "voltix_scheduler_job_errors_total",
			Help:        "Scheduler job failures by reason.",
			ConstLabels: constLabels,
		}, []string{"job", "reason"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "voltix_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "voltix_scheduler_job_processed_total",
			Help:        "Rows touched by scheduler jobs.",
			ConstLabels: constLabels,
		}, []string{"job"}),
	}

	registerer.MustRegister(
		m.runs,
		m.classes,
		m.runDuration,
		m.stageDuration,
		m.recommendations,
		m.tariffFallbacks,
		m.jobRuns,
		m.jobErrors,
		m.jobDuration,
		m.jobProcessed,
	)
	return m
}

// ObserveRun records one finished audit. class is empty for failed runs.
func (m *AuditMetrics) ObserveRun(outcome, class string, recommendations int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if class != "" {
		m.classes.WithLabelValues(class).Inc()
		m.recommendations.Observe(float64(recommendations))
	}
}

func (m *AuditMetrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// IncTariffFallback counts a fallback lookup. The label is clamped so caller
// input cannot grow the series set past the two-letter code space.
func (m *AuditMetrics) IncTariffFallback(country string) {
	if m == nil {
		return
	}
	m.tariffFallbacks.WithLabelValues(CountryLabel(country)).Inc()
}

// CountryLabel returns country when it is two upper-case ASCII letters,
// "empty" for a blank code and "invalid" otherwise.
func CountryLabel(country string) string {
	if country == "" {
		return "empty"
	}
	if len(country) != 2 {
		return "invalid"
	}
	for i := 0; i < len(country); i++ {
		if country[i] < 'A' || country[i] > 'Z' {
			return "invalid"
		}
	}
	return country
}

// ObserveJob records a scheduler job execution and classifies its error, if any.
func (m *AuditMetrics) ObserveJob(job string, processed int64, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
	if processed > 0 {
		m.jobProcessed.WithLabelValues(job).Add(float64(processed))
	}
	if err != nil {
		m.jobErrors.WithLabelValues(job, ClassifyJobReason(err)).Inc()
	}
}

// ClassifyJobReason maps a job error to a bounded label value.
func ClassifyJobReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return JobReasonDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return JobReasonUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03":
			return JobReasonDBLockTimeout
		case "40001":
			return JobReasonSerializationFailure
		case "23505":
			return JobReasonUniqueViolation
		}
	}
	return JobReasonUnknown
}
