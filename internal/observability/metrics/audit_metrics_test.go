package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifyJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: JobReasonDeadlineExceeded},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: JobReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: JobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: JobReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: JobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestObserveRunCountsClassOnlyOnSuccess(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewAuditMetrics(registry, Config{ServiceName: "voltix", Environment: "test"})

	m.ObserveRun("success", "A", 2, 10*time.Millisecond)
	m.ObserveRun("no_equipment_data", "", 0, time.Millisecond)

	if got := testutil.ToFloat64(m.runs.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 success run, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("no_equipment_data")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
	if got := testutil.ToFloat64(m.classes.WithLabelValues("A")); got != 1 {
		t.Fatalf("expected class A counted once, got %v", got)
	}
}

func TestObserveJobRecordsErrors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewAuditMetrics(registry, Config{})

	m.ObserveJob("archive_inactive_projects", 4, nil, time.Second)
	m.ObserveJob("archive_inactive_projects", 0, &pgconn.PgError{Code: "40001"}, time.Second)

	if got := testutil.ToFloat64(m.jobRuns.WithLabelValues("archive_inactive_projects")); got != 2 {
		t.Fatalf("expected 2 runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobProcessed.WithLabelValues("archive_inactive_projects")); got != 4 {
		t.Fatalf("expected 4 processed rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobErrors.WithLabelValues("archive_inactive_projects", JobReasonSerializationFailure)); got != 1 {
		t.Fatalf("expected 1 serialization failure, got %v", got)
	}
}

func TestCountryLabel(t *testing.T) {
	cases := map[string]string{
		"":          "empty",
		"BJ":        "BJ",
		"bj":        "invalid",
		"BEN":       "invalid",
		"B1":        "invalid",
		"junk-1234": "invalid",
	}
	for in, want := range cases {
		if got := CountryLabel(in); got != want {
			t.Fatalf("CountryLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
