package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

type tokenRefused struct{}

func (tokenRefused) Error() string               { return "token refused" }
func (tokenRefused) AuthenticationFailure() bool { return true }

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "forbidden",
			err:  fmt.Errorf("submit: %w", tokenRefused{}),
			want: SchedulerJobReasonForbidden,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  &pgconn.PgError{Code: "40001"},
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SchedulerJobReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClassifySchedulerErrorType(t *testing.T) {
	if got := ClassifySchedulerErrorType(tokenRefused{}); got != SchedulerErrorTypeAuthorization {
		t.Fatalf("expected authorization, got %q", got)
	}
	if got := ClassifySchedulerErrorType(gorm.ErrRecordNotFound); got != SchedulerErrorTypeBusinessRule {
		t.Fatalf("expected business rule for not found, got %q", got)
	}
	if !IsSchedulerErrorRetryable(&pgconn.PgError{Code: "40001"}) {
		t.Fatalf("expected pg errors to be retryable")
	}
	if IsSchedulerErrorRetryable(errors.New("invalid document")) {
		t.Fatalf("expected plain errors to be terminal")
	}
}

func TestAddBatchProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "etabridge",
		Environment: "test",
	})

	metrics.AddBatchProcessed("autofetch_status", "documents", 3)
	metrics.AddBatchProcessed("autofetch_status", "documents", 0)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("autofetch_status", "documents"))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
}
