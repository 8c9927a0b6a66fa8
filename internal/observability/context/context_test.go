package context

import (
	"context"
	"testing"
	"time"
)

func TestContextValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	ctx = WithCompany(ctx, "Acme Egypt")
	ctx = WithCorrelationID(ctx, "01HX")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected trimmed request id, got %q", got)
	}
	if got := CompanyFromContext(ctx); got != "Acme Egypt" {
		t.Fatalf("unexpected company %q", got)
	}
	if got := CorrelationIDFromContext(ctx); got != "01HX" {
		t.Fatalf("unexpected correlation id %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestNewCorrelationIDSortsByTime(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := NewCorrelationID(base)
	b := NewCorrelationID(base.Add(time.Second))
	if len(a) != 26 {
		t.Fatalf("expected 26 character ulid, got %q", a)
	}
	if a >= b {
		t.Fatalf("expected %s < %s", a, b)
	}
}
