package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/etabridge/internal/observability/context"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-9")
	ctx = obscontext.WithCompany(ctx, "Acme")
	WithContext(ctx, base).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "req-9", fields["request_id"])
	require.Equal(t, "Acme", fields["company"])
	require.NotContains(t, fields, "correlation_id")
	require.Contains(t, fields, "trace_id")
}

func TestWithDocument(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	WithDocument(zap.New(core), "Sales Invoice", " SINV-0001 ").Info("built")

	fields := logs.All()[0].ContextMap()
	require.Equal(t, "Sales Invoice", fields["document_kind"])
	require.Equal(t, "SINV-0001", fields["document_name"])
	require.Nil(t, WithDocument(nil, "a", "b"))
}

func TestStatementTarget(t *testing.T) {
	cases := []struct {
		sql, op, table string
	}{
		{`SELECT * FROM "eta_logs" WHERE id = $1`, "SELECT", "eta_logs"},
		{`INSERT INTO "eta_logs" ("id") VALUES ($1)`, "INSERT", "eta_logs"},
		{`UPDATE "eta_documents" SET status = $1`, "UPDATE", "eta_documents"},
		{`DELETE FROM eta_logs WHERE id = 1`, "DELETE", "eta_logs"},
		{``, "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := statementTarget(tc.sql)
		if op != tc.op || table != tc.table {
			t.Fatalf("statementTarget(%q) = %q, %q; want %q, %q", tc.sql, op, table, tc.op, tc.table)
		}
	}
}
