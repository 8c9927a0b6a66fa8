package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/connector/domain"
	"github.com/smallbiznis/etabridge/internal/connector/repository"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/pkg/db"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{
		DB:    db.NewTest(t, &domain.Connector{}),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func invoiceRequest(name string, isDefault bool) domain.CreateRequest {
	return domain.CreateRequest{
		Company:      "ACME",
		Name:         name,
		Kind:         "invoice",
		Environment:  "Production",
		ClientID:     "client",
		ClientSecret: "secret",
		IsDefault:    isDefault,
	}
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, invoiceRequest("acme-prod", true))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.EnvironmentProduction, created.Environment)

	got, err := svc.Get(ctx, "acme-prod")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "secret", got.ClientSecret)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, IsNotFound(err))
}

func TestOnlyOneDefaultPerCompanyAndKind(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, invoiceRequest("first", true))
	require.NoError(t, err)

	_, err = svc.Create(ctx, invoiceRequest("second", true))
	assert.ErrorIs(t, err, domain.ErrDefaultConnectorExists)

	_, err = svc.Create(ctx, invoiceRequest("second", false))
	require.NoError(t, err)

	_, err = svc.Create(ctx, invoiceRequest("second", false))
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	pos := invoiceRequest("pos", true)
	pos.Kind = "receipt"
	pos.POSSerial = "SER-1"
	created, err := svc.Create(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, "os", created.POSOSVersion)

	def, err := svc.Default(ctx, "ACME", etadomain.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, "first", def.Name)

	_, err = svc.Default(ctx, "Other Co", etadomain.KindInvoice)
	assert.ErrorIs(t, err, domain.ErrNoDefaultConnector)
}

func TestDefaultsAcrossCompanies(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, company := range []string{"B Co", "A Co"} {
		req := invoiceRequest(company+" conn", true)
		req.Company = company
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, invoiceRequest("not-default", false))
	require.NoError(t, err)

	defaults, err := svc.Defaults(ctx, etadomain.KindInvoice)
	require.NoError(t, err)
	require.Len(t, defaults, 2)
	assert.Equal(t, "A Co", defaults[0].Company)
	assert.Equal(t, "B Co", defaults[1].Company)

	listed, err := svc.List(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "not-default", listed[0].Name)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := invoiceRequest("x", false)
	req.Environment = "staging"
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)

	req = invoiceRequest("x", false)
	req.Kind = "order"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	req = invoiceRequest("x", false)
	req.Kind = "receipt"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrMissingPOSSerial)
}
