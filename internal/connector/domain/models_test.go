package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
)

func TestEnvironmentEndpoints(t *testing.T) {
	c := &Connector{Environment: EnvironmentProduction}
	assert.Equal(t, "https://api.invoicing.eta.gov.eg/api/v1", c.BaseURL())
	assert.Equal(t, "https://id.eta.gov.eg/connect/token", c.IdentityURL())

	c.Environment = "Pre-Production"
	assert.Equal(t, "https://api.preprod.invoicing.eta.gov.eg/api/v1", c.BaseURL())
	assert.Equal(t, "https://id.preprod.eta.gov.eg/connect/token", c.IdentityURL())
}

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"":           EnvironmentPreProduction,
		"preprod":    EnvironmentPreProduction,
		"Production": EnvironmentProduction,
		"PROD":       EnvironmentProduction,
	}
	for raw, want := range cases {
		got, ok := ParseEnvironment(raw)
		if !ok || got != want {
			t.Fatalf("ParseEnvironment(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	_, ok := ParseEnvironment("staging")
	assert.False(t, ok)
}

func TestCredentialsCarryPOSOnlyForReceipts(t *testing.T) {
	c := &Connector{
		Name:         "main",
		Kind:         etadomain.KindInvoice,
		Environment:  EnvironmentPreProduction,
		ClientID:     "id",
		ClientSecret: "secret",
		POSSerial:    "SER-1",
	}
	creds := c.Credentials()
	assert.False(t, creds.POS())
	assert.Equal(t, "main", creds.Connector)
	assert.Equal(t, "PREPROD", creds.Environment)

	c.Kind = etadomain.KindReceipt
	c.POSOSVersion = "os"
	creds = c.Credentials()
	assert.True(t, creds.POS())
	assert.Equal(t, "SER-1", creds.POSSerial)
	assert.Equal(t, "os", creds.POSOSVersion)
}

func TestSignatureRequired(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := &Connector{Kind: etadomain.KindInvoice}
	assert.True(t, c.SignatureRequired(start.AddDate(-1, 0, 0)))

	c.SignatureStartDate = &start
	assert.False(t, c.SignatureRequired(start.Add(-time.Minute)))
	assert.True(t, c.SignatureRequired(start))

	c.Kind = etadomain.KindReceipt
	assert.False(t, c.SignatureRequired(start.Add(time.Hour)))
}

func TestGracePeriod(t *testing.T) {
	c := &Connector{}
	assert.Equal(t, 168*time.Hour, c.GracePeriod(168*time.Hour))
	c.GracePeriodHours = 72
	assert.Equal(t, 72*time.Hour, c.GracePeriod(168*time.Hour))
}

func TestValidate(t *testing.T) {
	valid := func() *Connector {
		return &Connector{
			Company:      "ACME",
			Name:         "acme-prod",
			Kind:         etadomain.KindInvoice,
			Environment:  EnvironmentProduction,
			ClientID:     "id",
			ClientSecret: "secret",
		}
	}
	assert.NoError(t, valid().Validate())

	c := valid()
	c.Company = " "
	assert.ErrorIs(t, c.Validate(), ErrInvalidCompany)

	c = valid()
	c.Kind = "order"
	assert.ErrorIs(t, c.Validate(), ErrInvalidKind)

	c = valid()
	c.ClientSecret = ""
	assert.ErrorIs(t, c.Validate(), ErrInvalidCredentials)

	c = valid()
	c.Kind = etadomain.KindReceipt
	assert.ErrorIs(t, c.Validate(), ErrMissingPOSSerial)

	c = valid()
	c.GracePeriodHours = -1
	assert.ErrorIs(t, c.Validate(), ErrInvalidGracePeriod)
}
