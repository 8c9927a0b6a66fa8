package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/smallbiznis/etabridge/internal/eta/client"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
)

type Environment string

const (
	EnvironmentPreProduction Environment = "PREPROD"
	EnvironmentProduction    Environment = "PROD"
)

type endpoints struct {
	base     string
	identity string
}

var environmentEndpoints = map[Environment]endpoints{
	EnvironmentPreProduction: {
		base:     "https://api.preprod.invoicing.eta.gov.eg/api/v1",
		identity: "https://id.preprod.eta.gov.eg/connect/token",
	},
	EnvironmentProduction: {
		base:     "https://api.invoicing.eta.gov.eg/api/v1",
		identity: "https://id.eta.gov.eg/connect/token",
	},
}

// ParseEnvironment accepts the short codes and the long display names.
func ParseEnvironment(raw string) (Environment, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "PREPROD", "PRE-PRODUCTION", "PREPRODUCTION":
		return EnvironmentPreProduction, true
	case "PROD", "PRODUCTION":
		return EnvironmentProduction, true
	default:
		return "", false
	}
}

// Connector holds the credentials a company uses against the authority.
// Receipt connectors authenticate as a POS device.
type Connector struct {
	ID      snowflake.ID           `gorm:"primaryKey" json:"id"`
	Company string                 `gorm:"type:text;not null;index" json:"company"`
	Name    string                 `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Kind    etadomain.DocumentKind `gorm:"type:text;not null" json:"kind"`

	Environment  Environment `gorm:"type:text;not null" json:"environment"`
	ClientID     string      `gorm:"column:client_id;type:text;not null" json:"client_id"`
	ClientSecret string      `gorm:"column:client_secret;type:text;not null" json:"-"`
	POSSerial    string      `gorm:"column:pos_serial;type:text" json:"pos_serial,omitempty"`
	POSOSVersion string      `gorm:"column:pos_os_version;type:text" json:"pos_os_version,omitempty"`

	// Documents posted before SignatureStartDate are submitted unsigned.
	SignatureStartDate *time.Time `gorm:"column:signature_start_date" json:"signature_start_date,omitempty"`
	GracePeriodHours   int        `gorm:"column:grace_period_hours;not null;default:0" json:"grace_period_hours"`
	IsDefault          bool       `gorm:"column:is_default;not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Connector) TableName() string { return "connectors" }

func (c *Connector) BaseURL() string {
	return environmentEndpoints[c.environment()].base
}

func (c *Connector) IdentityURL() string {
	return environmentEndpoints[c.environment()].identity
}

func (c *Connector) environment() Environment {
	if env, ok := ParseEnvironment(string(c.Environment)); ok {
		return env
	}
	return EnvironmentPreProduction
}

// Credentials returns what the ETA client needs to authenticate as this connector.
func (c *Connector) Credentials() client.Credentials {
	creds := client.Credentials{
		Connector:    c.Name,
		Environment:  string(c.environment()),
		BaseURL:      c.BaseURL(),
		IdentityURL:  c.IdentityURL(),
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	}
	if c.Kind == etadomain.KindReceipt {
		creds.POSSerial = c.POSSerial
		creds.POSOSVersion = c.POSOSVersion
	}
	return creds
}

// GracePeriod falls back to def when the connector does not set its own window.
func (c *Connector) GracePeriod(def time.Duration) time.Duration {
	if c.GracePeriodHours > 0 {
		return time.Duration(c.GracePeriodHours) * time.Hour
	}
	return def
}

// SignatureRequired reports whether a document posted at postedAt must carry a signature.
func (c *Connector) SignatureRequired(postedAt time.Time) bool {
	if c.Kind == etadomain.KindReceipt {
		return false
	}
	if c.SignatureStartDate == nil {
		return true
	}
	return !postedAt.Before(*c.SignatureStartDate)
}

func (c *Connector) Validate() error {
	if strings.TrimSpace(c.Company) == "" {
		return ErrInvalidCompany
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidName
	}
	if _, err := etadomain.ParseKind(string(c.Kind)); err != nil {
		return ErrInvalidKind
	}
	if _, ok := ParseEnvironment(string(c.Environment)); !ok {
		return ErrInvalidEnvironment
	}
	if strings.TrimSpace(c.ClientID) == "" || c.ClientSecret == "" {
		return ErrInvalidCredentials
	}
	if c.GracePeriodHours < 0 {
		return ErrInvalidGracePeriod
	}
	if c.Kind == etadomain.KindReceipt && strings.TrimSpace(c.POSSerial) == "" {
		return ErrMissingPOSSerial
	}
	return nil
}
