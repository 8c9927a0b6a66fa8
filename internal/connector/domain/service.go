package domain

import (
	"context"
	"time"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Connector, error)
	Get(ctx context.Context, name string) (*Connector, error)
	List(ctx context.Context, company string) ([]Connector, error)
	// Default returns the company's default connector for the document kind.
	Default(ctx context.Context, company string, kind etadomain.DocumentKind) (*Connector, error)
	// Defaults lists every default connector of the kind across companies.
	Defaults(ctx context.Context, kind etadomain.DocumentKind) ([]Connector, error)
}

type CreateRequest struct {
	Company            string     `json:"company"`
	Name               string     `json:"name"`
	Kind               string     `json:"kind"`
	Environment        string     `json:"environment"`
	ClientID           string     `json:"client_id"`
	ClientSecret       string     `json:"client_secret"`
	POSSerial          string     `json:"pos_serial,omitempty"`
	POSOSVersion       string     `json:"pos_os_version,omitempty"`
	SignatureStartDate *time.Time `json:"signature_start_date,omitempty"`
	GracePeriodHours   int        `json:"grace_period_hours,omitempty"`
	IsDefault          bool       `json:"is_default"`
}
