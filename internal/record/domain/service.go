package domain

import (
	"context"
	"time"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/pkg/db/pagination"
)

type Service interface {
	etadomain.RecordSource

	// Put stores the raw ERP payload, creating the record or replacing an editable one.
	Put(ctx context.Context, kind etadomain.DocumentKind, name string, payload []byte) (*Record, error)
	Get(ctx context.Context, kind etadomain.DocumentKind, name string) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]Record, error)
	UpdateETA(ctx context.Context, kind etadomain.DocumentKind, name string, update ETAUpdate) error
	SetSignature(ctx context.Context, name, signature string) (*Record, error)
	ListUnsigned(ctx context.Context, company string, postedFrom *time.Time, page pagination.Pagination) (ListResponse, error)
}

type ListResponse struct {
	Records  []Record            `json:"records"`
	PageInfo pagination.PageInfo `json:"page_info"`
}
