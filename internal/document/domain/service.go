package domain

import (
	"context"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	recorddomain "github.com/smallbiznis/etabridge/internal/record/domain"
	"github.com/smallbiznis/etabridge/pkg/db/pagination"
)

type Service interface {
	Build(ctx context.Context, kind etadomain.DocumentKind, name string) (*Document, error)
	// Validate builds the document and returns the itemized validation error, if any.
	Validate(ctx context.Context, kind etadomain.DocumentKind, name string) error
	Download(ctx context.Context, kind etadomain.DocumentKind, name string) (string, []byte, error)
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	FetchStatus(ctx context.Context, kind etadomain.DocumentKind, name string) (*StatusResult, error)
	Cancel(ctx context.Context, name, reason string) (*StatusResult, error)
	PDF(ctx context.Context, name string) ([]byte, error)

	PendingSignatures(ctx context.Context, company string, page pagination.Pagination) (recorddomain.ListResponse, error)
	UnsignedInvoice(ctx context.Context, name string) (*etadomain.Invoice, error)
	StoreSignature(ctx context.Context, name, signature string) (*recorddomain.Record, error)
}
