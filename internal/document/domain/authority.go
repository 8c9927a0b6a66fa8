package domain

import (
	"context"

	"github.com/smallbiznis/etabridge/internal/eta/client"
)

//go:generate mockgen -source=authority.go -destination=mock/mock_authority.go -package=mock

// Authority is the subset of the ETA client the document service drives.
type Authority interface {
	SubmitDocuments(ctx context.Context, creds client.Credentials, documents []any) (*client.SubmissionResponse, error)
	SubmitReceipts(ctx context.Context, creds client.Credentials, receipts []any) (*client.SubmissionResponse, error)
	DocumentRaw(ctx context.Context, creds client.Credentials, uuid string) (*client.DocumentRaw, error)
	ReceiptRaw(ctx context.Context, creds client.Credentials, uuid string) (*client.DocumentRaw, error)
	DocumentPDF(ctx context.Context, creds client.Credentials, uuid string) ([]byte, error)
	CancelDocument(ctx context.Context, creds client.Credentials, uuid, reason string) error
}
