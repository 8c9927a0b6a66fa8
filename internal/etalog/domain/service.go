package domain

import (
	"context"

	"github.com/smallbiznis/etabridge/internal/eta/submission"
)

type Service interface {
	Start(ctx context.Context, req StartRequest) (*Log, error)
	// Finish stores the classified result on the log and its document rows.
	Finish(ctx context.Context, log *Log, result submission.Result) error
	Get(ctx context.Context, id string) (*Log, error)
}
