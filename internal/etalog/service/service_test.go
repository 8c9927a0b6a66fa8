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
	"github.com/smallbiznis/etabridge/internal/eta/client"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
	"github.com/smallbiznis/etabridge/internal/etalog/domain"
	"github.com/smallbiznis/etabridge/internal/etalog/repository"
	"github.com/smallbiznis/etabridge/pkg/db"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{
		DB:    db.NewTest(t, &domain.Log{}, &domain.LogDocument{}),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestStartAndFinish(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Start(ctx, domain.StartRequest{
		Kind:      etadomain.KindInvoice,
		Company:   "ACME",
		Connector: "acme-prod",
		Names:     []string{"SINV-1", "SINV-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusStarted, entry.Status)

	stored, err := svc.Get(ctx, entry.ID.String())
	require.NoError(t, err)
	assert.Equal(t, submission.StatusStarted, stored.Status)
	require.Len(t, stored.Documents, 2)

	resp := &client.SubmissionResponse{
		StatusCode:        202,
		SubmissionID:      "SUB-1",
		AcceptedDocuments: []client.AcceptedDocument{{UUID: "U1", LongID: "L1", InternalID: "SINV-1"}},
		RejectedDocuments: []client.RejectedDocument{{
			InternalID: "SINV-2",
			Error:      client.AuthorityError{Message: "bad", Target: "SINV-2"},
		}},
	}
	result := submission.Classify(etadomain.KindInvoice, []string{"SINV-1", "SINV-2"}, resp, nil)
	require.NoError(t, svc.Finish(ctx, entry, result))

	stored, err = svc.Get(ctx, entry.ID.String())
	require.NoError(t, err)
	assert.Equal(t, submission.StatusPartiallySucceeded, stored.Status)
	assert.Equal(t, "SUB-1", stored.SubmissionID)
	assert.Equal(t, 1, stored.Accepted)
	assert.Equal(t, 1, stored.Rejected)
	assert.Contains(t, stored.Summary, "Total no of documents: 2")

	require.Len(t, stored.Documents, 2)
	assert.True(t, stored.Documents[0].Accepted)
	assert.Equal(t, "U1", stored.Documents[0].UUID)
	assert.Equal(t, submission.StateSubmitted, stored.Documents[0].State)
	assert.False(t, stored.Documents[1].Accepted)
	assert.Equal(t, submission.StateRejected, stored.Documents[1].State)
	assert.Contains(t, stored.Documents[1].ErrorText, "Error Message: bad")
}

func TestStartRequiresNames(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Start(context.Background(), domain.StartRequest{Kind: etadomain.KindInvoice})
	assert.ErrorIs(t, err, domain.ErrNoNames)
}

func TestGetErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Get(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
