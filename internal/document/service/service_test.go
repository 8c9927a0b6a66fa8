package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/config"
	connectordomain "github.com/smallbiznis/etabridge/internal/connector/domain"
	connectorrepo "github.com/smallbiznis/etabridge/internal/connector/repository"
	connectorsvc "github.com/smallbiznis/etabridge/internal/connector/service"
	"github.com/smallbiznis/etabridge/internal/document/domain"
	"github.com/smallbiznis/etabridge/internal/document/domain/mock"
	"github.com/smallbiznis/etabridge/internal/eta/client"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
	etalogdomain "github.com/smallbiznis/etabridge/internal/etalog/domain"
	etalogrepo "github.com/smallbiznis/etabridge/internal/etalog/repository"
	etalogsvc "github.com/smallbiznis/etabridge/internal/etalog/service"
	recorddomain "github.com/smallbiznis/etabridge/internal/record/domain"
	recordrepo "github.com/smallbiznis/etabridge/internal/record/repository"
	recordsvc "github.com/smallbiznis/etabridge/internal/record/service"
	"github.com/smallbiznis/etabridge/pkg/db"
	"github.com/smallbiznis/etabridge/pkg/db/pagination"
)

type fixture struct {
	svc        domain.Service
	authority  *mock.MockAuthority
	records    recorddomain.Service
	connectors connectordomain.Service
	logs       etalogdomain.Service
	clock      *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	conn := db.NewTest(t,
		&connectordomain.Connector{},
		&recorddomain.Record{},
		&etalogdomain.Log{},
		&etalogdomain.LogDocument{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC))
	settings := config.NewStaticSettingsHolder(config.DefaultETASettings())
	log := zap.NewNop()

	f := &fixture{
		authority: mock.NewMockAuthority(ctrl),
		clock:     clk,
	}
	f.records = recordsvc.New(recordsvc.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Settings: settings, Repo: recordrepo.Provide(),
	})
	f.connectors = connectorsvc.New(connectorsvc.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: connectorrepo.Provide(),
	})
	f.logs = etalogsvc.New(etalogsvc.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: etalogrepo.Provide(),
	})
	f.svc = New(Params{
		Records:    f.records,
		Connectors: f.connectors,
		Logs:       f.logs,
		Authority:  f.authority,
		Settings:   settings,
		Clock:      clk,
		Log:        log,
	})
	return f
}

func (f *fixture) connector(t *testing.T, company string, signatureFrom *time.Time) {
	t.Helper()
	_, err := f.connectors.Create(context.Background(), connectordomain.CreateRequest{
		Company:            company,
		Name:               company + "-preprod",
		Kind:               "invoice",
		Environment:        "PREPROD",
		ClientID:           "client",
		ClientSecret:       "secret",
		SignatureStartDate: signatureFrom,
		IsDefault:          true,
	})
	require.NoError(t, err)
}

func (f *fixture) invoice(t *testing.T, company, name, signature string) {
	t.Helper()
	payload, err := json.Marshal(salesRecord(company, signature))
	require.NoError(t, err)
	_, err = f.records.Put(context.Background(), etadomain.KindInvoice, name, payload)
	require.NoError(t, err)
}

func salesRecord(company, signature string) *etadomain.SalesRecord {
	return &etadomain.SalesRecord{
		Company:        company,
		Currency:       "EGP",
		ConversionRate: 1,
		PostingDate:    "2024-01-15",
		PostingTime:    "10:30:00",
		Total:          200,
		NetTotal:       200,
		BaseTotal:      200,
		BaseNetTotal:   200,
		GrandTotal:     228,
		BaseGrandTotal: 228,
		Signature:      signature,
		Items: []etadomain.SalesItem{{
			ItemCode:    "WID-1",
			ItemName:    "Widget",
			UOM:         "Nos",
			ETAUnitType: "EA",
			ETAItemCode: "6224000000000",
			ETACodeType: "GS1",
			Qty:         2,
			Rate:        100,
			NetRate:     100,
			Amount:      200,
			NetAmount:   200,
			BaseAmount:  200,
		}},
		Taxes: []etadomain.TaxRule{{
			ChargeType:                 etadomain.ChargeOnNetTotal,
			TaxType:                    "T1",
			SubType:                    "V009",
			Rate:                       14,
			ItemWiseTaxDetail:          etadomain.ItemTaxDetail{"WID-1": {14, 28}},
			TaxAmountAfterDiscount:     28,
			BaseTaxAmountAfterDiscount: 28,
		}},
		CompanyInfo: etadomain.Company{
			Name:         company,
			TaxID:        "123456789",
			IssuerName:   company + " LLC",
			IssuerType:   "B",
			ActivityCode: "4620",
			CountryCode:  "EG",
		},
		Branch: etadomain.Branch{Name: "HQ", ETABranchID: "0"},
		BranchAddress: etadomain.Address{
			AddressLine1:   "Makram Ebeid",
			City:           "Nasr City",
			State:          "Cairo",
			BuildingNumber: "12",
		},
		Customer: etadomain.Customer{
			Name:         "CUST-0001",
			CustomerName: "Client Co",
			ReceiverType: "B",
			TaxID:        "987654321",
		},
	}
}

func future() *time.Time {
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return &at
}

func TestSubmitPartialBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connector(t, "ACME", future())
	f.invoice(t, "ACME", "SINV-1", "")
	f.invoice(t, "ACME", "SINV-2", "")

	f.authority.EXPECT().
		SubmitDocuments(gomock.Any(), gomock.Any(), gomock.Len(2)).
		DoAndReturn(func(_ context.Context, creds client.Credentials, _ []any) (*client.SubmissionResponse, error) {
			assert.Equal(t, "ACME-preprod", creds.Connector)
			return &client.SubmissionResponse{
				StatusCode:        202,
				SubmissionID:      "SUB-1",
				AcceptedDocuments: []client.AcceptedDocument{{UUID: "UUID-1", LongID: "LONG-1", InternalID: "SINV-1", HashKey: "HASH-1"}},
				RejectedDocuments: []client.RejectedDocument{{InternalID: "SINV-2", Error: client.AuthorityError{Code: "2", Message: "Validation Error"}}},
			}, nil
		})

	out, err := f.svc.Submit(ctx, domain.SubmitRequest{Kind: etadomain.KindInvoice, Names: []string{"SINV-1", " SINV-2", "SINV-1"}})
	require.NoError(t, err)
	require.Len(t, out.Batches, 1)
	assert.Empty(t, out.Skipped)

	batch := out.Batches[0]
	assert.Equal(t, submission.StatusPartiallySucceeded, batch.Result.Status)
	assert.Equal(t, 1, batch.Result.Accepted)
	assert.Equal(t, 1, batch.Result.Rejected)

	accepted, err := f.records.Get(ctx, etadomain.KindInvoice, "SINV-1")
	require.NoError(t, err)
	assert.Equal(t, submission.StateSubmitted, accepted.ETAStatus)
	assert.Equal(t, "UUID-1", accepted.ETAUUID)
	assert.Equal(t, "SUB-1", accepted.SubmissionID)

	rejected, err := f.records.Get(ctx, etadomain.KindInvoice, "SINV-2")
	require.NoError(t, err)
	assert.Equal(t, submission.StateRejected, rejected.ETAStatus)
	assert.Contains(t, rejected.LastError, "Validation Error")

	entry, err := f.logs.Get(ctx, batch.LogID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusPartiallySucceeded, entry.Status)
	assert.Len(t, entry.Documents, 2)

	_, err = f.svc.Submit(ctx, domain.SubmitRequest{Kind: etadomain.KindInvoice, Names: []string{"SINV-1"}, Strict: true})
	assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)
}

func TestSubmitSkipsLocalFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connector(t, "ACME", nil)
	f.invoice(t, "ACME", "SINV-UNSIGNED", "")

	out, err := f.svc.Submit(ctx, domain.SubmitRequest{Kind: etadomain.KindInvoice, Names: []string{"SINV-UNSIGNED", "SINV-MISSING"}})
	require.NoError(t, err)
	assert.Empty(t, out.Batches)
	require.Len(t, out.Skipped, 2)
	assert.ErrorIs(t, out.Skipped[0].Err, domain.ErrSignatureRequired)
	assert.ErrorIs(t, out.Skipped[1].Err, recorddomain.ErrNotFound)

	f.clock.Advance(8 * 24 * time.Hour)
	_, err = f.svc.Submit(ctx, domain.SubmitRequest{Kind: etadomain.KindInvoice, Names: []string{"SINV-UNSIGNED"}, Strict: true})
	assert.ErrorIs(t, err, domain.ErrGracePeriodExceeded)

	_, err = f.svc.Submit(ctx, domain.SubmitRequest{Kind: etadomain.KindInvoice, Names: []string{" "}})
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestSubmitCallFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connector(t, "ACME", future())
	f.invoice(t, "ACME", "SINV-1", "")

	f.authority.EXPECT().
		SubmitDocuments(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))

	out, err := f.svc.Submit(ctx, domain.SubmitRequest{Kind: etadomain.KindInvoice, Names: []string{"SINV-1"}})
	require.Error(t, err)
	require.Len(t, out.Batches, 1)
	assert.Equal(t, submission.StatusFailed, out.Batches[0].Result.Status)

	rec, err := f.records.Get(ctx, etadomain.KindInvoice, "SINV-1")
	require.NoError(t, err)
	assert.Equal(t, submission.StateUnsubmitted, rec.ETAStatus)
	assert.Equal(t, "connection reset", rec.LastError)
}

func TestConnectorOverrideMustMatchCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connector(t, "ACME", future())
	f.connector(t, "OTHER", future())
	f.invoice(t, "ACME", "SINV-1", "")

	_, err := f.svc.Submit(ctx, domain.SubmitRequest{
		Kind:      etadomain.KindInvoice,
		Names:     []string{"SINV-1"},
		Connector: "OTHER-preprod",
		Strict:    true,
	})
	assert.ErrorIs(t, err, domain.ErrConnectorMismatch)
}

func TestFetchStatusAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connector(t, "ACME", future())
	f.invoice(t, "ACME", "SINV-1", "")

	_, err := f.svc.FetchStatus(ctx, etadomain.KindInvoice, "SINV-1")
	assert.ErrorIs(t, err, domain.ErrNotSubmitted)

	uuid := "UUID-1"
	require.NoError(t, f.records.UpdateETA(ctx, etadomain.KindInvoice, "SINV-1", recorddomain.ETAUpdate{
		Status: submission.StateSubmitted,
		UUID:   &uuid,
	}))

	f.authority.EXPECT().
		DocumentRaw(gomock.Any(), gomock.Any(), "UUID-1").
		Return(&client.DocumentRaw{UUID: "UUID-1", LongID: "LONG-1", Status: "Valid"}, nil)

	status, err := f.svc.FetchStatus(ctx, etadomain.KindInvoice, "SINV-1")
	require.NoError(t, err)
	assert.Equal(t, submission.StateSubmitted, status.PreviousState)
	assert.Equal(t, submission.StateValid, status.State)

	_, err = f.svc.Cancel(ctx, "SINV-1", " ")
	assert.ErrorIs(t, err, submission.ErrCancelReason)

	f.authority.EXPECT().
		CancelDocument(gomock.Any(), gomock.Any(), "UUID-1", "wrong customer").
		Return(nil)

	cancelled, err := f.svc.Cancel(ctx, "SINV-1", "wrong customer")
	require.NoError(t, err)
	assert.Equal(t, submission.StateCancelled, cancelled.State)

	rec, err := f.records.Get(ctx, etadomain.KindInvoice, "SINV-1")
	require.NoError(t, err)
	assert.Equal(t, submission.StateCancelled, rec.ETAStatus)
	assert.Equal(t, "LONG-1", rec.LongID)
}

func TestFetchStatusUsesReceiptEndpointForReceipts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.connectors.Create(ctx, connectordomain.CreateRequest{
		Company:      "ACME",
		Name:         "ACME-pos",
		Kind:         "receipt",
		Environment:  "PREPROD",
		ClientID:     "client",
		ClientSecret: "secret",
		POSSerial:    "SER-1",
		IsDefault:    true,
	})
	require.NoError(t, err)
	payload, err := json.Marshal(salesRecord("ACME", ""))
	require.NoError(t, err)
	_, err = f.records.Put(ctx, etadomain.KindReceipt, "RCPT-1", payload)
	require.NoError(t, err)

	uuid := "R-UUID-1"
	require.NoError(t, f.records.UpdateETA(ctx, etadomain.KindReceipt, "RCPT-1", recorddomain.ETAUpdate{
		Status: submission.StateSubmitted,
		UUID:   &uuid,
	}))

	f.authority.EXPECT().
		ReceiptRaw(gomock.Any(), gomock.Any(), "R-UUID-1").
		Return(&client.DocumentRaw{UUID: "R-UUID-1", Status: "Valid"}, nil)

	status, err := f.svc.FetchStatus(ctx, etadomain.KindReceipt, "RCPT-1")
	require.NoError(t, err)
	assert.Equal(t, submission.StateValid, status.State)
	assert.Equal(t, "Valid", status.AuthorityStatus)
}

func TestDownloadAndSignerFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connector(t, "ACME", nil)
	f.invoice(t, "ACME", "SINV-1", "")

	filename, body, err := f.svc.Download(ctx, etadomain.KindInvoice, "SINV-1")
	require.NoError(t, err)
	assert.Equal(t, "ETA-SINV-1.json", filename)
	assert.Contains(t, string(body), "\n    \"issuer\"")

	pending, err := f.svc.PendingSignatures(ctx, "ACME", pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, pending.Records, 1)

	inv, err := f.svc.UnsignedInvoice(ctx, "SINV-1")
	require.NoError(t, err)
	assert.Equal(t, etadomain.DocumentTypeVersionSigned, inv.DocumentTypeVersion)
	assert.Empty(t, inv.Signatures)

	_, err = f.svc.StoreSignature(ctx, "SINV-1", "MIIB-signature")
	require.NoError(t, err)

	pending, err = f.svc.PendingSignatures(ctx, "ACME", pagination.Pagination{})
	require.NoError(t, err)
	assert.Empty(t, pending.Records)

	doc, err := f.svc.Build(ctx, etadomain.KindInvoice, "SINV-1")
	require.NoError(t, err)
	assert.Equal(t, etadomain.DocumentTypeVersionSigned, doc.Invoice.DocumentTypeVersion)
}
