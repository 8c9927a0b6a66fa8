package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/config"
	connectordomain "github.com/smallbiznis/etabridge/internal/connector/domain"
	"github.com/smallbiznis/etabridge/internal/document/domain"
	"github.com/smallbiznis/etabridge/internal/eta/builder"
	"github.com/smallbiznis/etabridge/internal/eta/client"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
	etalogdomain "github.com/smallbiznis/etabridge/internal/etalog/domain"
	obscontext "github.com/smallbiznis/etabridge/internal/observability/context"
	"github.com/smallbiznis/etabridge/internal/observability/logger"
	"github.com/smallbiznis/etabridge/internal/observability/metrics"
	recorddomain "github.com/smallbiznis/etabridge/internal/record/domain"
	"github.com/smallbiznis/etabridge/pkg/db/pagination"
)

type Params struct {
	fx.In

	Records    recorddomain.Service
	Connectors connectordomain.Service
	Logs       etalogdomain.Service
	Authority  domain.Authority
	Settings   *config.SettingsHolder
	Clock      clock.Clock
	Metrics    *metrics.Metrics `optional:"true"`
	Log        *zap.Logger
}

type Service struct {
	records    recorddomain.Service
	connectors connectordomain.Service
	logs       etalogdomain.Service
	authority  domain.Authority
	settings   *config.SettingsHolder
	clock      clock.Clock
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		records:    p.Records,
		connectors: p.Connectors,
		logs:       p.Logs,
		authority:  p.Authority,
		settings:   p.Settings,
		clock:      p.Clock,
		metrics:    p.Metrics,
		log:        p.Log.Named("document.service"),
	}
}

// builder binds a fresh builder to the current settings snapshot.
func (s *Service) builder() (*builder.Builder, error) {
	return builder.New(s.records, s.settings.Get().Settings, s.log)
}

func (s *Service) Build(ctx context.Context, kind etadomain.DocumentKind, name string) (*domain.Document, error) {
	b, err := s.builder()
	if err != nil {
		return nil, err
	}
	return build(ctx, b, kind, name)
}

func build(ctx context.Context, b *builder.Builder, kind etadomain.DocumentKind, name string) (*domain.Document, error) {
	doc := &domain.Document{Kind: kind, Name: name}
	var err error
	switch kind {
	case etadomain.KindInvoice:
		doc.Invoice, err = b.BuildInvoice(ctx, name)
	case etadomain.KindReceipt:
		doc.Receipt, err = b.BuildReceipt(ctx, name)
	default:
		return nil, etadomain.ErrInvalidDocumentKind
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) Validate(ctx context.Context, kind etadomain.DocumentKind, name string) error {
	_, err := s.Build(ctx, kind, name)
	return err
}

// Download renders the document the way it is submitted, indented and without HTML escaping.
func (s *Service) Download(ctx context.Context, kind etadomain.DocumentKind, name string) (string, []byte, error) {
	doc, err := s.Build(ctx, kind, name)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc.Payload()); err != nil {
		return "", nil, err
	}
	return domain.Filename(kind, name), bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// batch groups the documents going out through one connector.
type batch struct {
	connector *connectordomain.Connector
	names     []string
	payloads  []any
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error) {
	if _, err := etadomain.ParseKind(string(req.Kind)); err != nil {
		return nil, err
	}
	names := uniqueNames(req.Names)
	if len(names) == 0 {
		return nil, domain.ErrNoDocuments
	}

	b, err := s.builder()
	if err != nil {
		return nil, err
	}

	result := &domain.SubmitResult{}
	connectors := map[string]*connectordomain.Connector{}
	batches := map[string]*batch{}
	order := []string{}

	for _, name := range names {
		conn, payload, err := s.prepare(ctx, b, req, name, connectors)
		if err != nil {
			if req.Strict {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			result.Skipped = append(result.Skipped, skipped(name, err))
			s.log.Info("document skipped",
				zap.String("document_kind", string(req.Kind)),
				zap.String("document_name", name),
				zap.Error(err),
			)
			continue
		}
		group, ok := batches[conn.Name]
		if !ok {
			group = &batch{connector: conn}
			batches[conn.Name] = group
			order = append(order, conn.Name)
		}
		group.names = append(group.names, name)
		group.payloads = append(group.payloads, payload)
	}

	var errs []error
	for _, key := range order {
		out, err := s.send(ctx, req.Kind, batches[key])
		if out != nil {
			result.Batches = append(result.Batches, *out)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if req.Strict && out.Result.Status != submission.StatusCompleted {
			errs = append(errs, fmt.Errorf("%w: %s for connector %s", domain.ErrSubmissionFailed, out.Result.Status, key))
		}
	}
	if len(errs) > 0 && (req.Strict || len(result.Batches) == 0) {
		return result, errors.Join(errs...)
	}
	return result, nil
}

// prepare runs the local checks for one document and builds its payload.
func (s *Service) prepare(ctx context.Context, b *builder.Builder, req domain.SubmitRequest, name string, cache map[string]*connectordomain.Connector) (*connectordomain.Connector, any, error) {
	rec, err := s.records.Get(ctx, req.Kind, name)
	if err != nil {
		return nil, nil, err
	}
	if !submission.CanTransition(rec.ETAStatus, submission.StateSubmitted) || rec.ETAStatus == submission.StateSubmitted {
		return nil, nil, fmt.Errorf("%w: status %s", domain.ErrAlreadySubmitted, rec.ETAStatus)
	}

	conn, err := s.connectorFor(ctx, req, rec.Company, cache)
	if err != nil {
		return nil, nil, err
	}

	grace := conn.GracePeriod(s.settings.Get().GracePeriod())
	if age := s.clock.Now().Sub(rec.PostedAt); age >= grace {
		return nil, nil, fmt.Errorf("%w: posted %s ago, window %s", domain.ErrGracePeriodExceeded, age.Round(time.Minute), grace)
	}
	if req.Kind == etadomain.KindInvoice && conn.SignatureRequired(rec.PostedAt) && strings.TrimSpace(rec.Signature) == "" {
		return nil, nil, domain.ErrSignatureRequired
	}

	doc, err := build(ctx, b, req.Kind, name)
	if err != nil {
		return nil, nil, err
	}
	if doc.Receipt != nil {
		uuid := doc.Receipt.Header.UUID
		if err := s.records.UpdateETA(ctx, req.Kind, name, recorddomain.ETAUpdate{UUID: &uuid}); err != nil {
			return nil, nil, err
		}
	}
	return conn, doc.Payload(), nil
}

func (s *Service) connectorFor(ctx context.Context, req domain.SubmitRequest, company string, cache map[string]*connectordomain.Connector) (*connectordomain.Connector, error) {
	if conn, ok := cache[company]; ok {
		return conn, nil
	}
	var (
		conn *connectordomain.Connector
		err  error
	)
	if req.Connector != "" {
		conn, err = s.connectors.Get(ctx, req.Connector)
		if err == nil && (conn.Company != company || conn.Kind != req.Kind) {
			err = fmt.Errorf("%w: %s serves %s %s", domain.ErrConnectorMismatch, conn.Name, conn.Company, conn.Kind)
		}
	} else {
		conn, err = s.connectors.Default(ctx, company, req.Kind)
	}
	if err != nil {
		return nil, err
	}
	cache[company] = conn
	return conn, nil
}

// send transmits one batch, logs it and applies the verdicts to the records.
func (s *Service) send(ctx context.Context, kind etadomain.DocumentKind, group *batch) (*domain.Batch, error) {
	conn := group.connector
	ctx = obscontext.WithCompany(ctx, conn.Company)
	if obscontext.CorrelationIDFromContext(ctx) == "" {
		ctx = obscontext.WithCorrelationID(ctx, obscontext.NewCorrelationID(s.clock.Now()))
	}
	log := logger.WithConnector(logger.WithContext(ctx, s.log), conn.Name)

	entry, err := s.logs.Start(ctx, etalogdomain.StartRequest{
		Kind:          kind,
		Company:       conn.Company,
		Connector:     conn.Name,
		CorrelationID: obscontext.CorrelationIDFromContext(ctx),
		Names:         group.names,
	})
	if err != nil {
		return nil, fmt.Errorf("start submission log: %w", err)
	}

	creds := conn.Credentials()
	var resp *client.SubmissionResponse
	if kind == etadomain.KindReceipt {
		resp, err = s.authority.SubmitReceipts(ctx, creds, group.payloads)
	} else {
		resp, err = s.authority.SubmitDocuments(ctx, creds, group.payloads)
	}
	result := submission.Classify(kind, group.names, resp, err)

	if logErr := s.logs.Finish(ctx, entry, result); logErr != nil {
		log.Error("failed to store submission log", zap.String("log_id", entry.ID.String()), zap.Error(logErr))
	}
	s.apply(ctx, kind, result, log)
	s.metrics.RecordSubmission(ctx, string(kind), string(result.Status), result.Accepted, result.Rejected)

	fields := []zap.Field{
		zap.String("log_id", entry.ID.String()),
		zap.String("status", string(result.Status)),
		zap.Int("accepted", result.Accepted),
		zap.Int("rejected", result.Rejected),
		zap.String("submission_id", result.SubmissionID),
	}
	if err != nil {
		log.Warn("submission failed", append(fields, zap.Bool("retryable", result.Retryable), zap.Error(err))...)
	} else {
		log.Info("submission completed", fields...)
	}

	out := &domain.Batch{
		LogID:     entry.ID.String(),
		Company:   conn.Company,
		Connector: conn.Name,
		Result:    result,
	}
	return out, err
}

// apply writes each outcome onto its record. Documents without a verdict keep their state.
func (s *Service) apply(ctx context.Context, kind etadomain.DocumentKind, result submission.Result, log *zap.Logger) {
	for _, outcome := range result.Outcomes {
		update := recorddomain.ETAUpdate{}
		switch {
		case outcome.Accepted:
			update.Status = submission.StateSubmitted
			update.UUID = strPtr(outcome.UUID)
			update.HashKey = strPtr(outcome.HashKey)
			update.LongID = strPtr(outcome.LongID)
			update.SubmissionID = strPtr(result.SubmissionID)
			update.LastError = strPtr("")
		case outcome.State == submission.StateRejected:
			update.Status = submission.StateRejected
			if outcome.UUID != "" {
				update.UUID = strPtr(outcome.UUID)
			}
			update.SubmissionID = strPtr(result.SubmissionID)
			update.LastError = strPtr(outcome.ErrorText)
		case outcome.ErrorText != "":
			update.LastError = strPtr(outcome.ErrorText)
		case result.RawError != "":
			update.LastError = strPtr(result.RawError)
		default:
			continue
		}

		if update.Status != "" {
			rec, err := s.records.Get(ctx, kind, outcome.Name)
			if err != nil {
				log.Error("failed to load record for outcome", zap.String("document_name", outcome.Name), zap.Error(err))
				continue
			}
			if _, err := submission.Transition(rec.ETAStatus, update.Status); err != nil {
				log.Warn("outcome ignored", zap.String("document_name", outcome.Name), zap.Error(err))
				continue
			}
		}
		if err := s.records.UpdateETA(ctx, kind, outcome.Name, update); err != nil {
			log.Error("failed to store outcome", zap.String("document_name", outcome.Name), zap.Error(err))
		}
	}
}

// FetchStatus polls the authority for the document and moves it along the state machine.
func (s *Service) FetchStatus(ctx context.Context, kind etadomain.DocumentKind, name string) (*domain.StatusResult, error) {
	rec, conn, err := s.submitted(ctx, kind, name)
	if err != nil {
		return nil, err
	}

	fetch := s.authority.DocumentRaw
	if kind == etadomain.KindReceipt {
		fetch = s.authority.ReceiptRaw
	}
	raw, err := fetch(ctx, conn.Credentials(), rec.ETAUUID)
	if err != nil {
		return nil, err
	}
	next, err := submission.Refresh(rec.ETAStatus, raw.Status)
	if err != nil {
		return nil, err
	}

	out := &domain.StatusResult{
		Name:            rec.Name,
		UUID:            rec.ETAUUID,
		PreviousState:   rec.ETAStatus,
		State:           next,
		AuthorityStatus: raw.Status,
	}
	if next == rec.ETAStatus {
		return out, nil
	}
	update := recorddomain.ETAUpdate{Status: next}
	if raw.LongID != "" {
		update.LongID = strPtr(raw.LongID)
	}
	if err := s.records.UpdateETA(ctx, kind, rec.Name, update); err != nil {
		return nil, err
	}
	logger.WithDocument(s.log, string(kind), rec.Name).Info("document status changed",
		zap.String("from", string(rec.ETAStatus)),
		zap.String("to", string(next)),
	)
	return out, nil
}

// Cancel asks the authority to cancel an accepted invoice.
func (s *Service) Cancel(ctx context.Context, name, reason string) (*domain.StatusResult, error) {
	rec, conn, err := s.submitted(ctx, etadomain.KindInvoice, name)
	if err != nil {
		return nil, err
	}
	next, err := submission.Cancel(rec.ETAStatus, reason)
	if err != nil {
		return nil, err
	}
	if err := s.authority.CancelDocument(ctx, conn.Credentials(), rec.ETAUUID, strings.TrimSpace(reason)); err != nil {
		return nil, err
	}
	if err := s.records.UpdateETA(ctx, etadomain.KindInvoice, rec.Name, recorddomain.ETAUpdate{Status: next}); err != nil {
		return nil, err
	}
	logger.WithDocument(s.log, string(etadomain.KindInvoice), rec.Name).Info("document cancelled",
		zap.String("uuid", rec.ETAUUID),
		zap.String("reason", reason),
	)
	return &domain.StatusResult{
		Name:          rec.Name,
		UUID:          rec.ETAUUID,
		PreviousState: rec.ETAStatus,
		State:         next,
	}, nil
}

func (s *Service) PDF(ctx context.Context, name string) ([]byte, error) {
	rec, conn, err := s.submitted(ctx, etadomain.KindInvoice, name)
	if err != nil {
		return nil, err
	}
	return s.authority.DocumentPDF(ctx, conn.Credentials(), rec.ETAUUID)
}

// submitted loads a record that already has an authority UUID together with the connector serving it.
func (s *Service) submitted(ctx context.Context, kind etadomain.DocumentKind, name string) (*recorddomain.Record, *connectordomain.Connector, error) {
	rec, err := s.records.Get(ctx, kind, name)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(rec.ETAUUID) == "" || rec.ETAStatus == submission.StateUnsubmitted {
		return nil, nil, domain.ErrNotSubmitted
	}
	conn, err := s.connectors.Default(ctx, rec.Company, kind)
	if err != nil {
		return nil, nil, err
	}
	return rec, conn, nil
}

// PendingSignatures lists the company's unsigned invoices from the connector's signature start date on.
func (s *Service) PendingSignatures(ctx context.Context, company string, page pagination.Pagination) (recorddomain.ListResponse, error) {
	conn, err := s.connectors.Default(ctx, company, etadomain.KindInvoice)
	if err != nil {
		return recorddomain.ListResponse{}, err
	}
	return s.records.ListUnsigned(ctx, company, conn.SignatureStartDate, page)
}

// UnsignedInvoice is the document handed to the signer: final version, no signatures.
func (s *Service) UnsignedInvoice(ctx context.Context, name string) (*etadomain.Invoice, error) {
	b, err := s.builder()
	if err != nil {
		return nil, err
	}
	inv, err := b.BuildInvoice(ctx, name)
	if err != nil {
		return nil, err
	}
	inv.DocumentTypeVersion = etadomain.DocumentTypeVersionSigned
	inv.Signatures = nil
	return inv, nil
}

func (s *Service) StoreSignature(ctx context.Context, name, signature string) (*recorddomain.Record, error) {
	return s.records.SetSignature(ctx, name, signature)
}

func skipped(name string, err error) domain.Skipped {
	out := domain.Skipped{Name: name, Reason: err.Error(), Err: err}
	if vErr, ok := etadomain.AsValidationError(err); ok {
		out.Reason = etadomain.ErrValidation.Error()
		out.Errors = vErr.Errors
	}
	return out
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func strPtr(v string) *string {
	return &v
}
