package scheduler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	connectordomain "github.com/smallbiznis/etabridge/internal/connector/domain"
	documentdomain "github.com/smallbiznis/etabridge/internal/document/domain"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
	obscontext "github.com/smallbiznis/etabridge/internal/observability/context"
	obsmetrics "github.com/smallbiznis/etabridge/internal/observability/metrics"
	recorddomain "github.com/smallbiznis/etabridge/internal/record/domain"
	"github.com/smallbiznis/etabridge/internal/scheduler/guard"
)

// AutoSubmitSignedJob submits, per company, the signed invoices that are still
// unsubmitted and inside their connector's grace period.
func (s *Scheduler) AutoSubmitSignedJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobAutoSubmitSigned, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	connectors, err := s.connectors.Defaults(ctx, etadomain.KindInvoice)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.connectors.load.failed", JobAutoSubmitSigned, "", err)
		return err
	}

	var jobErr error
	for i := range connectors {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}
		conn := &connectors[i]
		companyCtx := s.withLogContext(ctx, conn.Company)
		_, err := s.withCompanyLock(companyCtx, JobAutoSubmitSigned, conn.Company, func(ctx context.Context) error {
			return s.autoSubmitCompany(ctx, run, conn)
		})
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logSchedulerError(companyCtx, run, "scheduler.company.process.failed", JobAutoSubmitSigned, conn.Company, err,
				zap.String("connector", conn.Name),
			)
		}
	}
	return jobErr
}

func (s *Scheduler) autoSubmitCompany(ctx context.Context, run *jobRun, conn *connectordomain.Connector) error {
	now := s.clock.Now()
	grace := conn.GracePeriod(s.settings.Get().GracePeriod())
	postedFrom := now.Add(-grace)
	signed := true

	records, err := s.records.List(ctx, recorddomain.ListFilter{
		Kind:       etadomain.KindInvoice,
		Company:    conn.Company,
		Statuses:   []submission.DocumentState{submission.StateUnsubmitted},
		Signed:     &signed,
		PostedFrom: &postedFrom,
		Limit:      s.cfg.BatchSize,
	})
	if err != nil {
		return err
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		if err := guard.EnsureAutoSubmittable(rec.ETAStatus, rec.Signature, rec.PostedAt, now, grace); err != nil {
			continue
		}
		names = append(names, rec.Name)
	}
	if len(names) == 0 {
		return nil
	}
	s.logCompanyClaimed(ctx, JobAutoSubmitSigned, conn.Company, conn.Name, len(names))

	ctx = obscontext.WithCorrelationID(ctx, obscontext.NewCorrelationID(now))
	result, err := s.documents.Submit(ctx, documentdomain.SubmitRequest{
		Kind:      etadomain.KindInvoice,
		Names:     names,
		Connector: conn.Name,
	})
	if result != nil {
		submitted := 0
		for _, batch := range result.Batches {
			submitted += len(batch.Result.Outcomes)
		}
		run.AddProcessed(submitted)
		obsmetrics.Scheduler().AddBatchProcessed(JobAutoSubmitSigned, "documents", submitted)
		for _, skipped := range result.Skipped {
			s.logger(ctx).Info("scheduler.document.skipped",
				zap.String("job", JobAutoSubmitSigned),
				zap.String("document_name", skipped.Name),
				zap.String("reason", skipped.Reason),
			)
		}
	}
	return err
}

// AutoFetchStatusJob polls the authority for every document waiting on validation.
func (s *Scheduler) AutoFetchStatusJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobAutoFetchStatus, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	var jobErr error
	for _, kind := range []etadomain.DocumentKind{etadomain.KindInvoice, etadomain.KindReceipt} {
		connectors, err := s.connectors.Defaults(ctx, kind)
		if err != nil {
			s.logSchedulerError(ctx, run, "scheduler.connectors.load.failed", JobAutoFetchStatus, "", err)
			jobErr = errors.Join(jobErr, err)
			continue
		}
		for i := range connectors {
			if ctx.Err() != nil {
				return errors.Join(jobErr, ctx.Err())
			}
			conn := &connectors[i]
			companyCtx := s.withLogContext(ctx, conn.Company)
			_, err := s.withCompanyLock(companyCtx, JobAutoFetchStatus, conn.Company+":"+string(kind), func(ctx context.Context) error {
				return s.autoFetchCompany(ctx, run, kind, conn)
			})
			if err != nil {
				jobErr = errors.Join(jobErr, err)
			}
		}
	}
	return jobErr
}

func (s *Scheduler) autoFetchCompany(ctx context.Context, run *jobRun, kind etadomain.DocumentKind, conn *connectordomain.Connector) error {
	records, err := s.records.List(ctx, recorddomain.ListFilter{
		Kind:     kind,
		Company:  conn.Company,
		Statuses: []submission.DocumentState{submission.StateSubmitted},
		Limit:    s.cfg.BatchSize,
	})
	if err != nil {
		return err
	}
	if len(records) > 0 {
		s.logCompanyClaimed(ctx, JobAutoFetchStatus, conn.Company, conn.Name, len(records))
	}

	var jobErr error
	processed := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}
		if err := guard.EnsureRefreshable(rec.ETAStatus, rec.ETAUUID); err != nil {
			continue
		}
		status, err := s.documents.FetchStatus(ctx, kind, rec.Name)
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logSchedulerError(ctx, run, "scheduler.document.refresh.failed", JobAutoFetchStatus, conn.Company, err,
				zap.String("document_kind", string(kind)),
				zap.String("document_name", rec.Name),
			)
			continue
		}
		processed++
		if status.State != status.PreviousState {
			s.logger(ctx).Info("scheduler.document.refreshed",
				zap.String("document_kind", string(kind)),
				zap.String("document_name", rec.Name),
				zap.String("from", string(status.PreviousState)),
				zap.String("to", string(status.State)),
			)
		}
	}
	run.AddProcessed(processed)
	obsmetrics.Scheduler().AddBatchProcessed(JobAutoFetchStatus, "documents", processed)
	return jobErr
}
