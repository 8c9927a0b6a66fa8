package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
	"github.com/smallbiznis/etabridge/internal/etalog/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("etalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Start(ctx context.Context, req domain.StartRequest) (*domain.Log, error) {
	if len(req.Names) == 0 {
		return nil, domain.ErrNoNames
	}

	now := s.clock.Now()
	entry := &domain.Log{
		ID:            s.genID.Generate(),
		Kind:          req.Kind,
		Company:       req.Company,
		Connector:     req.Connector,
		CorrelationID: req.CorrelationID,
		Status:        submission.StatusStarted,
		Documents:     make([]domain.LogDocument, 0, len(req.Names)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, name := range req.Names {
		entry.Documents = append(entry.Documents, domain.LogDocument{
			ID:        s.genID.Generate(),
			LogID:     entry.ID,
			Name:      name,
			State:     submission.StateUnsubmitted,
			CreatedAt: now,
		})
	}

	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) Finish(ctx context.Context, entry *domain.Log, result submission.Result) error {
	entry.Status = result.Status
	entry.StatusCode = result.StatusCode
	entry.SubmissionID = result.SubmissionID
	entry.Accepted = result.Accepted
	entry.Rejected = result.Rejected
	entry.Summary = result.Summary(entry.Kind)
	entry.RawError = result.RawError
	entry.UpdatedAt = s.clock.Now()

	outcomes := make(map[string]submission.Outcome, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		outcomes[strings.TrimSpace(outcome.Name)] = outcome
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateLog(ctx, tx, entry); err != nil {
			return err
		}
		for i := range entry.Documents {
			doc := &entry.Documents[i]
			outcome, ok := outcomes[strings.TrimSpace(doc.Name)]
			if !ok {
				continue
			}
			doc.Accepted = outcome.Accepted
			doc.State = outcome.State
			doc.UUID = outcome.UUID
			doc.LongID = outcome.LongID
			doc.HashKey = outcome.HashKey
			doc.ErrorText = outcome.ErrorText
			if err := s.repo.UpdateDocument(ctx, tx, doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("submission logged",
		zap.String("log_id", entry.ID.String()),
		zap.String("document_kind", string(entry.Kind)),
		zap.String("company", entry.Company),
		zap.String("status", string(entry.Status)),
		zap.Int("accepted", entry.Accepted),
		zap.Int("rejected", entry.Rejected),
	)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Log, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || parsed <= 0 {
		return nil, domain.ErrInvalidID
	}
	entry, err := s.repo.FindByID(ctx, s.db, snowflake.ID(parsed))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}
