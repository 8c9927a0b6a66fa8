package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/config"
	"github.com/smallbiznis/etabridge/internal/eta/builder"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
	"github.com/smallbiznis/etabridge/internal/record/domain"
	"github.com/smallbiznis/etabridge/pkg/db/pagination"
)

const defaultPageSize = 50

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Settings *config.SettingsHolder
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	settings *config.SettingsHolder
	repo     domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("record.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		settings: p.Settings,
		repo:     p.Repo,
	}
}

func (s *Service) Put(ctx context.Context, kind etadomain.DocumentKind, name string, payload []byte) (*domain.Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	var sales etadomain.SalesRecord
	if err := json.Unmarshal(payload, &sales); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if sales.Name != "" && sales.Name != name {
		return nil, domain.ErrNameMismatch
	}
	if sales.Kind != "" && sales.Kind != kind {
		return nil, etadomain.ErrKindMismatch
	}
	company := strings.TrimSpace(sales.Company)
	if company == "" {
		return nil, domain.ErrInvalidCompany
	}

	loc, err := time.LoadLocation(s.settings.Get().Timezone)
	if err != nil {
		return nil, err
	}
	postedAt, err := builder.PostedAt(sales.PostingDate, sales.PostingTime, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	now := s.clock.Now()
	var stored *domain.Record
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByName(ctx, tx, kind, name)
		if err != nil {
			return err
		}
		if existing == nil {
			stored = &domain.Record{
				ID:        s.genID.Generate(),
				Kind:      kind,
				Name:      name,
				Company:   company,
				PostedAt:  postedAt,
				Payload:   datatypes.JSON(payload),
				Signature: strings.TrimSpace(sales.Signature),
				ETAStatus: submission.StateUnsubmitted,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return s.repo.Insert(ctx, tx, stored)
		}
		if !existing.Editable() {
			return domain.ErrRecordLocked
		}
		existing.Company = company
		existing.PostedAt = postedAt
		existing.Payload = datatypes.JSON(payload)
		if sig := strings.TrimSpace(sales.Signature); sig != "" {
			existing.Signature = sig
		}
		existing.UpdatedAt = now
		stored = existing
		return s.repo.ReplacePayload(ctx, tx, existing)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("record stored",
		zap.String("document_kind", string(kind)),
		zap.String("document_name", name),
		zap.String("company", company),
	)
	return stored, nil
}

func (s *Service) Get(ctx context.Context, kind etadomain.DocumentKind, name string) (*domain.Record, error) {
	record, err := s.repo.FindByName(ctx, s.db, kind, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

// FetchRecord decodes the stored payload. Identity and signature come from
// the row so a signature stored after the push is honoured.
func (s *Service) FetchRecord(ctx context.Context, kind etadomain.DocumentKind, name string) (*etadomain.SalesRecord, error) {
	record, err := s.repo.FindByName(ctx, s.db, kind, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, etadomain.ErrRecordNotFound
	}

	var sales etadomain.SalesRecord
	if err := json.Unmarshal(record.Payload, &sales); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	sales.Kind = record.Kind
	sales.Name = record.Name
	sales.Company = record.Company
	sales.Signature = record.Signature
	return &sales, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Record, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) UpdateETA(ctx context.Context, kind etadomain.DocumentKind, name string, update domain.ETAUpdate) error {
	return s.repo.UpdateETA(ctx, s.db, kind, name, update)
}

// SetSignature stores the signer's output on an invoice that has not been accepted yet.
func (s *Service) SetSignature(ctx context.Context, name, signature string) (*domain.Record, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, domain.ErrInvalidSignature
	}
	record, err := s.Get(ctx, etadomain.KindInvoice, name)
	if err != nil {
		return nil, err
	}
	if !record.Editable() {
		return nil, domain.ErrNotSignable
	}
	if err := s.repo.SetSignature(ctx, s.db, etadomain.KindInvoice, record.Name, signature); err != nil {
		return nil, err
	}
	record.Signature = signature
	s.log.Info("invoice signature stored",
		zap.String("document_name", record.Name),
		zap.String("company", record.Company),
	)
	return record, nil
}

// ListUnsigned pages through the company's invoices still waiting for the signer,
// optionally only those posted from postedFrom on.
func (s *Service) ListUnsigned(ctx context.Context, company string, postedFrom *time.Time, page pagination.Pagination) (domain.ListResponse, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return domain.ListResponse{}, domain.ErrInvalidCompany
	}
	if page.PageSize <= 0 {
		page.PageSize = defaultPageSize
	}

	unsigned := false
	items, err := s.repo.ListPage(ctx, s.db, domain.ListFilter{
		Kind:       etadomain.KindInvoice,
		Company:    company,
		Statuses:   []submission.DocumentState{submission.StateUnsubmitted, submission.StateInvalid, submission.StateRejected},
		Signed:     &unsigned,
		PostedFrom: postedFrom,
	}, page)
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(page.PageSize), func(record *domain.Record) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > page.PageSize {
		items = items[:page.PageSize]
	}

	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}

	resp := domain.ListResponse{Records: records}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
