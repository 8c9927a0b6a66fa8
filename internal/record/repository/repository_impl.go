package repository

import (
	"context"
	"errors"
	"time"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/record/domain"
	"github.com/smallbiznis/etabridge/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Create(record).Error
}

// ReplacePayload rewrites the ERP side of the record and leaves the authority fields alone.
func (r *repo) ReplacePayload(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).
		Model(&domain.Record{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"company":    record.Company,
			"posted_at":  record.PostedAt,
			"payload":    record.Payload,
			"signature":  record.Signature,
			"updated_at": record.UpdatedAt,
		}).Error
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, kind etadomain.DocumentKind, name string) (*domain.Record, error) {
	var record domain.Record
	err := db.WithContext(ctx).
		Where("kind = ? AND name = ?", kind, name).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Record, error) {
	var records []domain.Record
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.Record{}), filter).Order("posted_at asc, id asc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListPage(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Record, error) {
	var records []*domain.Record
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.Record{}), filter)
	if err := pagination.Apply(stmt, page).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) UpdateETA(ctx context.Context, db *gorm.DB, kind etadomain.DocumentKind, name string, update domain.ETAUpdate) error {
	fields := map[string]any{"updated_at": time.Now().UTC()}
	if update.Status != "" {
		fields["eta_status"] = update.Status
	}
	if update.UUID != nil {
		fields["eta_uuid"] = *update.UUID
	}
	if update.HashKey != nil {
		fields["eta_hash_key"] = *update.HashKey
	}
	if update.LongID != nil {
		fields["eta_long_id"] = *update.LongID
	}
	if update.SubmissionID != nil {
		fields["eta_submission_id"] = *update.SubmissionID
	}
	if update.LastError != nil {
		fields["eta_last_error"] = *update.LastError
	}
	res := db.WithContext(ctx).
		Model(&domain.Record{}).
		Where("kind = ? AND name = ?", kind, name).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) SetSignature(ctx context.Context, db *gorm.DB, kind etadomain.DocumentKind, name, signature string) error {
	res := db.WithContext(ctx).
		Model(&domain.Record{}).
		Where("kind = ? AND name = ?", kind, name).
		Updates(map[string]any{"signature": signature, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func applyFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.Company != "" {
		stmt = stmt.Where("company = ?", filter.Company)
	}
	if len(filter.Statuses) > 0 {
		stmt = stmt.Where("eta_status IN ?", filter.Statuses)
	}
	if filter.Signed != nil {
		if *filter.Signed {
			stmt = stmt.Where("signature IS NOT NULL AND signature <> ''")
		} else {
			stmt = stmt.Where("(signature IS NULL OR signature = '')")
		}
	}
	if filter.PostedFrom != nil {
		stmt = stmt.Where("posted_at >= ?", *filter.PostedFrom)
	}
	return stmt
}
