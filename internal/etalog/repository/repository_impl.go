package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/etabridge/internal/etalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert writes the log and its document rows.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, log *domain.Log) error {
	return db.WithContext(ctx).Create(log).Error
}

func (r *repo) UpdateLog(ctx context.Context, db *gorm.DB, log *domain.Log) error {
	return db.WithContext(ctx).
		Model(&domain.Log{}).
		Where("id = ?", log.ID).
		Updates(map[string]any{
			"status":        log.Status,
			"status_code":   log.StatusCode,
			"submission_id": log.SubmissionID,
			"accepted":      log.Accepted,
			"rejected":      log.Rejected,
			"summary":       log.Summary,
			"raw_error":     log.RawError,
			"updated_at":    log.UpdatedAt,
		}).Error
}

func (r *repo) UpdateDocument(ctx context.Context, db *gorm.DB, doc *domain.LogDocument) error {
	return db.WithContext(ctx).
		Model(&domain.LogDocument{}).
		Where("id = ?", doc.ID).
		Updates(map[string]any{
			"accepted":   doc.Accepted,
			"state":      doc.State,
			"uuid":       doc.UUID,
			"long_id":    doc.LongID,
			"hash_key":   doc.HashKey,
			"error_text": doc.ErrorText,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Log, error) {
	var log domain.Log
	err := db.WithContext(ctx).
		Preload("Documents", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Where("id = ?", id).
		First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}
