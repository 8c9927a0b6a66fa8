package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/etabridge/internal/connector/domain"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, connector *domain.Connector) error {
	return db.WithContext(ctx).Create(connector).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Connector, error) {
	return first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Connector, error) {
	return first(db.WithContext(ctx).Where("name = ?", name))
}

func (r *repo) FindDefault(ctx context.Context, db *gorm.DB, company string, kind etadomain.DocumentKind) (*domain.Connector, error) {
	return first(db.WithContext(ctx).
		Where("company = ? AND kind = ? AND is_default = ?", company, kind, true).
		Order("id asc"))
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Connector, error) {
	var items []domain.Connector
	stmt := db.WithContext(ctx).Model(&domain.Connector{})
	if filter.Company != "" {
		stmt = stmt.Where("company = ?", filter.Company)
	}
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.DefaultOnly {
		stmt = stmt.Where("is_default = ?", true)
	}
	if err := stmt.Order("company asc, name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func first(stmt *gorm.DB) (*domain.Connector, error) {
	var connector domain.Connector
	err := stmt.First(&connector).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &connector, nil
}
