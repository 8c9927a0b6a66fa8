package domain

import (
	"context"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *Record) error
	ReplacePayload(ctx context.Context, db *gorm.DB, record *Record) error
	FindByName(ctx context.Context, db *gorm.DB, kind etadomain.DocumentKind, name string) (*Record, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Record, error)
	ListPage(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Record, error)
	UpdateETA(ctx context.Context, db *gorm.DB, kind etadomain.DocumentKind, name string, update ETAUpdate) error
	SetSignature(ctx context.Context, db *gorm.DB, kind etadomain.DocumentKind, name, signature string) error
}
