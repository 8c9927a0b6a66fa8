package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, connector *Connector) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Connector, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Connector, error)
	FindDefault(ctx context.Context, db *gorm.DB, company string, kind etadomain.DocumentKind) (*Connector, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Connector, error)
}

type ListFilter struct {
	Company     string
	Kind        etadomain.DocumentKind
	DefaultOnly bool
}
