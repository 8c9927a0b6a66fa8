package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, log *Log) error
	UpdateLog(ctx context.Context, db *gorm.DB, log *Log) error
	UpdateDocument(ctx context.Context, db *gorm.DB, doc *LogDocument) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Log, error)
}
