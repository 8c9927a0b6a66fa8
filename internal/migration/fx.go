package migration

import (
	"strings"

	connectordomain "github.com/smallbiznis/etabridge/internal/connector/domain"
	etalogdomain "github.com/smallbiznis/etabridge/internal/etalog/domain"
	recorddomain "github.com/smallbiznis/etabridge/internal/record/domain"
	"github.com/smallbiznis/etabridge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Migrate),
)

// Models lists the tables owned by the service.
func Models() []any {
	return []any{
		&connectordomain.Connector{},
		&recorddomain.Record{},
		&etalogdomain.Log{},
		&etalogdomain.LogDocument{},
	}
}

// Migrate runs the versioned SQL schema on postgres. Other dialects are
// development targets and get the schema from the models.
func Migrate(conn *gorm.DB, cfg db.Config, log *zap.Logger) error {
	log = log.Named("migration")
	if strings.EqualFold(cfg.Type, db.TypePostgres) {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("schema migrated", zap.String("type", cfg.Type))
		return nil
	}

	if err := conn.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Info("schema synchronized from models", zap.String("type", cfg.Type))
	return nil
}
