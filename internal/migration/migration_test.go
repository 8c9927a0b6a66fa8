package migration

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/pkg/db"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}

func TestMigrateSQLiteFromModels(t *testing.T) {
	conn := db.NewTest(t)
	require.NoError(t, Migrate(conn, db.Config{Type: db.TypeSQLite}, zap.NewNop()))

	for _, table := range []string{"connectors", "records", "eta_logs", "eta_log_documents"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}
