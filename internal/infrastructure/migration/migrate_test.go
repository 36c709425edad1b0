package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiller/backend/migrations"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "tiller.db")+"?_foreign_keys=on")
	require.NoError(t, err)
	return db
}

func TestMigrator_SQLiteUpDown(t *testing.T) {
	db := openSQLite(t)
	source, err := migrations.For("sqlite")
	require.NoError(t, err)
	m, err := New(db, "sqlite", source, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	st, err := m.Status()
	require.NoError(t, err)
	assert.False(t, st.Applied)

	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "a second up is a no-op")

	st, err = m.Status()
	require.NoError(t, err)
	assert.True(t, st.Applied)
	assert.False(t, st.Dirty)
	assert.Equal(t, uint(20250101000000), st.Version)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM bills`).Scan(&count))
	assert.Zero(t, count)

	require.NoError(t, m.Down())
	_, err = db.Exec(`SELECT COUNT(*) FROM bills`)
	assert.Error(t, err)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	source, err := migrations.For("postgres")
	require.NoError(t, err)
	_, err = New(openSQLite(t), "mysql", source, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = migrations.For("mysql")
	assert.Error(t, err)
}
