package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infrabrasil/vazios/internal/config"
)

func TestOpen_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "open.db")
	st, err := Open(context.Background(), config.StoreConfig{Driver: DriverSQLite, DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	_, ok := st.(*SQLiteStore)
	assert.True(t, ok)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "mysql"`)
}

func TestOpen_PostgresBadDSNFailsFast(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: DriverPostgres, DatabaseURL: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: parse config")
}

func TestOpen_PostgresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, config.StoreConfig{
		Driver:      DriverPostgres,
		DatabaseURL: "postgres://u:p@127.0.0.1:1/vazios?connect_timeout=1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: open postgres")
}
