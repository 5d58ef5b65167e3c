package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koustreak/schemacache/internal/database"
	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemacache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
  dsn: "user:pass@tcp(localhost:3306)/shop"
  connect_timeout: 3s
catalog:
  parallel: true
storage:
  provider: redis
  redis:
    addr: cache:6379
    key_prefix: "shop:"
server:
  addr: ":9090"
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, database.DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/shop", cfg.Database.DSN)
	assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.True(t, cfg.Catalog.Parallel)
	assert.Equal(t, filestore.ProviderRedis, cfg.Storage.Provider)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "shop:", cfg.Storage.Redis.KeyPrefix)
	assert.Equal(t, filestore.DefaultDocumentKey, cfg.Storage.DocumentKey)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: postgres://file/db
`)
	t.Setenv("SCHEMACACHE_DATABASE_DSN", "postgres://env/db")
	t.Setenv("SCHEMACACHE_STORAGE_LOCAL_DIR", "/tmp/schemacache")
	t.Setenv("SCHEMACACHE_CATALOG_PARALLEL", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.Equal(t, "/tmp/schemacache", cfg.Storage.Local.Dir)
	assert.True(t, cfg.Catalog.Parallel)
	assert.Equal(t, database.DriverPostgres, cfg.Database.Driver)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCHEMACACHE_DATABASE_DRIVER", "sqlite3")
	t.Setenv("SCHEMACACHE_DATABASE_DSN", "file:catalog.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filestore.ProviderLocal, cfg.Storage.Provider)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing dsn", "database: {driver: postgres}\n"},
		{"unknown driver", "database: {driver: oracle, dsn: x}\n"},
		{"unknown provider", "database: {dsn: x}\nstorage: {provider: ftp}\n"},
		{"same keys", "database: {dsn: x}\nstorage: {document_key: a, fingerprint_key: a}\n"},
		{"bad log level", "database: {dsn: x}\nlog: {level: loud}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err), err.Error())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errs.IsInvalidInput(err))
}
