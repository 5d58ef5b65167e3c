package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/koustreak/schemacache/internal/config"
	"github.com/koustreak/schemacache/internal/database"
	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/filestore"
	"github.com/koustreak/schemacache/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shop.db")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT NOT NULL UNIQUE);
CREATE TABLE invoices (
    id          INTEGER PRIMARY KEY,
    customer_id INTEGER NOT NULL REFERENCES customers(id),
    total       REAL
);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cfg := config.Default()
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.DSN = dbPath
	cfg.Storage.Local.Dir = filepath.Join(dir, "cache")
	return cfg
}

func TestApp_SQLiteEndToEnd(t *testing.T) {
	cfg := sqliteConfig(t)
	ctx := context.Background()

	a, err := New(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Service.Ping(ctx))

	data, err := a.Service.GetSchema(ctx)
	require.NoError(t, err)

	var doc struct {
		Tables []struct {
			Schema  string `json:"schema"`
			Table   string `json:"table"`
			Columns []struct {
				Name        string   `json:"name"`
				PrimaryKey  bool     `json:"primary_key"`
				Unique      bool     `json:"unique"`
				ForeignKeys []string `json:"foreign_keys"`
			} `json:"columns"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "customers", doc.Tables[0].Table)
	assert.Equal(t, "main", doc.Tables[0].Schema)
	assert.True(t, doc.Tables[0].Columns[0].PrimaryKey)
	assert.True(t, doc.Tables[0].Columns[1].Unique)
	assert.Equal(t, []string{"main.customers.id"}, doc.Tables[1].Columns[1].ForeignKeys)

	persisted, err := a.Service.Fingerprint(ctx)
	require.NoError(t, err)
	live, err := a.Service.LiveFingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, live, persisted)

	// A second process sharing the storage sees the same snapshot.
	b, err := New(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer b.Close()
	fp, err := b.Cache.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, persisted, fp)
}

func TestOpenStorage_Invalid(t *testing.T) {
	cfg := filestore.DefaultConfig()
	cfg.Provider = "ftp"

	_, err := OpenStorage(context.Background(), cfg)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestOpenDatabase_Invalid(t *testing.T) {
	_, err := OpenDatabase(context.Background(), &database.Config{Driver: database.DriverMySQL})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"
	cfg.Database.DSN = "x"

	_, err := New(context.Background(), cfg, logger.Nop())
	assert.True(t, errs.IsInvalidInput(err))
}
