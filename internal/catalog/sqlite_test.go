package catalog_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/koustreak/schemacache/internal/catalog"
	"github.com/koustreak/schemacache/internal/database/sqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteDDL = `
CREATE TABLE users (
    id    INTEGER PRIMARY KEY,
    email TEXT NOT NULL UNIQUE
);
CREATE TABLE orders (
    id      INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    amount  REAL DEFAULT 0
);
CREATE INDEX orders_user_amount_idx ON orders (user_id, amount);
`

func openSQLite(t *testing.T) *sqldb.Driver {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	_, err = db.Exec(sqliteDDL)
	require.NoError(t, err)

	d := sqldb.NewWithDB(db)
	t.Cleanup(d.Close)
	return d
}

func TestReader_SQLite(t *testing.T) {
	r := catalog.NewReader(openSQLite(t), catalog.SQLite)

	sets, err := r.Read(context.Background())
	require.NoError(t, err)

	require.Len(t, sets.Columns, 5)
	assert.Equal(t, "main", sets.Columns[0].Schema)
	assert.Equal(t, "orders", sets.Columns[0].Table)
	assert.Equal(t, "id", sets.Columns[0].Name)
	assert.Equal(t, "INTEGER", sets.Columns[0].DataType)
	assert.Equal(t, 1, sets.Columns[0].Ordinal)

	userID := sets.Columns[1]
	assert.Equal(t, "user_id", userID.Name)
	assert.False(t, userID.Nullable)

	amount := sets.Columns[2]
	assert.True(t, amount.Nullable)
	require.NotNil(t, amount.Default)
	assert.Equal(t, "0", *amount.Default)

	require.Len(t, sets.PrimaryKeys, 2)
	assert.Equal(t, "orders_pkey", sets.PrimaryKeys[0].Constraint)
	assert.Equal(t, "id", sets.PrimaryKeys[0].Column)

	require.Len(t, sets.Uniques, 1)
	assert.Equal(t, "users", sets.Uniques[0].Table)
	assert.Equal(t, "email", sets.Uniques[0].Column)

	require.Len(t, sets.ForeignKeys, 1)
	fk := sets.ForeignKeys[0]
	assert.Equal(t, "orders", fk.Table)
	assert.Equal(t, "user_id", fk.Column)
	assert.Equal(t, "main", fk.RefSchema)
	assert.Equal(t, "users", fk.RefTable)
	assert.Equal(t, "id", fk.RefColumn)
	assert.Equal(t, "CASCADE", fk.OnDelete)

	require.Len(t, sets.Indexes, 1)
	assert.Equal(t, "orders_user_amount_idx", sets.Indexes[0].Name)
	assert.Contains(t, sets.Indexes[0].Definition, "(user_id, amount)")

	assert.Empty(t, sets.Checks)
	assert.Empty(t, sets.Comments)
}

func TestReader_SQLiteFingerprintQuery(t *testing.T) {
	r := catalog.NewReader(openSQLite(t), catalog.SQLite)

	rows, err := r.Fetch(context.Background(), catalog.QueryFingerprint)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	var entries []string
	for _, row := range rows {
		switch v := row["entry"].(type) {
		case string:
			entries = append(entries, v)
		case []byte:
			entries = append(entries, string(v))
		}
	}
	assert.Contains(t, entries, "main.users:email:TEXT")
	assert.Contains(t, entries, "main.orders:amount:REAL")
}
