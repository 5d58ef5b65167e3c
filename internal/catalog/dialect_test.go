package catalog

import (
	"strings"
	"testing"

	"github.com/koustreak/schemacache/internal/database"
	"github.com/koustreak/schemacache/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForDriver(t *testing.T) {
	tests := []struct {
		driver database.Driver
		want   *Dialect
	}{
		{database.DriverPostgres, Postgres},
		{database.DriverPQ, Postgres},
		{database.DriverMySQL, MySQL},
		{database.DriverSQLite, SQLite},
	}

	for _, tt := range tests {
		t.Run(string(tt.driver), func(t *testing.T) {
			got, err := ForDriver(tt.driver)
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}

	_, err := ForDriver("oracle")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDialects_HonourContract(t *testing.T) {
	all := append(append([]Query{}, Queries...), QueryFingerprint)

	for _, d := range []*Dialect{Postgres, MySQL, SQLite} {
		for _, q := range all {
			sql := d.SQL(q)
			require.NotEmpty(t, strings.TrimSpace(sql), "%s/%s", d.Name, q)
			for _, col := range Contract[q] {
				assert.Contains(t, sql, "AS "+col, "%s/%s must alias %s", d.Name, q, col)
			}
		}
	}
}

func TestDialects_ExcludeSystemSchemas(t *testing.T) {
	for _, q := range append(append([]Query{}, Queries...), QueryFingerprint) {
		sql := Postgres.SQL(q)
		assert.Contains(t, sql, "NOT IN ('pg_catalog', 'information_schema', 'pg_toast')", "postgres/%s", q)
		assert.Contains(t, sql, "<> 'pg_'", "postgres/%s", q)
	}

	for _, q := range append(append([]Query{}, Queries...), QueryFingerprint) {
		sql := MySQL.SQL(q)
		assert.Contains(t, sql, "NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')", "mysql/%s", q)
	}
}

func TestNotSystem(t *testing.T) {
	assert.Equal(t,
		"n.nspname NOT IN ('pg_catalog', 'o''neil') AND left(n.nspname, 3) <> 'pg_'",
		notSystem("n.nspname", []string{"pg_catalog", "o'neil"}, "pg_", "left(%s, %d) <> %s"),
	)
	assert.Equal(t,
		"substr(m.name, 1, 7) <> 'sqlite_'",
		notSystem("m.name", nil, "sqlite_", "substr(%s, 1, %d) <> %s"),
	)
	assert.Equal(t,
		"c.table_schema NOT IN ('sys')",
		notSystem("c.table_schema", []string{"sys"}, "", ""),
	)
}
