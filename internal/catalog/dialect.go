package catalog

import (
	"fmt"
	"strings"

	"github.com/koustreak/schemacache/internal/database"
	"github.com/koustreak/schemacache/internal/errs"
)

// Dialect carries the catalog query texts for one database engine. Every
// query must return the columns listed for it in Contract, with exactly
// those lower-case names; extra columns are ignored.
type Dialect struct {
	Name string

	// System schemas are never read. SystemPrefix is matched literally
	// against the start of the schema (or, for SQLite, table) name.
	SystemSchemas []string
	SystemPrefix  string

	Columns           string
	PrimaryKeys       string
	UniqueConstraints string
	ForeignKeys       string
	CheckConstraints  string
	Indexes           string
	Comments          string

	// Fingerprint returns one "schema.table:column:type" entry per column.
	Fingerprint string
}

// Query names one catalog query; it doubles as the error Op suffix.
type Query string

const (
	QueryColumns           Query = "columns"
	QueryPrimaryKeys       Query = "primary_keys"
	QueryUniqueConstraints Query = "unique_constraints"
	QueryForeignKeys       Query = "foreign_keys"
	QueryCheckConstraints  Query = "check_constraints"
	QueryIndexes           Query = "indexes"
	QueryComments          Query = "comments"
	QueryFingerprint       Query = "fingerprint"
)

// Queries lists the metadata queries of one rebuild in merge order.
var Queries = []Query{
	QueryColumns,
	QueryPrimaryKeys,
	QueryUniqueConstraints,
	QueryForeignKeys,
	QueryCheckConstraints,
	QueryIndexes,
	QueryComments,
}

// Contract lists the result columns each query must return.
var Contract = map[Query][]string{
	QueryColumns:           {"table_schema", "table_name", "column_name", "data_type", "is_nullable", "column_default", "ordinal_position"},
	QueryPrimaryKeys:       {"table_schema", "table_name", "constraint_name", "column_name", "ordinal_position"},
	QueryUniqueConstraints: {"table_schema", "table_name", "constraint_name", "column_name"},
	QueryForeignKeys:       {"table_schema", "table_name", "constraint_name", "column_name", "ref_schema", "ref_table", "ref_column", "on_update", "on_delete"},
	QueryCheckConstraints:  {"table_schema", "table_name", "constraint_name", "definition"},
	QueryIndexes:           {"table_schema", "table_name", "index_name", "definition"},
	QueryComments:          {"table_schema", "table_name", "column_name", "description"},
	QueryFingerprint:       {"entry"},
}

// SQL returns the query text for q.
func (d *Dialect) SQL(q Query) string {
	switch q {
	case QueryColumns:
		return d.Columns
	case QueryPrimaryKeys:
		return d.PrimaryKeys
	case QueryUniqueConstraints:
		return d.UniqueConstraints
	case QueryForeignKeys:
		return d.ForeignKeys
	case QueryCheckConstraints:
		return d.CheckConstraints
	case QueryIndexes:
		return d.Indexes
	case QueryComments:
		return d.Comments
	case QueryFingerprint:
		return d.Fingerprint
	default:
		return ""
	}
}

// ForDriver returns the dialect spoken by the given engine.
func ForDriver(driver database.Driver) (*Dialect, error) {
	switch driver {
	case database.DriverPostgres, database.DriverPQ:
		return Postgres, nil
	case database.DriverMySQL:
		return MySQL, nil
	case database.DriverSQLite:
		return SQLite, nil
	default:
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("no catalog dialect for driver %q", driver))
	}
}

// notSystem renders the WHERE fragment excluding system names for column col.
// prefixFmt receives the column, the prefix length and the quoted prefix; it
// compares a substring rather than using LIKE so "_" is not a wildcard.
func notSystem(col string, exact []string, prefix, prefixFmt string) string {
	quoted := make([]string, len(exact))
	for i, s := range exact {
		quoted[i] = quoteLiteral(s)
	}
	var b strings.Builder
	if len(quoted) > 0 {
		fmt.Fprintf(&b, "%s NOT IN (%s)", col, strings.Join(quoted, ", "))
	}
	if prefix != "" {
		if b.Len() > 0 {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, prefixFmt, col, len(prefix), quoteLiteral(prefix))
	}
	return b.String()
}

// quoteLiteral wraps s in single quotes, doubling any embedded quote.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
