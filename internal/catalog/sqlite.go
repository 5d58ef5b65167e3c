package catalog

import "fmt"

const sqliteSystemPrefix = "sqlite_"

func sqliteFilter(col string) string {
	return notSystem(col, nil, sqliteSystemPrefix, "substr(%s, 1, %d) <> %s")
}

// SQLite reads sqlite_master and the pragma table-valued functions of the
// "main" database. SQLite names neither primary keys nor foreign keys, so
// those constraint names are synthesised from the table name. It keeps no
// catalog of CHECK constraints or comments; both queries return no rows.
var SQLite = &Dialect{
	Name:         "sqlite",
	SystemPrefix: sqliteSystemPrefix,

	Columns: fmt.Sprintf(`
		SELECT 'main'   AS table_schema,
		       m.name   AS table_name,
		       p.name   AS column_name,
		       p.type   AS data_type,
		       CASE WHEN p."notnull" = 0 THEN 'YES' ELSE 'NO' END AS is_nullable,
		       p.dflt_value AS column_default,
		       p.cid + 1    AS ordinal_position
		FROM sqlite_master AS m, pragma_table_info(m.name) AS p
		WHERE m.type IN ('table', 'view')
		  AND %s
		ORDER BY m.name, p.cid`,
		sqliteFilter("m.name")),

	PrimaryKeys: fmt.Sprintf(`
		SELECT 'main'             AS table_schema,
		       m.name             AS table_name,
		       m.name || '_pkey'  AS constraint_name,
		       p.name             AS column_name,
		       p.pk               AS ordinal_position
		FROM sqlite_master AS m, pragma_table_info(m.name) AS p
		WHERE m.type = 'table'
		  AND p.pk > 0
		  AND %s
		ORDER BY m.name, p.pk`,
		sqliteFilter("m.name")),

	UniqueConstraints: fmt.Sprintf(`
		SELECT 'main'   AS table_schema,
		       m.name   AS table_name,
		       il.name  AS constraint_name,
		       ii.name  AS column_name
		FROM sqlite_master AS m,
		     pragma_index_list(m.name) AS il,
		     pragma_index_info(il.name) AS ii
		WHERE m.type = 'table'
		  AND il.origin = 'u'
		  AND %s
		ORDER BY m.name, il.name, ii.seqno`,
		sqliteFilter("m.name")),

	ForeignKeys: fmt.Sprintf(`
		SELECT 'main'                    AS table_schema,
		       m.name                    AS table_name,
		       m.name || '_fkey' || fk.id AS constraint_name,
		       fk."from"                 AS column_name,
		       'main'                    AS ref_schema,
		       fk."table"                AS ref_table,
		       fk."to"                   AS ref_column,
		       fk.on_update              AS on_update,
		       fk.on_delete              AS on_delete
		FROM sqlite_master AS m, pragma_foreign_key_list(m.name) AS fk
		WHERE m.type = 'table'
		  AND %s
		ORDER BY m.name, fk.id, fk.seq`,
		sqliteFilter("m.name")),

	CheckConstraints: `
		SELECT '' AS table_schema,
		       '' AS table_name,
		       '' AS constraint_name,
		       '' AS definition
		WHERE 0`,

	Indexes: fmt.Sprintf(`
		SELECT 'main'     AS table_schema,
		       m.tbl_name AS table_name,
		       m.name     AS index_name,
		       m.sql      AS definition
		FROM sqlite_master AS m
		WHERE m.type = 'index'
		  AND m.sql IS NOT NULL
		  AND %s
		ORDER BY m.tbl_name, m.name`,
		sqliteFilter("m.tbl_name")),

	Comments: `
		SELECT '' AS table_schema,
		       '' AS table_name,
		       '' AS column_name,
		       '' AS description
		WHERE 0`,

	Fingerprint: fmt.Sprintf(`
		SELECT 'main.' || m.name || ':' || p.name || ':' || p.type AS entry
		FROM sqlite_master AS m, pragma_table_info(m.name) AS p
		WHERE m.type IN ('table', 'view')
		  AND %s
		ORDER BY m.name, p.name`,
		sqliteFilter("m.name")),
}
