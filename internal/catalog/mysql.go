package catalog

import "fmt"

var mysqlSystemSchemas = []string{"information_schema", "mysql", "performance_schema", "sys"}

func mysqlFilter(col string) string {
	return notSystem(col, mysqlSystemSchemas, "", "")
}

// MySQL reads information_schema only. Index definitions are synthesised
// from information_schema.statistics since MySQL keeps no DDL text for them.
// CHECK constraints require MySQL 8.0.16 or later.
var MySQL = &Dialect{
	Name:          "mysql",
	SystemSchemas: mysqlSystemSchemas,

	Columns: fmt.Sprintf(`
		SELECT c.table_schema     AS table_schema,
		       c.table_name       AS table_name,
		       c.column_name      AS column_name,
		       c.data_type        AS data_type,
		       c.is_nullable      AS is_nullable,
		       c.column_default   AS column_default,
		       c.ordinal_position AS ordinal_position
		FROM information_schema.columns c
		WHERE %s
		ORDER BY c.table_schema, c.table_name, c.ordinal_position`,
		mysqlFilter("c.table_schema")),

	PrimaryKeys: fmt.Sprintf(`
		SELECT kcu.table_schema     AS table_schema,
		       kcu.table_name       AS table_name,
		       tc.constraint_name   AS constraint_name,
		       kcu.column_name      AS column_name,
		       kcu.ordinal_position AS ordinal_position
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		 AND tc.table_name      = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND %s
		ORDER BY kcu.table_schema, kcu.table_name, tc.constraint_name, kcu.ordinal_position`,
		mysqlFilter("tc.table_schema")),

	UniqueConstraints: fmt.Sprintf(`
		SELECT tc.table_schema    AS table_schema,
		       tc.table_name      AS table_name,
		       tc.constraint_name AS constraint_name,
		       kcu.column_name    AS column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		 AND tc.table_name      = kcu.table_name
		WHERE tc.constraint_type = 'UNIQUE'
		  AND %s
		ORDER BY tc.table_schema, tc.table_name, tc.constraint_name, kcu.ordinal_position`,
		mysqlFilter("tc.table_schema")),

	ForeignKeys: fmt.Sprintf(`
		SELECT kcu.table_schema            AS table_schema,
		       kcu.table_name              AS table_name,
		       kcu.constraint_name         AS constraint_name,
		       kcu.column_name             AS column_name,
		       kcu.referenced_table_schema AS ref_schema,
		       kcu.referenced_table_name   AS ref_table,
		       kcu.referenced_column_name  AS ref_column,
		       rc.update_rule              AS on_update,
		       rc.delete_rule              AS on_delete
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_schema = kcu.constraint_schema
		 AND rc.constraint_name   = kcu.constraint_name
		 AND rc.table_name        = kcu.table_name
		WHERE kcu.referenced_table_name IS NOT NULL
		  AND %s
		ORDER BY kcu.table_schema, kcu.table_name, kcu.constraint_name, kcu.ordinal_position`,
		mysqlFilter("kcu.table_schema")),

	CheckConstraints: fmt.Sprintf(`
		SELECT tc.table_schema    AS table_schema,
		       tc.table_name      AS table_name,
		       tc.constraint_name AS constraint_name,
		       cc.check_clause    AS definition
		FROM information_schema.table_constraints tc
		JOIN information_schema.check_constraints cc
		  ON cc.constraint_schema = tc.constraint_schema
		 AND cc.constraint_name   = tc.constraint_name
		WHERE tc.constraint_type = 'CHECK'
		  AND %s
		ORDER BY tc.table_schema, tc.table_name, tc.constraint_name`,
		mysqlFilter("tc.table_schema")),

	Indexes: fmt.Sprintf(`
		SELECT s.table_schema AS table_schema,
		       s.table_name   AS table_name,
		       s.index_name   AS index_name,
		       CONCAT(
		           IF(MAX(s.non_unique) = 0, 'CREATE UNIQUE INDEX ', 'CREATE INDEX '),
		           s.index_name, ' ON ', s.table_schema, '.', s.table_name,
		           ' USING ', MAX(s.index_type), ' (',
		           GROUP_CONCAT(COALESCE(s.column_name, s.expression) ORDER BY s.seq_in_index SEPARATOR ', '),
		           ')'
		       ) AS definition
		FROM information_schema.statistics s
		WHERE %s
		GROUP BY s.table_schema, s.table_name, s.index_name
		ORDER BY s.table_schema, s.table_name, s.index_name`,
		mysqlFilter("s.table_schema")),

	Comments: fmt.Sprintf(`
		SELECT t.table_schema  AS table_schema,
		       t.table_name    AS table_name,
		       ''              AS column_name,
		       t.table_comment AS description
		FROM information_schema.tables t
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_comment <> ''
		  AND %s
		UNION ALL
		SELECT c.table_schema   AS table_schema,
		       c.table_name     AS table_name,
		       c.column_name    AS column_name,
		       c.column_comment AS description
		FROM information_schema.columns c
		WHERE c.column_comment <> ''
		  AND %s
		ORDER BY table_schema, table_name, column_name`,
		mysqlFilter("t.table_schema"), mysqlFilter("c.table_schema")),

	Fingerprint: fmt.Sprintf(`
		SELECT CONCAT(c.table_schema, '.', c.table_name, ':', c.column_name, ':', c.column_type) AS entry
		FROM information_schema.columns c
		WHERE %s
		ORDER BY c.table_schema, c.table_name, c.column_name`,
		mysqlFilter("c.table_schema")),
}
