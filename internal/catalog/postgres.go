package catalog

import "fmt"

var (
	pgSystemSchemas = []string{"pg_catalog", "information_schema", "pg_toast"}
	pgSystemPrefix  = "pg_"
)

func pgFilter(col string) string {
	return notSystem(col, pgSystemSchemas, pgSystemPrefix, "left(%s, %d) <> %s")
}

// pgAction decodes a pg_constraint referential action code.
func pgAction(col string) string {
	return fmt.Sprintf(`CASE %s
			WHEN 'a' THEN 'NO ACTION'
			WHEN 'r' THEN 'RESTRICT'
			WHEN 'c' THEN 'CASCADE'
			WHEN 'n' THEN 'SET NULL'
			WHEN 'd' THEN 'SET DEFAULT'
		END`, col)
}

// Postgres reads information_schema for columns and key constraints and
// pg_catalog for foreign keys, checks, indexes and comments.
var Postgres = &Dialect{
	Name:          "postgres",
	SystemSchemas: pgSystemSchemas,
	SystemPrefix:  pgSystemPrefix,

	Columns: fmt.Sprintf(`
		SELECT table_schema::text     AS table_schema,
		       table_name::text       AS table_name,
		       column_name::text      AS column_name,
		       data_type::text        AS data_type,
		       is_nullable::text      AS is_nullable,
		       column_default::text   AS column_default,
		       ordinal_position::int  AS ordinal_position
		FROM information_schema.columns
		WHERE %s
		ORDER BY table_schema, table_name, ordinal_position`,
		pgFilter("table_schema")),

	PrimaryKeys: fmt.Sprintf(`
		SELECT kcu.table_schema::text        AS table_schema,
		       kcu.table_name::text          AS table_name,
		       tc.constraint_name::text      AS constraint_name,
		       kcu.column_name::text         AS column_name,
		       kcu.ordinal_position::int     AS ordinal_position
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		 AND tc.table_name      = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND %s
		ORDER BY kcu.table_schema, kcu.table_name, tc.constraint_name, kcu.ordinal_position`,
		pgFilter("tc.table_schema")),

	UniqueConstraints: fmt.Sprintf(`
		SELECT tc.table_schema::text    AS table_schema,
		       tc.table_name::text      AS table_name,
		       tc.constraint_name::text AS constraint_name,
		       kcu.column_name::text    AS column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		 AND tc.table_name      = kcu.table_name
		WHERE tc.constraint_type = 'UNIQUE'
		  AND %s
		ORDER BY tc.table_schema, tc.table_name, tc.constraint_name, kcu.ordinal_position`,
		pgFilter("tc.table_schema")),

	ForeignKeys: fmt.Sprintf(`
		SELECT rel_ns.nspname::text  AS table_schema,
		       rel.relname::text     AS table_name,
		       con.conname::text     AS constraint_name,
		       att.attname::text     AS column_name,
		       frel_ns.nspname::text AS ref_schema,
		       frel.relname::text    AS ref_table,
		       fatt.attname::text    AS ref_column,
		       %s AS on_update,
		       %s AS on_delete
		FROM pg_constraint con
		JOIN pg_class rel        ON rel.oid = con.conrelid
		JOIN pg_namespace rel_ns ON rel_ns.oid = rel.relnamespace
		JOIN pg_class frel        ON frel.oid = con.confrelid
		JOIN pg_namespace frel_ns ON frel_ns.oid = frel.relnamespace
		JOIN unnest(con.conkey)  WITH ORDINALITY AS cols(attnum, ord)  ON true
		JOIN unnest(con.confkey) WITH ORDINALITY AS fcols(attnum, ord) ON fcols.ord = cols.ord
		JOIN pg_attribute att  ON att.attrelid = rel.oid   AND att.attnum = cols.attnum
		JOIN pg_attribute fatt ON fatt.attrelid = frel.oid AND fatt.attnum = fcols.attnum
		WHERE con.contype = 'f'
		  AND %s
		ORDER BY rel_ns.nspname, rel.relname, con.conname, cols.ord`,
		pgAction("con.confupdtype"), pgAction("con.confdeltype"), pgFilter("rel_ns.nspname")),

	CheckConstraints: fmt.Sprintf(`
		SELECT ns.nspname::text                     AS table_schema,
		       rel.relname::text                    AS table_name,
		       con.conname::text                    AS constraint_name,
		       pg_get_constraintdef(con.oid)::text  AS definition
		FROM pg_constraint con
		JOIN pg_class rel    ON rel.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = rel.relnamespace
		WHERE con.contype = 'c'
		  AND %s
		ORDER BY ns.nspname, rel.relname, con.conname`,
		pgFilter("ns.nspname")),

	Indexes: fmt.Sprintf(`
		SELECT schemaname::text AS table_schema,
		       tablename::text  AS table_name,
		       indexname::text  AS index_name,
		       indexdef::text   AS definition
		FROM pg_indexes
		WHERE %s
		ORDER BY schemaname, tablename, indexname`,
		pgFilter("schemaname")),

	Comments: fmt.Sprintf(`
		SELECT n.nspname::text                  AS table_schema,
		       c.relname::text                  AS table_name,
		       COALESCE(a.attname::text, '')    AS column_name,
		       d.description::text              AS description
		FROM pg_description d
		JOIN pg_class c     ON c.oid = d.objoid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = d.objsubid AND d.objsubid > 0
		WHERE d.classoid = 'pg_catalog.pg_class'::regclass
		  AND %s
		ORDER BY n.nspname, c.relname, d.objsubid`,
		pgFilter("n.nspname")),

	Fingerprint: fmt.Sprintf(`
		SELECT (table_schema || '.' || table_name || ':' || column_name || ':' || data_type)::text AS entry
		FROM information_schema.columns
		WHERE %s
		ORDER BY table_schema, table_name, column_name`,
		pgFilter("table_schema")),
}
