package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnRow is one row of the columns query.
type ColumnRow struct {
	Schema   string
	Table    string
	Name     string
	DataType string
	Nullable bool
	Default  *string
	Ordinal  int
}

// KeyRow is one row of the primary-key or unique-constraint query.
// Ordinal is zero for unique constraints, whose rows arrive in key order.
type KeyRow struct {
	Schema     string
	Table      string
	Constraint string
	Column     string
	Ordinal    int
}

// ForeignKeyRow is one column pair of a foreign key.
type ForeignKeyRow struct {
	Schema     string
	Table      string
	Constraint string
	Column     string
	RefSchema  string
	RefTable   string
	RefColumn  string
	OnUpdate   string
	OnDelete   string
}

// CheckRow is one CHECK constraint.
type CheckRow struct {
	Schema     string
	Table      string
	Constraint string
	Definition string
}

// IndexRow is one index with its definition text.
type IndexRow struct {
	Schema     string
	Table      string
	Name       string
	Definition string
}

// CommentRow is a table comment when Column is empty, else a column comment.
type CommentRow struct {
	Schema string
	Table  string
	Column string
	Text   string
}

// RowSets holds the result of every metadata query of one rebuild.
type RowSets struct {
	Columns     []ColumnRow
	PrimaryKeys []KeyRow
	Uniques     []KeyRow
	ForeignKeys []ForeignKeyRow
	Checks      []CheckRow
	Indexes     []IndexRow
	Comments    []CommentRow
}

// record wraps one scanned row and collects the first decoding problem.
type record struct {
	values map[string]any
	err    error
}

// str returns a required text value; NULL is a decoding error.
func (r *record) str(col string) string {
	v, ok := r.opt(col)
	if !ok && r.err == nil {
		r.err = fmt.Errorf("column %q is NULL", col)
	}
	return v
}

// opt returns a text value and whether it was non-NULL.
func (r *record) opt(col string) (string, bool) {
	switch v := r.values[col].(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

func (r *record) ptr(col string) *string {
	v, ok := r.opt(col)
	if !ok {
		return nil
	}
	return &v
}

func (r *record) num(col string) int {
	switch v := r.values[col].(type) {
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int:
		return v
	case uint64:
		return int(v)
	case float64:
		return int(v)
	}
	s, ok := r.opt(col)
	if !ok {
		if r.err == nil {
			r.err = fmt.Errorf("column %q is NULL", col)
		}
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("column %q: %q is not an integer", col, s)
	}
	return n
}

// identity returns "schema.table" for error messages.
func (r *record) identity() string {
	s, _ := r.opt("table_schema")
	t, _ := r.opt("table_name")
	return s + "." + t
}

// decode appends one raw row of query q to sets.
func (sets *RowSets) decode(q Query, values map[string]any) error {
	r := &record{values: values}

	switch q {
	case QueryColumns:
		sets.Columns = append(sets.Columns, ColumnRow{
			Schema:   r.str("table_schema"),
			Table:    r.str("table_name"),
			Name:     r.str("column_name"),
			DataType: r.str("data_type"),
			Nullable: !strings.EqualFold(r.str("is_nullable"), "NO"),
			Default:  r.ptr("column_default"),
			Ordinal:  r.num("ordinal_position"),
		})
	case QueryPrimaryKeys, QueryUniqueConstraints:
		row := KeyRow{
			Schema:     r.str("table_schema"),
			Table:      r.str("table_name"),
			Constraint: r.str("constraint_name"),
			Column:     r.str("column_name"),
		}
		if q == QueryPrimaryKeys {
			row.Ordinal = r.num("ordinal_position")
			sets.PrimaryKeys = append(sets.PrimaryKeys, row)
		} else {
			sets.Uniques = append(sets.Uniques, row)
		}
	case QueryForeignKeys:
		refColumn, _ := r.opt("ref_column")
		onUpdate, _ := r.opt("on_update")
		onDelete, _ := r.opt("on_delete")
		sets.ForeignKeys = append(sets.ForeignKeys, ForeignKeyRow{
			Schema:     r.str("table_schema"),
			Table:      r.str("table_name"),
			Constraint: r.str("constraint_name"),
			Column:     r.str("column_name"),
			RefSchema:  r.str("ref_schema"),
			RefTable:   r.str("ref_table"),
			RefColumn:  refColumn,
			OnUpdate:   onUpdate,
			OnDelete:   onDelete,
		})
	case QueryCheckConstraints:
		sets.Checks = append(sets.Checks, CheckRow{
			Schema:     r.str("table_schema"),
			Table:      r.str("table_name"),
			Constraint: r.str("constraint_name"),
			Definition: r.str("definition"),
		})
	case QueryIndexes:
		def, _ := r.opt("definition")
		sets.Indexes = append(sets.Indexes, IndexRow{
			Schema:     r.str("table_schema"),
			Table:      r.str("table_name"),
			Name:       r.str("index_name"),
			Definition: def,
		})
	case QueryComments:
		column, _ := r.opt("column_name")
		text, _ := r.opt("description")
		sets.Comments = append(sets.Comments, CommentRow{
			Schema: r.str("table_schema"),
			Table:  r.str("table_name"),
			Column: column,
			Text:   text,
		})
	default:
		return fmt.Errorf("unknown catalog query %q", q)
	}

	if r.err != nil {
		return fmt.Errorf("table %s: %w", r.identity(), r.err)
	}
	return nil
}
