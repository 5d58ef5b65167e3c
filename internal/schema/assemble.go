package schema

import (
	"sort"

	"github.com/koustreak/schemacache/internal/catalog"
)

// Tables maps table identity ("schema.table") to its assembled record.
type Tables map[string]*Table

// Sorted returns the tables ordered by schema, then table name.
func (ts Tables) Sorted() []*Table {
	out := make([]*Table, 0, len(ts))
	for _, t := range ts {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Schema != out[j].Schema {
			return out[i].Schema < out[j].Schema
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Assemble merges the catalog row sets into one record per table.
//
// The columns rows decide which tables exist; rows of the other sets that
// name an unknown table are skipped. Rows sharing a constraint name within a
// table are merged into one constraint, so composite keys keep all their
// columns. A comment with an empty column name is the table comment; a
// column comment that matches no column is dropped.
func Assemble(sets *catalog.RowSets) Tables {
	tables := make(Tables)

	for _, row := range sets.Columns {
		key := Identity(row.Schema, row.Table)
		t, ok := tables[key]
		if !ok {
			t = &Table{
				Schema:      row.Schema,
				Name:        row.Table,
				Columns:     []Column{},
				Uniques:     []UniqueConstraint{},
				ForeignKeys: []ForeignKey{},
				Checks:      []CheckConstraint{},
				Indexes:     []Index{},
			}
			tables[key] = t
		}
		t.Columns = append(t.Columns, Column{
			Name:     row.Name,
			Type:     row.DataType,
			Nullable: row.Nullable,
			Default:  row.Default,
			ordinal:  row.Ordinal,
		})
	}

	mergePrimaryKeys(tables, sets.PrimaryKeys)
	mergeUniques(tables, sets.Uniques)
	mergeForeignKeys(tables, sets.ForeignKeys)
	mergeChecks(tables, sets.Checks)
	mergeIndexes(tables, sets.Indexes)
	mergeComments(tables, sets.Comments)

	for _, t := range tables {
		sort.SliceStable(t.Columns, func(i, j int) bool {
			return t.Columns[i].ordinal < t.Columns[j].ordinal
		})
	}

	return tables
}

func mergePrimaryKeys(tables Tables, rows []catalog.KeyRow) {
	ordinals := make(map[*PrimaryKey][]int)

	for _, row := range rows {
		t, ok := tables[Identity(row.Schema, row.Table)]
		if !ok {
			continue
		}
		if t.PrimaryKey == nil {
			t.PrimaryKey = &PrimaryKey{Name: row.Constraint, Columns: []string{}}
		}
		if t.PrimaryKey.Name != row.Constraint {
			continue
		}
		t.PrimaryKey.Columns = append(t.PrimaryKey.Columns, row.Column)
		ordinals[t.PrimaryKey] = append(ordinals[t.PrimaryKey], row.Ordinal)
	}

	for pk, ords := range ordinals {
		sort.Stable(byOrdinal{cols: pk.Columns, ords: ords})
	}
}

// byOrdinal sorts key columns by their catalog ordinal.
type byOrdinal struct {
	cols []string
	ords []int
}

func (b byOrdinal) Len() int           { return len(b.cols) }
func (b byOrdinal) Less(i, j int) bool { return b.ords[i] < b.ords[j] }
func (b byOrdinal) Swap(i, j int) {
	b.cols[i], b.cols[j] = b.cols[j], b.cols[i]
	b.ords[i], b.ords[j] = b.ords[j], b.ords[i]
}

func mergeUniques(tables Tables, rows []catalog.KeyRow) {
	for _, row := range rows {
		t, ok := tables[Identity(row.Schema, row.Table)]
		if !ok {
			continue
		}
		i := indexOf(len(t.Uniques), func(i int) bool { return t.Uniques[i].Name == row.Constraint })
		if i < 0 {
			t.Uniques = append(t.Uniques, UniqueConstraint{Name: row.Constraint, Columns: []string{}})
			i = len(t.Uniques) - 1
		}
		t.Uniques[i].Columns = append(t.Uniques[i].Columns, row.Column)
	}
}

func mergeForeignKeys(tables Tables, rows []catalog.ForeignKeyRow) {
	for _, row := range rows {
		t, ok := tables[Identity(row.Schema, row.Table)]
		if !ok {
			continue
		}
		i := indexOf(len(t.ForeignKeys), func(i int) bool { return t.ForeignKeys[i].Name == row.Constraint })
		if i < 0 {
			t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
				Name:    row.Constraint,
				Columns: []string{},
				References: Reference{
					Schema:  row.RefSchema,
					Table:   row.RefTable,
					Columns: []string{},
				},
				OnUpdate: row.OnUpdate,
				OnDelete: row.OnDelete,
			})
			i = len(t.ForeignKeys) - 1
		}
		fk := &t.ForeignKeys[i]
		fk.Columns = append(fk.Columns, row.Column)
		fk.References.Columns = append(fk.References.Columns, row.RefColumn)
	}
}

func mergeChecks(tables Tables, rows []catalog.CheckRow) {
	for _, row := range rows {
		t, ok := tables[Identity(row.Schema, row.Table)]
		if !ok {
			continue
		}
		if indexOf(len(t.Checks), func(i int) bool { return t.Checks[i].Name == row.Constraint }) >= 0 {
			continue
		}
		t.Checks = append(t.Checks, CheckConstraint{Name: row.Constraint, Definition: row.Definition})
	}
}

func mergeIndexes(tables Tables, rows []catalog.IndexRow) {
	for _, row := range rows {
		t, ok := tables[Identity(row.Schema, row.Table)]
		if !ok {
			continue
		}
		if indexOf(len(t.Indexes), func(i int) bool { return t.Indexes[i].Name == row.Name }) >= 0 {
			continue
		}
		t.Indexes = append(t.Indexes, Index{
			Name:       row.Name,
			Definition: row.Definition,
			Columns:    ExtractColumns(row.Definition),
		})
	}
}

func mergeComments(tables Tables, rows []catalog.CommentRow) {
	for _, row := range rows {
		t, ok := tables[Identity(row.Schema, row.Table)]
		if !ok || row.Text == "" {
			continue
		}
		if row.Column == "" {
			t.Comment = row.Text
			continue
		}
		for i := range t.Columns {
			if t.Columns[i].Name == row.Column {
				t.Columns[i].Comment = row.Text
				break
			}
		}
	}
}

func indexOf(n int, match func(int) bool) int {
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}
	return -1
}
