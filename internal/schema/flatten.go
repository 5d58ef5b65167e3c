package schema

// Flatten turns the assembled tables into the column-centric Document.
//
// Each column is annotated with the key facts of its table: primary_key and
// unique when the column takes part in the primary key or any unique
// constraint, one "schema.table.column" target per foreign key it takes part
// in, and the definition of every check whose name equals the column name.
// Matching checks by name is a naming convention; checks named otherwise are
// not attached to any column.
func Flatten(tables Tables) *Document {
	doc := &Document{Tables: []FlatTable{}}
	for _, t := range tables.Sorted() {
		doc.Tables = append(doc.Tables, flattenTable(t))
	}
	return doc
}

func flattenTable(t *Table) FlatTable {
	out := FlatTable{
		Schema:       t.Schema,
		Table:        t.Name,
		TableComment: t.Comment,
		Columns:      make([]FlatColumn, 0, len(t.Columns)),
		Indexes:      make([]Index, 0, len(t.Indexes)),
	}

	pk := make(map[string]bool)
	if t.PrimaryKey != nil {
		for _, c := range t.PrimaryKey.Columns {
			pk[c] = true
		}
	}
	unique := make(map[string]bool)
	for _, u := range t.Uniques {
		for _, c := range u.Columns {
			unique[c] = true
		}
	}

	for _, c := range t.Columns {
		fc := FlatColumn{
			Name:       c.Name,
			Type:       c.Type,
			Default:    c.Default,
			Comment:    c.Comment,
			PrimaryKey: pk[c.Name],
			Unique:     unique[c.Name],
		}
		if !c.Nullable {
			fc.Nullable = new(bool)
		}
		for _, fk := range t.ForeignKeys {
			for i, local := range fk.Columns {
				if local != c.Name || i >= len(fk.References.Columns) {
					continue
				}
				ref := fk.References
				fc.ForeignKeys = append(fc.ForeignKeys, ref.Schema+"."+ref.Table+"."+ref.Columns[i])
			}
		}
		for _, ck := range t.Checks {
			if ck.Name == c.Name {
				fc.Checks = append(fc.Checks, ck.Definition)
			}
		}
		out.Columns = append(out.Columns, fc)
	}

	for _, idx := range t.Indexes {
		cols := make([]string, len(idx.Columns))
		copy(cols, idx.Columns)
		out.Indexes = append(out.Indexes, Index{Name: idx.Name, Definition: idx.Definition, Columns: cols})
	}
	return out
}
