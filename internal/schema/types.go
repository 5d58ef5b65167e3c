package schema

// Column is one column of a table. The catalog ordinal is kept only to
// order columns during assembly and is never serialized.
type Column struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
	Comment  string  `json:"comment,omitempty"`

	ordinal int
}

// PrimaryKey lists the key columns in catalog ordinal order.
type PrimaryKey struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// UniqueConstraint lists its columns in catalog order.
type UniqueConstraint struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Reference is the target side of a foreign key.
type Reference struct {
	Schema  string   `json:"schema"`
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

// ForeignKey pairs Columns[i] with References.Columns[i].
type ForeignKey struct {
	Name       string    `json:"name"`
	Columns    []string  `json:"columns"`
	References Reference `json:"references"`
	OnUpdate   string    `json:"on_update,omitempty"`
	OnDelete   string    `json:"on_delete,omitempty"`
}

// CheckConstraint keeps the raw definition text.
type CheckConstraint struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// Index keeps the raw definition and the tokens ExtractColumns found in it.
type Index struct {
	Name       string   `json:"name" yaml:"name"`
	Definition string   `json:"definition" yaml:"definition"`
	Columns    []string `json:"columns" yaml:"columns"`
}

// Table is the fully assembled record of one table or view.
type Table struct {
	Schema      string             `json:"schema"`
	Name        string             `json:"table"`
	Comment     string             `json:"table_comment,omitempty"`
	Columns     []Column           `json:"columns"`
	PrimaryKey  *PrimaryKey        `json:"primary_key,omitempty"`
	Uniques     []UniqueConstraint `json:"unique_constraints"`
	ForeignKeys []ForeignKey       `json:"foreign_keys"`
	Checks      []CheckConstraint  `json:"checks"`
	Indexes     []Index            `json:"indexes"`
}

// Identity returns the unique "schema.table" key of t.
func (t *Table) Identity() string {
	return Identity(t.Schema, t.Name)
}

// Identity joins a schema and table name into a table identity.
func Identity(schema, table string) string {
	return schema + "." + table
}

// Document is the flattened, column-centric snapshot that is cached and served.
type Document struct {
	Tables []FlatTable `json:"tables" yaml:"tables"`
}

// FlatTable is one table of a Document.
type FlatTable struct {
	Schema       string       `json:"schema" yaml:"schema"`
	Table        string       `json:"table" yaml:"table"`
	TableComment string       `json:"table_comment,omitempty" yaml:"table_comment,omitempty"`
	Columns      []FlatColumn `json:"columns" yaml:"columns"`
	Indexes      []Index      `json:"indexes" yaml:"indexes"`
}

// FlatColumn carries the key and constraint facts of its table denormalized
// onto the column. Zero values are omitted when serialized; Nullable is set
// only to false.
type FlatColumn struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`
	Default     *string  `json:"default,omitempty" yaml:"default,omitempty"`
	Nullable    *bool    `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Comment     string   `json:"comment,omitempty" yaml:"comment,omitempty"`
	PrimaryKey  bool     `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Unique      bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	ForeignKeys []string `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
	Checks      []string `json:"checks,omitempty" yaml:"checks,omitempty"`
}
