package schema_test

import (
	"context"
	"testing"

	"github.com/koustreak/schemacache/internal/catalog"
	"github.com/koustreak/schemacache/internal/catalog/catalogtest"
	"github.com/koustreak/schemacache/internal/database/dbtest"
	"github.com/koustreak/schemacache/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, f catalogtest.Fixture) *schema.Document {
	t.Helper()
	db := dbtest.New()
	f.Register(db, catalog.Postgres)

	sets, err := catalog.NewReader(db, catalog.Postgres).Read(context.Background())
	require.NoError(t, err)
	return schema.Build(sets)
}

func findTable(t *testing.T, doc *schema.Document, name string) schema.FlatTable {
	t.Helper()
	for _, tbl := range doc.Tables {
		if tbl.Table == name {
			return tbl
		}
	}
	t.Fatalf("table %s not in document", name)
	return schema.FlatTable{}
}

func TestFlatten_UsersOrders(t *testing.T) {
	doc := build(t, catalogtest.UsersOrders())

	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "orders", doc.Tables[0].Table)
	assert.Equal(t, "users", doc.Tables[1].Table)

	no := false
	users := findTable(t, doc, "users")
	assert.Equal(t, "Registered customers", users.TableComment)
	require.Len(t, users.Columns, 2)
	assert.Equal(t, schema.FlatColumn{Name: "id", Type: "integer", Nullable: &no, PrimaryKey: true}, users.Columns[0])
	assert.Equal(t, schema.FlatColumn{Name: "email", Type: "text", Comment: "Login address", Unique: true}, users.Columns[1])

	orders := findTable(t, doc, "orders")
	assert.Empty(t, orders.TableComment)
	require.Len(t, orders.Columns, 3)

	id := orders.Columns[0]
	assert.True(t, id.PrimaryKey)
	require.NotNil(t, id.Default)
	assert.Equal(t, "nextval('orders_id_seq'::regclass)", *id.Default)

	userID := orders.Columns[1]
	assert.Equal(t, "user_id", userID.Name)
	assert.Equal(t, []string{"public.users.id"}, userID.ForeignKeys)
	assert.False(t, userID.PrimaryKey)
	assert.Empty(t, userID.Checks)

	amount := orders.Columns[2]
	assert.Nil(t, amount.Nullable)
	assert.Equal(t, []string{"CHECK ((amount > (0)::numeric))"}, amount.Checks)
	assert.Empty(t, amount.ForeignKeys)

	require.Len(t, orders.Indexes, 2)
	assert.Equal(t, []string{"user_id", "amount DESC"}, orders.Indexes[1].Columns)
}

func TestFlatten_EmptyCatalog(t *testing.T) {
	doc := build(t, catalogtest.Empty())

	assert.NotNil(t, doc.Tables)
	assert.Empty(t, doc.Tables)

	b, err := doc.JSON()
	require.NoError(t, err)
	assert.Equal(t, `{"tables":[]}`, string(b))
}

func TestFlatten_OmitsZeroFields(t *testing.T) {
	doc := build(t, catalogtest.UsersOrders())

	b, err := doc.JSON()
	require.NoError(t, err)

	const want = `{"tables":[` +
		`{"schema":"public","table":"orders","columns":[` +
		`{"name":"id","type":"integer","default":"nextval('orders_id_seq'::regclass)","nullable":false,"primary_key":true},` +
		`{"name":"user_id","type":"integer","nullable":false,"foreign_keys":["public.users.id"]},` +
		`{"name":"amount","type":"numeric","checks":["CHECK ((amount > (0)::numeric))"]}],` +
		`"indexes":[` +
		`{"name":"orders_pkey","definition":"CREATE UNIQUE INDEX orders_pkey ON public.orders USING btree (id)","columns":["id"]},` +
		`{"name":"orders_user_amount_idx","definition":"CREATE INDEX orders_user_amount_idx ON public.orders USING btree (user_id, amount DESC)","columns":["user_id","amount DESC"]}]},` +
		`{"schema":"public","table":"users","table_comment":"Registered customers","columns":[` +
		`{"name":"id","type":"integer","nullable":false,"primary_key":true},` +
		`{"name":"email","type":"text","comment":"Login address","unique":true}],` +
		`"indexes":[` +
		`{"name":"users_email_key","definition":"CREATE UNIQUE INDEX users_email_key ON public.users USING btree (email)","columns":["email"]},` +
		`{"name":"users_pkey","definition":"CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)","columns":["id"]}]}]}`

	assert.Equal(t, want, string(b))
}

func TestFlatten_CompositeForeignKeyTargets(t *testing.T) {
	tables := schema.Tables{
		"s.child": {
			Schema:  "s",
			Name:    "child",
			Columns: []schema.Column{{Name: "a", Type: "int", Nullable: true}, {Name: "b", Type: "int", Nullable: true}},
			ForeignKeys: []schema.ForeignKey{
				{Name: "child_fkey", Columns: []string{"a", "b"}, References: schema.Reference{Schema: "s", Table: "parent", Columns: []string{"x", "y"}}},
				{Name: "child_b_fkey", Columns: []string{"b"}, References: schema.Reference{Schema: "t", Table: "other", Columns: []string{"z"}}},
			},
			Checks: []schema.CheckConstraint{{Name: "child_a_check", Definition: "CHECK (a > 0)"}},
		},
	}

	doc := schema.Flatten(tables)
	require.Len(t, doc.Tables, 1)
	cols := doc.Tables[0].Columns
	assert.Equal(t, []string{"s.parent.x"}, cols[0].ForeignKeys)
	assert.Equal(t, []string{"s.parent.y", "t.other.z"}, cols[1].ForeignKeys)

	// Checks are attached by name only.
	assert.Empty(t, cols[0].Checks)
	assert.NotNil(t, doc.Tables[0].Indexes)
}
