// Package catalogtest seeds a dbtest.DB with catalog results so packages
// above the catalog can be tested without a database server.
package catalogtest

import (
	"fmt"

	"github.com/koustreak/schemacache/internal/catalog"
	"github.com/koustreak/schemacache/internal/database/dbtest"
)

// Fixture holds raw rows per catalog query, in the column order of
// catalog.Contract.
type Fixture struct {
	Columns     [][]any
	PrimaryKeys [][]any
	Uniques     [][]any
	ForeignKeys [][]any
	Checks      [][]any
	Indexes     [][]any
	Comments    [][]any
}

// Register installs every metadata query and the fingerprint query of d on
// db. The fingerprint rows are derived from the Columns rows.
func (f Fixture) Register(db *dbtest.DB, d *catalog.Dialect) {
	sets := map[catalog.Query][][]any{
		catalog.QueryColumns:           f.Columns,
		catalog.QueryPrimaryKeys:       f.PrimaryKeys,
		catalog.QueryUniqueConstraints: f.Uniques,
		catalog.QueryForeignKeys:       f.ForeignKeys,
		catalog.QueryCheckConstraints:  f.Checks,
		catalog.QueryIndexes:           f.Indexes,
		catalog.QueryComments:          f.Comments,
	}
	for q, rows := range sets {
		db.On(d.SQL(q), dbtest.Result{Columns: catalog.Contract[q], Rows: rows})
	}

	entries := make([][]any, 0, len(f.Columns))
	for _, c := range f.Columns {
		entries = append(entries, []any{fmt.Sprintf("%v.%v:%v:%v", c[0], c[1], c[2], c[3])})
	}
	db.On(d.SQL(catalog.QueryFingerprint), dbtest.Result{Columns: catalog.Contract[catalog.QueryFingerprint], Rows: entries})
}

// Empty is a catalog without user tables.
func Empty() Fixture {
	return Fixture{}
}

// UsersOrders is a two-table catalog: public.users(id, email) and
// public.orders(id, user_id -> users.id, amount) with a check named after
// the amount column, a composite index and comments.
func UsersOrders() Fixture {
	return Fixture{
		Columns: [][]any{
			{"public", "orders", "id", "integer", "NO", "nextval('orders_id_seq'::regclass)", int32(1)},
			{"public", "orders", "user_id", "integer", "NO", nil, int32(2)},
			{"public", "orders", "amount", "numeric", "YES", nil, int32(3)},
			{"public", "users", "id", "integer", "NO", nil, int32(1)},
			{"public", "users", "email", "text", "YES", nil, int32(2)},
		},
		PrimaryKeys: [][]any{
			{"public", "orders", "orders_pkey", "id", int32(1)},
			{"public", "users", "users_pkey", "id", int32(1)},
		},
		Uniques: [][]any{
			{"public", "users", "users_email_key", "email"},
		},
		ForeignKeys: [][]any{
			{"public", "orders", "orders_user_id_fkey", "user_id", "public", "users", "id", "NO ACTION", "CASCADE"},
		},
		Checks: [][]any{
			{"public", "orders", "amount", "CHECK ((amount > (0)::numeric))"},
		},
		Indexes: [][]any{
			{"public", "orders", "orders_pkey", "CREATE UNIQUE INDEX orders_pkey ON public.orders USING btree (id)"},
			{"public", "orders", "orders_user_amount_idx", "CREATE INDEX orders_user_amount_idx ON public.orders USING btree (user_id, amount DESC)"},
			{"public", "users", "users_email_key", "CREATE UNIQUE INDEX users_email_key ON public.users USING btree (email)"},
			{"public", "users", "users_pkey", "CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)"},
		},
		Comments: [][]any{
			{"public", "users", "", "Registered customers"},
			{"public", "users", "email", "Login address"},
			{"public", "users", "deleted_column", "dropped silently"},
		},
	}
}
