// Package dbtest provides an in-memory database.DB for tests. Results are
// registered per exact query text.
package dbtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/koustreak/schemacache/internal/database"
	"github.com/koustreak/schemacache/internal/errs"
)

// Result is the canned answer for one query.
type Result struct {
	Columns []string
	Rows    [][]any
	Err     error // returned from Query
	IterErr error // returned from Rows.Err after all rows are read
}

// DB is a concurrency-safe fake implementing database.DB.
type DB struct {
	mu      sync.Mutex
	results map[string]Result
	calls   map[string]int
	down    error
}

var _ database.DB = (*DB)(nil)

// New returns an empty fake. Unregistered queries fail with QueryFailed.
func New() *DB {
	return &DB{
		results: make(map[string]Result),
		calls:   make(map[string]int),
	}
}

// On registers the result for query.
func (db *DB) On(query string, res Result) *DB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.results[query] = res
	return db
}

// SetDown makes every Ping and Query fail with err until called with nil.
func (db *DB) SetDown(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.down = err
}

// Calls returns how many times query was executed.
func (db *DB) Calls(query string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[query]
}

// TotalCalls returns the number of queries executed so far.
func (db *DB) TotalCalls() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, c := range db.calls {
		n += c
	}
	return n
}

func (db *DB) Ping(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.down
}

func (db *DB) Close() {}

func (db *DB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTimeout, "query canceled", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.calls[query]++
	if db.down != nil {
		return nil, db.down
	}
	res, ok := db.results[query]
	if !ok {
		return nil, errs.New(errs.ErrKindQueryFailed, fmt.Sprintf("dbtest: no result registered for query %.60q", query))
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return &rows{res: res, pos: -1}, nil
}

type rows struct {
	res    Result
	pos    int
	closed bool
}

func (r *rows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	return r.pos < len(r.res.Rows)
}

func (r *rows) Scan(dest ...any) error {
	row := r.res.Rows[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("dbtest: scan expects %d destinations, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(*any)
		if !ok {
			return fmt.Errorf("dbtest: destination %d must be *any, got %T", i, d)
		}
		*p = row[i]
	}
	return nil
}

func (r *rows) Columns() ([]string, error) { return r.res.Columns, nil }
func (r *rows) Close()                     { r.closed = true }
func (r *rows) Err() error                 { return r.res.IterErr }
