// Package catalog reads the structural metadata of a database through a
// database.DB. It issues one read-only query per metadata kind (columns,
// keys, constraints, indexes, comments) and returns the typed row sets.
//
// Usage:
//
//	dialect, _ := catalog.ForDriver(cfg.Driver)
//	reader := catalog.NewReader(db, dialect)
//	sets, err := reader.Read(ctx)
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/schemacache/internal/database"
	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Reader runs the catalog queries of a Dialect. It holds no state between
// calls and is safe for concurrent use.
type Reader struct {
	db       database.DB
	dialect  *Dialect
	parallel bool
	log      *logger.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithParallel runs the metadata queries concurrently. Results are still
// merged in the fixed order of Queries.
func WithParallel(enabled bool) Option {
	return func(r *Reader) { r.parallel = enabled }
}

// WithLogger sets the logger used for per-query debug output.
func WithLogger(l *logger.Logger) Option {
	return func(r *Reader) { r.log = l }
}

// NewReader returns a Reader issuing dialect's queries against db.
func NewReader(db database.DB, dialect *Dialect, opts ...Option) *Reader {
	r := &Reader{db: db, dialect: dialect, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dialect returns the dialect this reader speaks.
func (r *Reader) Dialect() *Dialect {
	return r.dialect
}

// Ping checks the catalog database is reachable.
func (r *Reader) Ping(ctx context.Context) error {
	return errs.WithOp(r.db.Ping(ctx), "catalog.ping", errs.ErrKindConnectionFailed)
}

// Read executes every metadata query and decodes the results. Any failing
// query aborts the read; no partial RowSets is returned.
func (r *Reader) Read(ctx context.Context) (*RowSets, error) {
	raw := make([][]map[string]any, len(Queries))

	if r.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, q := range Queries {
			g.Go(func() error {
				rows, err := r.Fetch(gctx, q)
				if err != nil {
					return err
				}
				raw[i] = rows
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, q := range Queries {
			rows, err := r.Fetch(ctx, q)
			if err != nil {
				return nil, err
			}
			raw[i] = rows
		}
	}

	sets := &RowSets{}
	for i, q := range Queries {
		for _, values := range raw[i] {
			if err := sets.decode(q, values); err != nil {
				return nil, &errs.Error{
					Kind:    errs.ErrKindMalformedResult,
					Op:      op(q),
					Message: err.Error(),
				}
			}
		}
	}
	return sets, nil
}

// Fetch runs a single query and returns its rows keyed by column name after
// checking the result carries every column of the query's contract.
func (r *Reader) Fetch(ctx context.Context, q Query) ([]map[string]any, error) {
	text := r.dialect.SQL(q)
	if strings.TrimSpace(text) == "" {
		return nil, &errs.Error{
			Kind:    errs.ErrKindInvalidInput,
			Op:      op(q),
			Message: fmt.Sprintf("dialect %s defines no %s query", r.dialect.Name, q),
		}
	}

	rows, err := r.db.Query(ctx, text)
	if err != nil {
		return nil, errs.WithOp(err, op(q), errs.ErrKindConnectionFailed)
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, &errs.Error{Kind: errs.ErrKindMalformedResult, Op: op(q), Message: "cannot read result columns", Cause: err}
	}
	if missing := missingColumns(Contract[q], columns); len(missing) > 0 {
		rows.Close()
		return nil, &errs.Error{
			Kind:    errs.ErrKindMalformedResult,
			Op:      op(q),
			Message: fmt.Sprintf("result is missing expected columns %s", strings.Join(missing, ", ")),
		}
	}

	result, err := database.ScanRows(rows)
	if err != nil {
		return nil, errs.WithOp(err, op(q), errs.ErrKindMalformedResult)
	}

	r.log.With().
		Str("dialect", r.dialect.Name).
		Str("query", string(q)).
		Int("rows", len(result)).
		Logger().
		Debug("catalog query complete")

	return result, nil
}

func op(q Query) string {
	return "catalog." + string(q)
}

func missingColumns(want, got []string) []string {
	have := make(map[string]bool, len(got))
	for _, c := range got {
		have[strings.ToLower(c)] = true
	}
	var missing []string
	for _, c := range want {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
