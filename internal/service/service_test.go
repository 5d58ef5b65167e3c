package service

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/koustreak/schemacache/internal/cache"
	"github.com/koustreak/schemacache/internal/database"
	"github.com/koustreak/schemacache/internal/catalog"
	"github.com/koustreak/schemacache/internal/catalog/catalogtest"
	"github.com/koustreak/schemacache/internal/database/dbtest"
	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/filestore"
	"github.com/koustreak/schemacache/internal/filestore/local"
	"github.com/koustreak/schemacache/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	svc   *Service
	db    *dbtest.DB
	store *cache.Store
	dir   string
	logs  *bytes.Buffer
}

func newHarness(t *testing.T, f catalogtest.Fixture, opts ...catalog.Option) *harness {
	t.Helper()
	db := dbtest.New()
	f.Register(db, catalog.Postgres)

	dir := t.TempDir()
	backend, err := local.New(filestore.LocalConfig{Dir: dir})
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	log := logger.New(&logger.Config{Level: "debug", Format: "json", Output: &syncWriter{w: logs}})

	store := cache.New(backend, cache.WithLogger(log))
	reader := catalog.NewReader(db, catalog.Postgres, opts...)
	return &harness{
		svc:   New(reader, store, WithLogger(log)),
		db:    db,
		store: store,
		dir:   dir,
		logs:  logs,
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (h *harness) fullReads() int {
	return h.db.Calls(catalog.Postgres.Columns)
}

func (h *harness) fingerprintReads() int {
	return h.db.Calls(catalog.Postgres.Fingerprint)
}

func TestGetSchema_EmptyDatabase(t *testing.T) {
	h := newHarness(t, catalogtest.Empty())

	doc, err := h.svc.GetSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"tables":[]}`, string(doc))
}

func TestGetSchema_BuildsOnceWhileUnchanged(t *testing.T) {
	h := newHarness(t, catalogtest.UsersOrders())
	ctx := context.Background()

	first, err := h.svc.GetSchema(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(first), `"foreign_keys":["public.users.id"]`)
	assert.Equal(t, 1, h.fullReads())

	for i := 0; i < 3; i++ {
		again, err := h.svc.GetSchema(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	assert.Equal(t, 1, h.fullReads(), "unchanged catalog must not be read again")
	assert.Equal(t, 4, h.fingerprintReads())
	for _, q := range catalog.Queries {
		assert.Equal(t, 1, h.db.Calls(catalog.Postgres.SQL(q)), "query %s", q)
	}
}

func TestGetSchema_RebuildsOnDrift(t *testing.T) {
	h := newHarness(t, catalogtest.UsersOrders())
	ctx := context.Background()

	before, err := h.svc.GetSchema(ctx)
	require.NoError(t, err)
	fpBefore, err := h.svc.Fingerprint(ctx)
	require.NoError(t, err)

	changed := catalogtest.UsersOrders()
	changed.Columns[4][3] = "varchar(320)"
	changed.Register(h.db, catalog.Postgres)

	after, err := h.svc.GetSchema(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Contains(t, string(after), `"type":"varchar(320)"`)
	assert.Equal(t, 2, h.fullReads())

	fpAfter, err := h.svc.Fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, fpBefore, fpAfter)

	live, err := h.svc.LiveFingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, live, fpAfter)
}

func TestGetSchema_ServesCacheWhenCatalogUnreachable(t *testing.T) {
	h := newHarness(t, catalogtest.UsersOrders())
	ctx := context.Background()

	cached, err := h.svc.GetSchema(ctx)
	require.NoError(t, err)

	h.db.SetDown(errs.New(errs.ErrKindConnectionFailed, "connection refused"))

	doc, err := h.svc.GetSchema(ctx)
	require.NoError(t, err)
	assert.Equal(t, cached, doc)
	assert.Contains(t, h.logs.String(), "serving cached schema after failed check")

	err = h.svc.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsConnectivity(err))

	// The persisted copy is served even after the fast path is dropped.
	h.svc.Invalidate()
	doc, err = h.svc.GetSchema(ctx)
	require.NoError(t, err)
	assert.Equal(t, cached, doc)
}

func TestGetSchema_UnreachableWithoutCache(t *testing.T) {
	h := newHarness(t, catalogtest.UsersOrders())
	h.db.SetDown(errs.New(errs.ErrKindConnectionFailed, "connection refused"))

	_, err := h.svc.GetSchema(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsConnectivity(err))
}

func TestGetSchema_FailedRebuildKeepsPreviousDocument(t *testing.T) {
	h := newHarness(t, catalogtest.UsersOrders())
	ctx := context.Background()

	cached, err := h.svc.GetSchema(ctx)
	require.NoError(t, err)

	// Drift is visible, but the full read returns a malformed result.
	changed := catalogtest.UsersOrders()
	changed.Columns[0][3] = "bigint"
	changed.Register(h.db, catalog.Postgres)
	h.db.On(catalog.Postgres.Indexes, dbtest.Result{Columns: []string{"table_schema"}})

	doc, err := h.svc.GetSchema(ctx)
	require.NoError(t, err)
	assert.Equal(t, cached, doc)

	err = h.svc.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsMalformedResult(err))
	assert.Contains(t, h.logs.String(), `"op":"catalog.indexes"`)
}

func TestRebuild_ForcesFullRead(t *testing.T) {
	h := newHarness(t, catalogtest.UsersOrders())
	ctx := context.Background()

	require.NoError(t, h.svc.Refresh(ctx))
	first := h.store.Cached()
	require.NotNil(t, first)

	require.NoError(t, h.svc.Refresh(ctx))
	assert.Equal(t, 1, h.fullReads())

	require.NoError(t, h.svc.Rebuild(ctx))
	assert.Equal(t, 2, h.fullReads())
	assert.Equal(t, first.Document, h.store.Cached().Document, "rebuild of an unchanged catalog is byte-identical")
}

func TestGetSchema_ConcurrentCallersShareOneRebuild(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		h := newHarness(t, catalogtest.UsersOrders(), catalog.WithParallel(parallel))
		ctx := context.Background()

		var wg sync.WaitGroup
		docs := make([][]byte, 16)
		for i := range docs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				doc, err := h.svc.GetSchema(ctx)
				assert.NoError(t, err)
				docs[i] = doc
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, h.fullReads())
		for _, d := range docs {
			assert.Equal(t, docs[0], d)
		}
	}
}

func TestGetSchema_StorageFailure(t *testing.T) {
	h := newHarness(t, catalogtest.UsersOrders())
	require.NoError(t, os.RemoveAll(h.dir))

	_, err := h.svc.GetSchema(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))
	assert.Nil(t, h.store.Cached())
}

func TestPing(t *testing.T) {
	h := newHarness(t, catalogtest.Empty())
	ctx := context.Background()

	require.NoError(t, h.svc.Ping(ctx))

	h.db.SetDown(errs.New(errs.ErrKindConnectionFailed, "connection refused"))
	err := h.svc.Ping(ctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "catalog.ping"))
}

// gatedDB holds every execution of one query until release is closed.
type gatedDB struct {
	*dbtest.DB
	query   string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedDB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	if query == g.query {
		g.entered <- struct{}{}
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, errs.Wrap(errs.ErrKindTimeout, "query canceled", ctx.Err())
		}
	}
	return g.DB.Query(ctx, query, args...)
}

func TestRefresh_CanceledCallerDoesNotFailJoinedCallers(t *testing.T) {
	db := dbtest.New()
	catalogtest.UsersOrders().Register(db, catalog.Postgres)
	gated := &gatedDB{
		DB:      db,
		query:   catalog.Postgres.Fingerprint,
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	backend, err := local.New(filestore.LocalConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	svc := New(catalog.NewReader(gated, catalog.Postgres), cache.New(backend))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() { firstErr <- svc.Refresh(firstCtx) }()
	<-gated.entered

	secondErr := make(chan error, 1)
	go func() { secondErr <- svc.Refresh(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.True(t, errs.IsTimeout(err), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("canceled caller kept waiting")
	}

	close(gated.release)
	select {
	case err := <-secondErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("joined caller never returned")
	}

	assert.Equal(t, 1, db.Calls(catalog.Postgres.Fingerprint))
	fp, err := svc.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, fp)
}
