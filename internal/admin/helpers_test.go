package admin

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/gateway"
	"github.com/vitrine/storefront/internal/notify"
	"github.com/vitrine/storefront/internal/querycache"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

// countingGateway records every call made through it and can fail or hold writes
type countingGateway[T any] struct {
	gateway.Gateway[T]

	mu        sync.Mutex
	calls     []string
	updateIDs []int64
	deleteIDs []int64
	fail      error

	hold    chan struct{}
	started chan struct{}
}

func (g *countingGateway[T]) record(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, op)
	return g.fail
}

func (g *countingGateway[T]) wait() {
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.hold != nil {
		<-g.hold
	}
}

func (g *countingGateway[T]) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if op == "" || c == op {
			n++
		}
	}
	return n
}

func (g *countingGateway[T]) List(ctx context.Context, opts gateway.ListOptions) ([]T, error) {
	if err := g.record("list"); err != nil {
		return nil, err
	}
	return g.Gateway.List(ctx, opts)
}

func (g *countingGateway[T]) ListPage(ctx context.Context, req gateway.PageRequest, opts gateway.ListOptions) (gateway.Page[T], error) {
	if err := g.record("list_page"); err != nil {
		return gateway.Page[T]{}, err
	}
	return g.Gateway.ListPage(ctx, req, opts)
}

func (g *countingGateway[T]) Create(ctx context.Context, fields gateway.Fields) (T, error) {
	g.wait()
	if err := g.record("create"); err != nil {
		var zero T
		return zero, err
	}
	return g.Gateway.Create(ctx, fields)
}

func (g *countingGateway[T]) Update(ctx context.Context, id int64, fields gateway.Fields) (T, error) {
	g.wait()
	g.mu.Lock()
	g.updateIDs = append(g.updateIDs, id)
	g.mu.Unlock()
	if err := g.record("update"); err != nil {
		var zero T
		return zero, err
	}
	return g.Gateway.Update(ctx, id, fields)
}

func (g *countingGateway[T]) Delete(ctx context.Context, id int64) error {
	g.mu.Lock()
	g.deleteIDs = append(g.deleteIDs, id)
	g.mu.Unlock()
	if err := g.record("delete"); err != nil {
		return err
	}
	return g.Gateway.Delete(ctx, id)
}

type fixture struct {
	db       *gorm.DB
	cache    *querycache.Client
	notes    *notify.Recorder
	products *countingGateway[domain.Product]
	types    *countingGateway[domain.ProductType]
	carriers *countingGateway[domain.Carrier]
	console  *Console
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStore(t, querycache.NewMemoryStore(time.Minute))
}

func newFixtureWithStore(t *testing.T, store querycache.Store) *fixture {
	t.Helper()
	db := setupTestDB(t)
	f := &fixture{
		db:    db,
		cache: querycache.NewClient(store, time.Minute),
		notes: &notify.Recorder{},
		products: &countingGateway[domain.Product]{
			Gateway: gateway.NewGormGateway[domain.Product](db, gateway.GormOptions{Resource: "products", Preloads: []string{"Category"}}),
		},
		types: &countingGateway[domain.ProductType]{
			Gateway: gateway.NewGormGateway[domain.ProductType](db, gateway.GormOptions{Resource: "categories"}),
		},
		carriers: &countingGateway[domain.Carrier]{
			Gateway: gateway.NewGormGateway[domain.Carrier](db, gateway.GormOptions{Resource: "carriers"}),
		},
	}
	f.console = NewConsole(Gateways{
		Products:     f.products,
		ProductTypes: f.types,
		Carriers:     f.carriers,
	}, f.cache, f.notes, nil)
	return f
}

// brokenInvalidationStore caches normally but cannot invalidate
type brokenInvalidationStore struct {
	*querycache.MemoryStore
}

func (brokenInvalidationStore) Invalidate(context.Context, string) error {
	return fmt.Errorf("redis: connection refused")
}
