package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine/storefront/config"
	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/gateway"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.System.Location = "UTC"
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = "test"
	cfg.Backend.Mode = BackendGorm
	cfg.Storage.Mode = "local"
	cfg.Cache.Mode = "memory"
	return &cfg
}

func TestInitSqliteSeedsDefaults(t *testing.T) {
	cfg := testConfig(t)
	a := NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	defer a.Release()

	require.NotNil(t, a.DB())
	require.NotNil(t, a.Console())
	require.NotNil(t, a.Scheduler())
	assert.Len(t, a.Scheduler().Entries(), 2)

	var types []domain.ProductType
	require.NoError(t, a.DB().Order("id").Find(&types).Error)
	require.Len(t, types, len(defaultProductTypes))
	assert.Equal(t, "Eletrônicos", types[0].Name)

	state := a.Console().Carriers.List().Load(context.Background(), 1)
	require.NoError(t, state.Err)
	assert.Len(t, state.Rows, len(defaultCarriers))
}

func TestSeedIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	a := NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	defer a.Release()

	a.checkCarriers(context.Background())
	rows, err := a.Console().Carriers.Resource.Gateway.List(context.Background(), gateway.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, len(defaultCarriers))
}

func TestInitRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend.Mode = "graphql"
	a := NewApplication(cfg)
	a.OverrideDB(nil)
	assert.Error(t, a.Init(cfg))
}

func TestInitRestBackendNeedsURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend.Mode = BackendRest
	cfg.Backend.URL = ""
	a := NewApplication(cfg)
	assert.Error(t, a.Init(cfg))
}

func TestScheduledTasks(t *testing.T) {
	cfg := testConfig(t)
	cfg.System.Seed = false
	a := NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	defer a.Release()

	a.Feed().Success("Carrier created")
	assert.Equal(t, 1, a.Feed().Len())
	a.SchedSweepNotifications()
	assert.Equal(t, 1, a.Feed().Len())

	a.SchedCacheStatsTask()
	assert.EqualValues(t, 0, a.Cache().Stats().Hits)
}
