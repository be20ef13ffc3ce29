package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/vitrine/storefront/config"
	"github.com/vitrine/storefront/internal/admin"
	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/gateway"
	"github.com/vitrine/storefront/internal/notify"
	"github.com/vitrine/storefront/internal/querycache"
	"github.com/vitrine/storefront/internal/storage"
)

const (
	BackendGorm = "gorm"
	BackendRest = "rest"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	redis     *redis.Client
	cache     *querycache.Client
	feed      *notify.Feed
	images    storage.ObjectStore
	console   *admin.Console
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ ConsoleProvider   = (*Application)(nil)
	_ FeedProvider      = (*Application)(nil)
	_ CacheProvider     = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

// DB returns the gorm handle, nil when the rest backend is used
func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Console() *admin.Console {
	return a.console
}

func (a *Application) Feed() *notify.Feed {
	return a.feed
}

func (a *Application) Cache() *querycache.Client {
	return a.cache
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg)

	if cfg.Backend.Mode == "" {
		cfg.Backend.Mode = BackendGorm
	}
	if cfg.Backend.Mode == BackendGorm && a.gormDB == nil {
		if cfg.Database.Type == "" {
			cfg.Database.Type = "postgres"
		}
		db, err := getDatabase(cfg.Database, cfg.System.Workdir)
		if err != nil {
			return err
		}
		a.gormDB = db
		zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

		if err := a.MigrateDB(false); err != nil {
			zap.S().Errorf("database migration failed: %v", err)
		}
	}

	if err := a.initConsole(cfg); err != nil {
		return err
	}

	if cfg.System.Seed {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		a.checkProductTypes(ctx)
		a.checkCarriers(ctx)
		cancel()
	}

	a.initJob()
	return nil
}

func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// initConsole builds gateways, object storage and the query cache for the configured backend
func (a *Application) initConsole(cfg *config.AppConfig) error {
	var gws admin.Gateways
	switch cfg.Backend.Mode {
	case BackendGorm:
		if a.gormDB == nil {
			return errors.New("gorm backend selected but no database is open")
		}
		gws = admin.Gateways{
			Products:     gateway.NewGormGateway[domain.Product](a.gormDB, gateway.GormOptions{Resource: "products", Preloads: []string{"Category"}}),
			ProductTypes: gateway.NewGormGateway[domain.ProductType](a.gormDB, gateway.GormOptions{Resource: "categories"}),
			Carriers:     gateway.NewGormGateway[domain.Carrier](a.gormDB, gateway.GormOptions{Resource: "carriers"}),
		}
	case BackendRest:
		if cfg.Backend.URL == "" {
			return errors.New("rest backend selected but backend.url (SUPABASE_URL) is empty")
		}
		rest := func(table, sel string) gateway.RestConfig {
			return gateway.RestConfig{
				URL:     cfg.Backend.URL,
				APIKey:  cfg.Backend.APIKey,
				Table:   table,
				Select:  sel,
				Timeout: cfg.Backend.Timeout,
			}
		}
		gws = admin.Gateways{
			Products:     gateway.NewRestGateway[domain.Product](rest("products", "*,categories(id,nome)")),
			ProductTypes: gateway.NewRestGateway[domain.ProductType](rest("categories", "")),
			Carriers:     gateway.NewRestGateway[domain.Carrier](rest("carriers", "")),
		}
	default:
		return errors.Errorf("unsupported backend mode %q", cfg.Backend.Mode)
	}

	images, err := newObjectStore(cfg)
	if err != nil {
		return err
	}
	a.images = images

	var store querycache.Store
	if cfg.Cache.Mode == "redis" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		store = querycache.NewRedisStore(a.redis, cfg.Cache.Prefix, cfg.Cache.GCTime)
	} else {
		store = querycache.NewMemoryStore(cfg.Cache.GCTime)
	}
	a.cache = querycache.NewClient(store, cfg.Cache.StaleTime)
	a.feed = notify.NewFeed()
	a.console = admin.NewConsole(gws, a.cache, a.feed, images)

	zap.L().Info("admin console initialized",
		zap.String("namespace", "app"),
		zap.String("backend", cfg.Backend.Mode),
		zap.String("storage", cfg.Storage.Mode),
		zap.String("cache", cfg.Cache.Mode))
	return nil
}

func newObjectStore(cfg *config.AppConfig) (storage.ObjectStore, error) {
	if cfg.Storage.Mode == "rest" {
		return storage.NewRestStore(cfg.Backend.URL, cfg.Backend.APIKey, cfg.Storage.Bucket, cfg.Backend.Timeout), nil
	}
	baseURL := cfg.Storage.BaseURL
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return storage.NewLocalStore(cfg.GetUploadDir(), baseURL)
}

func (a *Application) MigrateDB(track bool) (err error) {
	if a.gormDB == nil {
		return nil
	}
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	if a.gormDB == nil {
		return
	}
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	if a.gormDB == nil {
		return
	}
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
