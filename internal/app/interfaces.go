package app

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/vitrine/storefront/config"
	"github.com/vitrine/storefront/internal/admin"
	"github.com/vitrine/storefront/internal/notify"
	"github.com/vitrine/storefront/internal/querycache"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// ConsoleProvider provides the admin workflow of every resource
type ConsoleProvider interface {
	Console() *admin.Console
}

// FeedProvider provides the pending user notifications
type FeedProvider interface {
	Feed() *notify.Feed
}

// CacheProvider provides the shared query cache
type CacheProvider interface {
	Cache() *querycache.Client
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	ConsoleProvider
	FeedProvider
	CacheProvider
}
