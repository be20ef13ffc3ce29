package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	_, err = a.sched.AddFunc("@every 30s", a.SchedSweepNotifications)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 5m", a.SchedCacheStatsTask)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedSweepNotifications drops toasts nobody collected before they expired
func (a *Application) SchedSweepNotifications() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	if a.feed == nil {
		return
	}
	if n := a.feed.Sweep(); n > 0 {
		zap.L().Debug("expired notifications removed", zap.String("namespace", "app"), zap.Int("count", n))
	}
}

// SchedCacheStatsTask logs query cache counters
func (a *Application) SchedCacheStatsTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	if a.cache == nil {
		return
	}
	stats := a.cache.Stats()
	zap.L().Info("query cache stats",
		zap.String("namespace", "querycache"),
		zap.Uint64("hits", stats.Hits),
		zap.Uint64("misses", stats.Misses),
		zap.Uint64("fetches", stats.Fetches),
		zap.Uint64("invalidations", stats.Invalidations),
		zap.Uint64("errors", stats.Errors))
}
