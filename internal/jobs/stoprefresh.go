package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/planner"
	"github.com/trainchat/transit-bot-go/internal/redis"
	"github.com/trainchat/transit-bot-go/internal/repository"
	"github.com/trainchat/transit-bot-go/internal/resolver"
)

// StopRefreshJob keeps every active app's stop catalog warm in Redis so
// name resolution never waits on the planner's full index endpoint.
type StopRefreshJob struct {
	apps     repository.AppRepository
	rdb      *redis.Client
	cacheTTL time.Duration
	interval time.Duration
	log      zerolog.Logger
	done     chan struct{}
}

func NewStopRefreshJob(apps repository.AppRepository, rdb *redis.Client, cacheTTL, interval time.Duration, log zerolog.Logger) *StopRefreshJob {
	return &StopRefreshJob{
		apps:     apps,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (j *StopRefreshJob) Start() {
	go j.run()
	j.log.Info().Dur("interval", j.interval).Msg("stop refresh job started")
}

func (j *StopRefreshJob) Stop() {
	close(j.done)
	j.log.Info().Msg("stop refresh job stopped")
}

func (j *StopRefreshJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.refresh()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.refresh()
		}
	}
}

func (j *StopRefreshJob) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	apps, err := j.apps.FindActive(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("stop refresh: loading active apps failed")
		return
	}

	// several apps may share one router; refresh each catalog once
	seen := make(map[string]bool)
	for _, app := range apps {
		otp := planner.NewClient(app.Config.OTP.Hostname, app.Config.OTP.RouterID)
		key := app.Config.OTP.Hostname + "/" + otp.RouterID()
		if seen[key] {
			continue
		}
		seen[key] = true

		cache := resolver.NewStopCache(otp, j.rdb, j.cacheTTL, j.log)
		stops, err := cache.Refresh(ctx)
		if err != nil {
			j.log.Error().Err(err).Str("router", otp.RouterID()).Msg("stop refresh failed")
			continue
		}
		j.log.Info().Str("router", otp.RouterID()).Int("stops", len(stops)).Msg("stop catalog refreshed")
	}
}
