package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/planner"
	"github.com/trainchat/transit-bot-go/internal/redis"
)

// StopSource supplies the stop catalog and proximity lookups.
type StopSource interface {
	Stops(ctx context.Context) ([]model.Stop, error)
	StopsNear(ctx context.Context, lat, lon float64, radius int) ([]model.Stop, error)
}

// StopCache is a StopSource backed by the planner's index endpoint with
// the full catalog cached in Redis. The catalog changes rarely and is
// fetched on every name resolution, so the cache is what keeps turns
// cheap.
type StopCache struct {
	client *planner.Client
	rdb    *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewStopCache(client *planner.Client, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *StopCache {
	return &StopCache{client: client, rdb: rdb, ttl: ttl, log: log}
}

func (c *StopCache) Stops(ctx context.Context) ([]model.Stop, error) {
	key := redis.StopsKey(c.client.RouterID())

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var stops []model.Stop
		if err := json.Unmarshal(raw, &stops); err == nil {
			return stops, nil
		}
		c.log.Warn().Str("key", key).Msg("corrupt stop cache entry, refetching")
	}

	return c.Refresh(ctx)
}

// Refresh refetches the catalog and rewrites the cache entry.
func (c *StopCache) Refresh(ctx context.Context) ([]model.Stop, error) {
	stops, err := c.client.FindStops(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch stop list: %w", err)
	}

	raw, err := json.Marshal(stops)
	if err != nil {
		return nil, fmt.Errorf("marshal stop list: %w", err)
	}
	if err := c.rdb.Set(ctx, redis.StopsKey(c.client.RouterID()), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("failed to cache stop list")
	}

	c.log.Debug().Int("stops", len(stops)).Msg("stop list refreshed")
	return stops, nil
}

func (c *StopCache) StopsNear(ctx context.Context, lat, lon float64, radius int) ([]model.Stop, error) {
	return c.client.FindStops(ctx, &planner.StopParams{Lat: lat, Lon: lon, Radius: radius})
}
