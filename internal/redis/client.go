package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// StopsKey is the cached stop list for one planner router.
func StopsKey(routerID string) string {
	return fmt.Sprintf("stops:%s", routerID)
}

// ItineraryKey addresses one stored itinerary projection by content hash.
func ItineraryKey(routerID, hash string) string {
	return fmt.Sprintf("itin:%s:%s", routerID, hash)
}
