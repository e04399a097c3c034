package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Conversation defaults. Per-application stage vars may override the
// itinerary count and intent threshold.
const (
	DefaultNumItineraries     = 3
	DefaultIntentThreshold    = 0.9
	DefaultSessionTTLSeconds  = 300
	ProfileStaleAfter         = 15 * time.Minute
	TripHistoryMax            = 5
	StationMatchMax           = 5
	StationSearchRadiusMeters = 10000
	MaxWalkDistanceMeters     = 804.672 // half a mile
)

// NLU datetime values with second grain this close to "now" are treated
// as hallucinated interval bounds and dropped.
const DatetimeNoiseWindow = 30 * time.Second
