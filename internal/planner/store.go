package planner

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/redis"
)

// CompressedItinerary is the normalized projection of one itinerary used
// both for display and as the hashing input. Identical trips always
// produce the same projection, so the content hash deduplicates storage.
type CompressedItinerary struct {
	Date      int64  `json:"date"` // plan date rounded down to the hour
	Timezone  string `json:"timezone"`
	From      string `json:"from"`
	To        string `json:"to"`
	Duration  int64  `json:"duration"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
	Transfers int    `json:"transfers"`
	Legs      []Leg  `json:"legs"`
}

// StoredItinerary pairs a projection with its content-hash identifier.
type StoredItinerary struct {
	ItineraryID string              `json:"itineraryId"`
	Itinerary   CompressedItinerary `json:"itinerary"`
}

// Store persists compressed itineraries in Redis keyed by content hash, so
// trip view links stay stable and the same itinerary is never written
// twice.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func NewStore(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{rdb: rdb, ttl: ttl, log: log}
}

// Compress projects one itinerary out of a plan.
func Compress(plan *Plan, itin Itinerary, timezone string) CompressedItinerary {
	return CompressedItinerary{
		Date:      plan.Date - (plan.Date % 3600000),
		Timezone:  timezone,
		From:      plan.From.Name,
		To:        plan.To.Name,
		Duration:  itin.Duration,
		StartTime: itin.StartTime,
		EndTime:   itin.EndTime,
		Transfers: itin.Transfers,
		Legs:      itin.Legs,
	}
}

// Hash returns the canonical identifier of a projection.
func Hash(ci CompressedItinerary) string {
	raw, _ := json.Marshal(ci)
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

// CompressAndStore projects, hashes and stores every itinerary of a plan.
// Already-stored itineraries are left untouched.
func (s *Store) CompressAndStore(ctx context.Context, routerID, timezone string, plan *Plan) ([]StoredItinerary, error) {
	out := make([]StoredItinerary, 0, len(plan.Itineraries))
	for _, itin := range plan.Itineraries {
		ci := Compress(plan, itin, timezone)
		id := Hash(ci)

		raw, err := json.Marshal(ci)
		if err != nil {
			return nil, fmt.Errorf("marshal itinerary: %w", err)
		}

		created, err := s.rdb.SetNX(ctx, redis.ItineraryKey(routerID, id), raw, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("store itinerary: %w", err)
		}
		s.log.Debug().Str("itineraryId", id).Bool("created", created).Msg("itinerary stored")

		out = append(out, StoredItinerary{ItineraryID: id, Itinerary: ci})
	}
	return out, nil
}

// Get loads one stored itinerary projection by id.
func (s *Store) Get(ctx context.Context, routerID, id string) (*CompressedItinerary, error) {
	raw, err := s.rdb.Get(ctx, redis.ItineraryKey(routerID, id)).Bytes()
	if err != nil {
		return nil, err
	}
	var ci CompressedItinerary
	if err := json.Unmarshal(raw, &ci); err != nil {
		return nil, err
	}
	return &ci, nil
}
