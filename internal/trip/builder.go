package trip

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/config"
	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/planner"
)

// Query is one fully-resolved trip request.
type Query struct {
	Origin      model.Stop
	Destination model.Stop
	Window      Window
	ArriveBy    bool
	Display     int // itinerary display cap
}

// Planner is the slice of the OTP client the builder needs.
type Planner interface {
	FindPlans(ctx context.Context, params planner.PlanParams) (*planner.Plan, error)
}

// ItineraryStore persists compressed itineraries and hands back stable ids.
type ItineraryStore interface {
	CompressAndStore(ctx context.Context, routerID, timezone string, plan *planner.Plan) ([]planner.StoredItinerary, error)
}

// Builder turns resolved stops plus a time window into planner calls and a
// filtered, capped, deduplicated itinerary list.
type Builder struct {
	planner  Planner
	store    ItineraryStore
	routerID string
	timezone string
	loc      *time.Location
	log      zerolog.Logger
}

func NewBuilder(p Planner, store ItineraryStore, routerID, timezone string, loc *time.Location, log zerolog.Logger) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{planner: p, store: store, routerID: routerID, timezone: timezone, loc: loc, log: log}
}

// Params constructs the planner query for q.
func (b *Builder) Params(q Query) planner.PlanParams {
	params := planner.PlanParams{
		FromPlace:             q.Origin.ID,
		ToPlace:               q.Destination.ID,
		Mode:                  "TRANSIT",
		MaxWalkDistance:       config.MaxWalkDistanceMeters,
		Locale:                "en",
		NumItineraries:        q.Display + 2, // buffer for post-filtering
		ShowIntermediateStops: true,
	}

	if q.ArriveBy {
		params.ArriveBy = true
		end := q.Window.End.In(b.loc)
		params.Date = end.Format("01-02-2006")
		params.Time = end.Format("15:04:05")
	} else if !q.Window.Start.IsZero() {
		start := q.Window.Start.In(b.loc)
		params.Date = start.Format("01-02-2006")
		params.Time = start.Format("15:04:05")
	}

	return params
}

// Run executes the whole pipeline: guard, plan, store, filter, cap.
func (b *Builder) Run(ctx context.Context, q Query) ([]planner.StoredItinerary, error) {
	if q.Origin.ID == q.Destination.ID {
		return nil, apperrors.SameStation(q.Origin.ID)
	}

	params := b.Params(q)
	b.log.Debug().Str("from", params.FromPlace).Str("to", params.ToPlace).
		Bool("arriveBy", params.ArriveBy).Msg("calling findPlans")

	plan, err := b.planner.FindPlans(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(plan.Itineraries) == 0 {
		return nil, apperrors.NoItineraries()
	}

	stored, err := b.store.CompressAndStore(ctx, b.routerID, b.timezone, plan)
	if err != nil {
		return nil, err
	}

	kept := FilterAndCap(stored, q.Window, q.ArriveBy, q.Display)
	if len(kept) == 0 {
		return nil, apperrors.NoItinerariesInRange()
	}
	return kept, nil
}

// FilterAndCap sorts itineraries by the relevant time (start for
// departing, end for arriving), drops any outside the window, and stops
// accumulating at the display cap.
func FilterAndCap(items []planner.StoredItinerary, w Window, arriveBy bool, limit int) []planner.StoredItinerary {
	sorted := make([]planner.StoredItinerary, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return relevantTime(sorted[i], arriveBy) < relevantTime(sorted[j], arriveBy)
	})

	out := make([]planner.StoredItinerary, 0, limit)
	for _, it := range sorted {
		if len(out) >= limit {
			break
		}
		t := time.UnixMilli(relevantTime(it, arriveBy))
		if !w.Contains(t) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func relevantTime(it planner.StoredItinerary, arriveBy bool) int64 {
	if arriveBy {
		return it.Itinerary.EndTime
	}
	return it.Itinerary.StartTime
}
