package trip

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/planner"
)

type fakePlanner struct {
	plan   *planner.Plan
	err    error
	called int
	last   planner.PlanParams
}

func (f *fakePlanner) FindPlans(_ context.Context, params planner.PlanParams) (*planner.Plan, error) {
	f.called++
	f.last = params
	return f.plan, f.err
}

type fakeStore struct{}

func (fakeStore) CompressAndStore(_ context.Context, routerID, timezone string, plan *planner.Plan) ([]planner.StoredItinerary, error) {
	out := make([]planner.StoredItinerary, 0, len(plan.Itineraries))
	for i, it := range plan.Itineraries {
		out = append(out, planner.StoredItinerary{
			ItineraryID: string(rune('a' + i)),
			Itinerary:   planner.Compress(plan, it, timezone),
		})
	}
	return out, nil
}

func testQuery() Query {
	return Query{
		Origin:      model.Stop{ID: "1:A", Name: "Alpha"},
		Destination: model.Stop{ID: "1:B", Name: "Beta"},
		Window:      Window{Start: testNow},
		Display:     3,
	}
}

func planWithStarts(starts ...time.Time) *planner.Plan {
	p := &planner.Plan{Date: testNow.UnixMilli()}
	for _, s := range starts {
		p.Itineraries = append(p.Itineraries, planner.Itinerary{
			StartTime: s.UnixMilli(),
			EndTime:   s.Add(40 * time.Minute).UnixMilli(),
			Duration:  2400,
		})
	}
	return p
}

func TestBuilderRun(t *testing.T) {
	t.Run("same station never reaches the planner", func(t *testing.T) {
		fp := &fakePlanner{}
		b := NewBuilder(fp, fakeStore{}, "default", "UTC", time.UTC, zerolog.Nop())

		q := testQuery()
		q.Destination = q.Origin

		_, err := b.Run(context.Background(), q)

		assert.Equal(t, apperrors.ErrCodeSameStation, apperrors.GetCode(err))
		assert.Zero(t, fp.called)
	})

	t.Run("empty plan is no itineraries", func(t *testing.T) {
		fp := &fakePlanner{plan: &planner.Plan{}}
		b := NewBuilder(fp, fakeStore{}, "default", "UTC", time.UTC, zerolog.Nop())

		_, err := b.Run(context.Background(), testQuery())

		assert.Equal(t, apperrors.ErrCodeNoItineraries, apperrors.GetCode(err))
	})

	t.Run("everything filtered out is distinct from planner returning nothing", func(t *testing.T) {
		// all itineraries start before the window opens
		fp := &fakePlanner{plan: planWithStarts(testNow.Add(-2*time.Hour), testNow.Add(-time.Hour))}
		b := NewBuilder(fp, fakeStore{}, "default", "UTC", time.UTC, zerolog.Nop())

		_, err := b.Run(context.Background(), testQuery())

		assert.Equal(t, apperrors.ErrCodeNoItinerariesInRange, apperrors.GetCode(err))
	})

	t.Run("requests a buffer above the display cap", func(t *testing.T) {
		fp := &fakePlanner{plan: planWithStarts(testNow.Add(time.Minute))}
		b := NewBuilder(fp, fakeStore{}, "default", "UTC", time.UTC, zerolog.Nop())

		_, err := b.Run(context.Background(), testQuery())

		require.NoError(t, err)
		assert.Equal(t, 5, fp.last.NumItineraries)
		assert.Equal(t, "TRANSIT", fp.last.Mode)
		assert.InDelta(t, 804.672, fp.last.MaxWalkDistance, 0.001)
	})
}

func TestBuilderParamsArriveBy(t *testing.T) {
	b := NewBuilder(&fakePlanner{}, fakeStore{}, "default", "UTC", time.UTC, zerolog.Nop())

	q := testQuery()
	q.ArriveBy = true
	q.Window = Window{Start: testNow, End: time.Date(2026, 8, 29, 17, 30, 0, 0, time.UTC)}

	params := b.Params(q)

	assert.True(t, params.ArriveBy)
	assert.Equal(t, "08-29-2026", params.Date)
	assert.Equal(t, "17:30:00", params.Time)
}

func TestFilterAndCap(t *testing.T) {
	window := Window{Start: testNow, End: testNow.Add(2 * time.Hour)}

	var items []planner.StoredItinerary
	// 10 itineraries, descending start order, half outside the window
	for i := 9; i >= 0; i-- {
		start := testNow.Add(time.Duration(i-4) * 30 * time.Minute)
		items = append(items, planner.StoredItinerary{
			ItineraryID: string(rune('a' + i)),
			Itinerary: planner.CompressedItinerary{
				StartTime: start.UnixMilli(),
				EndTime:   start.Add(30 * time.Minute).UnixMilli(),
			},
		})
	}

	out := FilterAndCap(items, window, false, 3)

	require.Len(t, out, 3)
	for i, item := range out {
		start := time.UnixMilli(item.Itinerary.StartTime)
		assert.True(t, window.Contains(start), "itinerary %d outside window", i)
		if i > 0 {
			assert.LessOrEqual(t, out[i-1].Itinerary.StartTime, item.Itinerary.StartTime)
		}
	}
}

func TestFilterAndCapArriving(t *testing.T) {
	window := Window{Start: testNow, End: testNow.Add(time.Hour)}

	items := []planner.StoredItinerary{
		{ItineraryID: "late", Itinerary: planner.CompressedItinerary{EndTime: testNow.Add(90 * time.Minute).UnixMilli()}},
		{ItineraryID: "b", Itinerary: planner.CompressedItinerary{EndTime: testNow.Add(50 * time.Minute).UnixMilli()}},
		{ItineraryID: "a", Itinerary: planner.CompressedItinerary{EndTime: testNow.Add(20 * time.Minute).UnixMilli()}},
	}

	out := FilterAndCap(items, window, true, 3)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ItineraryID)
	assert.Equal(t, "b", out[1].ItineraryID)
}
