package resolver

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/model"
)

type fakeSource struct {
	stops []model.Stop
	near  []model.Stop
	err   error
}

func (f *fakeSource) Stops(context.Context) ([]model.Stop, error) {
	return f.stops, f.err
}

func (f *fakeSource) StopsNear(context.Context, float64, float64, int) ([]model.Stop, error) {
	return f.near, f.err
}

func njStops() []model.Stop {
	return []model.Stop{
		{ID: "1:NP", Name: "Newark Penn Station", Lat: 40.734, Lon: -74.164},
		{ID: "1:NB", Name: "Newark Broad Street", Lat: 40.747, Lon: -74.171},
		{ID: "1:TR", Name: "Trenton", Lat: 40.218, Lon: -74.754},
		{ID: "1:HM", Name: "Hamilton", Lat: 40.256, Lon: -74.673},
		{ID: "1:NY", Name: "New York Penn Station", Lat: 40.750, Lon: -73.993},
	}
}

func newTestResolver(source StopSource, aliases map[string][]string) *Resolver {
	return New(source, aliases, zerolog.Nop())
}

func TestByName(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves an exact name", func(t *testing.T) {
		r := newTestResolver(&fakeSource{stops: njStops()}, nil)

		stops, err := r.ByName(ctx, "Trenton", nil)

		require.NoError(t, err)
		require.Len(t, stops, 1)
		assert.Equal(t, "1:TR", stops[0].ID)
	})

	t.Run("is idempotent without history", func(t *testing.T) {
		r := newTestResolver(&fakeSource{stops: njStops()}, nil)

		first, err := r.ByName(ctx, "newark", nil)
		require.NoError(t, err)
		second, err := r.ByName(ctx, "newark", nil)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("history moves a known stop to the front", func(t *testing.T) {
		r := newTestResolver(&fakeSource{stops: njStops()}, nil)

		noHistory, err := r.ByName(ctx, "newark", nil)
		require.NoError(t, err)
		require.Len(t, noHistory, 2)

		history := []model.CurrentRequest{{
			Type: model.HandlerDeparting,
			Data: model.RequestData{
				OriginStop:      &model.Stop{ID: "1:TR", Name: "Trenton"},
				DestinationStop: &model.Stop{ID: "1:NB", Name: "Newark Broad Street"},
			},
		}}

		stops, err := r.ByName(ctx, "newark", history)
		require.NoError(t, err)
		require.Len(t, stops, 2)
		assert.Equal(t, "Newark Broad Street", stops[0].Name)
	})

	t.Run("alias substitution runs before matching", func(t *testing.T) {
		aliases := map[string][]string{
			"New York Penn Station": {`\bnyc\b`, `the city`},
		}
		r := newTestResolver(&fakeSource{stops: njStops()}, aliases)

		stops, err := r.ByName(ctx, "NYC", nil)

		require.NoError(t, err)
		require.Len(t, stops, 1)
		assert.Equal(t, "1:NY", stops[0].ID)
	})

	t.Run("retries with the first bare word", func(t *testing.T) {
		r := newTestResolver(&fakeSource{stops: njStops()}, nil)

		stops, err := r.ByName(ctx, "Hamilton station!!", nil)

		require.NoError(t, err)
		require.Len(t, stops, 1)
		assert.Equal(t, "1:HM", stops[0].ID)
	})

	t.Run("no match after retry is NoStationFound", func(t *testing.T) {
		r := newTestResolver(&fakeSource{stops: njStops()}, nil)

		_, err := r.ByName(ctx, "xyzzy", nil)

		assert.Equal(t, apperrors.ErrCodeNoStationFound, apperrors.GetCode(err))
	})

	t.Run("too many candidates asks the user to narrow down", func(t *testing.T) {
		stops := []model.Stop{
			{ID: "1", Name: "North Station"},
			{ID: "2", Name: "South Station"},
			{ID: "3", Name: "East Station"},
			{ID: "4", Name: "West Station"},
			{ID: "5", Name: "Central Station"},
			{ID: "6", Name: "Harbor Station"},
		}
		r := newTestResolver(&fakeSource{stops: stops}, nil)

		_, err := r.ByName(ctx, "station", nil)

		assert.Equal(t, apperrors.ErrCodeTooManyMatches, apperrors.GetCode(err))
	})

	t.Run("empty catalog is an external failure", func(t *testing.T) {
		r := newTestResolver(&fakeSource{}, nil)

		_, err := r.ByName(ctx, "Trenton", nil)

		assert.Equal(t, apperrors.ErrCodeExternal, apperrors.GetCode(err))
	})
}

func TestByCoordinates(t *testing.T) {
	near := []model.Stop{{ID: "1:HM", Name: "Hamilton", Dist: 420}}
	r := newTestResolver(&fakeSource{near: near}, nil)

	stops, err := r.ByCoordinates(context.Background(), 40.25, -74.67)

	require.NoError(t, err)
	assert.Equal(t, near, stops)
}
