package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/nlu"
	"github.com/trainchat/transit-bot-go/internal/planner"
)

var (
	stopTrenton = model.Stop{ID: "1:TR", Name: "Trenton", Lat: 40.218, Lon: -74.754}
	stopNewark  = model.Stop{ID: "1:NP", Name: "Newark Penn Station", Lat: 40.734, Lon: -74.164}
	stopBroad   = model.Stop{ID: "1:NB", Name: "Newark Broad Street", Lat: 40.747, Lon: -74.171}
)

func storedItineraries(starts ...time.Time) []planner.StoredItinerary {
	var out []planner.StoredItinerary
	for i, s := range starts {
		out = append(out, planner.StoredItinerary{
			ItineraryID: string(rune('a' + i)),
			Itinerary: planner.CompressedItinerary{
				StartTime: s.UnixMilli(),
				EndTime:   s.Add(45 * time.Minute).UnixMilli(),
				Duration:  2700,
			},
		})
	}
	return out
}

func TestTripEvalPrecedence(t *testing.T) {
	t.Run("destination typed early is resolved before the origin prompt", func(t *testing.T) {
		sender := &fakeSender{}
		res := &fakeResolver{byName: map[string]resolveResult{
			"Trenton": {stops: []model.Stop{stopTrenton}},
		}}
		h := NewDeparting(testDeps(sender, res, nil))

		job := testJob(testApp(), nil, Event{Kind: model.EventText, Text: "train to Trenton"})
		job.NLU = &nlu.Response{Entities: nlu.Entities{
			Destination: []nlu.Candidate{{Value: "Trenton", Confidence: 0.9}},
		}}

		require.NoError(t, h.Work(context.Background(), job))

		// the early destination answer was resolved, not discarded
		assert.Equal(t, []string{"Trenton"}, res.queries)
		rqs := job.Request()
		require.NotNil(t, rqs)
		require.NotNil(t, rqs.Data.DestinationStop)
		assert.Equal(t, "1:TR", rqs.Data.DestinationStop.ID)

		// and only then did the conversation ask for the origin
		assert.Equal(t, model.StateWaitOrigin, rqs.State)
		assert.Equal(t, "Departing from which station?", sender.lastText())
	})

	t.Run("arriving conversations fill the destination first", func(t *testing.T) {
		sender := &fakeSender{}
		h := NewArriving(testDeps(sender, nil, nil))

		job := testJob(testApp(), nil, Event{Kind: model.EventText, Text: "when should I leave"})

		require.NoError(t, h.Work(context.Background(), job))

		rqs := job.Request()
		require.NotNil(t, rqs)
		assert.Equal(t, model.StateWaitDestination, rqs.State)
		assert.Equal(t, "Arriving at which station?", sender.lastText())
	})
}

func TestTripStationSelection(t *testing.T) {
	t.Run("several candidates become a selection template", func(t *testing.T) {
		sender := &fakeSender{}
		res := &fakeResolver{byName: map[string]resolveResult{
			"newark": {stops: []model.Stop{stopNewark, stopBroad}},
		}}
		h := NewDeparting(testDeps(sender, res, nil))

		user := model.NewUser("app-1", "u1", testNow)
		user.Data.CurrentRequest = &model.CurrentRequest{
			Type:  model.HandlerDeparting,
			State: model.StateWaitOrigin,
		}
		job := testJob(testApp(), user, Event{Kind: model.EventText, Text: "newark"})

		require.NoError(t, h.Work(context.Background(), job))

		tmpl, ok := sender.last().(*messenger.ButtonTemplate)
		require.True(t, ok, "expected a button template, got %T", sender.last())
		require.Len(t, tmpl.Buttons, 2)
		assert.Equal(t, "Newark Penn Station", tmpl.Buttons[0].Title)
		assert.Equal(t, model.StateWaitOrigin, job.Request().State)
	})

	t.Run("stop postback assigns directly and clears fails", func(t *testing.T) {
		sender := &fakeSender{}
		res := &fakeResolver{}
		h := NewDeparting(testDeps(sender, res, nil))

		user := model.NewUser("app-1", "u1", testNow)
		user.Data.CurrentRequest = &model.CurrentRequest{
			Type:  model.HandlerDeparting,
			State: model.StateWaitOrigin,
			Fails: 1,
		}
		job := testJob(testApp(), user, Event{
			Kind:     model.EventPostback,
			Postback: &PostbackPayload{Type: payloadTypeStop, Stop: &stopNewark},
		})

		require.NoError(t, h.Work(context.Background(), job))

		rqs := job.Request()
		require.NotNil(t, rqs.Data.OriginStop)
		assert.Equal(t, "1:NP", rqs.Data.OriginStop.ID)
		assert.Zero(t, rqs.Fails)
		assert.Equal(t, model.StateWaitDestination, rqs.State)
	})
}

func TestTripLocationSelection(t *testing.T) {
	t.Run("several nearby stations become a selection template", func(t *testing.T) {
		sender := &fakeSender{}
		res := &fakeResolver{near: []model.Stop{stopNewark, stopBroad}}
		h := NewDeparting(testDeps(sender, res, nil))

		user := model.NewUser("app-1", "u1", testNow)
		user.Data.CurrentRequest = &model.CurrentRequest{
			Type:  model.HandlerDeparting,
			State: model.StateWaitOrigin,
		}
		job := testJob(testApp(), user, Event{
			Kind:        model.EventLocation,
			Coordinates: &Coordinates{Lat: 40.74, Long: -74.17},
		})

		require.NoError(t, h.Work(context.Background(), job))

		// nothing is assigned until the user picks one
		rqs := job.Request()
		assert.Nil(t, rqs.Data.OriginStop)
		assert.Equal(t, model.StateWaitOrigin, rqs.State)

		tmpl, ok := sender.last().(*messenger.ButtonTemplate)
		require.True(t, ok, "expected a button template, got %T", sender.last())
		require.Len(t, tmpl.Buttons, 2)
		assert.Equal(t, "Newark Penn Station", tmpl.Buttons[0].Title)
	})

	t.Run("a single nearby station is assigned directly", func(t *testing.T) {
		sender := &fakeSender{}
		res := &fakeResolver{near: []model.Stop{stopTrenton}}
		h := NewDeparting(testDeps(sender, res, nil))

		user := model.NewUser("app-1", "u1", testNow)
		user.Data.CurrentRequest = &model.CurrentRequest{
			Type:  model.HandlerDeparting,
			State: model.StateWaitOrigin,
			Fails: 1,
		}
		job := testJob(testApp(), user, Event{
			Kind:        model.EventLocation,
			Coordinates: &Coordinates{Lat: 40.22, Long: -74.75},
		})

		require.NoError(t, h.Work(context.Background(), job))

		rqs := job.Request()
		require.NotNil(t, rqs.Data.OriginStop)
		assert.Equal(t, "1:TR", rqs.Data.OriginStop.ID)
		assert.Zero(t, rqs.Fails)
		assert.Equal(t, model.StateWaitDestination, rqs.State)
	})
}

func TestTripFailEscalation(t *testing.T) {
	sender := &fakeSender{}
	res := &fakeResolver{byName: map[string]resolveResult{
		"zzz": {err: apperrors.NoStationFound("zzz")},
	}}
	h := NewDeparting(testDeps(sender, res, nil))

	user := model.NewUser("app-1", "u1", testNow)
	user.Data.CurrentRequest = &model.CurrentRequest{
		Type:  model.HandlerDeparting,
		State: model.StateWaitOrigin,
	}
	app := testApp()

	// first miss: retry prompt, counter at one
	job := testJob(app, user, Event{Kind: model.EventText, Text: "zzz"})
	require.NoError(t, h.Work(context.Background(), job))
	assert.Equal(t, 1, user.Data.CurrentRequest.Fails)
	assert.Contains(t, sender.lastText(), "try again")

	// second miss: station list escalation, counter reset
	job = testJob(app, user, Event{Kind: model.EventText, Text: "zzz"})
	require.NoError(t, h.Work(context.Background(), job))
	assert.Zero(t, user.Data.CurrentRequest.Fails)

	tmpl, ok := sender.last().(*messenger.ButtonTemplate)
	require.True(t, ok, "expected the station list template, got %T", sender.last())
	require.Len(t, tmpl.Buttons, 1)
	assert.Equal(t, app.Config.StationListURL, tmpl.Buttons[0].URL)
}

func TestTripTooManyMatchesDoesNotCountAsFailure(t *testing.T) {
	sender := &fakeSender{}
	res := &fakeResolver{byName: map[string]resolveResult{
		"station": {err: apperrors.TooManyMatches("station", 12)},
	}}
	h := NewDeparting(testDeps(sender, res, nil))

	user := model.NewUser("app-1", "u1", testNow)
	user.Data.CurrentRequest = &model.CurrentRequest{
		Type:  model.HandlerDeparting,
		State: model.StateWaitOrigin,
	}
	job := testJob(testApp(), user, Event{Kind: model.EventText, Text: "station"})

	require.NoError(t, h.Work(context.Background(), job))

	assert.Zero(t, user.Data.CurrentRequest.Fails)
	assert.Contains(t, sender.lastText(), "more specific")
}

func TestTripSameStationCloses(t *testing.T) {
	sender := &fakeSender{}
	trips := &fakeTrips{err: apperrors.SameStation("1:TR")}
	h := NewDeparting(testDeps(sender, nil, trips))

	user := model.NewUser("app-1", "u1", testNow)
	user.Data.CurrentRequest = &model.CurrentRequest{
		Type:  model.HandlerDeparting,
		State: model.StateReady,
		Data: model.RequestData{
			Origin: "Trenton", OriginStop: &stopTrenton,
			Destination: "Trenton", DestinationStop: &stopTrenton,
		},
	}
	job := testJob(testApp(), user, Event{Kind: model.EventText, Text: "go"})

	require.NoError(t, h.Work(context.Background(), job))

	assert.True(t, job.Done)
	assert.Contains(t, sender.lastText(), "same station")
}

func TestTripEndToEnd(t *testing.T) {
	app := testApp()
	sender := &fakeSender{}
	res := &fakeResolver{
		byName: map[string]resolveResult{
			"Newark": {stops: []model.Stop{stopNewark}},
		},
		near: []model.Stop{stopTrenton},
	}
	trips := &fakeTrips{items: storedItineraries(testNow.Add(10*time.Minute), testNow.Add(40*time.Minute))}
	h := NewDeparting(testDeps(sender, res, trips))
	user := model.NewUser(app.ID, "u1", testNow)

	// turn one: "train to Newark" seeds the destination, prompts for origin
	job := testJob(app, user, Event{Kind: model.EventText, Text: "train to Newark"})
	job.NLU = &nlu.Response{Entities: nlu.Entities{
		Intent:      []nlu.Candidate{{Value: "schedule_departing", Confidence: 0.95}},
		Destination: []nlu.Candidate{{Value: "Newark", Confidence: 0.9}},
	}}
	require.NoError(t, h.Work(context.Background(), job))

	rqs := user.Data.CurrentRequest
	require.NotNil(t, rqs)
	assert.Equal(t, model.StateWaitOrigin, rqs.State)
	assert.False(t, job.Done)
	assert.Empty(t, trips.queries)

	// turn two: a location pin answers the origin prompt and the trip runs
	job = testJob(app, user, Event{
		Kind:        model.EventLocation,
		Coordinates: &Coordinates{Lat: 40.22, Long: -74.75},
	})
	require.NoError(t, h.Work(context.Background(), job))

	require.Len(t, trips.queries, 1)
	q := trips.queries[0]
	assert.Equal(t, "1:TR", q.Origin.ID)
	assert.Equal(t, "1:NP", q.Destination.ID)
	assert.False(t, q.ArriveBy)
	assert.Equal(t, 3, q.Display)

	assert.True(t, job.Done)
	require.Len(t, user.Data.TripHistory, 1)
	assert.Equal(t, "1:TR", user.Data.TripHistory[0].Data.OriginStop.ID)
	assert.Equal(t, model.StateDone, user.Data.TripHistory[0].State)

	// the closing prompt offers the shortcut quick replies
	closing, ok := sender.last().(*messenger.Text)
	require.True(t, ok)
	require.Len(t, closing.QuickReplies, 3)
	assert.Equal(t, "Departing", closing.QuickReplies[0].Title)
}

func TestTripWideCards(t *testing.T) {
	app := testApp()
	app.Config.StageVars.SendTripsWide = true
	sender := &fakeSender{}
	trips := &fakeTrips{items: storedItineraries(testNow.Add(10 * time.Minute))}
	h := NewDeparting(testDeps(sender, nil, trips))

	user := model.NewUser(app.ID, "u1", testNow)
	user.Data.CurrentRequest = &model.CurrentRequest{
		Type:  model.HandlerDeparting,
		State: model.StateReady,
		Data: model.RequestData{
			Origin: "Trenton", OriginStop: &stopTrenton,
			Destination: "Newark", DestinationStop: &stopNewark,
		},
	}
	job := testJob(app, user, Event{Kind: model.EventText, Text: "go"})

	require.NoError(t, h.Work(context.Background(), job))

	// header text, carousel, closing prompt
	require.GreaterOrEqual(t, len(sender.sent), 2)
	tmpl, ok := sender.sent[1].content.(*messenger.GenericTemplate)
	require.True(t, ok, "expected a card carousel, got %T", sender.sent[1].content)
	require.Len(t, tmpl.Elements, 1)

	// every card links out and can be shared
	buttons := tmpl.Elements[0].Buttons
	require.Len(t, buttons, 2)
	assert.Equal(t, "web_url", buttons[0].Type)
	assert.Contains(t, buttons[0].URL, "/trip/")
	assert.Equal(t, "element_share", buttons[1].Type)
}

func TestTripHistorySuggestionsCoverBothSlots(t *testing.T) {
	sender := &fakeSender{}
	h := NewDeparting(testDeps(sender, nil, nil))

	user := model.NewUser("app-1", "u1", testNow)
	// one past trip: Trenton -> Newark Penn. Both ends should come back
	// as origin suggestions, past origins first.
	user.Data.TripHistory = []model.CurrentRequest{{
		Type:  model.HandlerDeparting,
		State: model.StateDone,
		Data: model.RequestData{
			Origin: "Trenton", OriginStop: &stopTrenton,
			Destination: "Newark", DestinationStop: &stopNewark,
		},
	}}
	job := testJob(testApp(), user, Event{Kind: model.EventText, Text: "next train"})

	require.NoError(t, h.Work(context.Background(), job))

	msg, ok := sender.last().(*messenger.Text)
	require.True(t, ok)
	require.Len(t, msg.QuickReplies, 3) // location + both history stops
	assert.Equal(t, "location", msg.QuickReplies[0].ContentType)
	assert.Equal(t, "Trenton", msg.QuickReplies[1].Title)
	assert.Equal(t, "Newark Penn Station", msg.QuickReplies[2].Title)
}

func TestTripNoItinerariesClosesWithRetryPrompt(t *testing.T) {
	sender := &fakeSender{}
	trips := &fakeTrips{err: apperrors.NoItinerariesInRange()}
	h := NewDeparting(testDeps(sender, nil, trips))

	user := model.NewUser("app-1", "u1", testNow)
	user.Data.CurrentRequest = &model.CurrentRequest{
		Type:  model.HandlerDeparting,
		State: model.StateReady,
		Data: model.RequestData{
			Origin: "Trenton", OriginStop: &stopTrenton,
			Destination: "Newark", DestinationStop: &stopNewark,
		},
	}
	job := testJob(testApp(), user, Event{Kind: model.EventText, Text: "go"})

	require.NoError(t, h.Work(context.Background(), job))

	assert.True(t, job.Done)
	assert.Contains(t, sender.lastText(), "couldn't find any trips")
}

func TestTripWantsHelpKeepsProgress(t *testing.T) {
	sender := &fakeSender{}
	h := NewDeparting(testDeps(sender, nil, nil))

	user := model.NewUser("app-1", "u1", testNow)
	user.Data.CurrentRequest = &model.CurrentRequest{
		Type:  model.HandlerDeparting,
		State: model.StateWaitOrigin,
		Data:  model.RequestData{Destination: "Newark", DestinationStop: &stopNewark},
	}
	job := testJob(testApp(), user, Event{Kind: model.EventText, Text: "help"})
	job.WantsHelp = true

	require.NoError(t, h.Work(context.Background(), job))

	// guidance went out and the conversation stayed exactly where it was
	assert.Contains(t, sender.lastText(), "station name")
	rqs := user.Data.CurrentRequest
	require.NotNil(t, rqs)
	assert.Equal(t, model.StateWaitOrigin, rqs.State)
	assert.Equal(t, "Newark", rqs.Data.Destination)
	assert.False(t, job.Done)
}
