package conversation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/planner"
	"github.com/trainchat/transit-bot-go/internal/trip"
)

var testNow = time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

type sentMessage struct {
	userID  string
	content messenger.Content
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, userID string, content messenger.Content, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{userID: userID, content: content})
	return nil
}

func (f *fakeSender) last() messenger.Content {
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1].content
}

func (f *fakeSender) lastText() string {
	if txt, ok := f.last().(*messenger.Text); ok {
		return txt.Text
	}
	return ""
}

type resolveResult struct {
	stops []model.Stop
	err   error
}

type fakeResolver struct {
	byName  map[string]resolveResult
	near    []model.Stop
	nearErr error
	queries []string
}

func (f *fakeResolver) ByName(_ context.Context, text string, _ []model.CurrentRequest) ([]model.Stop, error) {
	f.queries = append(f.queries, text)
	res := f.byName[text]
	return res.stops, res.err
}

func (f *fakeResolver) ByCoordinates(context.Context, float64, float64) ([]model.Stop, error) {
	return f.near, f.nearErr
}

type fakeTrips struct {
	items   []planner.StoredItinerary
	err     error
	queries []trip.Query
}

func (f *fakeTrips) Run(_ context.Context, q trip.Query) ([]planner.StoredItinerary, error) {
	f.queries = append(f.queries, q)
	return f.items, f.err
}

type fakeMailer struct {
	relayed []string
	err     error
}

func (f *fakeMailer) Relay(_ context.Context, _ *model.App, _ *model.User, text string) error {
	if f.err != nil {
		return f.err
	}
	f.relayed = append(f.relayed, text)
	return nil
}

func testDeps(sender *fakeSender, res *fakeResolver, trips *fakeTrips) Deps {
	if sender == nil {
		sender = &fakeSender{}
	}
	if res == nil {
		res = &fakeResolver{}
	}
	if trips == nil {
		trips = &fakeTrips{}
	}
	return Deps{
		Sender:   sender,
		Resolver: res,
		Trips:    trips,
		Feedback: &fakeMailer{},
		Log:      zerolog.Nop(),
	}
}

func testApp() *model.App {
	return &model.App{
		ID:     "app-1",
		Active: true,
		Config: model.AppConfig{
			Pages:          []model.Page{{ID: "page-1", Token: "page-token"}},
			VerifyToken:    "verify-me",
			Timezone:       "UTC",
			AppRootURL:     "https://bot.example.com",
			StationListURL: "https://bot.example.com/stations",
			Welcome:        []string{"I can find your next train.", "Ask away!"},
			Help:           model.HelpConfig{City1: "Newark", City2: "Trenton", City3: "New York"},
		},
	}
}

func testJob(app *model.App, user *model.User, ev Event) *Job {
	if user == nil {
		user = model.NewUser(app.ID, "u1", testNow)
	}
	if ev.SenderID == "" {
		ev.SenderID = user.UserID
	}
	if ev.RecipientID == "" {
		ev.RecipientID = "page-1"
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = testNow.UnixMilli()
	}
	return &Job{
		TurnID: "turn-1",
		App:    app,
		User:   user,
		Token:  "page-token",
		Event:  ev,
		Now:    testNow,
	}
}
