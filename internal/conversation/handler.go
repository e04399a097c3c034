package conversation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/planner"
	"github.com/trainchat/transit-bot-go/internal/trip"
)

// Handler processes one turn of one conversation type.
type Handler interface {
	Type() model.HandlerType
	Work(ctx context.Context, job *Job) error
}

// Sender delivers outbound messages. Satisfied by *messenger.Client.
type Sender interface {
	Send(ctx context.Context, userID string, content messenger.Content, token string) error
}

// StationResolver maps free text or coordinates to candidate stops.
// Satisfied by *resolver.Resolver.
type StationResolver interface {
	ByName(ctx context.Context, text string, history []model.CurrentRequest) ([]model.Stop, error)
	ByCoordinates(ctx context.Context, lat, lon float64) ([]model.Stop, error)
}

// TripRunner executes a resolved trip query end to end. Satisfied by
// *trip.Builder.
type TripRunner interface {
	Run(ctx context.Context, q trip.Query) ([]planner.StoredItinerary, error)
}

// FeedbackMailer relays captured feedback text to the product team.
type FeedbackMailer interface {
	Relay(ctx context.Context, app *model.App, user *model.User, text string) error
}

// Deps is the per-application collaborator set shared by all handlers.
type Deps struct {
	Sender   Sender
	Resolver StationResolver
	Trips    TripRunner
	Feedback FeedbackMailer
	Log      zerolog.Logger
}

// ensureRequest returns the active conversation, resetting it when it
// belongs to a different handler type. Starting a new conversation type
// discards unrelated leftover state.
func ensureRequest(job *Job, t model.HandlerType) *model.CurrentRequest {
	rqs := job.Request()
	if rqs == nil || rqs.Type != t {
		rqs = &model.CurrentRequest{Type: t, State: model.StateNew}
		job.SetRequest(rqs)
	}
	return rqs
}
