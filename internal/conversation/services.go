package conversation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/nlu"
	"github.com/trainchat/transit-bot-go/internal/planner"
	"github.com/trainchat/transit-bot-go/internal/redis"
	"github.com/trainchat/transit-bot-go/internal/resolver"
	"github.com/trainchat/transit-bot-go/internal/trip"
)

// Classifier extracts intent and entities from free text. Satisfied by
// *nlu.Client.
type Classifier interface {
	Classify(ctx context.Context, text string) (*nlu.Response, error)
}

// Services is the per-application collaborator set assembled for one
// webhook delivery. Every app points at its own planner and NLU
// deployment, so these are built per dispatch rather than at startup.
type Services struct {
	Deps       Deps
	Classifier Classifier
}

// ServiceBuilder assembles Services for an application.
type ServiceBuilder func(app *model.App) Services

// NewServiceBuilder wires the production collaborators: planner client
// and stop cache per app router, fuzzy resolver with the app's aliases,
// and the app's NLU credentials.
func NewServiceBuilder(msgr *messenger.Client, rdb *redis.Client, itineraries *planner.Store, mailer FeedbackMailer, stopTTL time.Duration, log zerolog.Logger) ServiceBuilder {
	return func(app *model.App) Services {
		otp := planner.NewClient(app.Config.OTP.Hostname, app.Config.OTP.RouterID)
		stops := resolver.NewStopCache(otp, rdb, stopTTL, log)
		res := resolver.New(stops, app.Config.Aliases, log)
		builder := trip.NewBuilder(otp, itineraries, otp.RouterID(), app.Config.Timezone, app.Config.Location(), log)
		return Services{
			Deps: Deps{
				Sender:   msgr,
				Resolver: res,
				Trips:    builder,
				Feedback: mailer,
				Log:      log,
			},
			Classifier: nlu.NewClient(app.Config.NLU.Token, app.Config.NLU.Hostname),
		}
	}
}
