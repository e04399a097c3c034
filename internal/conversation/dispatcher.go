package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/trainchat/transit-bot-go/internal/config"
	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/nlu"
	"github.com/trainchat/transit-bot-go/internal/repository"
)

// ProfileFetcher loads display info from the messaging platform.
// Satisfied by *messenger.Client.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID, token string) (*model.Profile, error)
}

// Dispatcher orchestrates one webhook delivery: normalize, dedupe, run
// one pipeline per sender, persist mutated users once at the end.
type Dispatcher struct {
	users    repository.UserRepository
	profiles ProfileFetcher
	build    ServiceBuilder
	maxAge   time.Duration
	log      zerolog.Logger

	now func() time.Time
}

func NewDispatcher(users repository.UserRepository, profiles ProfileFetcher, build ServiceBuilder, maxAge time.Duration, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		users:    users,
		profiles: profiles,
		build:    build,
		maxAge:   maxAge,
		log:      log,
		now:      time.Now,
	}
}

// Dispatch processes one raw webhook body for one application. Only a
// malformed body fails the batch; anything that goes wrong inside a
// single conversation becomes a chat message instead.
func (d *Dispatcher) Dispatch(ctx context.Context, app *model.App, body []byte) error {
	events, err := ParseEvents(body)
	if err != nil {
		return err
	}

	now := d.now()
	fresh := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.SenderID == "" {
			continue
		}
		if ev.Timestamp > 0 && now.UnixMilli()-ev.Timestamp > d.maxAge.Milliseconds() {
			d.log.Debug().Str("sender", ev.SenderID).Int64("ts", ev.Timestamp).Msg("dropping stale event")
			continue
		}
		fresh = append(fresh, ev)
	}
	// one logical turn per sender: conflicting duplicates collapse to
	// the newest message
	events = CollapseLatest(fresh)
	if len(events) == 0 {
		return nil
	}

	svc := d.build(app)
	factory := NewFactory(svc.Deps)

	var (
		mu    sync.Mutex
		dirty []*model.User
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, ev := range events {
		ev := ev
		g.Go(func() error {
			user, err := d.runTurn(gctx, app, svc, factory, ev, now)
			if err != nil {
				return err
			}
			mu.Lock()
			dirty = append(dirty, user)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return d.users.PutAll(ctx, dirty)
}

// runTurn is one sender's pipeline: classify, load, route, work. The
// returned user carries every mutation the turn made.
func (d *Dispatcher) runTurn(ctx context.Context, app *model.App, svc Services, factory *Factory, ev Event, now time.Time) (*model.User, error) {
	var resp *nlu.Response
	if ev.Kind == model.EventText && ev.Text != "" {
		r, err := svc.Classifier.Classify(ctx, ev.Text)
		if err != nil {
			// an unclassified message still flows: the factory treats it
			// as a continuation of whatever is in progress
			d.log.Warn().Err(err).Str("sender", ev.SenderID).Msg("classification failed")
		} else {
			resp = r
		}
	}

	user, err := d.users.Find(ctx, app.ID, ev.SenderID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = model.NewUser(app.ID, ev.SenderID, now)
	}
	user.Touch(now)

	token := app.Config.PageToken(ev.RecipientID)
	if user.Profile.Stale(now, config.ProfileStaleAfter) {
		if p, err := d.profiles.FetchProfile(ctx, ev.SenderID, token); err == nil {
			user.Profile = *p
		} else {
			d.log.Warn().Err(err).Str("sender", ev.SenderID).Msg("profile fetch failed")
		}
	}

	job := &Job{
		TurnID: uuid.NewString(),
		App:    app,
		User:   user,
		Token:  token,
		Event:  ev,
		NLU:    resp,
		Now:    now,
	}

	h := factory.Handler(job)
	if err := h.Work(ctx, job); err != nil {
		d.log.Error().Err(err).
			Str("turn", job.TurnID).
			Str("handler", string(h.Type())).
			Msg("handler failed")
		// a confused bot keeps talking rather than failing the turn
		apology := &messenger.Text{Text: "Sorry, something went wrong on my end. Could you try that again?"}
		if sendErr := svc.Deps.Sender.Send(ctx, ev.SenderID, apology, token); sendErr != nil {
			d.log.Error().Err(sendErr).Str("turn", job.TurnID).Msg("apology send failed")
		}
	}

	if job.Done {
		user.Data.CurrentRequest = nil
	}
	return user, nil
}
