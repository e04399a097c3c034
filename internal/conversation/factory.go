package conversation

import (
	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/config"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// Factory decides which handler processes a turn. The precedence encodes
// the product rule: explicit UI action beats a high-confidence new
// command, help never loses trip progress, low-confidence text is
// probably an answer rather than a command, and the default is to keep
// the current conversation going.
type Factory struct {
	handlers map[model.HandlerType]Handler
	fallback Handler
	log      zerolog.Logger
}

func NewFactory(deps Deps) *Factory {
	f := &Factory{
		handlers: make(map[model.HandlerType]Handler),
		fallback: NewUnknown(deps),
		log:      deps.Log,
	}
	for _, h := range []Handler{
		NewDeparting(deps),
		NewArriving(deps),
		NewFeedback(deps),
		NewHelp(deps),
		NewWelcome(deps),
		NewMenu(deps),
		NewHello(deps),
		NewThanks(deps),
	} {
		f.handlers[h.Type()] = h
	}
	return f
}

// Handler picks the handler for this turn, mutating the job's WantsHelp
// flag and conversation state where the routing rules call for it.
func (f *Factory) Handler(job *Job) Handler {
	var current model.HandlerType
	if rqs := job.Request(); rqs != nil {
		current = rqs.Type
	}

	// Explicit menu or button selection always wins.
	if p := job.Event.Postback; p != nil && p.HandlerType != "" {
		return f.get(p.HandlerType)
	}

	if job.Event.Kind == model.EventText && job.NLU != nil {
		intent, confidence, ok := job.NLU.Intent()
		threshold := job.App.Config.IntentThreshold(config.DefaultIntentThreshold)
		switch {
		case !ok || confidence < threshold:
			// ambiguous text is probably an answer, not a command
		case model.HandlerType(intent) == model.HandlerHelp && isTrip(current):
			job.WantsHelp = true
			return f.get(current)
		default:
			if h, known := f.handlers[model.HandlerType(intent)]; known {
				job.SetRequest(nil) // a confident new command abandons progress
				return h
			}
			f.log.Debug().Str("intent", intent).Msg("confident but unroutable intent")
		}

		// no usable intent and nothing in progress: a bare origin or
		// destination entity still tells us which trip type to start
		if current == "" {
			if _, found := job.NLU.Destination(); found {
				return f.get(model.HandlerDeparting)
			}
			if _, found := job.NLU.Origin(); found {
				return f.get(model.HandlerArriving)
			}
		}
	}

	if current != "" {
		return f.get(current)
	}
	return f.fallback
}

func (f *Factory) get(t model.HandlerType) Handler {
	if h, ok := f.handlers[t]; ok {
		return h
	}
	return f.fallback
}

func isTrip(t model.HandlerType) bool {
	return t == model.HandlerDeparting || t == model.HandlerArriving
}
