package conversation

import (
	"context"

	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// NewMenu presents the card carousel of everything the bot can do. Each
// card's button carries the handler type it starts.
func NewMenu(deps Deps) Handler {
	return &menuHandler{deps: deps}
}

type menuHandler struct {
	deps Deps
}

func (h *menuHandler) Type() model.HandlerType { return model.HandlerMenu }

func (h *menuHandler) Work(ctx context.Context, job *Job) error {
	job.Done = true
	tmpl := &messenger.GenericTemplate{Elements: []messenger.Element{
		{
			Title:    "Next train",
			Subtitle: "Find upcoming departures between two stations",
			Buttons: []messenger.Button{
				messenger.PostbackButton("Departing", PostbackPayload{HandlerType: model.HandlerDeparting}),
			},
		},
		{
			Title:    "Arrive by",
			Subtitle: "Work backwards from when you need to be there",
			Buttons: []messenger.Button{
				messenger.PostbackButton("Arriving", PostbackPayload{HandlerType: model.HandlerArriving}),
			},
		},
		{
			Title:    "Help",
			Subtitle: "See what you can ask me",
			Buttons: []messenger.Button{
				messenger.PostbackButton("Help", PostbackPayload{HandlerType: model.HandlerHelp}),
			},
		},
		{
			Title:    "Feedback",
			Subtitle: "Tell the team what you think",
			Buttons: []messenger.Button{
				messenger.PostbackButton("Feedback", PostbackPayload{HandlerType: model.HandlerFeedback}),
			},
		},
	}}
	return h.deps.Sender.Send(ctx, job.Event.SenderID, tmpl, job.Token)
}
