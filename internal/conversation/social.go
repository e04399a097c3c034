package conversation

import (
	"context"
	"fmt"

	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// socialHandler covers the one-shot pleasantries: greetings and thanks.
type socialHandler struct {
	deps Deps
	t    model.HandlerType
	text func(job *Job) string
}

func NewHello(deps Deps) Handler {
	return &socialHandler{deps: deps, t: model.HandlerHello, text: func(job *Job) string {
		return fmt.Sprintf("Hi %s! Ask me about your next train, or say \"menu\" to see what I can do.", job.User.Profile.Name("there"))
	}}
}

func NewThanks(deps Deps) Handler {
	return &socialHandler{deps: deps, t: model.HandlerThanks, text: func(*Job) string {
		return "You're welcome! Safe travels."
	}}
}

func (h *socialHandler) Type() model.HandlerType { return h.t }

func (h *socialHandler) Work(ctx context.Context, job *Job) error {
	job.Done = true
	return h.deps.Sender.Send(ctx, job.Event.SenderID, &messenger.Text{Text: h.text(job)}, job.Token)
}
