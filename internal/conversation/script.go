package conversation

import (
	"context"
	"fmt"

	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// scriptHandler presents multi-part scripted text one line per turn. The
// reading position travels in the Continue quick-reply payload, so the
// script resumes across turns without any server-side state.
type scriptHandler struct {
	deps  Deps
	t     model.HandlerType
	lines func(job *Job) []string
}

// NewWelcome greets new users with the app's welcome script.
func NewWelcome(deps Deps) Handler {
	return &scriptHandler{deps: deps, t: model.HandlerWelcome, lines: welcomeLines}
}

// NewHelp walks through what the bot can do, with example queries built
// from the app's configured cities.
func NewHelp(deps Deps) Handler {
	return &scriptHandler{deps: deps, t: model.HandlerHelp, lines: helpLines}
}

func (h *scriptHandler) Type() model.HandlerType { return h.t }

func (h *scriptHandler) Work(ctx context.Context, job *Job) error {
	job.Done = true
	lines := h.lines(job)
	if len(lines) == 0 {
		return nil
	}

	start := 0
	if p := job.Event.Postback; p != nil && p.HandlerType == h.t && p.Index > 0 {
		start = p.Index
	}
	if start >= len(lines) {
		start = len(lines) - 1
	}

	msg := &messenger.Text{Text: lines[start]}
	if end := len(lines) - 1; start < end {
		msg.QuickReplies = []messenger.QuickReply{
			messenger.TextQuickReply("Continue", PostbackPayload{HandlerType: h.t, Index: start + 1, EndIndex: end}),
		}
	}
	return h.deps.Sender.Send(ctx, job.Event.SenderID, msg, job.Token)
}

func welcomeLines(job *Job) []string {
	lines := job.App.Config.Welcome
	if len(lines) == 0 {
		lines = []string{
			"I can tell you when the next train leaves, or work backwards from when you need to arrive.",
			"Try asking \"when's the next train to the city?\" or just say \"menu\".",
		}
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, fmt.Sprintf("Hi %s!", job.User.Profile.Name("there")))
	out = append(out, lines...)
	return out
}

func helpLines(job *Job) []string {
	h := job.App.Config.Help
	city1, city2, city3 := h.City1, h.City2, h.City3
	if city1 == "" {
		city1, city2, city3 = "Newark", "Trenton", "New York"
	}
	return []string{
		"Here's what I can do.",
		fmt.Sprintf("Ask me things like \"when's the next train from %s to %s?\"", city1, city2),
		fmt.Sprintf("Or tell me \"I need to be in %s by 9am\" and I'll work backwards from your arrival.", city3),
		"If typing a station name is a pain, you can share your location instead and I'll use the nearest station.",
	}
}
