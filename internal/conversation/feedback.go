package conversation

import (
	"context"

	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// NewFeedback builds the two-state feedback conversation: ask for free
// text, then relay whatever comes back.
func NewFeedback(deps Deps) Handler {
	return &feedbackHandler{deps: deps}
}

type feedbackHandler struct {
	deps Deps
}

func (h *feedbackHandler) Type() model.HandlerType { return model.HandlerFeedback }

func (h *feedbackHandler) Work(ctx context.Context, job *Job) error {
	rqs := ensureRequest(job, model.HandlerFeedback)
	switch rqs.State {
	case model.StateNew:
		rqs.State = model.StateWaitResponse
		return h.sendText(ctx, job, "I'd love to hear it. What would you like to tell us?")
	case model.StateWaitResponse:
		return h.onResponse(ctx, job, rqs)
	default:
		return nil
	}
}

func (h *feedbackHandler) onResponse(ctx context.Context, job *Job, rqs *model.CurrentRequest) error {
	text := job.Event.Text
	if text == "" {
		return h.sendText(ctx, job, "Just type your feedback as a message and I'll pass it along.")
	}

	if err := h.deps.Feedback.Relay(ctx, job.App, job.User, text); err != nil {
		h.deps.Log.Error().Err(err).Str("turn", job.TurnID).Msg("feedback relay failed")
		job.Finish(false, 0)
		return h.sendText(ctx, job, "I couldn't pass that along just now, sorry. Please try again later.")
	}

	job.Finish(false, 0)
	return h.sendText(ctx, job, "Thanks! Your feedback is on its way to the team.")
}

func (h *feedbackHandler) sendText(ctx context.Context, job *Job, text string) error {
	return h.deps.Sender.Send(ctx, job.Event.SenderID, &messenger.Text{Text: text}, job.Token)
}
