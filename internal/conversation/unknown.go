package conversation

import (
	"context"

	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// NewUnknown is the terminal fallback when nothing else applies.
func NewUnknown(deps Deps) Handler {
	return &unknownHandler{deps: deps}
}

type unknownHandler struct {
	deps Deps
}

func (h *unknownHandler) Type() model.HandlerType { return model.HandlerUnknown }

func (h *unknownHandler) Work(ctx context.Context, job *Job) error {
	job.Done = true
	msg := &messenger.Text{
		Text: "Sorry, I didn't catch that. I can find your next train if you tell me where you're going.",
		QuickReplies: []messenger.QuickReply{
			messenger.TextQuickReply("Menu", PostbackPayload{HandlerType: model.HandlerMenu}),
			messenger.TextQuickReply("Help", PostbackPayload{HandlerType: model.HandlerHelp}),
		},
	}
	return h.deps.Sender.Send(ctx, job.Event.SenderID, msg, job.Token)
}
