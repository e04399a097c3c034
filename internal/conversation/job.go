package conversation

import (
	"time"

	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/nlu"
)

// Job is the ephemeral per-turn bundle: one normalized event plus the
// loaded user and application context. It is created fresh for every
// turn and discarded once the turn completes; only mutations to User
// survive.
type Job struct {
	TurnID string
	App    *model.App
	User   *model.User
	Token  string
	Event  Event
	NLU    *nlu.Response // set for text events when classification succeeded

	// WantsHelp asks the active trip handler to inject contextual
	// guidance without abandoning the conversation.
	WantsHelp bool

	// Done tells the dispatcher to clear currentRequest after the turn.
	Done bool

	Now time.Time
}

// Request returns the active conversation, or nil.
func (j *Job) Request() *model.CurrentRequest {
	return j.User.Data.CurrentRequest
}

// SetRequest replaces the active conversation.
func (j *Job) SetRequest(rqs *model.CurrentRequest) {
	j.User.Data.CurrentRequest = rqs
}

// Finish marks the conversation done and archives trip requests onto the
// bounded history.
func (j *Job) Finish(keepHistory bool, historyMax int) {
	rqs := j.Request()
	if rqs != nil {
		rqs.State = model.StateDone
		if keepHistory {
			j.User.Data.PushHistory(*rqs, historyMax)
		}
	}
	j.Done = true
}
