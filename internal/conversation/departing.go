package conversation

import (
	"time"

	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/trip"
)

// NewDeparting builds the "next train out of here" conversation.
func NewDeparting(deps Deps) Handler {
	return &tripConversation{deps: deps, variant: departingVariant{}}
}

type departingVariant struct{}

func (departingVariant) handlerType() model.HandlerType { return model.HandlerDeparting }
func (departingVariant) arriveBy() bool                 { return false }
func (departingVariant) firstSide() side                { return sideOrigin }

func (departingVariant) prompt(s side) string {
	if s == sideOrigin {
		return "Departing from which station?"
	}
	return "Which station are you going to?"
}

func (departingVariant) window(spec *model.TimeSpec, now time.Time) trip.Window {
	return trip.DepartingWindow(spec, now)
}
