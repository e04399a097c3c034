package conversation

import (
	"time"

	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/trip"
)

// NewArriving builds the "get me there by" conversation. It mirrors the
// departing one but fills the destination first and plans in arrive-by
// mode.
func NewArriving(deps Deps) Handler {
	return &tripConversation{deps: deps, variant: arrivingVariant{}}
}

type arrivingVariant struct{}

func (arrivingVariant) handlerType() model.HandlerType { return model.HandlerArriving }
func (arrivingVariant) arriveBy() bool                 { return true }
func (arrivingVariant) firstSide() side                { return sideDestination }

func (arrivingVariant) prompt(s side) string {
	if s == sideDestination {
		return "Arriving at which station?"
	}
	return "Which station are you coming from?"
}

func (arrivingVariant) window(spec *model.TimeSpec, now time.Time) trip.Window {
	return trip.ArrivingWindow(spec, now)
}
