package nlu

import (
	"time"

	"github.com/trainchat/transit-bot-go/internal/model"
)

// Candidate is one classified value with its confidence.
type Candidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// DatetimeBound is one side of a classified interval.
type DatetimeBound struct {
	Value time.Time `json:"value"`
	Grain string    `json:"grain"`
}

// DatetimeEntity mirrors the classifier's datetime entity: either an
// exact value or an interval with optional bounds.
type DatetimeEntity struct {
	Type       string         `json:"type"` // "value" or "interval"
	Grain      string         `json:"grain,omitempty"`
	Value      *time.Time     `json:"value,omitempty"`
	From       *DatetimeBound `json:"from,omitempty"`
	To         *DatetimeBound `json:"to,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
}

// Entities is the full entity map of one classification.
type Entities struct {
	Intent      []Candidate      `json:"intent,omitempty"`
	Origin      []Candidate      `json:"origin,omitempty"`
	Destination []Candidate      `json:"destination,omitempty"`
	Datetime    []DatetimeEntity `json:"datetime,omitempty"`
	Greeting    []Candidate      `json:"greeting,omitempty"`
	Thanks      []Candidate      `json:"thanks,omitempty"`
}

// Response is the result of classifying one utterance.
type Response struct {
	Text     string   `json:"_text,omitempty"`
	Entities Entities `json:"entities"`
}

// Intent returns the top intent and its confidence, if any.
func (r *Response) Intent() (string, float64, bool) {
	if r == nil || len(r.Entities.Intent) == 0 {
		return "", 0, false
	}
	top := r.Entities.Intent[0]
	return top.Value, top.Confidence, true
}

// Origin returns the classified origin entity, if any.
func (r *Response) Origin() (string, bool) {
	return firstValue(r, func(e Entities) []Candidate { return e.Origin })
}

// Destination returns the classified destination entity, if any.
func (r *Response) Destination() (string, bool) {
	return firstValue(r, func(e Entities) []Candidate { return e.Destination })
}

func firstValue(r *Response, pick func(Entities) []Candidate) (string, bool) {
	if r == nil {
		return "", false
	}
	cands := pick(r.Entities)
	if len(cands) == 0 {
		return "", false
	}
	return cands[0].Value, true
}

// TimeSpec converts the first datetime entity into the persisted shape.
func (r *Response) TimeSpec() *model.TimeSpec {
	if r == nil || len(r.Entities.Datetime) == 0 {
		return nil
	}
	e := r.Entities.Datetime[0]
	spec := &model.TimeSpec{Type: e.Type, Grain: e.Grain, Value: e.Value}
	if e.From != nil {
		spec.From = &model.TimePoint{Value: e.From.Value, Grain: e.From.Grain}
	}
	if e.To != nil {
		spec.To = &model.TimePoint{Value: e.To.Value, Grain: e.To.Grain}
	}
	return spec
}
