package model

import "time"

// TimePoint is one bound of an NLU datetime entity.
type TimePoint struct {
	Value time.Time `json:"value"`
	Grain string    `json:"grain"`
}

// TimeSpec is a parsed NLU datetime entity: either an exact value or an
// interval with optional bounds.
type TimeSpec struct {
	Type  string     `json:"type"` // "value" or "interval"
	Grain string     `json:"grain,omitempty"`
	Value *time.Time `json:"value,omitempty"`
	From  *TimePoint `json:"from,omitempty"`
	To    *TimePoint `json:"to,omitempty"`
}

// RequestData is the working set of a trip conversation. Origin and
// Destination hold whatever the user typed; the Stop fields are assigned
// only after a successful resolution.
type RequestData struct {
	Origin           string    `json:"origin,omitempty"`
	OriginStop       *Stop     `json:"originStop,omitempty"`
	Destination      string    `json:"destination,omitempty"`
	DestinationStop  *Stop     `json:"destinationStop,omitempty"`
	Datetime         *TimeSpec `json:"datetime,omitempty"`
	RequestTimestamp int64     `json:"requestTimestamp,omitempty"`
}

// CurrentRequest is the persisted state of one in-progress conversation.
type CurrentRequest struct {
	Type  HandlerType  `json:"type"`
	State RequestState `json:"state"`
	Data  RequestData  `json:"data"`
	Fails int          `json:"fails,omitempty"`
}
