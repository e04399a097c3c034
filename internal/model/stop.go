package model

// Stop is a transit boarding location as returned by the trip planner.
// Stops are compared by ID; Name is what users see and what fuzzy
// matching runs against. Dist is only set on proximity searches.
type Stop struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Dist float64 `json:"dist,omitempty"`
}
