package planner

// Wire types for the OpenTripPlanner index and plan endpoints. Times are
// unix milliseconds as OTP reports them.

type Place struct {
	StopID    string `json:"stopId,omitempty"`
	Name      string `json:"name"`
	Arrival   int64  `json:"arrival,omitempty"`
	Departure int64  `json:"departure,omitempty"`
}

type IntermediateStop struct {
	Name         string `json:"name"`
	StopID       string `json:"stopId"`
	Arrival      int64  `json:"arrival"`
	Departure    int64  `json:"departure"`
	StopIndex    int    `json:"stopIndex"`
	StopSequence int    `json:"stopSequence"`
}

type Leg struct {
	StartTime         int64              `json:"startTime"`
	EndTime           int64              `json:"endTime"`
	Distance          float64            `json:"distance"`
	Mode              string             `json:"mode"`
	Route             string             `json:"route"`
	RouteID           string             `json:"routeId,omitempty"`
	TripID            string             `json:"tripId,omitempty"`
	ServiceDate       string             `json:"serviceDate,omitempty"`
	Duration          float64            `json:"duration"`
	From              Place              `json:"from"`
	To                Place              `json:"to"`
	IntermediateStops []IntermediateStop `json:"intermediateStops,omitempty"`
}

type Itinerary struct {
	Duration  int64 `json:"duration"`
	StartTime int64 `json:"startTime"`
	EndTime   int64 `json:"endTime"`
	Transfers int   `json:"transfers"`
	Legs      []Leg `json:"legs"`
}

type Plan struct {
	Date        int64       `json:"date"`
	From        Place       `json:"from"`
	To          Place       `json:"to"`
	Itineraries []Itinerary `json:"itineraries"`
}

type PlanError struct {
	ID  int    `json:"id,omitempty"`
	Msg string `json:"msg,omitempty"`
}

type PlanResponse struct {
	Plan  *Plan      `json:"plan,omitempty"`
	Error *PlanError `json:"error,omitempty"`
}

// PlanParams is one trip-planning query.
type PlanParams struct {
	FromPlace             string
	ToPlace               string
	Mode                  string
	MaxWalkDistance       float64
	NumItineraries        int
	ShowIntermediateStops bool
	Locale                string
	ArriveBy              bool
	Date                  string // MM-DD-YYYY, planner-local
	Time                  string // HH:mm:ss
}

// StopParams is a proximity stop search; zero value fetches the full list.
type StopParams struct {
	Lat    float64
	Lon    float64
	Radius int
}
