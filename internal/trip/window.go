package trip

import (
	"time"

	"github.com/trainchat/transit-bot-go/internal/config"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// Window is the acceptable time range for itineraries. A zero bound means
// unbounded on that side.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// FilterNoise drops interval bounds the classifier hallucinated: a
// from/to with grain "second" whose value is within 30 seconds of now is
// the classifier echoing the current instant back at us, not the user
// naming a time. Returns nil if nothing usable remains.
func FilterNoise(spec *model.TimeSpec, now time.Time) *model.TimeSpec {
	if spec == nil {
		return nil
	}

	out := *spec
	if out.From != nil && isNoise(out.From, now) {
		out.From = nil
	}
	if out.To != nil && isNoise(out.To, now) {
		out.To = nil
	}

	if out.Type == "interval" && out.From == nil && out.To == nil {
		return nil
	}
	if out.Type == "value" && out.Value == nil {
		return nil
	}
	return &out
}

func isNoise(p *model.TimePoint, now time.Time) bool {
	if p.Grain != "second" {
		return false
	}
	diff := p.Value.Sub(now)
	if diff < 0 {
		diff = -diff
	}
	return diff <= config.DatetimeNoiseWindow
}

// DepartingWindow derives the search range for a departing query. The
// range start comes from the interval's from bound or the exact value;
// day-grain values are nudged forward four hours so "today" doesn't
// anchor at midnight and collide with last night's late trains. Default
// start is now.
func DepartingWindow(spec *model.TimeSpec, now time.Time) Window {
	spec = FilterNoise(spec, now)

	w := Window{Start: now}
	if spec == nil {
		return w
	}

	switch spec.Type {
	case "value":
		start := *spec.Value
		if spec.Grain == "day" {
			start = start.Add(4 * time.Hour)
		}
		w.Start = start
	case "interval":
		if spec.From != nil {
			start := spec.From.Value
			if spec.From.Grain == "day" {
				start = start.Add(4 * time.Hour)
			}
			w.Start = start
		}
		if spec.To != nil {
			w.End = spec.To.Value
		}
	}
	return w
}

// ArrivingWindow derives the search range for an arriving query. The
// range end comes from the interval's to bound or the exact value;
// hour/minute grain values are nudged back one unit so "by 5pm" means
// "arrive no later than 4:59". Default end is one hour from now, default
// start now (no point showing trains that already arrived).
func ArrivingWindow(spec *model.TimeSpec, now time.Time) Window {
	spec = FilterNoise(spec, now)

	w := Window{Start: now, End: now.Add(time.Hour)}
	if spec == nil {
		return w
	}

	switch spec.Type {
	case "value":
		w.End = nudgeBack(*spec.Value, spec.Grain)
	case "interval":
		if spec.To != nil {
			w.End = nudgeBack(spec.To.Value, spec.To.Grain)
		}
		if spec.From != nil {
			w.Start = spec.From.Value
		}
	}
	return w
}

func nudgeBack(t time.Time, grain string) time.Time {
	switch grain {
	case "hour":
		return t.Add(-time.Hour)
	case "minute":
		return t.Add(-time.Minute)
	}
	return t
}
