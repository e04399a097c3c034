package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trainchat/transit-bot-go/internal/config"
	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/planner"
	"github.com/trainchat/transit-bot-go/internal/trip"
)

const payloadTypeStop = "stop"

// side distinguishes the two station slots of a trip conversation.
type side int

const (
	sideOrigin side = iota
	sideDestination
)

func (s side) other() side {
	if s == sideOrigin {
		return sideDestination
	}
	return sideOrigin
}

func (s side) waitState() model.RequestState {
	if s == sideOrigin {
		return model.StateWaitOrigin
	}
	return model.StateWaitDestination
}

func sideText(d *model.RequestData, s side) string {
	if s == sideOrigin {
		return d.Origin
	}
	return d.Destination
}

func sideStop(d *model.RequestData, s side) *model.Stop {
	if s == sideOrigin {
		return d.OriginStop
	}
	return d.DestinationStop
}

func setSide(d *model.RequestData, s side, text string, stop *model.Stop) {
	if s == sideOrigin {
		d.Origin, d.OriginStop = text, stop
	} else {
		d.Destination, d.DestinationStop = text, stop
	}
}

// tripVariant is the piece that differs between departing and arriving
// conversations: prompts, search-window derivation, and which station
// slot gets filled first.
type tripVariant interface {
	handlerType() model.HandlerType
	arriveBy() bool
	firstSide() side
	prompt(s side) string
	window(spec *model.TimeSpec, now time.Time) trip.Window
}

// tripConversation is the shared trip state machine. Departing and
// arriving handlers are this struct composed with their variant.
type tripConversation struct {
	deps    Deps
	variant tripVariant
}

func (t *tripConversation) Type() model.HandlerType {
	return t.variant.handlerType()
}

func (t *tripConversation) Work(ctx context.Context, job *Job) error {
	rqs := ensureRequest(job, t.Type())
	if job.WantsHelp {
		// the message was a plea for help, not an answer: send guidance
		// and leave the conversation exactly where it was
		return t.sendHelp(ctx, job, rqs.State)
	}
	switch rqs.State {
	case model.StateNew:
		return t.onNew(ctx, job, rqs)
	case model.StateWaitOrigin:
		return t.onWait(ctx, job, rqs, sideOrigin)
	case model.StateWaitDestination:
		return t.onWait(ctx, job, rqs, sideDestination)
	case model.StateReady:
		return t.onReady(ctx, job, rqs)
	default:
		return nil
	}
}

// onNew seeds the working set from whatever the classifier extracted and
// immediately evaluates what is still missing.
func (t *tripConversation) onNew(ctx context.Context, job *Job, rqs *model.CurrentRequest) error {
	rqs.Data.RequestTimestamp = job.Event.Timestamp
	if job.NLU != nil {
		if v, ok := job.NLU.Origin(); ok {
			rqs.Data.Origin = v
		}
		if v, ok := job.NLU.Destination(); ok {
			rqs.Data.Destination = v
		}
		if spec := job.NLU.TimeSpec(); spec != nil {
			rqs.Data.Datetime = spec
		}
	}
	return t.evalState(ctx, job, rqs)
}

// onWait interprets this turn's payload as an answer to "which station".
func (t *tripConversation) onWait(ctx context.Context, job *Job, rqs *model.CurrentRequest, s side) error {
	ev := job.Event
	switch {
	case ev.Kind == model.EventLocation && ev.Coordinates != nil:
		stops, err := t.deps.Resolver.ByCoordinates(ctx, ev.Coordinates.Lat, ev.Coordinates.Long)
		if err != nil {
			rqs.State = s.waitState()
			return t.sendText(ctx, job, "Something went wrong looking up stations near you. Could you type the station name instead?")
		}
		if len(stops) == 0 {
			return t.lookupFailed(ctx, job, rqs, s, "near that location")
		}
		if len(stops) > 1 {
			rqs.State = s.waitState()
			return t.sendSelection(ctx, job, stops)
		}
		setSide(&rqs.Data, s, stops[0].Name, &stops[0])
		rqs.Fails = 0
	case ev.Postback != nil && ev.Postback.Type == payloadTypeStop && ev.Postback.Stop != nil:
		setSide(&rqs.Data, s, ev.Postback.Stop.Name, ev.Postback.Stop)
		rqs.Fails = 0
	case ev.Text != "":
		setSide(&rqs.Data, s, ev.Text, nil)
		if job.NLU != nil {
			if spec := job.NLU.TimeSpec(); spec != nil {
				rqs.Data.Datetime = spec
			}
		}
	default:
		return t.requestSide(ctx, job, rqs, s)
	}
	return t.evalState(ctx, job, rqs)
}

// evalState re-derives what is still missing from the working set rather
// than trusting the stored state. The fixed precedence lets a user answer
// a future prompt out of order: whichever side was typed early gets
// resolved before the current prompt repeats.
func (t *tripConversation) evalState(ctx context.Context, job *Job, rqs *model.CurrentRequest) error {
	data := &rqs.Data
	first := t.variant.firstSide()
	second := first.other()

	switch {
	case sideText(data, first) == "":
		if sideText(data, second) != "" && sideStop(data, second) == nil {
			return t.resolveSide(ctx, job, rqs, second)
		}
		return t.requestSide(ctx, job, rqs, first)
	case sideStop(data, first) == nil:
		return t.resolveSide(ctx, job, rqs, first)
	case sideText(data, second) == "":
		return t.requestSide(ctx, job, rqs, second)
	case sideStop(data, second) == nil:
		return t.resolveSide(ctx, job, rqs, second)
	}
	rqs.State = model.StateReady
	return t.onReady(ctx, job, rqs)
}

// requestSide prompts for a station, offering the location quick reply
// plus stops the user has travelled through before.
func (t *tripConversation) requestSide(ctx context.Context, job *Job, rqs *model.CurrentRequest, s side) error {
	rqs.State = s.waitState()
	qrs := []messenger.QuickReply{messenger.LocationQuickReply()}
	for _, stop := range historyStops(job.User.Data.TripHistory, s, 3) {
		if other := sideStop(&rqs.Data, s.other()); other != nil && other.ID == stop.ID {
			continue
		}
		stop := stop
		qrs = append(qrs, messenger.TextQuickReply(stop.Name, PostbackPayload{Type: payloadTypeStop, Stop: &stop}))
	}
	return t.send(ctx, job, &messenger.Text{Text: t.variant.prompt(s), QuickReplies: qrs})
}

// resolveSide fuzzy-resolves the typed station name.
func (t *tripConversation) resolveSide(ctx context.Context, job *Job, rqs *model.CurrentRequest, s side) error {
	query := sideText(&rqs.Data, s)
	stops, err := t.deps.Resolver.ByName(ctx, query, job.User.Data.TripHistory)
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeNoStationFound):
		return t.lookupFailed(ctx, job, rqs, s, fmt.Sprintf("matching %q", query))
	case apperrors.HasCode(err, apperrors.ErrCodeTooManyMatches):
		// a narrowing request, not a misunderstanding: no fail increment
		rqs.State = s.waitState()
		return t.sendText(ctx, job, fmt.Sprintf("A lot of stations match %q. Could you be more specific?", query))
	case err != nil:
		rqs.State = s.waitState()
		return t.sendText(ctx, job, "Something went wrong looking that station up. Could you try again?")
	}

	if len(stops) == 1 {
		setSide(&rqs.Data, s, stops[0].Name, &stops[0])
		rqs.Fails = 0
		return t.evalState(ctx, job, rqs)
	}
	rqs.State = s.waitState()
	return t.sendSelection(ctx, job, stops)
}

// lookupFailed handles a zero-candidate resolution: retry prompt on the
// first miss, station-list escalation on the second.
func (t *tripConversation) lookupFailed(ctx context.Context, job *Job, rqs *model.CurrentRequest, s side, what string) error {
	rqs.State = s.waitState()
	rqs.Fails++
	if rqs.Fails < 2 {
		return t.sendText(ctx, job, fmt.Sprintf("I couldn't find a station %s. Could you try again?", what))
	}
	rqs.Fails = 0
	msg := &messenger.ButtonTemplate{
		Text: "I still can't find that station. The full station list might help; try the exact name from there.",
	}
	if url := job.App.Config.StationListURL; url != "" {
		msg.Buttons = append(msg.Buttons, messenger.URLButton("Station list", url))
	}
	return t.send(ctx, job, msg)
}

// sendSelection asks the user to pick between candidate stations.
func (t *tripConversation) sendSelection(ctx context.Context, job *Job, stops []model.Stop) error {
	if job.App.Config.StageVars.StationSelectionWide {
		tmpl := &messenger.GenericTemplate{}
		for _, stop := range stops {
			stop := stop
			tmpl.Elements = append(tmpl.Elements, messenger.Element{
				Title: stop.Name,
				Buttons: []messenger.Button{
					messenger.PostbackButton("Select", PostbackPayload{Type: payloadTypeStop, Stop: &stop}),
				},
			})
		}
		return t.send(ctx, job, tmpl)
	}

	tmpl := &messenger.ButtonTemplate{Text: "Which station did you mean?"}
	for i, stop := range stops {
		if i == 3 { // button templates hold at most three buttons
			break
		}
		stop := stop
		tmpl.Buttons = append(tmpl.Buttons, messenger.PostbackButton(stop.Name, PostbackPayload{Type: payloadTypeStop, Stop: &stop}))
	}
	return t.send(ctx, job, tmpl)
}

// onReady has both stops resolved: run the trip query and present results.
func (t *tripConversation) onReady(ctx context.Context, job *Job, rqs *model.CurrentRequest) error {
	data := &rqs.Data
	now := job.Now
	spec := trip.FilterNoise(data.Datetime, now)
	q := trip.Query{
		Origin:      *data.OriginStop,
		Destination: *data.DestinationStop,
		Window:      t.variant.window(spec, now),
		ArriveBy:    t.variant.arriveBy(),
		Display:     job.App.Config.NumItineraries(config.DefaultNumItineraries),
	}

	items, err := t.deps.Trips.Run(ctx, q)
	if err != nil {
		return t.planFailed(ctx, job, data, err)
	}
	if err := t.sendTrips(ctx, job, data, items); err != nil {
		return err
	}
	return t.finishRequest(ctx, job, "Anything else I can help you with?")
}

// planFailed converts query-builder failures into closing messages. All
// of these end the conversation; re-asking the same two answers would
// produce the same result.
func (t *tripConversation) planFailed(ctx context.Context, job *Job, data *model.RequestData, err error) error {
	var text string
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeSameStation:
		text = fmt.Sprintf("%s and %s are the same station, so that's a short trip! Want to plan another?", data.Origin, data.Destination)
	case apperrors.ErrCodeNoItineraries, apperrors.ErrCodeNoItinerariesInRange:
		text = fmt.Sprintf("I couldn't find any trips from %s to %s for that time. Want to try a different time?", data.Origin, data.Destination)
	case apperrors.ErrCodePlanner:
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Message != "" {
			text = appErr.Message
		} else {
			text = "The trip planner had a problem with that request. Want to try again?"
		}
	default:
		t.deps.Log.Error().Err(err).Str("turn", job.TurnID).Msg("trip query failed")
		text = "Something went wrong planning that trip. Want to try again?"
	}
	return t.finishRequest(ctx, job, text)
}

// sendTrips presents itineraries, widest first when the page is
// configured for card carousels.
func (t *tripConversation) sendTrips(ctx context.Context, job *Job, data *model.RequestData, items []planner.StoredItinerary) error {
	loc := job.App.Config.Location()
	header := fmt.Sprintf("Here's what I found from %s to %s:", data.Origin, data.Destination)

	if job.App.Config.StageVars.SendTripsWide {
		if err := t.sendText(ctx, job, header); err != nil {
			return err
		}
		tmpl := &messenger.GenericTemplate{}
		for _, item := range items {
			el := messenger.Element{
				Title:    tripTimes(item.Itinerary, loc),
				Subtitle: tripSummary(item.Itinerary),
			}
			if url := tripURL(job.App.Config.AppRootURL, item.ItineraryID); url != "" {
				el.Buttons = append(el.Buttons, messenger.URLButton("View details", url))
			}
			el.Buttons = append(el.Buttons, messenger.ShareButton())
			tmpl.Elements = append(tmpl.Elements, el)
		}
		return t.send(ctx, job, tmpl)
	}

	lines := []string{header}
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s (%s)", tripTimes(item.Itinerary, loc), tripSummary(item.Itinerary)))
	}
	return t.sendText(ctx, job, strings.Join(lines, "\n"))
}

func tripTimes(it planner.CompressedItinerary, loc *time.Location) string {
	start := time.UnixMilli(it.StartTime).In(loc)
	end := time.UnixMilli(it.EndTime).In(loc)
	return fmt.Sprintf("%s → %s", start.Format("3:04 PM"), end.Format("3:04 PM"))
}

func tripSummary(it planner.CompressedItinerary) string {
	mins := it.Duration / 60
	switch it.Transfers {
	case 0:
		return fmt.Sprintf("%d min, direct", mins)
	case 1:
		return fmt.Sprintf("%d min, 1 transfer", mins)
	default:
		return fmt.Sprintf("%d min, %d transfers", mins, it.Transfers)
	}
}

func tripURL(rootURL, itineraryID string) string {
	if rootURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/trip/%s", strings.TrimRight(rootURL, "/"), itineraryID)
}

// finishRequest closes the conversation, archives it, and offers the
// shortcut quick replies for the next one.
func (t *tripConversation) finishRequest(ctx context.Context, job *Job, prompt string) error {
	rqs := job.Request()
	keep := rqs != nil && rqs.Data.OriginStop != nil && rqs.Data.DestinationStop != nil
	job.Finish(keep, config.TripHistoryMax)
	msg := &messenger.Text{Text: prompt, QuickReplies: []messenger.QuickReply{
		messenger.TextQuickReply("Departing", PostbackPayload{HandlerType: model.HandlerDeparting}),
		messenger.TextQuickReply("Arriving", PostbackPayload{HandlerType: model.HandlerArriving}),
		messenger.TextQuickReply("Menu", PostbackPayload{HandlerType: model.HandlerMenu}),
	}}
	return t.send(ctx, job, msg)
}

func (t *tripConversation) sendHelp(ctx context.Context, job *Job, state model.RequestState) error {
	var text string
	switch state {
	case model.StateWaitOrigin, model.StateWaitDestination:
		text = "Type a station name, share your location, or tap one of the suggestions below."
	default:
		text = "Tell me where you're leaving from and where you're headed, and I'll find your train."
	}
	return t.sendText(ctx, job, text)
}

func (t *tripConversation) send(ctx context.Context, job *Job, content messenger.Content) error {
	return t.deps.Sender.Send(ctx, job.Event.SenderID, content, job.Token)
}

func (t *tripConversation) sendText(ctx context.Context, job *Job, text string) error {
	return t.send(ctx, job, &messenger.Text{Text: text})
}

// historyStops collects distinct stops from past trips, both ends of
// each, newest first. The slot being asked about is preferred per trip:
// a past origin suggests itself for an origin prompt before that trip's
// destination does.
func historyStops(history []model.CurrentRequest, s side, max int) []model.Stop {
	var out []model.Stop
	seen := make(map[string]bool)
	add := func(stop *model.Stop) {
		if stop == nil || seen[stop.ID] || len(out) >= max {
			return
		}
		seen[stop.ID] = true
		out = append(out, *stop)
	}
	for _, past := range history {
		add(sideStop(&past.Data, s))
		add(sideStop(&past.Data, s.other()))
		if len(out) >= max {
			break
		}
	}
	return out
}
