package conversation

import (
	"encoding/json"
	"sort"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// Coordinates is a location pin from the user.
type Coordinates struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// PostbackPayload is the structured payload carried by postback buttons
// and quick replies. The same shape serves station selection (`type:
// "stop"`), menu selection (handlerType only), and scripted-text
// continuation (handlerType plus index/endIndex).
type PostbackPayload struct {
	Type        string            `json:"type,omitempty"`
	HandlerType model.HandlerType `json:"handlerType,omitempty"`
	Stop        *model.Stop       `json:"stop,omitempty"`
	Index       int               `json:"index,omitempty"`
	EndIndex    int               `json:"endIndex,omitempty"`
}

// Event is one inbound Messenger message normalized into the shape the
// rest of the pipeline works with.
type Event struct {
	SenderID    string
	RecipientID string
	Timestamp   int64 // ms
	Kind        model.EventKind
	Text        string
	Coordinates *Coordinates
	Postback    *PostbackPayload
}

// Raw webhook body. Only the fields the bot reads are modeled.
type webhookBody struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID        string             `json:"id"`
	Time      int64              `json:"time"`
	Messaging []webhookMessaging `json:"messaging"`
}

type webhookMessaging struct {
	Sender    webhookParty    `json:"sender"`
	Recipient webhookParty    `json:"recipient"`
	Timestamp int64           `json:"timestamp"`
	Message   *webhookMessage `json:"message"`
	Postback  *webhookTarget  `json:"postback"`
}

type webhookParty struct {
	ID string `json:"id"`
}

type webhookMessage struct {
	Text        string              `json:"text"`
	QuickReply  *webhookTarget      `json:"quick_reply"`
	Attachments []webhookAttachment `json:"attachments"`
}

type webhookTarget struct {
	Payload string `json:"payload"`
}

type webhookAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		Coordinates *Coordinates `json:"coordinates"`
	} `json:"payload"`
}

// ParseEvents normalizes a raw webhook delivery into Events. A body
// without entries is the one malformation that fails the whole batch.
func ParseEvents(body []byte) ([]Event, error) {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, apperrors.InvalidEvent("malformed webhook body").WithCause(err)
	}
	if len(wb.Entry) == 0 {
		return nil, apperrors.InvalidEvent("webhook body has no entry")
	}

	var events []Event
	for _, entry := range wb.Entry {
		for _, m := range entry.Messaging {
			ev := Event{
				SenderID:    m.Sender.ID,
				RecipientID: m.Recipient.ID,
				Timestamp:   m.Timestamp,
				Kind:        model.EventUnknown,
			}
			switch {
			case m.Postback != nil:
				ev.Kind = model.EventPostback
				ev.Postback = parsePayload(m.Postback.Payload)
			case m.Message != nil && m.Message.QuickReply != nil:
				ev.Kind = model.EventQuickReply
				ev.Text = m.Message.Text
				ev.Postback = parsePayload(m.Message.QuickReply.Payload)
			case m.Message != nil && len(m.Message.Attachments) > 0:
				att := m.Message.Attachments[0]
				if att.Type == "location" && att.Payload.Coordinates != nil {
					ev.Kind = model.EventLocation
					ev.Coordinates = att.Payload.Coordinates
				} else {
					ev.Kind = model.EventAttachment
				}
			case m.Message != nil && m.Message.Text != "":
				ev.Kind = model.EventText
				ev.Text = m.Message.Text
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

// parsePayload decodes a postback payload string. Non-JSON payloads
// (bare handler types from the persistent menu) are mapped by value.
func parsePayload(raw string) *PostbackPayload {
	var p PostbackPayload
	if err := json.Unmarshal([]byte(raw), &p); err == nil {
		return &p
	}
	return &PostbackPayload{HandlerType: model.HandlerType(raw)}
}

// CollapseLatest keeps only the newest event per sender. Duplicate
// deliveries for one user within a batch would otherwise apply two
// conflicting transitions to the same conversation.
func CollapseLatest(events []Event) []Event {
	latest := make(map[string]Event, len(events))
	for _, ev := range events {
		if prev, ok := latest[ev.SenderID]; !ok || ev.Timestamp > prev.Timestamp {
			latest[ev.SenderID] = ev
		}
	}
	out := make([]Event, 0, len(latest))
	for _, ev := range latest {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}
