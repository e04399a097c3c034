package messenger

import "encoding/json"

// Content is anything that can be sent as the message body of a Send API
// call: plain text, a button list, or a card carousel.
type Content interface {
	MarshalMessage() (json.RawMessage, error)
}

// QuickReply is a tappable suggestion attached to an outbound message.
// The payload comes back verbatim on the next turn.
type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title,omitempty"`
	Payload     string `json:"payload,omitempty"`
}

// TextQuickReply builds a text suggestion carrying a re-entry payload.
func TextQuickReply(title string, payload any) QuickReply {
	raw, _ := json.Marshal(payload)
	return QuickReply{ContentType: "text", Title: title, Payload: string(raw)}
}

// LocationQuickReply asks Messenger to offer the "Send Location" control.
func LocationQuickReply() QuickReply {
	return QuickReply{ContentType: "location"}
}

// Text is a plain text message with optional quick replies.
type Text struct {
	Text         string
	QuickReplies []QuickReply
}

func (t *Text) MarshalMessage() (json.RawMessage, error) {
	return json.Marshal(struct {
		Text         string       `json:"text"`
		QuickReplies []QuickReply `json:"quick_replies,omitempty"`
	}{t.Text, t.QuickReplies})
}

// Button is an element of a button template or card.
type Button struct {
	Type    string `json:"type"` // "postback", "web_url", "element_share"
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// PostbackButton builds a postback button with a JSON payload.
func PostbackButton(title string, payload any) Button {
	raw, _ := json.Marshal(payload)
	return Button{Type: "postback", Title: title, Payload: string(raw)}
}

// URLButton builds a link-out button.
func URLButton(title, url string) Button {
	return Button{Type: "web_url", Title: title, URL: url}
}

// ShareButton builds a share control.
func ShareButton() Button {
	return Button{Type: "element_share"}
}

// ButtonTemplate is a short text with up to three buttons.
type ButtonTemplate struct {
	Text         string
	Buttons      []Button
	QuickReplies []QuickReply
}

func (b *ButtonTemplate) MarshalMessage() (json.RawMessage, error) {
	return json.Marshal(struct {
		Attachment   attachment   `json:"attachment"`
		QuickReplies []QuickReply `json:"quick_replies,omitempty"`
	}{
		Attachment: attachment{
			Type: "template",
			Payload: templatePayload{
				TemplateType: "button",
				Text:         b.Text,
				Buttons:      b.Buttons,
			},
		},
		QuickReplies: b.QuickReplies,
	})
}

// Element is one card of a generic template carousel.
type Element struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	ItemURL  string   `json:"item_url,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Buttons  []Button `json:"buttons,omitempty"`
}

// GenericTemplate is a horizontally scrollable card carousel.
type GenericTemplate struct {
	Elements     []Element
	QuickReplies []QuickReply
}

func (g *GenericTemplate) MarshalMessage() (json.RawMessage, error) {
	return json.Marshal(struct {
		Attachment   attachment   `json:"attachment"`
		QuickReplies []QuickReply `json:"quick_replies,omitempty"`
	}{
		Attachment: attachment{
			Type: "template",
			Payload: templatePayload{
				TemplateType: "generic",
				Elements:     g.Elements,
			},
		},
		QuickReplies: g.QuickReplies,
	})
}

type attachment struct {
	Type    string          `json:"type"`
	Payload templatePayload `json:"payload"`
}

type templatePayload struct {
	TemplateType string    `json:"template_type"`
	Text         string    `json:"text,omitempty"`
	Buttons      []Button  `json:"buttons,omitempty"`
	Elements     []Element `json:"elements,omitempty"`
}
