package messenger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextMarshalMessage(t *testing.T) {
	msg := &Text{
		Text: "Departing from which station?",
		QuickReplies: []QuickReply{
			LocationQuickReply(),
			TextQuickReply("Trenton", map[string]string{"type": "stop"}),
		},
	}

	raw, err := msg.MarshalMessage()
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.JSONEq(t, `"Departing from which station?"`, string(got["text"]))

	var qrs []QuickReply
	require.NoError(t, json.Unmarshal(got["quick_replies"], &qrs))
	require.Len(t, qrs, 2)
	assert.Equal(t, "location", qrs[0].ContentType)
	assert.Equal(t, "text", qrs[1].ContentType)
	assert.JSONEq(t, `{"type":"stop"}`, qrs[1].Payload)
}

func TestButtonTemplateMarshalMessage(t *testing.T) {
	msg := &ButtonTemplate{
		Text: "Which one did you mean?",
		Buttons: []Button{
			PostbackButton("Newark Penn", map[string]string{"type": "stop"}),
			URLButton("Station list", "https://bot.example.com/stations"),
		},
	}

	raw, err := msg.MarshalMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"template_type":"button"`)
	assert.Contains(t, string(raw), `"type":"postback"`)
	assert.Contains(t, string(raw), `"type":"web_url"`)
	assert.NotContains(t, string(raw), "quick_replies")
}

func TestGenericTemplateMarshalMessage(t *testing.T) {
	msg := &GenericTemplate{Elements: []Element{
		{Title: "Next train", Subtitle: "Find upcoming departures"},
	}}

	raw, err := msg.MarshalMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"template_type":"generic"`)
	assert.Contains(t, string(raw), `"title":"Next train"`)
}
