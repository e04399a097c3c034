package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/httputil"
	"github.com/trainchat/transit-bot-go/internal/middleware"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// Dispatcher processes one webhook delivery for one application.
// Satisfied by *conversation.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, app *model.App, body []byte) error
}

type WebhookHandler struct {
	dispatcher Dispatcher
	log        zerolog.Logger
}

func NewWebhookHandler(dispatcher Dispatcher, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, log: log}
}

// Verify answers the platform's subscription challenge.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	app := middleware.GetApp(r.Context())
	if app == nil {
		httputil.WriteError(w, apperrors.Forbidden("unknown application"))
		return
	}

	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != app.Config.VerifyToken {
		h.log.Warn().Str("appId", app.ID).Msg("webhook verification rejected")
		httputil.WriteError(w, apperrors.Forbidden("verification failed"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(q.Get("hub.challenge")))
}

// Receive handles one webhook delivery.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	app := middleware.GetApp(r.Context())
	if app == nil {
		httputil.WriteError(w, apperrors.Forbidden("unknown application"))
		return
	}

	body := middleware.GetWebhookBody(r.Context())
	if body == nil {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidEvent("unreadable body"))
			return
		}
		body = raw
	}

	if err := h.dispatcher.Dispatch(r.Context(), app, body); err != nil {
		h.log.Error().Err(err).Str("appId", app.ID).Msg("webhook dispatch failed")
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "EVENT_RECEIVED"})
}
