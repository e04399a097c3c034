package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/util"
)

const WebhookBodyContextKey contextKey = "webhookBody"

// GetWebhookBody returns the raw body captured during signature
// verification, or nil.
func GetWebhookBody(ctx context.Context) []byte {
	body, _ := ctx.Value(WebhookBodyContextKey).([]byte)
	return body
}

// SignatureMiddleware verifies the X-Hub-Signature-256 header against
// the app secret of the application resolved by AppMiddleware. The raw
// body is stashed in the context so the handler never re-reads it.
type SignatureMiddleware struct {
	log zerolog.Logger
}

func NewSignatureMiddleware(log zerolog.Logger) *SignatureMiddleware {
	return &SignatureMiddleware{log: log}
}

func (m *SignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app := GetApp(r.Context())
		if app == nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Unknown application"})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			m.log.Error().Err(err).Msg("signature middleware: failed to read body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read request body"})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if app.Config.AppSecret == "" {
			m.log.Warn().Str("appId", app.ID).Msg("signature verification bypassed: app has no secret configured")
		} else {
			signature := strings.TrimPrefix(r.Header.Get("X-Hub-Signature-256"), "sha256=")
			if signature == "" {
				m.log.Warn().Str("appId", app.ID).Msg("signature middleware: missing signature header")
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "Missing signature"})
				return
			}
			computed := util.HmacSHA256(app.Config.AppSecret, body)
			if !util.ConstantTimeEqual(computed, signature) {
				m.log.Warn().Str("appId", app.ID).Msg("signature middleware: invalid signature")
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid signature"})
				return
			}
		}

		ctx := context.WithValue(r.Context(), WebhookBodyContextKey, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
