package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/trainchat/transit-bot-go/internal/model"
	"github.com/trainchat/transit-bot-go/internal/repository"
)

type contextKey string

const AppContextKey contextKey = "app"

// GetApp returns the application resolved for this request, or nil.
func GetApp(ctx context.Context) *model.App {
	app, _ := ctx.Value(AppContextKey).(*model.App)
	return app
}

// AppMiddleware resolves the {appID} URL segment to an active
// application and stores it in the request context. Unknown or inactive
// apps are rejected before any webhook processing happens.
type AppMiddleware struct {
	apps repository.AppRepository
	log  zerolog.Logger
}

func NewAppMiddleware(apps repository.AppRepository, log zerolog.Logger) *AppMiddleware {
	return &AppMiddleware{apps: apps, log: log}
}

func (m *AppMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appID := chi.URLParam(r, "appID")
		if appID == "" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown application"})
			return
		}

		app, err := m.apps.Find(r.Context(), appID)
		if err != nil {
			m.log.Error().Err(err).Str("appId", appID).Msg("app lookup failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Application lookup failed"})
			return
		}
		if app == nil || !app.Active {
			m.log.Warn().Str("appId", appID).Msg("webhook for unknown or inactive app")
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Application is not active"})
			return
		}

		ctx := context.WithValue(r.Context(), AppContextKey, app)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
