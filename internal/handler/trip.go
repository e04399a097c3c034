package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/httputil"
	"github.com/trainchat/transit-bot-go/internal/middleware"
	"github.com/trainchat/transit-bot-go/internal/planner"
)

// TripHandler serves stored itinerary projections. The chat messages
// link here for trip details that don't fit in a card.
type TripHandler struct {
	store *planner.Store
	log   zerolog.Logger
}

func NewTripHandler(store *planner.Store, log zerolog.Logger) *TripHandler {
	return &TripHandler{store: store, log: log}
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	app := middleware.GetApp(r.Context())
	if app == nil {
		httputil.WriteError(w, apperrors.Forbidden("unknown application"))
		return
	}

	routerID := app.Config.OTP.RouterID
	if routerID == "" {
		routerID = planner.DefaultRouterID
	}

	id := chi.URLParam(r, "itineraryID")
	ci, err := h.store.Get(r.Context(), routerID, id)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			httputil.WriteError(w, apperrors.NotFound("itinerary"))
			return
		}
		h.log.Error().Err(err).Str("itineraryId", id).Msg("itinerary load failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ci)
}
