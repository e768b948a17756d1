package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/api"
	"github.com/rs/zerolog/log"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	if db == nil {
		panic("db pinger cannot be nil")
	}
	return &HealthHandler{db: db}
}

// Health GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("health check: database ping failed")
		api.WriteJSON(w, http.StatusServiceUnavailable, api.ResponseError{Error: api.ErrorBody{
			Code:    "database_unavailable",
			Message: "database unavailable",
		}})
		return
	}
	api.SuccessJSON(w, map[string]string{"status": "ok", "database": "connected"})
}
