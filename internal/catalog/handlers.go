package catalog

import (
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/peekabooshades/pricing-api/internal/common"
)

// Handler exposes admin endpoints for the pricing configuration snapshot.
type Handler struct {
	Snapshot *Snapshot
	Tasks    *asynq.Client
	Logger   *zerolog.Logger
}

// Settings handles GET /api/v1/admin/pricing/settings. It returns the
// snapshot currently in effect, loading it if necessary.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	if h.Snapshot == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings snapshot not configured", nil)
		return
	}
	settings, err := h.Snapshot.settings(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "SETTINGS_UNAVAILABLE", "pricing settings unavailable", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": settings})
}

// Invalidate handles POST /api/v1/admin/pricing/cache/invalidate. It drops
// both snapshot cache layers and schedules a background warmup so the next
// quote does not pay the reload.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if h.Snapshot == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings snapshot not configured", nil)
		return
	}
	if err := h.Snapshot.Invalidate(r.Context()); err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "failed to invalidate settings cache", nil)
		return
	}
	if h.Tasks != nil {
		if _, err := h.Tasks.EnqueueContext(r.Context(), NewSettingsWarmupTask()); err != nil && h.Logger != nil {
			h.Logger.Warn().Err(err).Msg("enqueue settings warmup")
		}
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{"status": "invalidated"}})
}
