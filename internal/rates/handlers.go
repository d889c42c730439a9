package rates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kasirhub/backend-pos/internal/billing"
	"github.com/kasirhub/backend-pos/internal/common"
)

// Updater persists a new rate configuration.
type Updater interface {
	Update(ctx context.Context, r billing.Rates) error
}

// Handler exposes the rate configuration over HTTP.
type Handler struct {
	Loader *Loader
	Store  Updater
}

// Get returns the rate configuration currently applied to bills.
func (h *Handler) Get(w http.ResponseWriter, _ *http.Request) {
	if h.Loader == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rates loader not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Loader.Current()})
}

// Update stores a new rate configuration and refreshes the loader so the
// change takes effect immediately.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil || h.Loader == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rates store not configured", nil)
		return
	}
	var payload billing.Rates
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Store.Update(r.Context(), payload); err != nil {
		if errors.Is(err, billing.ErrInvalidRate) {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_RATE_CONFIG", "percentages must not be negative", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to store rate config", nil)
		return
	}
	if err := h.Loader.Refresh(r.Context()); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "stored but failed to refresh rates", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Loader.Current()})
}
