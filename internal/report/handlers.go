package report

import (
	"net/http"
	"strconv"

	"github.com/kasirhub/backend-pos/internal/common"
)

// Handler exposes sales report read endpoints.
type Handler struct {
	Svc *Service
}

// Daily returns the sales summary for one day.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	summary, err := h.Svc.Daily(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, summary)
}

// TopItems returns the best sellers for one day.
func (h *Handler) TopItems(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	items, err := h.Svc.TopItems(r.Context(), r.URL.Query().Get("day"), limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, items)
}
