package order

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kasirhub/backend-pos/internal/common"
)

// Handler exposes HTTP handlers for order submission and history.
type Handler struct {
	Svc *Service
}

type submitRequest struct {
	SessionID     string `json:"session_id"`
	PaymentMethod string `json:"payment_method"`
	CustomerID    string `json:"customer_id"`
}

// Submit handles POST /api/v1/orders.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	staffID, _ := common.StaffID(r.Context())
	o, err := h.Svc.Submit(r.Context(), SubmitInput{
		SessionID:     req.SessionID,
		StaffID:       staffID,
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, o)
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20, 100)
	orders, total, err := h.Svc.List(r.Context(), r.URL.Query().Get("day"), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: total,
		},
	})
}

// Void handles POST /api/v1/orders/{id}/void.
func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Void(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
