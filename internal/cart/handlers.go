package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kasirhub/backend-pos/internal/billing"
	"github.com/kasirhub/backend-pos/internal/catalog"
	"github.com/kasirhub/backend-pos/internal/common"
)

// RateSource yields the latest known rate configuration.
type RateSource interface {
	Current() billing.Rates
}

// MenuSource provides the menu snapshot new sessions validate against.
type MenuSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// Handler wires order sessions to HTTP.
type Handler struct {
	Store    *Store
	Catalog  MenuSource
	Rates    RateSource
	Currency string
}

// Open starts a new order session bound to a table and order type.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil || h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order session store not configured", nil)
		return
	}
	var payload struct {
		Table     int    `json:"table"`
		OrderType string `json:"orderType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	orderType, err := ParseOrderType(payload.OrderType)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "orderType must be dine_in, pickup, or delivery", nil)
		return
	}
	menu, err := h.Catalog.Snapshot(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load menu", nil)
		return
	}
	sess, err := h.Store.Open(payload.Table, orderType, menu)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": h.render(sess)})
}

// Get returns the session contents and the current bill preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(sess)})
}

// AddItem adds one unit of a menu item to the session cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload struct {
		ItemID string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.ItemID = strings.TrimSpace(payload.ItemID)
	if payload.ItemID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "itemId is required", nil)
		return
	}
	if err := sess.AddItem(payload.ItemID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(sess)})
}

// RemoveItem removes one unit of an item, or the whole entry with ?all=true.
// Removing an absent item is a no-op so duplicate clicks do not error.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemId")
	if parseBoolParam(r.URL.Query().Get("all")) {
		sess.RemoveAll(itemID)
	} else {
		sess.RemoveOne(itemID)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(sess)})
}

// Clear empties the session cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Clear()
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(sess)})
}

// Close cancels the session and discards its cart.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order session store not configured", nil)
		return
	}
	h.Store.Close(chi.URLParam(r, "id"))
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"closed": true}})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order session store not configured", nil)
		return nil, false
	}
	sess, err := h.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) rates() billing.Rates {
	if h.Rates == nil {
		return billing.Rates{}
	}
	return h.Rates.Current()
}

func (h *Handler) render(sess *Session) map[string]any {
	entries := sess.Entries()
	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{
			"itemId":    e.Item.ID,
			"name":      e.Item.Name,
			"category":  e.Item.Category,
			"unitPrice": e.Item.UnitPrice,
			"qty":       e.Qty,
			"lineTotal": billing.Money(e.Qty) * e.Item.UnitPrice,
		})
	}
	rates := h.rates()
	bill, err := sess.Bill(rates)
	if err != nil {
		// A bad rate config must not block order entry; fall back to the
		// zero-rate default until the configuration is corrected.
		rates = billing.Rates{}
		bill, _ = sess.Bill(rates)
	}
	rounded := bill.Round()
	return map[string]any{
		"id":        sess.ID,
		"table":     sess.Table,
		"orderType": sess.Type,
		"items":     items,
		"bill": map[string]any{
			"subtotal": rounded.Subtotal,
			"discount": rounded.Discount,
			"charge":   rounded.Charge,
			"tax":      rounded.Tax,
			"total":    rounded.Total,
		},
		"rates":    rates,
		"currency": h.Currency,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
	case errors.Is(err, ErrUnknownItem):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_ITEM", "item is not on the menu", nil)
	case errors.Is(err, ErrSessionNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order session not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

func parseBoolParam(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "yes":
		return true
	}
	return false
}
