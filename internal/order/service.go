package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kasirhub/backend-pos/internal/billing"
	"github.com/kasirhub/backend-pos/internal/cart"
	"github.com/kasirhub/backend-pos/internal/common"
	"github.com/kasirhub/backend-pos/internal/events"
	"github.com/kasirhub/backend-pos/internal/obs"
)

// Payment methods accepted at the register.
const (
	PaymentCash = "cash"
	PaymentQRIS = "qris"
	PaymentCard = "card"
)

// Order statuses.
const (
	StatusPaid   = "paid"
	StatusVoided = "voided"
)

// Item is a persisted order line.
type Item struct {
	ItemID    string        `json:"item_id"`
	Name      string        `json:"name"`
	UnitPrice billing.Money `json:"unit_price"`
	Qty       int           `json:"qty"`
	LineTotal billing.Money `json:"line_total"`
}

// Order is a settled bill persisted at submission time.
type Order struct {
	ID            string          `json:"id"`
	Table         int             `json:"table,omitempty"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	StaffID       string          `json:"staff_id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	Bill          billing.Rounded `json:"bill"`
	Currency      string          `json:"currency"`
	Items         []Item          `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Persister abstracts order persistence.
type Persister interface {
	SaveOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context, day string, page, perPage int) ([]Order, int64, error)
	VoidOrder(ctx context.Context, id string) error
}

// SessionSource resolves and closes in-progress order sessions.
type SessionSource interface {
	Get(id string) (*cart.Session, error)
	Close(id string)
}

// RateSource supplies the currently loaded bill rates.
type RateSource interface {
	Current() billing.Rates
}

// Enqueuer schedules background work for a submitted order.
type Enqueuer interface {
	EnqueueReceipt(ctx context.Context, orderID string) error
}

// Service turns open sessions into settled orders.
type Service struct {
	Store    Persister
	Sessions SessionSource
	Rates    RateSource
	Bus      *events.Bus
	Tasks    Enqueuer
	Currency string
	Now      func() time.Time
}

// SubmitInput carries the submission parameters.
type SubmitInput struct {
	SessionID     string
	StaffID       string
	CustomerID    string
	PaymentMethod string
}

// Submit settles the session's bill, persists the order, and closes the
// session. Items and breakdown both derive from a single Entries snapshot.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Order, error) {
	if s == nil || s.Store == nil || s.Sessions == nil {
		return Order{}, errors.New("order service not configured")
	}
	method := strings.TrimSpace(strings.ToLower(in.PaymentMethod))
	switch method {
	case PaymentCash, PaymentQRIS, PaymentCard:
	default:
		return Order{}, common.NewAppError("INVALID_PAYMENT_METHOD", "unsupported payment method", http.StatusBadRequest, nil)
	}

	session, err := s.Sessions.Get(in.SessionID)
	if err != nil {
		s.countSubmit("", "session_not_found")
		return Order{}, common.NewAppError("SESSION_NOT_FOUND", "order session not found", http.StatusNotFound, err)
	}

	entries := session.Entries()
	if len(entries) == 0 {
		s.countSubmit(string(session.Type), "empty_cart")
		return Order{}, common.NewAppError("EMPTY_CART", "cannot submit an empty order", http.StatusBadRequest, nil)
	}

	// bill the same snapshot the order items come from; re-reading the
	// session here could interleave with a concurrent cart mutation
	lines := make([]billing.Line, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, billing.Line{Qty: e.Qty, UnitPrice: e.Item.UnitPrice})
	}

	rates := billing.Rates{}
	if s.Rates != nil {
		rates = s.Rates.Current()
	}
	breakdown, err := billing.Compute(lines, rates)
	if err != nil {
		// a broken rate config never blocks the register; fall back to zero rates
		breakdown, err = billing.Compute(lines, billing.Rates{})
		if err != nil {
			s.countSubmit(string(session.Type), "error")
			return Order{}, fmt.Errorf("compute bill: %w", err)
		}
	}

	o := Order{
		Table:         session.Table,
		Type:          string(session.Type),
		Status:        StatusPaid,
		StaffID:       in.StaffID,
		CustomerID:    strings.TrimSpace(in.CustomerID),
		PaymentMethod: method,
		Bill:          breakdown.Round(),
		Currency:      s.currency(),
		Items:         make([]Item, 0, len(entries)),
		CreatedAt:     s.now(),
	}
	for _, e := range entries {
		o.Items = append(o.Items, Item{
			ItemID:    e.Item.ID,
			Name:      e.Item.Name,
			UnitPrice: e.Item.UnitPrice,
			Qty:       e.Qty,
			LineTotal: e.Item.UnitPrice * billing.Money(e.Qty),
		})
	}

	if err := s.Store.SaveOrder(ctx, &o); err != nil {
		s.countSubmit(o.Type, "error")
		return Order{}, fmt.Errorf("persist order: %w", err)
	}

	s.Sessions.Close(in.SessionID)
	s.countSubmit(o.Type, "ok")

	if s.Bus != nil {
		// the order is already committed; event emission is best effort
		_, _ = s.Bus.Emit(ctx, events.TopicOrderSubmitted, o.ID, map[string]any{
			"order_id": o.ID,
			"total":    o.Bill.Total,
			"type":     o.Type,
		})
	}
	if s.Tasks != nil {
		_ = s.Tasks.EnqueueReceipt(ctx, o.ID)
	}
	return o, nil
}

// Get fetches a persisted order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	return s.Store.GetOrder(ctx, id)
}

// List returns orders, optionally filtered to a single day (YYYY-MM-DD).
func (s *Service) List(ctx context.Context, day string, page, perPage int) ([]Order, int64, error) {
	if s == nil || s.Store == nil {
		return nil, 0, errors.New("order service not configured")
	}
	day = strings.TrimSpace(day)
	if day != "" {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return nil, 0, common.NewAppError("BAD_REQUEST", "day must be formatted YYYY-MM-DD", http.StatusBadRequest, err)
		}
	}
	return s.Store.ListOrders(ctx, day, page, perPage)
}

// Void marks a paid order as voided and emits the corresponding event.
func (s *Service) Void(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("order service not configured")
	}
	if err := s.Store.VoidOrder(ctx, id); err != nil {
		return err
	}
	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicOrderVoided, id, map[string]any{"order_id": id})
	}
	return nil
}

func (s *Service) currency() string {
	if s.Currency == "" {
		return "IDR"
	}
	return s.Currency
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) countSubmit(orderType, result string) {
	if obs.OrderSubmittedTotal == nil {
		return
	}
	if orderType == "" {
		orderType = "unknown"
	}
	obs.OrderSubmittedTotal.WithLabelValues(orderType, result).Inc()
}
