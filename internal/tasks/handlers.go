package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/kasirhub/backend-pos/internal/lock"
	"github.com/kasirhub/backend-pos/internal/obs"
	"github.com/kasirhub/backend-pos/internal/order"
)

// OrderSource resolves persisted orders for receipt rendering.
type OrderSource interface {
	GetOrder(ctx context.Context, id string) (order.Order, error)
}

// Warmer precomputes report caches for a day.
type Warmer interface {
	WarmDaily(ctx context.Context, day string) error
}

// ReceiptHandler renders receipts for submitted orders.
type ReceiptHandler struct {
	Orders OrderSource
	Logger zerolog.Logger
}

// HandleReceipt processes a receipt:print task.
func (h ReceiptHandler) HandleReceipt(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		countReceipt("bad_payload")
		return fmt.Errorf("decode receipt payload: %w", asynq.SkipRetry)
	}
	o, err := h.Orders.GetOrder(ctx, payload.OrderID)
	if err != nil {
		countReceipt("order_missing")
		return fmt.Errorf("load order %s: %w", payload.OrderID, err)
	}

	// render to the structured log; a printer spooler can tail this stream
	h.Logger.Info().
		Str("order_id", o.ID).
		Str("payment_method", o.PaymentMethod).
		Str("receipt", RenderReceipt(o)).
		Msg("receipt rendered")
	countReceipt("ok")
	return nil
}

// RenderReceipt produces the plain-text register receipt for an order.
func RenderReceipt(o order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ORDER %s (%s)\n", o.ID, o.Type)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "%dx %-24s %8d\n", item.Qty, item.Name, item.LineTotal)
	}
	fmt.Fprintf(&b, "subtotal %8d\n", o.Bill.Subtotal)
	if o.Bill.Discount != 0 {
		fmt.Fprintf(&b, "discount -%7d\n", o.Bill.Discount)
	}
	if o.Bill.Charge != 0 {
		fmt.Fprintf(&b, "service  %8d\n", o.Bill.Charge)
	}
	if o.Bill.Tax != 0 {
		fmt.Fprintf(&b, "tax      %8d\n", o.Bill.Tax)
	}
	fmt.Fprintf(&b, "TOTAL    %8d %s\n", o.Bill.Total, o.Currency)
	return b.String()
}

// ReportWarmHandler precomputes the daily report cache. When a Locker is
// configured, warming is serialised across worker instances so only one
// runs the aggregate queries per day.
type ReportWarmHandler struct {
	Reports Warmer
	Locker  lock.Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// HandleReportWarm processes a report:warm task.
func (h ReportWarmHandler) HandleReportWarm(ctx context.Context, t *asynq.Task) error {
	var payload ReportWarmPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode report warm payload: %w", asynq.SkipRetry)
	}
	warm := func(ctx context.Context) error {
		return h.Reports.WarmDaily(ctx, payload.Day)
	}
	var err error
	if h.Locker.R != nil {
		ttl := h.LockTTL
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		err = h.Locker.WithLock(ctx, "reportwarm:"+payload.Day, ttl, warm)
	} else {
		err = warm(ctx)
	}
	if err != nil {
		return fmt.Errorf("warm daily report %s: %w", payload.Day, err)
	}
	h.Logger.Info().Str("day", payload.Day).Msg("daily report cache warmed")
	return nil
}

// NewMux wires the task handlers into an asynq mux.
func NewMux(receipts ReceiptHandler, reports ReportWarmHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReceiptPrint, receipts.HandleReceipt)
	mux.HandleFunc(TypeReportWarm, reports.HandleReportWarm)
	return mux
}

func countReceipt(result string) {
	if obs.ReceiptTaskTotal == nil {
		return
	}
	obs.ReceiptTaskTotal.WithLabelValues(result).Inc()
}
