package tasks

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kasirhub/backend-pos/internal/billing"
	"github.com/kasirhub/backend-pos/internal/common"
	"github.com/kasirhub/backend-pos/internal/order"
)

// the persisted store must plug straight into the receipt handler
var _ OrderSource = order.Store{}

type stubOrders struct {
	orders map[string]order.Order
}

func (s stubOrders) GetOrder(_ context.Context, id string) (order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, common.NotFound("order not found")
	}
	return o, nil
}

func sampleOrder() order.Order {
	return order.Order{
		ID:            "order-1",
		Type:          "dine_in",
		Status:        order.StatusPaid,
		PaymentMethod: order.PaymentCash,
		Currency:      "IDR",
		Bill: billing.Rounded{
			Subtotal: 1300,
			Discount: 130,
			Charge:   65,
			Tax:      104,
			Total:    1339,
		},
		Items: []order.Item{
			{ItemID: "nasi-goreng", Name: "Nasi Goreng", UnitPrice: 500, Qty: 2, LineTotal: 1000},
			{ItemID: "es-teh", Name: "Es Teh", UnitPrice: 300, Qty: 1, LineTotal: 300},
		},
	}
}

func TestHandleReceipt(t *testing.T) {
	handler := ReceiptHandler{
		Orders: stubOrders{orders: map[string]order.Order{"order-1": sampleOrder()}},
		Logger: zerolog.Nop(),
	}

	task, err := NewReceiptTask("order-1")
	require.NoError(t, err)
	require.NoError(t, handler.HandleReceipt(context.Background(), task))
}

func TestHandleReceiptMissingOrder(t *testing.T) {
	handler := ReceiptHandler{
		Orders: stubOrders{orders: map[string]order.Order{}},
		Logger: zerolog.Nop(),
	}

	task, err := NewReceiptTask("missing")
	require.NoError(t, err)
	require.Error(t, handler.HandleReceipt(context.Background(), task))
}

func TestHandleReceiptBadPayloadSkipsRetry(t *testing.T) {
	handler := ReceiptHandler{Orders: stubOrders{}, Logger: zerolog.Nop()}
	task := asynq.NewTask(TypeReceiptPrint, []byte("{broken"))
	err := handler.HandleReceipt(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRenderReceiptContainsTotals(t *testing.T) {
	text := RenderReceipt(sampleOrder())
	require.Contains(t, text, "Nasi Goreng")
	require.Contains(t, text, "1339 IDR")
	require.Contains(t, text, "discount")
}

type stubWarmer struct{ days []string }

func (s *stubWarmer) WarmDaily(_ context.Context, day string) error {
	s.days = append(s.days, day)
	return nil
}

func TestHandleReportWarm(t *testing.T) {
	warmer := &stubWarmer{}
	handler := ReportWarmHandler{Reports: warmer, Logger: zerolog.Nop()}

	task, err := NewReportWarmTask("2025-12-31")
	require.NoError(t, err)
	require.NoError(t, handler.HandleReportWarm(context.Background(), task))
	require.Equal(t, []string{"2025-12-31"}, warmer.days)
}
