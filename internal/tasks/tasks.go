package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names routed through the worker.
const (
	TypeReceiptPrint = "receipt:print"
	TypeReportWarm   = "report:warm"
)

// Queue names. Receipts are latency sensitive, report warming is not.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// ReceiptPayload identifies the order whose receipt should be produced.
type ReceiptPayload struct {
	OrderID string `json:"order_id"`
}

// ReportWarmPayload identifies the day whose report cache should be warmed.
type ReportWarmPayload struct {
	Day string `json:"day"`
}

// NewReceiptTask builds the receipt task for an order.
func NewReceiptTask(orderID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReceiptPayload{OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("marshal receipt payload: %w", err)
	}
	return asynq.NewTask(TypeReceiptPrint, payload, asynq.Queue(QueueCritical), asynq.MaxRetry(5)), nil
}

// NewReportWarmTask builds the report warm-up task for a day (YYYY-MM-DD).
func NewReportWarmTask(day string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReportWarmPayload{Day: day})
	if err != nil {
		return nil, fmt.Errorf("marshal report warm payload: %w", err)
	}
	return asynq.NewTask(TypeReportWarm, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
