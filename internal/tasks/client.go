package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Client enqueues background tasks through asynq.
type Client struct {
	Inner *asynq.Client
}

// EnqueueReceipt schedules receipt production for a submitted order.
func (c Client) EnqueueReceipt(ctx context.Context, orderID string) error {
	if c.Inner == nil {
		return errors.New("tasks: client not configured")
	}
	task, err := NewReceiptTask(orderID)
	if err != nil {
		return err
	}
	if _, err := c.Inner.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue receipt: %w", err)
	}
	return nil
}

// EnqueueReportWarm schedules report cache warming for a day.
func (c Client) EnqueueReportWarm(ctx context.Context, day string) error {
	if c.Inner == nil {
		return errors.New("tasks: client not configured")
	}
	task, err := NewReportWarmTask(day)
	if err != nil {
		return err
	}
	if _, err := c.Inner.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue report warm: %w", err)
	}
	return nil
}
