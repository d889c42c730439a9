package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kasirhub/backend-pos/internal/common"
)

// DailySales summarises one day of register activity.
type DailySales struct {
	Day      string `json:"day"`
	Orders   int64  `json:"orders"`
	Voided   int64  `json:"voided"`
	Revenue  int64  `json:"revenue"`
	Discount int64  `json:"discount"`
	Charge   int64  `json:"charge"`
	Tax      int64  `json:"tax"`
}

// TopItem is one row of the best-seller ranking.
type TopItem struct {
	ItemID  string `json:"item_id"`
	Name    string `json:"name"`
	QtySold int64  `json:"qty_sold"`
	Revenue int64  `json:"revenue"`
}

// Querier defines the database access required for report operations.
type Querier interface {
	DailySales(ctx context.Context, day string) (DailySales, error)
	TopItems(ctx context.Context, day string, limit int) ([]TopItem, error)
}

// Service provides cached access to sales reports.
type Service struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
	Now func() time.Time
}

// Daily returns the sales summary for a day (YYYY-MM-DD; empty means today).
func (s *Service) Daily(ctx context.Context, day string) (DailySales, error) {
	if s == nil || s.Q == nil {
		return DailySales{}, fmt.Errorf("report service not configured")
	}
	day, err := s.normalizeDay(day)
	if err != nil {
		return DailySales{}, err
	}
	key := cacheKey("rpt", "daily", day)
	var cached DailySales
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	summary, err := s.Q.DailySales(ctx, day)
	if err != nil {
		return DailySales{}, err
	}
	s.store(ctx, key, summary)
	return summary, nil
}

// TopItems returns the best sellers for a day ordered by quantity sold.
func (s *Service) TopItems(ctx context.Context, day string, limit int) ([]TopItem, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	day, err := s.normalizeDay(day)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	key := cacheKey("rpt", "top", day, limit)
	var cached []TopItem
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopItems(ctx, day, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// WarmDaily precomputes the caches for a day. Used by the background worker.
func (s *Service) WarmDaily(ctx context.Context, day string) error {
	if _, err := s.Daily(ctx, day); err != nil {
		return err
	}
	_, err := s.TopItems(ctx, day, 10)
	return err
}

func (s *Service) normalizeDay(day string) (string, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		return s.now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", common.NewAppError("BAD_REQUEST", "day must be formatted YYYY-MM-DD", http.StatusBadRequest, err)
	}
	return day, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

func (s *Service) getCached(ctx context.Context, key string, out any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
