package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kasirhub/backend-pos/internal/billing"
)

// ErrNotFound indicates the requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Item represents a purchasable menu item. Items are immutable once loaded;
// carts reference them by id and never carry their own copy of the price.
type Item struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Category  string        `json:"category"`
	UnitPrice billing.Money `json:"unitPrice"`
}

// Querier defines the database access required by the catalog service.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service loads menu items from Postgres with a Redis read-through cache.
type Service struct {
	DB    Querier
	Cache *Cache
}

const menuCacheKey = "catalog:menu"

const listItemsSQL = `
SELECT id, name, category, unit_price
FROM menu_items
WHERE active
ORDER BY category, name`

// ListItems returns every active menu item.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("catalog service not configured")
	}
	var cached []Item
	if ok, err := s.Cache.GetJSON(ctx, menuCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.DB.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Item, 0, 32)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, menuCacheKey, items)
	return items, nil
}

// GetItem looks up a single menu item by id.
func (s *Service) GetItem(ctx context.Context, id string) (Item, error) {
	if s == nil || s.DB == nil {
		return Item{}, errors.New("catalog service not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Item{}, ErrNotFound
	}
	var it Item
	err := s.DB.QueryRow(ctx,
		`SELECT id, name, category, unit_price FROM menu_items WHERE id = $1 AND active`, id).
		Scan(&it.ID, &it.Name, &it.Category, &it.UnitPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return it, nil
}

// Snapshot returns an immutable view of the menu for cart validation and
// price lookup. It is safe for concurrent readers.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(items), nil
}

// Snapshot is a point-in-time menu view keyed by item id.
type Snapshot struct {
	items []Item
	byID  map[string]Item
}

// NewSnapshot builds a snapshot over the provided items.
func NewSnapshot(items []Item) *Snapshot {
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	copied := make([]Item, len(items))
	copy(copied, items)
	return &Snapshot{items: copied, byID: byID}
}

// Lookup resolves an item by id.
func (s *Snapshot) Lookup(id string) (Item, bool) {
	if s == nil {
		return Item{}, false
	}
	it, ok := s.byID[id]
	return it, ok
}

// Items returns the snapshot contents in listing order.
func (s *Snapshot) Items() []Item {
	if s == nil {
		return nil
	}
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// CacheTTLOrDefault normalises the configured menu cache TTL.
func CacheTTLOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 5 * time.Minute
	}
	return ttl
}
