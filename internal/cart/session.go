package cart

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kasirhub/backend-pos/internal/billing"
)

// ErrSessionNotFound indicates the order session does not exist or expired.
var ErrSessionNotFound = errors.New("order session not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// OrderType classifies how the order will be fulfilled.
type OrderType string

const (
	DineIn   OrderType = "dine_in"
	Pickup   OrderType = "pickup"
	Delivery OrderType = "delivery"
)

// ParseOrderType validates a raw order type value.
func ParseOrderType(raw string) (OrderType, error) {
	switch OrderType(strings.TrimSpace(strings.ToLower(raw))) {
	case DineIn:
		return DineIn, nil
	case Pickup:
		return Pickup, nil
	case Delivery:
		return Delivery, nil
	}
	return "", ErrInvalidInput
}

// Session binds one cart to an order-entry screen. All cart access funnels
// through the session mutex, which is the single serialization point should
// multiple terminals ever share a session.
type Session struct {
	ID        string
	Table     int
	Type      OrderType
	CreatedAt time.Time
	ExpiresAt time.Time

	mu   sync.Mutex
	cart *Cart
}

// AddItem adds one unit of the item to the session cart.
func (s *Session) AddItem(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.AddItem(itemID)
}

// RemoveOne removes a single unit of the item.
func (s *Session) RemoveOne(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.RemoveOne(itemID)
}

// RemoveAll removes the item entirely.
func (s *Session) RemoveAll(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.RemoveAll(itemID)
}

// Clear empties the session cart.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
}

// Entries returns a detached snapshot of the cart.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Entries()
}

// Bill computes the current bill for the session under the provided rates.
func (s *Session) Bill(rates billing.Rates) (billing.Breakdown, error) {
	s.mu.Lock()
	lines := s.cart.Lines()
	s.mu.Unlock()
	return billing.Compute(lines, rates)
}

// Store owns the open order sessions for this process.
type Store struct {
	TTL time.Duration
	Now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore constructs a session store with the given idle TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{TTL: ttl, sessions: make(map[string]*Session)}
}

func (st *Store) now() time.Time {
	if st != nil && st.Now != nil {
		return st.Now()
	}
	return time.Now()
}

func (st *Store) ttl() time.Duration {
	if st == nil || st.TTL <= 0 {
		return 4 * time.Hour
	}
	return st.TTL
}

// Open creates a new session over the provided menu.
func (st *Store) Open(table int, orderType OrderType, menu Lookup) (*Session, error) {
	if st == nil {
		return nil, errors.New("session store not configured")
	}
	if menu == nil {
		return nil, errors.New("menu is required")
	}
	if table < 0 {
		return nil, ErrInvalidInput
	}
	now := st.now()
	s := &Session{
		ID:        uuid.NewString(),
		Table:     table,
		Type:      orderType,
		CreatedAt: now,
		ExpiresAt: now.Add(st.ttl()),
		cart:      New(menu),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s, nil
}

// Get resolves a session by id, refreshing its expiry. Expired sessions are
// dropped and reported as not found.
func (st *Store) Get(id string) (*Session, error) {
	if st == nil {
		return nil, errors.New("session store not configured")
	}
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.ExpiresAt.After(now) {
		delete(st.sessions, id)
		return nil, ErrSessionNotFound
	}
	s.ExpiresAt = now.Add(st.ttl())
	return s, nil
}

// Close ends a session, discarding its cart. No-op when absent.
func (st *Store) Close(id string) {
	if st == nil {
		return
	}
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Count reports the number of currently open sessions.
func (st *Store) Count() int {
	if st == nil {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (st *Store) Sweep() int {
	if st == nil {
		return 0
	}
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	dropped := 0
	for id, s := range st.sessions {
		if !s.ExpiresAt.After(now) {
			delete(st.sessions, id)
			dropped++
		}
	}
	return dropped
}
