package usecase

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerycalc/backend/internal/domain"
)

// CatalogProvider supplies the catalog a session resolves scans against
type CatalogProvider interface {
	Current() []domain.Product
}

// CartView is a point-in-time copy of a session's cart
type CartView struct {
	Lines       []domain.CartLineItem
	MasterTotal decimal.Decimal
}

// Session is one scanning session: it owns a cart and serialises every
// operation on it.
type Session struct {
	ID        string
	CreatedAt time.Time

	catalog  CatalogProvider
	metrics  domain.MetricsRecorder
	mu       sync.Mutex
	cart     *Cart
	lastSeen time.Time
}

func newSession(id string, catalog CatalogProvider, metrics domain.MetricsRecorder, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		catalog:   catalog,
		metrics:   metrics,
		cart:      NewCart(),
		lastSeen:  now,
	}
}

// Scan resolves a code without touching the cart
func (s *Session) Scan(code string) ResolveResult {
	result := Resolve(code, s.catalog.Current())
	s.metrics.ObserveScan(result.Outcome)
	return result
}

// ConfirmCode resolves code and, when found, confirms the product into the cart
func (s *Session) ConfirmCode(code string) (ResolveResult, CartView) {
	result := s.Scan(code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if result.Found() {
		s.cart.Confirm(*result.Product)
		s.metrics.ObserveCartOperation("confirm")
	}
	return result, s.viewLocked()
}

// Confirm adds an already-resolved product to the cart
func (s *Session) Confirm(product domain.Product) CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Confirm(product)
	s.metrics.ObserveCartOperation("confirm")
	return s.viewLocked()
}

// Increment bumps the quantity of the named line
func (s *Session) Increment(name string) (CartView, error) {
	return s.apply("increment", name, s.cart.Increment)
}

// Decrement lowers the quantity of the named line, floored at 1
func (s *Session) Decrement(name string) (CartView, error) {
	return s.apply("decrement", name, s.cart.Decrement)
}

// Remove drops the named line
func (s *Session) Remove(name string) (CartView, error) {
	return s.apply("remove", name, s.cart.Remove)
}

// View returns the current cart
func (s *Session) View() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) apply(op, name string, fn func(string) error) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(name); err != nil {
		return s.viewLocked(), err
	}
	s.metrics.ObserveCartOperation(op)
	return s.viewLocked(), nil
}

func (s *Session) viewLocked() CartView {
	return CartView{
		Lines:       s.cart.Lines(),
		MasterTotal: s.cart.MasterTotal(),
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionRegistry tracks live sessions by id. Sessions idle longer than the
// configured TTL are dropped by Sweep.
type SessionRegistry struct {
	catalog CatalogProvider
	metrics domain.MetricsRecorder
	idleTTL time.Duration
	now     func() time.Time

	mutex    sync.RWMutex
	sessions map[string]*Session
}

// NewSessionRegistry creates a registry. A zero idleTTL defaults to 12 hours.
func NewSessionRegistry(catalog CatalogProvider, metrics domain.MetricsRecorder, idleTTL time.Duration) *SessionRegistry {
	if idleTTL == 0 {
		idleTTL = 12 * time.Hour
	}
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	return &SessionRegistry{
		catalog:  catalog,
		metrics:  metrics,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with an empty cart
func (r *SessionRegistry) Create() *Session {
	session := newSession(uuid.NewString(), r.catalog, r.metrics, r.now())

	r.mutex.Lock()
	r.sessions[session.ID] = session
	r.mutex.Unlock()

	log.Printf("[Session] Started %s", session.ID)
	return session
}

// Get returns a live session and marks it as used
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mutex.RLock()
	session, ok := r.sessions[id]
	r.mutex.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session.touch(r.now())
	return session, nil
}

// End discards a session and its cart
func (r *SessionRegistry) End(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, id)
	log.Printf("[Session] Ended %s", id)
	return nil
}

// Sweep removes sessions idle for longer than the TTL and returns how many were dropped
func (r *SessionRegistry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	removed := 0
	for id, session := range r.sessions {
		if session.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[Session] Swept %d idle sessions", removed)
	}
	return removed
}

// RunJanitor sweeps idle sessions on every tick until stop is closed
func (r *SessionRegistry) RunJanitor(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-stop:
			return
		}
	}
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.sessions)
}
