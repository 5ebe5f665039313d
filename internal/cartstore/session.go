package cartstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"go.uber.org/multierr"
)

var errNotLoaded = errors.New("stored cart has not been read yet")

// SessionStore mirrors every write into an in-process overlay. When the primary
// store fails, the overlay keeps serving the affected tenant until a later write
// or Sync reaches the primary again.
//
// A tenant whose stored cart could not be read at all is detached: its writes
// stay in the overlay and never reach the primary until a successful read has
// merged the session lines into the stored ones.
//
// Get and Put return a StorageUnavailable error alongside a usable result when
// the primary fails; callers treat it as a notice, not a failure.
type SessionStore struct {
	primary Store
	overlay *MemoryStore
	logg    *logger.Logger
	metrics *metrics.CartMetrics

	mu      sync.Mutex
	tenants map[string]*tenantState
	pending map[string]struct{}
}

// tenantState is guarded by its own mutex, held across the overlay and
// primary I/O of one operation.
type tenantState struct {
	mu       sync.Mutex
	loaded   bool
	dirty    bool
	detached bool
}

// SessionOption customises a SessionStore.
type SessionOption func(*SessionStore)

func WithLogger(logg *logger.Logger) SessionOption {
	return func(s *SessionStore) {
		if logg != nil {
			s.logg = logg
		}
	}
}

func WithMetrics(m *metrics.CartMetrics) SessionOption {
	return func(s *SessionStore) {
		s.metrics = m
	}
}

// NewSessionStore wraps primary with a session overlay.
func NewSessionStore(primary Store, opts ...SessionOption) (*SessionStore, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary store required")
	}
	s := &SessionStore{
		primary: primary,
		overlay: NewMemoryStore(),
		logg:    logger.Nop(),
		tenants: map[string]*tenantState{},
		pending: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get implements Store.
func (s *SessionStore) Get(ctx context.Context, tenantID string) ([]lineitem.LineIntent, error) {
	st := s.state(tenantID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.dirty {
		lines, _ := s.overlay.lookup(tenantID)
		return lines, nil
	}

	lines, err := s.primary.Get(ctx, tenantID)
	if err != nil {
		s.metrics.IncStorageFallback("get")
		s.logg.Warn(s.logg.WithTenant(ctx, tenantID), fmt.Sprintf("cart store read failed, serving session copy: %v", err))
		if !st.loaded && !st.detached {
			st.detached = true
			s.markPending(tenantID)
		}
		fallback, _ := s.overlay.lookup(tenantID)
		return fallback, storageUnavailable(err)
	}

	if st.detached {
		return s.reattach(ctx, tenantID, st, lines)
	}
	_ = s.overlay.Put(ctx, tenantID, lines)
	st.loaded = true
	return lines, nil
}

// Put implements Store.
func (s *SessionStore) Put(ctx context.Context, tenantID string, lines []lineitem.LineIntent) error {
	st := s.state(tenantID)
	st.mu.Lock()
	defer st.mu.Unlock()

	_ = s.overlay.Put(ctx, tenantID, lines)

	if st.detached {
		s.metrics.IncStorageFallback("put")
		return storageUnavailable(errNotLoaded)
	}

	if err := s.primary.Put(ctx, tenantID, lines); err != nil {
		st.dirty = true
		s.markPending(tenantID)
		s.metrics.IncStorageFallback("put")
		s.logg.Warn(s.logg.WithTenant(ctx, tenantID), fmt.Sprintf("cart store write failed, keeping session copy: %v", err))
		return storageUnavailable(err)
	}

	st.dirty = false
	st.loaded = true
	s.clearPending(tenantID)
	return nil
}

// Sync retries the primary for every tenant served from the overlay: dirty
// tenants are written back, detached tenants are read and merged.
func (s *SessionStore) Sync(ctx context.Context) error {
	var errs error
	for _, tenantID := range s.pendingTenants() {
		if err := s.syncTenant(ctx, tenantID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sync cart %s: %w", tenantID, err))
		}
	}
	return errs
}

func (s *SessionStore) syncTenant(ctx context.Context, tenantID string) error {
	st := s.state(tenantID)
	st.mu.Lock()
	defer st.mu.Unlock()

	switch {
	case st.detached:
		persisted, err := s.primary.Get(ctx, tenantID)
		if err != nil {
			return err
		}
		_, err = s.reattach(ctx, tenantID, st, persisted)
		return err
	case st.dirty:
		lines, _ := s.overlay.lookup(tenantID)
		if err := s.primary.Put(ctx, tenantID, lines); err != nil {
			return err
		}
		st.dirty = false
	}
	s.clearPending(tenantID)
	return nil
}

// reattach merges the lines added during the outage into the stored cart and
// writes the result back. Caller holds st.mu.
func (s *SessionStore) reattach(ctx context.Context, tenantID string, st *tenantState, persisted []lineitem.LineIntent) ([]lineitem.LineIntent, error) {
	session, _ := s.overlay.lookup(tenantID)
	merged := lineitem.Clone(persisted)
	for _, line := range session {
		merged = lineitem.Merge(merged, line)
	}
	_ = s.overlay.Put(ctx, tenantID, merged)
	st.detached = false
	st.loaded = true

	if err := s.primary.Put(ctx, tenantID, merged); err != nil {
		st.dirty = true
		s.metrics.IncStorageFallback("put")
		s.logg.Warn(s.logg.WithTenant(ctx, tenantID), fmt.Sprintf("cart store write failed after recovery, keeping session copy: %v", err))
		return merged, storageUnavailable(err)
	}

	st.dirty = false
	s.clearPending(tenantID)
	if len(session) > 0 {
		s.logg.Info(s.logg.WithField(s.logg.WithTenant(ctx, tenantID), "session_lines", len(session)), "merged session cart into stored cart")
	}
	return merged, nil
}

func (s *SessionStore) state(tenantID string) *tenantState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.tenants[tenantID]
	if !ok {
		st = &tenantState{}
		s.tenants[tenantID] = st
	}
	return st
}

func (s *SessionStore) markPending(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[tenantID] = struct{}{}
}

func (s *SessionStore) clearPending(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, tenantID)
}

func (s *SessionStore) pendingTenants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.pending))
	for tenantID := range s.pending {
		out = append(out, tenantID)
	}
	return out
}

func storageUnavailable(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeStorageUnavailable, err, "cart storage unavailable; changes kept for this session only")
}
