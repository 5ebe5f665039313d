package checkout

import (
	"sync"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

type surfaceKey struct {
	tenantID  string
	surfaceID string
}

// Registry holds the live checkout surfaces keyed by tenant and surface id.
type Registry struct {
	mu       sync.Mutex
	surfaces map[surfaceKey]*Surface
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{surfaces: map[surfaceKey]*Surface{}, now: time.Now}
}

// Get returns an existing surface.
func (r *Registry) Get(tenantID, surfaceID string) (*Surface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surfaces[surfaceKey{tenantID, surfaceID}]
	return s, ok
}

// Open returns the surface, creating it in Idle when missing. A closed surface
// is replaced with a fresh one.
func (r *Registry) Open(tenantID, surfaceID string) *Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := surfaceKey{tenantID, surfaceID}
	if s, ok := r.surfaces[key]; ok && s.State() != enums.SurfaceStateClosed {
		return s
	}
	s := newSurface(tenantID, surfaceID, r.now)
	r.surfaces[key] = s
	return s
}

// Abandon closes and forgets one surface, cancelling its in-flight quote.
func (r *Registry) Abandon(tenantID, surfaceID string) bool {
	r.mu.Lock()
	key := surfaceKey{tenantID, surfaceID}
	s, ok := r.surfaces[key]
	delete(r.surfaces, key)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// AbandonTenant closes every surface of a tenant and returns how many were closed.
func (r *Registry) AbandonTenant(tenantID string) int {
	r.mu.Lock()
	var closing []*Surface
	for key, s := range r.surfaces {
		if key.tenantID == tenantID {
			closing = append(closing, s)
			delete(r.surfaces, key)
		}
	}
	r.mu.Unlock()

	for _, s := range closing {
		s.Close()
	}
	return len(closing)
}

// Sweep drops surfaces untouched for longer than maxIdle.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*Surface
	for key, s := range r.surfaces {
		if s.lastUpdated().Before(cutoff) {
			stale = append(stale, s)
			delete(r.surfaces, key)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// Len reports the number of tracked surfaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.surfaces)
}
