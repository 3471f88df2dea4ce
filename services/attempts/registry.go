// Package attempts keeps the login attempts mounted by live page visits. An
// attempt lives in process memory only and dies with its visit.
package attempts

import (
	"context"
	"sync"
	"time"

	"travis/services/authflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Factory builds the controller for a new attempt, wired to its hand-off.
type Factory func(nav authflow.Navigator) *authflow.Controller

// Handoff records the navigation command issued by a controller so the web
// layer can turn it into a redirect.
type Handoff struct {
	mu   sync.Mutex
	path string
	set  bool
}

// Navigate implements authflow.Navigator.
func (h *Handoff) Navigate(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.path = path
	h.set = true
}

// Take returns the pending destination once.
func (h *Handoff) Take() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.set {
		return "", false
	}
	h.set = false
	return h.path, true
}

// Attempt is one mounted login view.
type Attempt struct {
	ID         string
	Controller *authflow.Controller
	Handoff    *Handoff

	mu       sync.Mutex
	lastSeen time.Time
}

func (a *Attempt) touch(now time.Time) {
	a.mu.Lock()
	a.lastSeen = now
	a.mu.Unlock()
}

func (a *Attempt) idleSince() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSeen
}

// Registry maps attempt ids to attempts.
type Registry struct {
	factory Factory
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*Attempt
}

// NewRegistry returns an empty registry. Attempts idle for longer than ttl
// are closed by Sweep.
func NewRegistry(factory Factory, ttl time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		items:   make(map[string]*Attempt),
	}
}

// Mount creates a fresh attempt in the Idle phase.
func (r *Registry) Mount() *Attempt {
	handoff := &Handoff{}
	a := &Attempt{
		ID:         uuid.New().String(),
		Controller: r.factory(handoff),
		Handoff:    handoff,
		lastSeen:   r.now(),
	}
	r.mu.Lock()
	r.items[a.ID] = a
	r.mu.Unlock()
	r.logger.Debug("login attempt mounted", zap.String("attemptID", a.ID))
	return a
}

// Get returns a live attempt and marks it as seen.
func (r *Registry) Get(id string) (*Attempt, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	a, ok := r.items[id]
	r.mu.Unlock()
	if !ok || a.Controller.Closed() {
		return nil, false
	}
	a.touch(r.now())
	return a, true
}

// Discard closes and forgets an attempt. Unknown ids are ignored.
func (r *Registry) Discard(id string) {
	r.mu.Lock()
	a, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()
	if ok {
		a.Controller.Close()
		r.logger.Debug("login attempt discarded", zap.String("attemptID", id))
	}
}

// Len reports the number of tracked attempts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep closes attempts idle since before now-ttl and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.ttl)
	var expired []*Attempt
	r.mu.Lock()
	for id, a := range r.items {
		if a.idleSince().Before(cutoff) {
			expired = append(expired, a)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()
	for _, a := range expired {
		a.Controller.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("expired login attempts swept", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			r.Sweep(t)
		}
	}
}
