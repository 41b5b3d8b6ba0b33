package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/metrics"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/service"
)

// session is one browser session and the orchestrator that serves it.
type session struct {
	orch     *service.SearchOrchestrator
	filter   model.FilterKind
	lastUsed time.Time
}

// Registry holds one orchestrator per browser session. Sessions idle for
// longer than ttl are closed the next time the registry is touched.
type Registry struct {
	gw            gateway.FetchGateway
	opts          []service.Option
	defaultFilter model.FilterKind
	ttl           time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates an empty registry. Every orchestrator it creates is
// built over gw with opts.
func NewRegistry(gw gateway.FetchGateway, defaultFilter model.FilterKind, ttl time.Duration, opts ...service.Option) *Registry {
	return &Registry{
		gw:            gw,
		opts:          opts,
		defaultFilter: defaultFilter,
		ttl:           ttl,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// Acquire returns the session for id, creating a new one when id is empty
// or unknown. The returned id is the one the client must use from now on.
func (r *Registry) Acquire(id string) (string, *session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()
	if s, ok := r.sessions[id]; ok && id != "" {
		s.lastUsed = r.now()
		return id, s
	}

	id = uuid.NewString()
	opts := append([]service.Option{service.WithSessionID(id)}, r.opts...)
	s := &session{
		orch:     service.New(r.gw, opts...),
		filter:   r.defaultFilter,
		lastUsed: r.now(),
	}
	r.sessions[id] = s
	metrics.Sessions.Inc()
	log.Debug("session opened", "session", id)
	return id, s
}

// SelectFilter records the filter chosen in a session.
func (r *Registry) SelectFilter(s *session, filter model.FilterKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.filter = filter
}

// Filter returns the filter last chosen in a session.
func (r *Registry) Filter(s *session) model.FilterKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return s.filter
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) pruneLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.lastUsed.Before(cutoff) {
			s.orch.Close()
			delete(r.sessions, id)
			metrics.Sessions.Dec()
			log.Debug("session expired", "session", id)
		}
	}
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.orch.Close()
		delete(r.sessions, id)
		metrics.Sessions.Dec()
	}
}
