package dashboard

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/stockcast/pkg/application/services/forecast"
	"github.com/vsinha/stockcast/pkg/domain/repositories"
	"github.com/vsinha/stockcast/pkg/infrastructure/repositories/memory"
)

// RepositoryFactory builds the storage backing one new session
type RepositoryFactory func() (repositories.InventoryRepository, repositories.ForecastRepository)

// MemoryRepositories is the default RepositoryFactory
func MemoryRepositories() (repositories.InventoryRepository, repositories.ForecastRepository) {
	return memory.NewInventoryRepository(0), memory.NewForecastRepository()
}

// Registry tracks live sessions by id
type Registry struct {
	config  SessionConfig
	service *forecast.ForecastService
	newRepo RepositoryFactory
	ttl     time.Duration
	logger  *log.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry. A zero ttl disables idle expiry.
func NewRegistry(config SessionConfig, service *forecast.ForecastService, ttl time.Duration) *Registry {
	return &Registry{
		config:   config,
		service:  service,
		newRepo:  MemoryRepositories,
		ttl:      ttl,
		logger:   log.Default(),
		sessions: make(map[string]*Session),
	}
}

// WithRepositoryFactory replaces the per-session storage factory
func (r *Registry) WithRepositoryFactory(factory RepositoryFactory) *Registry {
	r.newRepo = factory
	return r
}

// WithLogger replaces the registry logger
func (r *Registry) WithLogger(logger *log.Logger) *Registry {
	r.logger = logger
	return r
}

// Create starts a new session
func (r *Registry) Create() *Session {
	inventory, forecasts := r.newRepo()
	session := NewSession(uuid.NewString(), r.config, r.service, inventory, forecasts)

	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()

	r.logger.Printf("[INFO] session %s created", session.ID())
	return session
}

// Get returns a live session
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	session, exists := r.sessions[id]
	r.mu.RUnlock()
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete closes and removes a session
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	session, exists := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !exists {
		return ErrSessionNotFound
	}

	r.logger.Printf("[INFO] session %s deleted", id)
	return session.Close()
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ExpireIdle closes sessions unused since now-ttl and returns how many were removed
func (r *Registry) ExpireIdle(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.LastAccess().Before(cutoff) {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		if err := session.Close(); err != nil {
			r.logger.Printf("[WARN] closing expired session %s: %v", session.ID(), err)
		}
	}
	if len(expired) > 0 {
		r.logger.Printf("[INFO] expired %d idle sessions", len(expired))
	}
	return len(expired)
}

// Run expires idle sessions every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if r.ttl <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			r.ExpireIdle(now)
		}
	}
}

// CloseAll closes every session
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, session := range sessions {
		_ = session.Close()
	}
}
