package auth

import (
	"context"
	"sync"

	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"gorm.io/gorm"
)

// Registry maps strategy names to active strategy instances. Entries are
// replaced wholesale, so an authentication attempt in flight keeps the
// instance it already resolved and never observes a half-configured one.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy

	db     *gorm.DB
	events EventSink
}

func NewRegistry(db *gorm.DB, events EventSink) *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		db:         db,
		events:     events,
	}
}

func (r *Registry) Register(name string, strategy Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = strategy
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.strategies, name)
}

func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	strategy, ok := r.strategies[name]
	return strategy, ok
}

func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Authenticate tries the named strategies in order and returns the first
// principal. When every name fails the last failure is returned;
// ErrStrategyNotConfigured when no name was registered at all.
func (r *Registry) Authenticate(ctx context.Context, names []string, creds Credentials) (*models.User, error) {
	err := ErrStrategyNotConfigured
	for _, name := range names {
		strategy, ok := r.Get(name)
		if !ok {
			continue
		}
		var user *models.User
		user, err = strategy.Authenticate(ctx, creds)
		if err == nil {
			return user, nil
		}
	}
	return nil, err
}

// Reconfigure re-derives the jwt, token and google strategies from the
// given settings. The local strategy is stateless and registered once at
// boot, outside this path. Called at startup and again whenever an admin
// saves new federated-login settings, so subsequent attempts pick up the
// new configuration without a restart.
func (r *Registry) Reconfigure(settings *models.Settings) {
	r.Register(StrategyJWT, NewJWTStrategy(r.db, NewTokenService(settings.JWTSecret)))
	r.Register(StrategyToken, NewAPITokenStrategy(r.db))

	if settings.Google.IsConfigured() {
		r.Register(StrategyGoogle, NewGoogleStrategy(r.db, settings.Google, r.events))
		logger.Info("google_strategy_registered", map[string]interface{}{
			"client_id": settings.Google.ClientID,
		})
	} else {
		r.Unregister(StrategyGoogle)
	}
}
