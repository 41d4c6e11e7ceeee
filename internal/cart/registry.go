package cart

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minishop/backend-minishop/internal/storage"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultEvictInterval = 5 * time.Minute
)

// Registry hands out one Store per user, rehydrating it on first access and
// evicting it after a period of inactivity. Eviction flushes pending persists
// first, so a returning user always sees their last cart.
type Registry struct {
	port           storage.Port
	signals        Signaler
	logger         zerolog.Logger
	keyPrefix      string
	idleTTL        time.Duration
	persistTimeout time.Duration

	mu      sync.Mutex
	entries map[int64]*registryEntry
}

type registryEntry struct {
	once     sync.Once
	store    *Store
	lastSeen time.Time
}

// RegistryConfig carries the registry dependencies.
type RegistryConfig struct {
	Port           storage.Port
	Signals        Signaler
	Logger         zerolog.Logger
	KeyPrefix      string
	IdleTTL        time.Duration
	PersistTimeout time.Duration
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{
		port:           cfg.Port,
		signals:        cfg.Signals,
		logger:         cfg.Logger,
		keyPrefix:      cfg.KeyPrefix,
		idleTTL:        cfg.IdleTTL,
		persistTimeout: cfg.PersistTimeout,
		entries:        make(map[int64]*registryEntry),
	}
	if r.keyPrefix == "" {
		r.keyPrefix = "cart:"
	}
	if r.idleTTL <= 0 {
		r.idleTTL = defaultIdleTTL
	}
	return r
}

// Get returns the store for userID, creating and rehydrating it on first
// access. Rehydration runs outside the registry lock so a slow backend does
// not stall other users.
func (r *Registry) Get(ctx context.Context, userID int64) *Store {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = &registryEntry{}
		r.entries[userID] = e
	}
	e.lastSeen = time.Now()
	r.mu.Unlock()

	e.once.Do(func() {
		e.store = NewStore(ctx, StoreConfig{
			UserID:         userID,
			Key:            r.Key(userID),
			Port:           r.port,
			Signals:        r.signals,
			Logger:         r.logger,
			PersistTimeout: r.persistTimeout,
		})
	})
	return e.store
}

// Key returns the storage key for userID.
func (r *Registry) Key(userID int64) string {
	return r.keyPrefix + strconv.FormatInt(userID, 10)
}

// Evict removes every store idle since before now minus the idle TTL and
// returns how many were dropped.
func (r *Registry) Evict(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var victims []*registryEntry
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			victims = append(victims, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, e := range victims {
		if e.store != nil {
			e.store.Flush()
		}
	}
	return len(victims)
}

// Run evicts idle stores on a timer until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(defaultEvictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Evict(now); n > 0 {
				r.logger.Debug().Int("evicted", n).Msg("idle carts evicted")
			}
		}
	}
}

// Close flushes every live store. Called on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := make([]*registryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		if e.store != nil {
			e.store.Flush()
		}
	}
}
