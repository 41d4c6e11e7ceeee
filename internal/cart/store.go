package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/minishop/backend-minishop/internal/obs"
	"github.com/minishop/backend-minishop/internal/storage"
)

const defaultPersistTimeout = 3 * time.Second

// Store holds one user's cart. It is the authoritative copy; the persistence
// port only mirrors it. All mutations are synchronous under a single lock,
// so derived totals are never stale. Persistence happens after the lock is
// released and never fails a mutation.
type Store struct {
	userID         int64
	key            string
	port           storage.Port
	signals        Signaler
	logger         zerolog.Logger
	persistTimeout time.Duration

	mu    sync.Mutex
	lines []Line

	checkingOut atomic.Bool
	persists    sync.WaitGroup
}

// StoreConfig carries the store dependencies. Port may be nil; the store then
// lives purely in memory.
type StoreConfig struct {
	UserID         int64
	Key            string
	Port           storage.Port
	Signals        Signaler
	Logger         zerolog.Logger
	PersistTimeout time.Duration
}

// NewStore builds a store and rehydrates it from the port exactly once. A
// missing or corrupt snapshot yields an empty cart, never an error.
func NewStore(ctx context.Context, cfg StoreConfig) *Store {
	s := &Store{
		userID:         cfg.UserID,
		key:            cfg.Key,
		port:           cfg.Port,
		signals:        cfg.Signals,
		logger:         cfg.Logger,
		persistTimeout: cfg.PersistTimeout,
	}
	if s.signals == nil {
		s.signals = NopSignaler{}
	}
	if s.persistTimeout <= 0 {
		s.persistTimeout = defaultPersistTimeout
	}
	s.rehydrate(ctx)
	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	if s.port == nil {
		return
	}
	data, err := s.port.Load(ctx, s.key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("cart rehydration failed, starting empty")
		return
	}
	if data == nil {
		return
	}
	lines, err := DecodeLines(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("stored cart unreadable, starting empty")
		return
	}
	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
}

// AddItem adds one unit of p, merging into an existing line when the product
// is already present. Quantities clamp at MaxQty.
func (s *Store) AddItem(p Product) {
	s.mu.Lock()
	if i, ok := s.indexOf(p.ID); ok {
		if s.lines[i].Quantity < MaxQty {
			s.lines[i].Quantity++
		}
	} else {
		s.lines = append(s.lines, Line{Product: p, Quantity: 1})
	}
	snapshot := s.copyLinesLocked()
	s.mu.Unlock()

	obs.ObserveCartMutation("add")
	s.signals.Emit(s.userID, SignalImpactLight)
	s.persistAsync(snapshot)
}

// RemoveItem drops the line for productID. Removing an absent product is a
// no-op apart from the feedback cue.
func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	if i, ok := s.indexOf(productID); ok {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	snapshot := s.copyLinesLocked()
	s.mu.Unlock()

	obs.ObserveCartMutation("remove")
	s.signals.Emit(s.userID, SignalImpactMedium)
	s.persistAsync(snapshot)
}

// UpdateQuantity sets the quantity for productID, clamped to [1, MaxQty].
// A non-positive quantity removes the line instead.
func (s *Store) UpdateQuantity(productID string, qty int) {
	if qty <= 0 {
		s.RemoveItem(productID)
		return
	}
	if qty > MaxQty {
		qty = MaxQty
	}
	s.mu.Lock()
	if i, ok := s.indexOf(productID); ok {
		s.lines[i].Quantity = qty
	}
	snapshot := s.copyLinesLocked()
	s.mu.Unlock()

	obs.ObserveCartMutation("update")
	s.persistAsync(snapshot)
}

// Clear empties the cart unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	snapshot := s.copyLinesLocked()
	s.mu.Unlock()

	obs.ObserveCartMutation("clear")
	s.signals.Emit(s.userID, SignalNotifySuccess)
	s.persistAsync(snapshot)
}

// RemoveSubmitted subtracts the quantities of a submitted snapshot from the
// live cart. Lines added or grown after the snapshot was taken keep their
// remainder; everything covered by the snapshot disappears.
func (s *Store) RemoveSubmitted(snap Snapshot) {
	submitted := make(map[string]int, len(snap.Lines))
	for _, l := range snap.Lines {
		submitted[l.Product.ID] += l.Quantity
	}

	s.mu.Lock()
	kept := s.lines[:0]
	for _, l := range s.lines {
		l.Quantity -= submitted[l.Product.ID]
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	snapshot := s.copyLinesLocked()
	s.mu.Unlock()

	obs.ObserveCartMutation("clear_submitted")
	s.signals.Emit(s.userID, SignalNotifySuccess)
	s.persistAsync(snapshot)
}

// Snapshot returns an immutable copy of the current contents with totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.copyLinesLocked()
	return Snapshot{
		Lines:      lines,
		TotalItems: totalItems(lines),
		TotalPrice: totalPrice(lines),
	}
}

// Lines returns a copy of the cart lines.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLinesLocked()
}

// TotalItems is the sum of all line quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.lines)
}

// TotalPrice is the sum of all line subtotals.
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.lines)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// HasItem reports whether productID is in the cart.
func (s *Store) HasItem(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.indexOf(productID)
	return ok
}

// Item returns the line for productID and whether it exists.
func (s *Store) Item(productID string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.indexOf(productID); ok {
		return s.lines[i], true
	}
	return Line{}, false
}

// Quantity returns the quantity for productID, zero when absent.
func (s *Store) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.indexOf(productID); ok {
		return s.lines[i].Quantity
	}
	return 0
}

// BeginCheckout claims the single checkout slot. It returns false when a
// checkout is already in flight.
func (s *Store) BeginCheckout() bool {
	return s.checkingOut.CompareAndSwap(false, true)
}

// EndCheckout releases the checkout slot.
func (s *Store) EndCheckout() {
	s.checkingOut.Store(false)
}

// Flush blocks until every in-flight persist has finished. Used on shutdown
// and eviction so the mirror is as fresh as the last mutation.
func (s *Store) Flush() {
	s.persists.Wait()
}

func (s *Store) indexOf(productID string) (int, bool) {
	for i, l := range s.lines {
		if l.Product.ID == productID {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) copyLinesLocked() []Line {
	return append([]Line(nil), s.lines...)
}

func (s *Store) persistAsync(lines []Line) {
	if s.port == nil {
		return
	}
	data, err := EncodeLines(lines)
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("cart encode failed")
		return
	}
	s.persists.Add(1)
	go func() {
		defer s.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		if err := s.port.Save(ctx, s.key, data); err != nil {
			s.logger.Warn().Err(err).Str("key", s.key).Msg("cart persist failed")
		}
	}()
}
