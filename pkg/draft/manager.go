package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/fieldwork/internal/logging"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates draft access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.DraftStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock expiry.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a draft Manager over the given store.
func NewManager(store ports.DraftStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and call release(draftID) after unlocking.
func (m *Manager) acquire(draftID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[draftID]
	if !exists {
		entry = &lockEntry{}
		m.locks[draftID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(draftID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[draftID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, draftID)
	}
}

// Load retrieves an existing draft from the store.
func (m *Manager) Load(ctx context.Context, draftID string) (*domain.SurveyDraft, error) {
	var d *domain.SurveyDraft
	err := m.WithLock(ctx, draftID, func(ctx context.Context) error {
		var err error
		d, err = m.store.Load(ctx, draftID)
		return err
	})
	return d, err
}

// LoadOrStart loads a draft, or creates and persists an empty one with status draft.
func (m *Manager) LoadOrStart(ctx context.Context, draftID string) (*domain.SurveyDraft, error) {
	var d *domain.SurveyDraft
	err := m.WithLock(ctx, draftID, func(ctx context.Context) error {
		var err error
		d, err = m.store.Load(ctx, draftID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDraftNotFound) {
			return fmt.Errorf("failed to check draft existence: %w", err)
		}

		d = &domain.SurveyDraft{Status: domain.StatusDraft}
		if err := m.store.Save(ctx, draftID, d); err != nil {
			return fmt.Errorf("failed to initialize draft: %w", err)
		}
		return nil
	})
	return d, err
}

// Save persists the draft.
func (m *Manager) Save(ctx context.Context, draftID string, d *domain.SurveyDraft) error {
	return m.WithLock(ctx, draftID, func(ctx context.Context) error {
		return m.store.Save(ctx, draftID, d)
	})
}

// Delete removes the draft from the store.
func (m *Manager) Delete(ctx context.Context, draftID string) error {
	return m.WithLock(ctx, draftID, func(ctx context.Context) error {
		return m.store.Delete(ctx, draftID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying draft store. Code running inside WithLock must
// use it directly; the Manager's own methods would block on the held lock.
func (m *Manager) Store() ports.DraftStore {
	return m.store
}

// WithLock executes fn while holding the lock for the draft.
func (m *Manager) WithLock(ctx context.Context, draftID string, fn func(context.Context) error) error {
	entry := m.acquire(draftID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(draftID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, draftID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"draft_id", draftID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
