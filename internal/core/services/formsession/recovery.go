package formsession

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
)

// recoveryKeyPrefix namespaces recovery entries inside a shared store
const recoveryKeyPrefix = "visitForm:"

// KeyValueStore is the device-local storage backing session recovery
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// RecoveryStore maps a session key to the record id a previous, interrupted
// session created, so a reopened session updates instead of creating again
type RecoveryStore struct {
	kv     KeyValueStore
	logger *slog.Logger
}

// NewRecoveryStore wraps kv. A nil logger uses slog.Default().
func NewRecoveryStore(kv KeyValueStore, logger *slog.Logger) *RecoveryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryStore{
		kv:     kv,
		logger: logger.With(slog.String("component", "recovery_store")),
	}
}

// GenerateSessionKey returns a key unique per device and session
func GenerateSessionKey(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// StorageKey is the key an entry for sessionKey lives under
func StorageKey(sessionKey string) string {
	return recoveryKeyPrefix + sessionKey
}

// Lookup returns the record id persisted for sessionKey, if any
func (r *RecoveryStore) Lookup(ctx context.Context, sessionKey string) (string, bool, error) {
	id, ok, err := r.kv.Get(ctx, StorageKey(sessionKey))
	if err != nil {
		return "", false, apperrors.RecoveryStoreFailed(err, "lookup")
	}
	if !ok || id == "" {
		return "", false, nil
	}
	r.logger.Debug("Recovered record id", slog.String("session_key", sessionKey), slog.String("record_id", id))
	return id, true, nil
}

// Persist records recordID for sessionKey
func (r *RecoveryStore) Persist(ctx context.Context, sessionKey, recordID string) error {
	if err := r.kv.Set(ctx, StorageKey(sessionKey), recordID); err != nil {
		return apperrors.RecoveryStoreFailed(err, "persist")
	}
	return nil
}

// Clear drops the entry for sessionKey
func (r *RecoveryStore) Clear(ctx context.Context, sessionKey string) error {
	if err := r.kv.Remove(ctx, StorageKey(sessionKey)); err != nil {
		return apperrors.RecoveryStoreFailed(err, "clear")
	}
	return nil
}

// MemoryStore is an in-process KeyValueStore
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of entries
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
