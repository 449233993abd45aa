package formsession

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

func TestGenerateSessionKey(t *testing.T) {
	now := time.UnixMilli(1767225600123)
	key := GenerateSessionKey(now)

	assert.Regexp(t, regexp.MustCompile(`^1767225600123-[0-9a-f]{9}$`), key)
	assert.NotEqual(t, key, GenerateSessionKey(now), "same instant still yields distinct keys")
	assert.Equal(t, "visitForm:"+key, StorageKey(key))
}

func TestRecoveryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	store := NewRecoveryStore(kv, logger.Discard())

	_, ok, err := store.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Persist(ctx, "k1", "rec-1"))
	require.NoError(t, store.Persist(ctx, "k1", "rec-2"))
	id, ok, err := store.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rec-2", id, "persist overwrites")

	require.NoError(t, store.Clear(ctx, "k1"))
	require.NoError(t, store.Clear(ctx, "k1"), "clear is idempotent")
	_, ok, err = store.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecoveryStore_EmptyValueIsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	require.NoError(t, kv.Set(ctx, StorageKey("k1"), ""))

	_, ok, err := NewRecoveryStore(kv, nil).Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecoveryStore_WrapsBackendErrors(t *testing.T) {
	ctx := context.Background()
	store := NewRecoveryStore(failingKV{}, logger.Discard())

	_, _, err := store.Lookup(ctx, "k1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRecoveryStore))
	assert.True(t, apperrors.HasCode(store.Persist(ctx, "k1", "rec-1"), apperrors.ErrCodeRecoveryStore))
	assert.True(t, apperrors.HasCode(store.Clear(ctx, "k1"), apperrors.ErrCodeRecoveryStore))
}
