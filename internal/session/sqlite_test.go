package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func testRecord(id string) *Record {
	now := time.Now().Truncate(time.Second)
	return &Record{
		ID:                  id,
		UserID:              "device-42",
		UserType:            UserTypeDevice,
		ForcePasswordChange: true,
		Token:               []byte("sealed-token-bytes"),
		CreatedAt:           now,
		ExpiresAt:           now.Add(time.Hour),
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.UserID, got.UserID)
	assert.Equal(t, rec.UserType, got.UserType)
	assert.True(t, got.ForcePasswordChange)
	assert.Equal(t, rec.Token, got.Token)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Get(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SaveUpserts(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, store.Save(ctx, rec))

	rec.ForcePasswordChange = false
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, got.ForcePasswordChange)
	assert.Equal(t, rec.Token, got.Token)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, store.Save(ctx, rec))

	require.NoError(t, store.Delete(ctx, rec.ID))
	_, err := store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is a no-op
	require.NoError(t, store.Delete(ctx, rec.ID))
}

func TestSQLiteStore_DeleteExpired(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	fresh := testRecord("01FRESHFRESHFRESHFRESHFRES")
	require.NoError(t, store.Save(ctx, fresh))

	stale := testRecord("01STALESTALESTALESTALESTAL")
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Save(ctx, stale))

	purged, err := store.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}
