package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
)

func testRecord(key Key) *Record {
	return &Record{
		Key: key,
		Session: eventtypes.SessionInfo{
			EventID:       uuid.New(),
			EventCode:     key.EventCode,
			EventTitle:    "Anna & Ben",
			ParticipantID: uuid.New(),
			UserName:      key.UserName,
		},
		MaxPhotos:       10,
		RemainingPhotos: 7,
		Synced:          true,
		UpdatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

// storeUnderTest runs the same contract against every implementation.
func storeUnderTest(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, Key{EventCode: "AB12CD", UserName: "dave"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		s := newStore(t)
		key := Key{EventCode: "AB12CD", UserName: "dave"}
		want := testRecord(key)
		require.NoError(t, s.Set(ctx, key, want))

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want.Session.ParticipantID, got.Session.ParticipantID)
		assert.Equal(t, 7, got.RemainingPhotos)
		assert.True(t, got.Synced)
	})

	t.Run("one record per identity", func(t *testing.T) {
		s := newStore(t)
		keyA := Key{EventCode: "AB12CD", UserName: "dave"}
		keyB := Key{EventCode: "AB12CD", UserName: "erin"}
		require.NoError(t, s.Set(ctx, keyA, testRecord(keyA)))
		require.NoError(t, s.Set(ctx, keyB, testRecord(keyB)))

		keys, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, 2)
		assert.Contains(t, keys, keyA)
		assert.Contains(t, keys, keyB)
	})

	t.Run("active pointer", func(t *testing.T) {
		s := newStore(t)
		key := Key{EventCode: "AB12CD", UserName: "dave"}
		require.NoError(t, s.Set(ctx, key, testRecord(key)))

		_, err := s.ActiveKey(ctx)
		assert.ErrorIs(t, err, ErrNoActive)

		require.NoError(t, s.SetActiveKey(ctx, key))
		got, err := s.ActiveKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, key, got)

		require.NoError(t, s.ClearActive(ctx))
		_, err = s.ActiveKey(ctx)
		assert.ErrorIs(t, err, ErrNoActive)

		// Clearing only drops the pointer, not the record.
		_, err = s.Get(ctx, key)
		assert.NoError(t, err)
	})

	t.Run("delete drops record and dangling pointer", func(t *testing.T) {
		s := newStore(t)
		key := Key{EventCode: "AB12CD", UserName: "dave"}
		require.NoError(t, s.Set(ctx, key, testRecord(key)))
		require.NoError(t, s.SetActiveKey(ctx, key))

		require.NoError(t, s.Delete(ctx, key))
		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.ActiveKey(ctx)
		assert.ErrorIs(t, err, ErrNoActive)

		// Deleting again is a no-op.
		assert.NoError(t, s.Delete(ctx, key))
	})
}

func TestMemStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) Store {
		return NewMemStore()
	})
}

func TestFileStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) Store {
		s, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestFileStoreSurvivesReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	key := Key{EventCode: "AB12CD", UserName: "dave with spaces"}

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, key, testRecord(key)))
	require.NoError(t, first.SetActiveKey(ctx, key))

	// A new store over the same directory sees everything.
	second, err := NewFileStore(dir)
	require.NoError(t, err)

	got, err := second.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, key, got.Key)

	active, err := second.ActiveKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, key, active)
}
