package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := New(mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	return &Store{RDB: rdb, ProfileTTL: time.Minute}, mr
}

type profile struct {
	Name  string `json:"name"`
	Total string `json:"total"`
}

func TestStore_Profile(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	var p profile
	ok, stamp, err := s.GetProfile(ctx, 7, &p)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ProfileStamp{}, stamp)

	require.NoError(t, s.SetProfile(ctx, 7, stamp, profile{Name: "Asha", Total: "500"}))
	assert.Equal(t, time.Minute, mr.TTL("user_profile:7"))

	ok, _, err = s.GetProfile(ctx, 7, &p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Asha", p.Name)

	require.NoError(t, s.DeleteProfile(ctx, 7))
	assert.False(t, mr.Exists("user_profile:7"))
	v, err := mr.Get("user_profile_ver:7")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.Equal(t, TTLProfileVersion, mr.TTL("user_profile_ver:7"))
}

func TestStore_ProfileWrittenWithOldStampIsMiss(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, stamp, err := s.GetProfile(ctx, 3, &profile{})
	require.NoError(t, err)

	// invalidated while the profile was being loaded
	require.NoError(t, s.DeleteProfile(ctx, 3))
	require.NoError(t, s.SetProfile(ctx, 3, stamp, profile{Name: "Gone"}))

	ok, fresh, err := s.GetProfile(ctx, 3, &profile{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ProfileStamp{User: 1}, fresh)
}

func TestStore_InvalidateAllProfiles(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, stamp1, err := s.GetProfile(ctx, 1, &profile{})
	require.NoError(t, err)
	require.NoError(t, s.SetProfile(ctx, 1, stamp1, profile{Name: "Asha"}))
	_, stamp2, err := s.GetProfile(ctx, 2, &profile{})
	require.NoError(t, err)
	require.NoError(t, s.SetProfile(ctx, 2, stamp2, profile{Name: "Ravi"}))

	require.NoError(t, s.InvalidateAllProfiles(ctx))

	for _, id := range []int64{1, 2} {
		ok, stamp, err := s.GetProfile(ctx, id, &profile{})
		require.NoError(t, err)
		assert.False(t, ok, "user %d", id)
		assert.Equal(t, int64(1), stamp.Catalog)
	}
}

func TestStore_ProfileExpires(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetProfile(ctx, 1, ProfileStamp{}, profile{Name: "Ravi"}))
	mr.FastForward(2 * time.Minute)

	ok, _, err := s.GetProfile(ctx, 1, &profile{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Idempotency(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	_, ok, err := s.LookupOrder(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.RememberOrder(ctx, "abc", "ORD1"))
	require.NoError(t, s.RememberOrder(ctx, "abc", "ORD2"))

	code, ok, err := s.LookupOrder(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ORD1", code)
	assert.Equal(t, TTLIdempotency, mr.TTL("idem:order:create:abc"))
}

func TestStore_Dedup(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "worker", "ev-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkSeen(ctx, "worker", "ev-1"))
	seen, err = s.Seen(ctx, "worker", "ev-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestStore_NilIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()
	ok, _, err := s.GetProfile(ctx, 1, &profile{})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.SetProfile(ctx, 1, ProfileStamp{}, profile{}))
	assert.NoError(t, s.DeleteProfile(ctx, 1))
	assert.NoError(t, s.InvalidateAllProfiles(ctx))
	assert.NoError(t, s.RememberOrder(ctx, "k", "ORD"))
}
