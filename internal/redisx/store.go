package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps the redis client with the few operations the services need.
// A nil *Store is valid and behaves like an always-empty cache.
type Store struct {
	RDB        *redis.Client
	ProfileTTL time.Duration
}

func (s *Store) profileTTL() time.Duration {
	if s.ProfileTTL > 0 {
		return s.ProfileTTL
	}
	return TTLProfile
}

// GetJSON decodes key into dst. It reports false on a cache miss.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if s == nil {
		return false, nil
	}
	b, err := s.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.RDB.Set(ctx, key, b, ttl).Err()
}

// ProfileStamp is the generation a cached profile was built against: the
// user's own counter and the catalog-wide counter. An entry whose stamp no
// longer matches is a miss.
type ProfileStamp struct {
	User    int64 `json:"user"`
	Catalog int64 `json:"catalog"`
}

type cachedProfile struct {
	Stamp   ProfileStamp    `json:"stamp"`
	Profile json.RawMessage `json:"profile"`
}

func (s *Store) profileStamp(ctx context.Context, userID int64) (ProfileStamp, error) {
	vals, err := s.RDB.MGet(ctx, fmt.Sprintf(KeyUserProfileVer, userID), KeyCatalogVer).Result()
	if err != nil {
		return ProfileStamp{}, err
	}
	var out [2]int64
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if out[i], err = strconv.ParseInt(str, 10, 64); err != nil {
			return ProfileStamp{}, fmt.Errorf("profile version: %w", err)
		}
	}
	return ProfileStamp{User: out[0], Catalog: out[1]}, nil
}

// GetProfile decodes the cached profile of userID into dst. On a miss it
// returns the current stamp, which SetProfile needs to store the rebuilt
// profile. Load the profile only after calling GetProfile.
func (s *Store) GetProfile(ctx context.Context, userID int64, dst any) (bool, ProfileStamp, error) {
	if s == nil {
		return false, ProfileStamp{}, nil
	}
	stamp, err := s.profileStamp(ctx, userID)
	if err != nil {
		return false, ProfileStamp{}, err
	}
	var c cachedProfile
	ok, err := s.GetJSON(ctx, fmt.Sprintf(KeyUserProfile, userID), &c)
	if err != nil || !ok || c.Stamp != stamp {
		return false, stamp, err
	}
	if err := json.Unmarshal(c.Profile, dst); err != nil {
		return false, stamp, fmt.Errorf("decode profile %d: %w", userID, err)
	}
	return true, stamp, nil
}

// SetProfile caches v under the stamp GetProfile returned before v was
// loaded. Any invalidation in between makes the entry unreadable.
func (s *Store) SetProfile(ctx context.Context, userID int64, stamp ProfileStamp, v any) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.SetJSON(ctx, fmt.Sprintf(KeyUserProfile, userID), cachedProfile{Stamp: stamp, Profile: b}, s.profileTTL())
}

// DeleteProfile bumps the user's profile generation and drops the entry.
func (s *Store) DeleteProfile(ctx context.Context, userID int64) error {
	if s == nil {
		return nil
	}
	verKey := fmt.Sprintf(KeyUserProfileVer, userID)
	verTTL := max(TTLProfileVersion, 2*s.profileTTL())
	_, err := s.RDB.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, verKey)
		pipe.Expire(ctx, verKey, verTTL)
		pipe.Del(ctx, fmt.Sprintf(KeyUserProfile, userID))
		return nil
	})
	return err
}

// InvalidateAllProfiles bumps the catalog generation, which every cached
// profile carries. Used when book data shown in order history changes.
func (s *Store) InvalidateAllProfiles(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.RDB.Incr(ctx, KeyCatalogVer).Err()
}

// LookupOrder returns the order code remembered for an idempotency key.
func (s *Store) LookupOrder(ctx context.Context, idemKey string) (string, bool, error) {
	if s == nil {
		return "", false, nil
	}
	code, err := s.RDB.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, idemKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

// RememberOrder binds idemKey to orderCode unless the key is already bound.
func (s *Store) RememberOrder(ctx context.Context, idemKey, orderCode string) error {
	if s == nil {
		return nil
	}
	return s.RDB.SetNX(ctx, fmt.Sprintf(KeyIdemOrderCreate, idemKey), orderCode, TTLIdempotency).Err()
}

// Seen reports whether service already processed eventID.
func (s *Store) Seen(ctx context.Context, service, eventID string) (bool, error) {
	if s == nil {
		return false, nil
	}
	return Exists(ctx, s.RDB, fmt.Sprintf(KeyDedup, service, eventID))
}

func (s *Store) MarkSeen(ctx context.Context, service, eventID string) error {
	if s == nil {
		return nil
	}
	return s.RDB.Set(ctx, fmt.Sprintf(KeyDedup, service, eventID), "1", TTLDedup).Err()
}
