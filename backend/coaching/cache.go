package coaching

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/storage/cache"
	"github.com/jghoshh/getfit/backend/storage/persistent"
)

// AdviceTTL is how long generated advice stays valid.
const AdviceTTL = 24 * time.Hour

// AdviceCache stores one piece of advice per user per day.
type AdviceCache interface {
	// GetCachedAdvice returns the advice only while it has not expired.
	// Read failures count as a miss.
	GetCachedAdvice(ctx context.Context, userID, date string) (string, bool)
	CacheAdvice(ctx context.Context, userID, date, advice string) error
}

// CacheKey names the cache entry of a user's advice for a day.
func CacheKey(userID, date string) string {
	return "coaching_" + userID + "_" + date
}

func newEntry(key, advice string, now time.Time) models.CoachingCacheEntry {
	return models.CoachingCacheEntry{
		ID:        key,
		Advice:    advice,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(AdviceTTL).UnixMilli(),
	}
}

func unexpired(e models.CoachingCacheEntry, now time.Time) (string, bool) {
	if e.Advice == "" || now.UnixMilli() >= e.ExpiresAt {
		return "", false
	}
	return e.Advice, true
}

// CacheStore keeps advice in a key/value cache such as Redis.
type CacheStore struct {
	cache cache.CacheInterface
	now   func() time.Time
}

func NewCacheStore(c cache.CacheInterface) *CacheStore {
	return &CacheStore{cache: c, now: time.Now}
}

// WithClock replaces the time source used for expiry checks.
func (s *CacheStore) WithClock(now func() time.Time) *CacheStore {
	s.now = now
	return s
}

func (s *CacheStore) GetCachedAdvice(ctx context.Context, userID, date string) (string, bool) {
	var entry models.CoachingCacheEntry
	if err := s.cache.Get(ctx, CacheKey(userID, date), &entry); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("coaching cache read failed for %s: %v", userID, err)
		}
		return "", false
	}
	return unexpired(entry, s.now())
}

func (s *CacheStore) CacheAdvice(ctx context.Context, userID, date, advice string) error {
	key := CacheKey(userID, date)
	if err := s.cache.Set(ctx, key, newEntry(key, advice, s.now()), AdviceTTL); err != nil {
		return fmt.Errorf("failed to cache advice: %w", err)
	}
	return nil
}

// DocumentCache keeps advice in the coaching_cache collection of the
// document store. It is used when no Redis cache is configured.
type DocumentCache struct {
	store persistent.DocumentStore
	now   func() time.Time
}

func NewDocumentCache(store persistent.DocumentStore) *DocumentCache {
	return &DocumentCache{store: store, now: time.Now}
}

// WithClock replaces the time source used for expiry checks.
func (s *DocumentCache) WithClock(now func() time.Time) *DocumentCache {
	s.now = now
	return s
}

func (s *DocumentCache) GetCachedAdvice(ctx context.Context, userID, date string) (string, bool) {
	var entry models.CoachingCacheEntry
	found, err := s.store.Get(ctx, models.CoachingCacheCollection, CacheKey(userID, date), &entry)
	if err != nil {
		log.Printf("coaching cache read failed for %s: %v", userID, err)
		return "", false
	}
	if !found {
		return "", false
	}
	return unexpired(entry, s.now())
}

func (s *DocumentCache) CacheAdvice(ctx context.Context, userID, date, advice string) error {
	key := CacheKey(userID, date)
	if err := s.store.Set(ctx, models.CoachingCacheCollection, key, newEntry(key, advice, s.now())); err != nil {
		return fmt.Errorf("failed to cache advice: %w", err)
	}
	return nil
}
