package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkravets/airreserve/config"
	"github.com/dkravets/airreserve/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		searchTTL: searchTTL,
	}
}

// GetSearch returns a cached offer search result, or nil on a miss.
func (c *RedisCache) GetSearch(ctx context.Context, origin, destination string, class domain.TravelClass, date time.Time) ([]domain.FlightOffer, error) {
	data, err := c.client.Get(ctx, searchKey(origin, destination, class, date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var offers []domain.FlightOffer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (c *RedisCache) SetSearch(ctx context.Context, origin, destination string, class domain.TravelClass, date time.Time, offers []domain.FlightOffer) error {
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, searchKey(origin, destination, class, date), payload, c.searchTTL).Err()
}

// InvalidateSearches drops all cached search results. Called when an
// administrator changes the offer inventory.
func (c *RedisCache) InvalidateSearches(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "cache:offers:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// AcquireOfferLock takes a short-lived lock on an offer while an allocation
// attempt is in flight. It is a fast-path gate in front of the database
// lock, not the correctness guarantee.
func (c *RedisCache) AcquireOfferLock(ctx context.Context, offerID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, offerLockKey(offerID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseOfferLock(ctx context.Context, offerID int64) error {
	return c.client.Del(ctx, offerLockKey(offerID)).Err()
}

func searchKey(origin, destination string, class domain.TravelClass, date time.Time) string {
	return fmt.Sprintf("cache:offers:%s:%s:%s:%s", origin, destination, class, date.Format("2006-01-02"))
}

func offerLockKey(offerID int64) string {
	return fmt.Sprintf("lock:offer:%d", offerID)
}
