package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roomhunt/property-service/internal/listing/domain"
)

const listingTTL = 1 * time.Hour

// ListingCache keeps recently served public listings in Redis, keyed by
// slug. Only active listings should be cached; visibility gating happens
// before the cache is consulted for a write.
type ListingCache struct {
	client *redis.Client
}

func NewListingCache(addr string) (*ListingCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &ListingCache{client: client}, nil
}

func (c *ListingCache) GetListing(ctx context.Context, slug string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, "listing:"+slug).Bytes()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}
	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "listing:"+listing.Slug, data, listingTTL).Err()
}

func (c *ListingCache) DeleteListing(ctx context.Context, slug string) error {
	return c.client.Del(ctx, "listing:"+slug).Err()
}
