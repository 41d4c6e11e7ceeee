package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key layout for the catalog. The home listing is the storefront's
// first screen and by far the hottest read; everything else is keyed by id
// or by the distinct-value kind.
const (
	keyProductsHome  = "catalog:products:list:home"
	keyProductDetail = "catalog:products:detail:"
	keyCategories    = "catalog:categories"
	keyBrands        = "catalog:brands"
)

func productDetailKey(id string) string { return keyProductDetail + id }

// Cache is the read-through JSON cache in front of the product repo. A nil
// cache disables caching without touching call sites.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached payload into dst and reports whether the key
// existed. A decode failure is surfaced so the caller falls through to the
// repo instead of serving a broken entry.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v as JSON under key with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
