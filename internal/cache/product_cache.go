package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/veststore/internal/store"
)

const notFoundMarker = "notfound"

// Catalog is the read surface being cached; product.Service satisfies it.
type Catalog interface {
	Get(ctx context.Context, id string) (*store.Product, error)
	List(ctx context.Context, filter store.ProductFilter) ([]*store.Product, error)
}

// ProductCache is a read-through cache over the catalog. Redis being down
// degrades to plain catalog reads; it never fails a request.
type ProductCache struct {
	catalog Catalog
	redis   *redis.Client
	ttl     time.Duration
}

func NewProductCache(catalog Catalog, rdb *redis.Client) *ProductCache {
	return &ProductCache{catalog: catalog, redis: rdb, ttl: 5 * time.Minute}
}

func (c *ProductCache) Get(ctx context.Context, id string) (*store.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, store.ErrNotFound
		}
		var p store.Product
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("[Cache] Bad cached product %s (falling through): %v", id, err)
			break
		}
		return &p, nil
	case errors.Is(err, redis.Nil):
	default:
		log.Printf("[Cache] Redis error (falling through): %v", err)
	}

	p, err := c.catalog.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Negative entries are short-lived so a later create shows up.
			if setErr := c.redis.Set(ctx, key, notFoundMarker, time.Minute).Err(); setErr != nil {
				log.Printf("[Cache] Failed to cache notfound for %s: %v", id, setErr)
			}
		}
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("[Cache] Failed to cache product %s: %v", id, err)
		}
	}
	return p, nil
}

// List caches only the unfiltered listing; filtered queries go straight to
// the catalog.
func (c *ProductCache) List(ctx context.Context, filter store.ProductFilter) ([]*store.Product, error) {
	if filter != (store.ProductFilter{}) {
		return c.catalog.List(ctx, filter)
	}

	data, err := c.redis.Get(ctx, allProductsKey).Bytes()
	if err == nil {
		var products []*store.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("[Cache] Redis error (falling through): %v", err)
	}

	products, err := c.catalog.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(products); err == nil {
		if err := c.redis.Set(ctx, allProductsKey, raw, c.ttl).Err(); err != nil {
			log.Printf("[Cache] Failed to cache product list: %v", err)
		}
	}
	return products, nil
}

// Invalidate drops a product's entry and the full listing after any mutation.
func (c *ProductCache) Invalidate(ctx context.Context, productID string) {
	if err := c.redis.Del(ctx, productKey(productID), allProductsKey).Err(); err != nil {
		log.Printf("[Cache] Failed to invalidate product %s: %v", productID, err)
	}
}

const allProductsKey = "products:all"

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}
