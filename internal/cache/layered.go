package cache

import (
	"errors"
	"time"
)

// LayeredCache checks layers fastest first and promotes hits upward
type LayeredCache struct {
	layers []Cache
}

// NewLayeredCache stacks the given layers, fastest first. Nil layers are skipped.
func NewLayeredCache(layers ...Cache) *LayeredCache {
	c := &LayeredCache{}
	for _, l := range layers {
		if l != nil {
			c.layers = append(c.layers, l)
		}
	}
	return c
}

// NewDefaultCache builds the standard memory + disk stack, with redis
// between them when a client is given
func NewDefaultCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration, shared *RedisCache) *LayeredCache {
	var redisLayer Cache
	if shared != nil {
		redisLayer = shared
	}
	var diskLayer Cache
	if diskDir != "" {
		diskLayer = NewDiskCache(diskDir, diskTTL)
	}
	return NewLayeredCache(NewMemoryCache(memoryTTL, 10*time.Minute), redisLayer, diskLayer)
}

// Get returns the first hit, copying it into every faster layer
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	for i, layer := range c.layers {
		val, found := layer.Get(key)
		if !found {
			continue
		}
		for _, faster := range c.layers[:i] {
			_ = faster.Set(key, val, 0) // layer default TTL
		}
		return val, true
	}
	return nil, false
}

// Set stores the value in every layer
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.Set(key, value, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete removes a value from every layer
func (c *LayeredCache) Delete(key string) error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear removes all values from every layer
func (c *LayeredCache) Clear() error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
