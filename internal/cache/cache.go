// Package cache holds per-instance read caches for hot lookups.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voltix_cache_hits_total",
		Help: "Read cache hits by cache name.",
	}, []string{"cache"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voltix_cache_misses_total",
		Help: "Read cache misses by cache name.",
	}, []string{"cache"})
)

type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
}

// LRU is a size-bounded cache whose entries expire ttl after insertion.
type LRU[K comparable, V any] struct {
	name  string
	items *expirable.LRU[K, V]
}

func NewLRU[K comparable, V any](name string, size int, ttl time.Duration) *LRU[K, V] {
	if size <= 0 {
		size = 1024
	}
	return &LRU[K, V]{
		name:  name,
		items: expirable.NewLRU[K, V](size, nil, ttl),
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	value, ok := c.items.Get(key)
	if ok {
		cacheHits.WithLabelValues(c.name).Inc()
	} else {
		cacheMisses.WithLabelValues(c.name).Inc()
	}
	return value, ok
}

func (c *LRU[K, V]) Set(key K, value V) {
	c.items.Add(key, value)
}

func (c *LRU[K, V]) Delete(key K) {
	c.items.Remove(key)
}

func (c *LRU[K, V]) Len() int {
	return c.items.Len()
}
