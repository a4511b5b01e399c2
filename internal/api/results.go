package api

import (
	"time"

	"resale-backend/pkg/api"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const ResultTTL = 10 * time.Minute

// ResultCache holds finished estimates between the form post and the
// redirected results page.
type ResultCache struct {
	cache *cache.Cache
}

func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{cache: cache.New(ttl, 2*ttl)}
}

func (c *ResultCache) Put(view api.EstimateView) uuid.UUID {
	id := uuid.New()
	c.cache.SetDefault(id.String(), view)
	return id
}

func (c *ResultCache) Get(id uuid.UUID) (api.EstimateView, bool) {
	value, ok := c.cache.Get(id.String())
	if !ok {
		return api.EstimateView{}, false
	}
	view, ok := value.(api.EstimateView)
	return view, ok
}
