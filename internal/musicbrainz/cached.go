package musicbrainz

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"
)

type ClientInterface interface {
	SearchRecordings(ctx context.Context, p SearchParams) ([]Recording, error)
}

var _ ClientInterface = (*Client)(nil)
var _ ClientInterface = (*CachedClient)(nil)

type Cache interface {
	GetCache(key string) ([]byte, error)
	SetCache(key string, data []byte, ttl time.Duration) error
}

type CachedClient struct {
	client ClientInterface
	cache  Cache
	ttl    time.Duration
}

func NewCachedClient(client ClientInterface, cache Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  cache,
		ttl:    ttl,
	}
}

type cachedSearch struct {
	Recordings []Recording `json:"recordings"`
}

func (c *CachedClient) SearchRecordings(ctx context.Context, p SearchParams) ([]Recording, error) {
	cacheKey := searchKey(p)

	data, err := c.cache.GetCache(cacheKey)
	if err != nil {
		return nil, err
	}

	if data != nil {
		var cached cachedSearch
		if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
			return cached.Recordings, nil
		}
	}

	recs, err := c.client.SearchRecordings(ctx, p)
	if err != nil {
		return nil, err
	}

	if data, marshalErr := json.Marshal(cachedSearch{Recordings: recs}); marshalErr == nil {
		_ = c.cache.SetCache(cacheKey, data, c.ttl)
	}

	return recs, nil
}

func searchKey(p SearchParams) string {
	raw, _ := json.Marshal(p)
	sum := sha1.Sum(raw)
	return "mb:search:" + hex.EncodeToString(sum[:])
}
