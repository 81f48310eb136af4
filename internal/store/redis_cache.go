// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache is a Redis cache of learning_sessions rows, keyed by
// session id. CachingStore writes a row into it on every UpsertSession and
// Get reads one back; no store read in the worker runtime is served from
// it.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache connects to redisURL; rows expire after ttl.
func NewSessionCache(redisURL string, ttl time.Duration) (*SessionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse redis url: %w", err)
	}
	return &SessionCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func cacheKey(sessionID string) string { return "learning_session:" + sessionID }

// Get returns the cached row, or ok=false on a cache miss.
func (c *SessionCache) Get(ctx context.Context, sessionID string) (row LearningSession, ok bool, err error) {
	raw, err := c.client.Get(ctx, cacheKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return LearningSession{}, false, nil
	}
	if err != nil {
		return LearningSession{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return LearningSession{}, false, err
	}
	return row, true, nil
}

// Set writes row into the cache.
func (c *SessionCache) Set(ctx context.Context, row LearningSession) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(row.SessionID), payload, c.ttl).Err()
}

// CachingStore wraps a Store, keeping SessionCache in sync on every
// UpsertSession so subsequent session-row reads can be served from Redis.
// All other Store methods pass through unchanged via embedding.
type CachingStore struct {
	Store
	cache *SessionCache
}

// NewCachingStore builds a CachingStore over inner and cache.
func NewCachingStore(inner Store, cache *SessionCache) *CachingStore {
	return &CachingStore{Store: inner, cache: cache}
}

func (c *CachingStore) UpsertSession(ctx context.Context, row LearningSession) error {
	if err := c.Store.UpsertSession(ctx, row); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Set(ctx, row)
	}
	return nil
}
