package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"stivoting/internal/models"
	"stivoting/internal/repositories"
)

// ProfileCache is a read-through cache over the users table for the
// authenticated profile lookup. TTL 0 keeps entries forever; writers of
// profile data are expected to call Invalidate.
type ProfileCache struct {
	rdb   *redis.Client
	users repositories.UserRepository
	ttl   time.Duration
}

func NewProfileCache(rdb *redis.Client, users repositories.UserRepository, ttl time.Duration) *ProfileCache {
	return &ProfileCache{rdb: rdb, users: users, ttl: ttl}
}

func profileKey(userID int) string {
	return fmt.Sprintf("profile:%d", userID)
}

// Get returns the cached profile or loads and caches it. Returns nil
// when no account exists. A misbehaving redis degrades to a plain
// database read.
func (c *ProfileCache) Get(ctx context.Context, userID int) (*models.Profile, error) {
	raw, err := c.rdb.Get(ctx, profileKey(userID)).Result()
	if err == nil {
		p := &models.Profile{}
		if err := json.Unmarshal([]byte(raw), p); err == nil {
			return p, nil
		}
		log.Printf("[cache][profile] bad cached entry user_id=%d, reloading", userID)
	} else if err != redis.Nil {
		log.Printf("[cache][profile] redis get failed user_id=%d: %v", userID, err)
	}

	p, err := c.users.GetProfile(ctx, userID)
	if err != nil || p == nil {
		return nil, err
	}

	if buf, err := json.Marshal(p); err == nil {
		if err := c.rdb.Set(ctx, profileKey(userID), buf, c.ttl).Err(); err != nil {
			log.Printf("[cache][profile] redis set failed user_id=%d: %v", userID, err)
		}
	}
	return p, nil
}

func (c *ProfileCache) Invalidate(ctx context.Context, userID int) error {
	return c.rdb.Del(ctx, profileKey(userID)).Err()
}
