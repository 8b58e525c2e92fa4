package memory

import (
	"time"

	"messaging-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// UserCache keeps recently resolved users for existence checks.
type UserCache struct {
	cache *cache.Cache
}

func NewUserCache(ttl time.Duration) *UserCache {
	// Purge expired items at twice the TTL.
	c := cache.New(ttl, 2*ttl)
	return &UserCache{
		cache: c,
	}
}

func (r *UserCache) Save(user *entity.User) {
	r.cache.Set(user.Id.String(), user, cache.DefaultExpiration)
}

func (r *UserCache) Get(id uuid.UUID) (*entity.User, bool) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.User), true
	}
	return nil, false
}

func (r *UserCache) Delete(id uuid.UUID) {
	r.cache.Delete(id.String())
}
