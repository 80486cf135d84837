package memory

import (
	"strings"
	"time"

	"stallpick-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionCache remembers resolved sessions by normalized code. Sessions are
// read-only to this service, so a stale entry can only be a newer duplicate
// code created after the entry was cached; the TTL bounds that window.
type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache(ttl time.Duration) *SessionCache {
	c := cache.New(ttl, 2*ttl)
	return &SessionCache{
		cache: c,
	}
}

func (r *SessionCache) Save(code string, session *entity.Session) {
	r.cache.Set(normalize(code), session, cache.DefaultExpiration)
}

func (r *SessionCache) Get(code string) (*entity.Session, bool) {
	if x, found := r.cache.Get(normalize(code)); found {
		return x.(*entity.Session), true
	}
	return nil, false
}

func (r *SessionCache) Delete(code string) {
	r.cache.Delete(normalize(code))
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
