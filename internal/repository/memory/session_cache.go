package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"memento-be/internal/entity"
)

// SessionCache keeps hot session aggregates in process so a turn does not
// pay a database read for every message. The database stays the source of
// truth; entries expire after an hour of inactivity.
type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache() *SessionCache {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionCache{
		cache: c,
	}
}

func (r *SessionCache) Save(session *entity.Session) {
	r.cache.Set(session.Id.String(), session, cache.DefaultExpiration)
}

func (r *SessionCache) Get(sessionId string) (*entity.Session, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*entity.Session), true
	}
	return nil, false
}

func (r *SessionCache) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}
