package server

import (
	"autoblog/internal/core"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const defaultSessionTTL = 2 * time.Hour

// sessionEntry guards one session. Actions on the same session run one at a
// time; a new action waits for the running one to finish.
type sessionEntry struct {
	mu   sync.Mutex
	sess *core.Session
}

// sessionStore keeps sessions in memory and forgets them after the TTL.
// Each access extends the TTL.
type sessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &sessionStore{cache: cache.New(ttl, ttl/2), ttl: ttl}
}

func (s *sessionStore) create() *sessionEntry {
	entry := &sessionEntry{sess: core.NewSession(uuid.NewString())}
	s.cache.Set(entry.sess.ID, entry, s.ttl)
	return entry
}

func (s *sessionStore) get(id string) (*sessionEntry, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	entry := v.(*sessionEntry)
	s.cache.Set(id, entry, s.ttl)
	return entry, true
}

func (s *sessionStore) count() int {
	return s.cache.ItemCount()
}
