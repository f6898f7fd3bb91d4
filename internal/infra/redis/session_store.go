package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"brainbuster-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions stay in a local map; Redis holds a liveness key per session whose TTL is
// refreshed on every access. A missing key only evicts a session that this instance has
// also not seen within the TTL; a key lost to a Redis restart or failed write is restored.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[string]*storedSession
}

type storedSession struct {
	session *app.Session
	seen    time.Time
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*storedSession),
	}
}

// WithClock is test-only.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = &storedSession{session: session, seen: s.now()}
	s.mu.Unlock()
	s.setKey(context.Background(), session.ID())
}

// Get returns the session and refreshes its liveness key. When Redis is unreachable the
// local copy is served as is.
func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.ttl <= 0 {
		return entry.session, true
	}

	ctx := context.Background()
	alive, err := s.client.Expire(ctx, s.key(id), s.ttl).Result()
	if err != nil {
		log.Printf("session %s: refresh liveness key: %v", id, err)
		s.touch(id)
		return entry.session, true
	}
	if !alive {
		if !s.fresh(id) {
			s.Delete(id)
			return nil, false
		}
		s.setKey(ctx, id)
	}
	s.touch(id)
	return entry.session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

// SweepIdle evicts sessions idle since cutoff, and sessions whose liveness key is gone
// and that this instance has not seen within the TTL. Missing keys of fresh sessions
// are restored.
func (s *SessionStore) SweepIdle(ctx context.Context, cutoff time.Time) int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var expired []string
	if len(ids) > 0 && s.ttl > 0 {
		pipe := s.client.Pipeline()
		cmds := make([]*redis.IntCmd, len(ids))
		for i, id := range ids {
			cmds[i] = pipe.Exists(ctx, s.key(id))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("session sweep: check liveness keys: %v", err)
		} else {
			for i, cmd := range cmds {
				if cmd.Val() != 0 {
					continue
				}
				if s.fresh(ids[i]) {
					s.setKey(ctx, ids[i])
					continue
				}
				expired = append(expired, ids[i])
			}
		}
	}

	s.mu.Lock()
	removed := 0
	for _, id := range expired {
		if _, ok := s.sessions[id]; ok {
			delete(s.sessions, id)
			removed++
		}
	}
	var idle []string
	for id, entry := range s.sessions {
		if entry.session.LastAccess().Before(cutoff) {
			delete(s.sessions, id)
			idle = append(idle, id)
		}
	}
	s.mu.Unlock()

	for _, id := range idle {
		_ = s.client.Del(ctx, s.key(id)).Err()
	}
	return removed + len(idle)
}

// Count returns the number of sessions held by this instance.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// fresh reports whether id was added or read within the TTL.
func (s *SessionStore) fresh(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	return ok && s.now().Sub(entry.seen) < s.ttl
}

func (s *SessionStore) touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.sessions[id]; ok {
		entry.seen = s.now()
	}
}

func (s *SessionStore) setKey(ctx context.Context, id string) {
	if err := s.client.Set(ctx, s.key(id), "1", s.ttl).Err(); err != nil {
		log.Printf("session %s: set liveness key: %v", id, err)
	}
}

func (s *SessionStore) key(id string) string {
	return "sp:session:" + id
}
