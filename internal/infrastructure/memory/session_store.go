// Package memory provides an in-process session store for single-node
// deployments and tests.
package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/videocall/room-access/internal/core/domain"
)

const defaultShards = 32

type shard struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// SessionStore shards sessions by FNV hash of their ID. Each shard has its own
// lock, so sessions on different shards never contend and every operation on
// one session is linearizable under its shard lock.
type SessionStore struct {
	shards []*shard
	now    func() time.Time
}

// NewSessionStore creates a store with numShards shards (defaultShards when <= 0).
func NewSessionStore(numShards int) *SessionStore {
	if numShards <= 0 {
		numShards = defaultShards
	}
	s := &SessionStore{
		shards: make([]*shard, numShards),
		now:    time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]domain.Session)}
	}
	return s
}

func (s *SessionStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Get returns a copy of the stored session.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	sess, ok := sh.sessions[id]
	sh.mu.RUnlock()

	if !ok || sess.Expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Put(_ context.Context, sess *domain.Session) error {
	sh := s.shardFor(sess.ID)
	sh.mu.Lock()
	sh.sessions[sess.ID] = *sess
	sh.mu.Unlock()
	return nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	delete(sh.sessions, id)
	sh.mu.Unlock()
	return nil
}

func (s *SessionStore) Touch(_ context.Context, id string, now, expiresAt time.Time) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[id]
	if !ok || sess.Expired(now) {
		delete(sh.sessions, id)
		return domain.ErrSessionNotFound
	}
	sess.LastTouchedAt = now
	sess.ExpiresAt = expiresAt
	sh.sessions[id] = sess
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep(now time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if sess.Expired(now) {
				delete(sh.sessions, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// Len reports the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}
