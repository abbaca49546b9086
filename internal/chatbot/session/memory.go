package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"infotec-chatbot/internal/models"
)

const shardCount = 16

type memoryEntry struct {
	turns    []models.Turn
	lastSeen time.Time
}

type memoryShard struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
}

// MemoryStore is an in-process Store sharded by session id to keep sessions
// independent under concurrent traffic.
type MemoryStore struct {
	shards   [shardCount]*memoryShard
	maxTurns int
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore builds a store keeping maxTurns per session. A zero ttl
// keeps sessions until cleared.
func NewMemoryStore(maxTurns int, ttl time.Duration) *MemoryStore {
	if maxTurns <= 0 {
		maxTurns = MaxTurns
	}
	s := &MemoryStore{
		maxTurns: maxTurns,
		ttl:      ttl,
		now:      time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &memoryShard{sessions: make(map[string]*memoryEntry)}
	}
	return s
}

func (s *MemoryStore) shardFor(sessionID string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) expired(e *memoryEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]models.Turn, error) {
	shard := s.shardFor(sessionID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if s.expired(entry) {
		delete(shard.sessions, sessionID)
		return nil, nil
	}

	out := make([]models.Turn, len(entry.turns))
	copy(out, entry.turns)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, turn models.Turn) error {
	shard := s.shardFor(sessionID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.sessions[sessionID]
	if !ok || s.expired(entry) {
		entry = &memoryEntry{}
		shard.sessions[sessionID] = entry
	}

	entry.turns = append(entry.turns, turn)
	if len(entry.turns) > s.maxTurns {
		entry.turns = entry.turns[len(entry.turns)-s.maxTurns:]
	}
	entry.lastSeen = s.now()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	shard := s.shardFor(sessionID)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.sessions, sessionID)
	return nil
}

func (s *MemoryStore) ClearAll(_ context.Context) (int, error) {
	total := 0
	for _, shard := range s.shards {
		shard.mu.Lock()
		total += len(shard.sessions)
		shard.sessions = make(map[string]*memoryEntry)
		shard.mu.Unlock()
	}
	return total, nil
}

func (s *MemoryStore) ActiveSessions(_ context.Context) ([]string, error) {
	var ids []string
	for _, shard := range s.shards {
		shard.mu.Lock()
		for id, entry := range shard.sessions {
			if s.expired(entry) {
				delete(shard.sessions, id)
				continue
			}
			ids = append(ids, id)
		}
		shard.mu.Unlock()
	}
	return ids, nil
}
