package simulator

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// SessionRepository defines the concurrency-safe contract for storing
// playback sessions.
type SessionRepository interface {
	// Create assigns a fresh id to s and stores it.
	Create(s *Session) SessionID

	// Get returns the session with the given id.
	Get(id SessionID) (*Session, bool)

	// Delete removes a session. Deleting an unknown id is a no-op that
	// returns false.
	Delete(id SessionID) bool

	// List returns all session ids in ascending order.
	List() []SessionID

	// ActiveSessionCount returns the number of sessions that are not Done.
	// Used for metrics.
	ActiveSessionCount() int
}

// InMemorySessionRepository is a concurrency-safe in-memory implementation
// of SessionRepository.
type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[SessionID]*Session
	newID    func() SessionID
}

// NewInMemorySessionRepository constructs a repository issuing uuid ids.
func NewInMemorySessionRepository() *InMemorySessionRepository {
	return NewInMemorySessionRepositoryWithIDs(func() SessionID {
		return SessionID(uuid.NewString())
	})
}

// NewInMemorySessionRepositoryWithIDs constructs a repository that uses newID
// to issue session ids. Useful for deterministic tests.
func NewInMemorySessionRepositoryWithIDs(newID func() SessionID) *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[SessionID]*Session),
		newID:    newID,
	}
}

// Create implements SessionRepository.Create.
func (r *InMemorySessionRepository) Create(s *Session) SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, taken := r.sessions[id]; !taken {
			break
		}
		id = r.newID()
	}
	s.ID = id
	r.sessions[id] = s
	return id
}

// Get implements SessionRepository.Get.
func (r *InMemorySessionRepository) Get(id SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete implements SessionRepository.Delete.
func (r *InMemorySessionRepository) Delete(id SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// List implements SessionRepository.List.
func (r *InMemorySessionRepository) List() []SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]SessionID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ActiveSessionCount implements SessionRepository.ActiveSessionCount.
func (r *InMemorySessionRepository) ActiveSessionCount() int {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	n := 0
	for _, s := range sessions {
		if !s.Done() {
			n++
		}
	}
	return n
}
