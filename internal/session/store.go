package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dusk-indust/shopsplit/internal/intent"
	"github.com/dusk-indust/shopsplit/internal/ucp"
)

// Store is a concurrency-safe in-memory session registry. All mutations for
// a session go through Update so they serialize behind one lock; reads hand
// out copies that are safe to use without further locking.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	orderIDs []string // insertion-order session IDs
}

// NewStore returns an initialized Store ready for use.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session. It returns an error if a session with the
// same ID already exists.
func (s *Store) Create(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return fmt.Errorf("session %q already exists", sess.ID)
	}
	cp := copySession(sess)
	s.sessions[sess.ID] = cp
	s.orderIDs = append(s.orderIDs, sess.ID)
	return nil
}

// Get returns a copy of the session with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return copySession(sess), nil
}

// Update applies fn to the stored session under the write lock and bumps
// UpdatedAt. fn receives the actual stored pointer, so mutations are applied
// in place. If fn returns an error the session is left as fn left it and the
// error is passed through; fn must not mutate on error paths.
func (s *Store) Update(id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err := fn(sess); err != nil {
		return err
	}
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

// Transition moves the session to next if the state machine allows it.
func (s *Store) Transition(id string, next State) error {
	return s.Update(id, func(sess *Session) error {
		if !sess.State.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", ErrStateConflict, sess.State, next)
		}
		sess.State = next
		return nil
	})
}

// List returns copies of all sessions in insertion order, optionally
// filtered by state.
func (s *Store) List(state State) []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, id := range s.orderIDs {
		sess := s.sessions[id]
		if state != "" && sess.State != state {
			continue
		}
		out = append(out, copySession(sess))
	}
	return out
}

// IDs returns all session IDs in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.orderIDs))
	copy(ids, s.orderIDs)
	sort.Strings(ids)
	return ids
}

// copySession copies the session struct and its slices. Matrix, Plan, and
// Order are write-once snapshots, so sharing the pointers is safe.
func copySession(src *Session) *Session {
	dst := *src

	if src.Items != nil {
		dst.Items = append([]intent.ItemRequest(nil), src.Items...)
	}
	if src.Merchants != nil {
		dst.Merchants = append([]ucp.MerchantCapability(nil), src.Merchants...)
	}

	return &dst
}
