package oauth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vcafe/identity-service/internal/domain"
)

const stateTTL = 10 * time.Minute

// StateStore issues and redeems single-use CSRF state values for the
// authorization-code flow. States expire after a short TTL; redeeming an
// unknown or expired state fails.
type StateStore struct {
	mu     sync.Mutex
	states map[string]stateEntry
	now    func() time.Time
}

type stateEntry struct {
	provider  domain.Provider
	expiresAt time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string]stateEntry),
		now:    time.Now,
	}
}

// Issue creates a new state value bound to a provider.
func (s *StateStore) Issue(provider domain.Provider) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()

	state := uuid.NewString()
	s.states[state] = stateEntry{
		provider:  provider,
		expiresAt: s.now().Add(stateTTL),
	}
	return state
}

// Redeem consumes a state value; it reports whether the state was issued
// for the given provider and has not expired. A state can be redeemed only
// once.
func (s *StateStore) Redeem(state string, provider domain.Provider) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return entry.provider == provider && s.now().Before(entry.expiresAt)
}

func (s *StateStore) evictExpired() {
	now := s.now()
	for state, entry := range s.states {
		if !now.Before(entry.expiresAt) {
			delete(s.states, state)
		}
	}
}
