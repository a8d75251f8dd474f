// Package memory contains concrete core.Memory implementations. The Memory
// interface resides in the core package; depend on core.Memory in your code
// and select an implementation (like the in-memory store below) at wiring
// time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (durable stores, vector-indexed recall, etc.) to be added without
// introducing dependency cycles.
package memory

import (
	"context"
	"sync"

	"github.com/hupe1980/agentloop/core"
)

// InMemoryStore is a volatile, process-local core.Memory. It is safe for
// concurrent access and best suited for tests, examples or ephemeral demo
// agents. Returned slices are defensive copies so callers cannot mutate
// internal history.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages []core.Message
}

// NewInMemoryStore constructs an empty in-memory message store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Add appends messages to the history in the given order.
func (s *InMemoryStore) Add(_ context.Context, msgs ...core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.messages = append(s.messages, m.Clone())
	}
	return nil
}

// Messages returns a copy of the full ordered history.
func (s *InMemoryStore) Messages(_ context.Context) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.CloneMessages(s.messages), nil
}

// Len returns the number of stored messages.
func (s *InMemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages), nil
}
