// Package memory provides the in-memory session state provider used by tests
// and demo deployments.
package memory

import (
	"context"
	"sync"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type InMemoryProvider struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]bool
}

func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{sessions: make(map[id.SessionID]bool)}
}

// Put seeds a session with its open-for-marking state.
func (p *InMemoryProvider) Put(sessionID id.SessionID, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sessionID] = active
}

func (p *InMemoryProvider) Active(_ context.Context, sessionID id.SessionID) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	active, ok := p.sessions[sessionID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	return active, nil
}
