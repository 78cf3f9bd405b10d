// Package memory provides the in-memory identity store used by tests and
// demo deployments without a database.
package memory

import (
	"context"
	"sync"

	"rollcall/internal/identity"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[id.IdentityID]identity.EnrolledIdentity
	// order preserves insertion sequence so duplicate-face tie-breaks are
	// deterministic across calls.
	order []id.IdentityID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{identities: make(map[id.IdentityID]identity.EnrolledIdentity)}
}

// Put inserts or replaces an identity record. Seeding helper for tests and
// demo fixtures; the real collaborator owns writes in production.
func (s *InMemoryStore) Put(record identity.EnrolledIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.identities[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.identities[record.ID] = record
}

func (s *InMemoryStore) Get(_ context.Context, identityID id.IdentityID) (*identity.EnrolledIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.identities[identityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := record
	copied.FaceTemplate = append([]byte(nil), record.FaceTemplate...)
	return &copied, nil
}

func (s *InMemoryStore) ListFaceEnrolled(_ context.Context, partition id.PartitionID) ([]identity.FaceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var templates []identity.FaceTemplate
	for _, identityID := range s.order {
		record := s.identities[identityID]
		if record.Partition != partition || !record.HasFace() {
			continue
		}
		templates = append(templates, identity.FaceTemplate{
			IdentityID: record.ID,
			Template:   append([]byte(nil), record.FaceTemplate...),
		})
	}
	return templates, nil
}
