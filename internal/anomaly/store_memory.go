package anomaly

import (
	"context"
	"sync"
	"time"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// defaultListLimit caps listings when the filter does not set one.
const defaultListLimit = 50

// InMemoryStore keeps anomaly records in insertion order. Used by unit tests
// and demo deployments without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
	byID    map[id.AnomalyID]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.AnomalyID]int)}
}

func (s *InMemoryStore) Insert(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := cloneRecord(*record)
	s.byID[copied.ID] = len(s.records)
	s.records = append(s.records, copied)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, anomalyID id.AnomalyID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[anomalyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record := cloneRecord(s.records[idx])
	return &record, nil
}

func (s *InMemoryStore) CountByTypeSince(_ context.Context, identityID id.IdentityID, sessionID id.SessionID, anomalyType Type, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for i := range s.records {
		record := &s.records[i]
		if record.IdentityID == identityID &&
			record.SessionID == sessionID &&
			record.Type == anomalyType &&
			!record.OccurredAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) ListSourceIdentities(_ context.Context, sourceAddress string, sessionID id.SessionID) ([]id.IdentityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[id.IdentityID]struct{})
	var identities []id.IdentityID
	for i := range s.records {
		record := &s.records[i]
		if record.SourceAddress != sourceAddress || record.SessionID != sessionID || record.IdentityID.IsNil() {
			continue
		}
		if _, dup := seen[record.IdentityID]; dup {
			continue
		}
		seen[record.IdentityID] = struct{}{}
		identities = append(identities, record.IdentityID)
	}
	return identities, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	// Most recent first: walk backwards over insertion order.
	var matched []Record
	for i := len(s.records) - 1; i >= 0 && len(matched) < limit; i-- {
		record := &s.records[i]
		if filter.Resolved != nil && record.Resolved != *filter.Resolved {
			continue
		}
		if filter.Severity != "" && record.Severity != filter.Severity {
			continue
		}
		if filter.Type != "" && record.Type != filter.Type {
			continue
		}
		if !filter.SessionID.IsNil() && record.SessionID != filter.SessionID {
			continue
		}
		matched = append(matched, cloneRecord(*record))
	}
	return matched, nil
}

func (s *InMemoryStore) MarkResolved(_ context.Context, anomalyID id.AnomalyID, resolvedBy, notes string, at time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[anomalyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record := &s.records[idx]
	if record.Resolved {
		return nil, sentinel.ErrAnomalyResolved
	}

	record.Resolved = true
	record.ResolvedBy = resolvedBy
	record.ResolutionNotes = notes
	resolvedAt := at
	record.ResolvedAt = &resolvedAt

	copied := cloneRecord(*record)
	return &copied, nil
}

func cloneRecord(record Record) Record {
	if record.Details != nil {
		details := make(map[string]any, len(record.Details))
		for k, v := range record.Details {
			details[k] = v
		}
		record.Details = details
	}
	if record.ResolvedAt != nil {
		at := *record.ResolvedAt
		record.ResolvedAt = &at
	}
	return record
}
