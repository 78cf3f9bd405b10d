package attendance

import (
	"context"
	"sync"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type pairKey struct {
	identityID id.IdentityID
	sessionID  id.SessionID
}

// InMemoryStore enforces the pair uniqueness invariant under a single mutex,
// mirroring what the unique constraint gives the SQL store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
	byID    map[id.AttendanceID]int
	byPair  map[pairKey]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.AttendanceID]int),
		byPair: make(map[pairKey]int),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{identityID: record.IdentityID, sessionID: record.SessionID}
	if _, exists := s.byPair[key]; exists {
		return sentinel.ErrAlreadyMarked
	}

	copied := cloneRecord(*record)
	idx := len(s.records)
	s.records = append(s.records, copied)
	s.byID[copied.ID] = idx
	s.byPair[key] = idx
	return nil
}

func (s *InMemoryStore) Exists(_ context.Context, identityID id.IdentityID, sessionID id.SessionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.byPair[pairKey{identityID: identityID, sessionID: sessionID}]
	return exists, nil
}

func (s *InMemoryStore) Get(_ context.Context, attendanceID id.AttendanceID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[attendanceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record := cloneRecord(s.records[idx])
	return &record, nil
}

func (s *InMemoryStore) ListBySession(_ context.Context, sessionID id.SessionID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].SessionID == sessionID {
			records = append(records, cloneRecord(s.records[i]))
		}
	}
	return records, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, attendanceID id.AttendanceID, status Status) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[attendanceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	s.records[idx].Status = status
	record := cloneRecord(s.records[idx])
	return &record, nil
}

func cloneRecord(record Record) Record {
	if record.FaceConfidence != nil {
		v := *record.FaceConfidence
		record.FaceConfidence = &v
	}
	if record.DocumentConfidence != nil {
		v := *record.DocumentConfidence
		record.DocumentConfidence = &v
	}
	if record.FingerprintMatch != nil {
		v := *record.FingerprintMatch
		record.FingerprintMatch = &v
	}
	return record
}
