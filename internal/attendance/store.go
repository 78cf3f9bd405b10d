package attendance

import (
	"context"

	id "rollcall/pkg/domain"
)

// Store is the persistence port for attendance records. Insert is the single
// write path and must be atomic with the uniqueness check: of two concurrent
// inserts for the same pair, exactly one wins and the other observes
// sentinel.ErrAlreadyMarked.
type Store interface {
	// Insert commits one record, enforcing uniqueness on
	// (IdentityID, SessionID). Returns sentinel.ErrAlreadyMarked when a
	// record for the pair already exists.
	Insert(ctx context.Context, record *Record) error

	// Exists reports whether the pair already has a record. A cheap
	// pre-check; Insert remains the authority under races.
	Exists(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID) (bool, error)

	// Get loads one record by reference.
	Get(ctx context.Context, attendanceID id.AttendanceID) (*Record, error)

	// ListBySession returns a session's records, most recent first.
	ListBySession(ctx context.Context, sessionID id.SessionID) ([]Record, error)

	// UpdateStatus applies a manual status correction. The pairing never
	// changes. Returns sentinel.ErrNotFound for unknown records.
	UpdateStatus(ctx context.Context, attendanceID id.AttendanceID, status Status) (*Record, error)
}
