// Package attendance owns the attendance ledger: one terminal outcome per
// (identity, session) pair, committed atomically after verification. The
// ledger also orchestrates the mark attempt itself, from pre-checks and
// throttling through engine verification to the committed record.
package attendance

import (
	"time"

	id "rollcall/pkg/domain"
)

// Status is the recorded attendance outcome. Present is the only status the
// ledger writes itself; the others arrive via manual correction.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Record is one persisted attendance outcome. The (IdentityID, SessionID)
// pairing is immutable; only Status may later be corrected.
type Record struct {
	ID         id.AttendanceID
	IdentityID id.IdentityID
	SessionID  id.SessionID
	Status     Status

	// Per-factor confidences are stored only for factors that verified;
	// nil means the factor was inapplicable or failed.
	FaceConfidence     *float64
	DocumentConfidence *float64
	// FingerprintMatch is nil when the fingerprint factor was inapplicable.
	FingerprintMatch *bool

	OverallConfidence float64
	// Method is the verification method descriptor, e.g. "face+fingerprint".
	Method string

	MarkedAt time.Time
}
