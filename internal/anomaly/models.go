// Package anomaly records and evaluates side-channel risk signals around
// verification attempts: duplicate faces across identities, repeated
// failures, and shared-address collisions. Records are append-only; the only
// mutation is a terminal resolution by a reviewer.
package anomaly

import (
	"time"

	id "rollcall/pkg/domain"
)

// Severity grades an anomaly for review triage.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is one of the known grades.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Type classifies what tripped the anomaly.
type Type string

const (
	// TypeVerificationFailed is the generic failed-attempt anomaly the
	// ledger records for every soft verification failure. The repeated
	// failure throttle counts records of this type.
	TypeVerificationFailed Type = "verification_failed"

	// TypeDuplicateFace marks a face sample that matched a different
	// enrolled identity than the one claimed (proxy attendance).
	TypeDuplicateFace Type = "duplicate_face"

	// TypeRepeatedFailure marks an attempt blocked by the failure throttle.
	TypeRepeatedFailure Type = "repeated_failure"

	// TypeAddressCollision marks a network address already associated with
	// a different identity in the same session.
	TypeAddressCollision Type = "address_collision"
)

// DefaultSeverity returns the policy default for a check type. Callers may
// override; these are starting points, not hard rules.
func DefaultSeverity(t Type) Severity {
	switch t {
	case TypeDuplicateFace, TypeRepeatedFailure:
		return SeverityHigh
	case TypeVerificationFailed, TypeAddressCollision:
		return SeverityMedium
	}
	return SeverityMedium
}

// Record is one persisted anomaly. Created once, mutated only by Resolve,
// never deleted.
type Record struct {
	ID id.AnomalyID

	// IdentityID and SessionID are nil-UUIDs when the anomaly could not be
	// tied to a specific identity or session.
	IdentityID id.IdentityID
	SessionID  id.SessionID

	Type     Type
	Severity Severity
	Reason   string

	// Details carries structured check output (matched identity, scores).
	// Serialized to a JSON blob at rest.
	Details map[string]any

	Resolved        bool
	ResolvedBy      string
	ResolutionNotes string
	ResolvedAt      *time.Time

	OccurredAt    time.Time
	SourceAddress string
	DeviceInfo    string
}

// Filter narrows anomaly listings for the review surface.
type Filter struct {
	Resolved  *bool
	Severity  Severity
	Type      Type
	SessionID id.SessionID
	// Limit caps the result size; zero means the store default.
	Limit int
}
