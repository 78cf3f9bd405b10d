// Package domain holds typed identifiers shared across modules. Distinct ID
// types prevent an identity reference from being passed where a session
// reference is expected; the compiler enforces what code review would miss.
package domain

import (
	"github.com/google/uuid"

	dErrors "rollcall/pkg/domain-errors"
)

// IdentityID references an enrolled identity (a student record in the
// identity-management collaborator).
type IdentityID uuid.UUID

// SessionID references a class session open for attendance marking.
type SessionID uuid.UUID

// PartitionID references the organizational partition (institution) scoping
// duplicate-face scans.
type PartitionID uuid.UUID

// AnomalyID references a persisted anomaly record.
type AnomalyID uuid.UUID

// AttendanceID references a persisted attendance record.
type AttendanceID uuid.UUID

func parse(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is not a valid uuid", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id must not be nil", kind)
	}
	return parsed, nil
}

// ParseIdentityID parses and validates an identity reference.
func ParseIdentityID(raw string) (IdentityID, error) {
	parsed, err := parse(raw, "identity")
	return IdentityID(parsed), err
}

// ParseSessionID parses and validates a session reference.
func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := parse(raw, "session")
	return SessionID(parsed), err
}

// ParsePartitionID parses and validates a partition reference.
func ParsePartitionID(raw string) (PartitionID, error) {
	parsed, err := parse(raw, "partition")
	return PartitionID(parsed), err
}

// ParseAnomalyID parses and validates an anomaly record reference.
func ParseAnomalyID(raw string) (AnomalyID, error) {
	parsed, err := parse(raw, "anomaly")
	return AnomalyID(parsed), err
}

// ParseAttendanceID parses and validates an attendance record reference.
func ParseAttendanceID(raw string) (AttendanceID, error) {
	parsed, err := parse(raw, "attendance")
	return AttendanceID(parsed), err
}

// NewIdentityID generates a fresh identity reference.
func NewIdentityID() IdentityID { return IdentityID(uuid.New()) }

// NewSessionID generates a fresh session reference.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewPartitionID generates a fresh partition reference.
func NewPartitionID() PartitionID { return PartitionID(uuid.New()) }

// NewAnomalyID generates a fresh anomaly record reference.
func NewAnomalyID() AnomalyID { return AnomalyID(uuid.New()) }

// NewAttendanceID generates a fresh attendance record reference.
func NewAttendanceID() AttendanceID { return AttendanceID(uuid.New()) }

func (id IdentityID) String() string   { return uuid.UUID(id).String() }
func (id SessionID) String() string    { return uuid.UUID(id).String() }
func (id PartitionID) String() string  { return uuid.UUID(id).String() }
func (id AnomalyID) String() string    { return uuid.UUID(id).String() }
func (id AttendanceID) String() string { return uuid.UUID(id).String() }

func (id IdentityID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id PartitionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AnomalyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AttendanceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
