// Package session exposes the read-only session state check. Session
// scheduling belongs to the course-management collaborator; this service only
// asks whether a session currently accepts new marks.
package session

import (
	"context"

	id "rollcall/pkg/domain"
)

// StateProvider reports whether a session is open for attendance marking.
// Implementations return sentinel.ErrNotFound for unknown sessions.
type StateProvider interface {
	Active(ctx context.Context, sessionID id.SessionID) (bool, error)
}
