package anomaly

import (
	"context"
	"time"

	id "rollcall/pkg/domain"
)

// Store is the persistence port for anomaly records. Inserts are append-only;
// MarkResolved is the single permitted mutation and is terminal.
type Store interface {
	// Insert appends one record.
	Insert(ctx context.Context, record *Record) error

	// Get loads one record by reference.
	Get(ctx context.Context, anomalyID id.AnomalyID) (*Record, error)

	// CountByTypeSince counts records of one type for an (identity, session)
	// pair with OccurredAt at or after since. Feeds the failure throttle.
	CountByTypeSince(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID, anomalyType Type, since time.Time) (int, error)

	// ListSourceIdentities returns the distinct identities previously
	// associated with a source address in one session. Feeds the
	// shared-address collision check.
	ListSourceIdentities(ctx context.Context, sourceAddress string, sessionID id.SessionID) ([]id.IdentityID, error)

	// List returns records matching the filter, most recent first.
	List(ctx context.Context, filter Filter) ([]Record, error)

	// MarkResolved sets the terminal resolution fields. Returns
	// sentinel.ErrNotFound for unknown records and
	// sentinel.ErrAnomalyResolved when already resolved.
	MarkResolved(ctx context.Context, anomalyID id.AnomalyID, resolvedBy, notes string, at time.Time) (*Record, error)
}
