package identity

import (
	"context"

	id "rollcall/pkg/domain"
)

// Store is the read-only port onto the identity collaborator's records.
// Implementations return sentinel.ErrNotFound for unknown references.
type Store interface {
	// Get loads one identity with all enrolled templates.
	Get(ctx context.Context, identityID id.IdentityID) (*EnrolledIdentity, error)

	// ListFaceEnrolled returns the face templates of every identity in the
	// partition that has one. Used by the duplicate-face scan; order is
	// stable across calls so tie-breaks stay deterministic.
	ListFaceEnrolled(ctx context.Context, partition id.PartitionID) ([]FaceTemplate, error)
}
