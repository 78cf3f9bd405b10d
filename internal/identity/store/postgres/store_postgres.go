// Package postgres reads enrolled identities from the collaborator-owned
// identities table. This store never writes; enrollment belongs to the
// identity-management system.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rollcall/internal/comparator"
	"rollcall/internal/identity"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity reader.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, identityID id.IdentityID) (*identity.EnrolledIdentity, error) {
	query := `
		SELECT id, partition_id, full_name, roll_code, face_embedding, fingerprint_hash
		FROM identities
		WHERE id = $1
	`

	var (
		rawID           uuid.UUID
		rawPartition    uuid.UUID
		fullName        string
		rollCode        sql.NullString
		embedding       pq.Float64Array
		fingerprintHash sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(identityID)).Scan(
		&rawID,
		&rawPartition,
		&fullName,
		&rollCode,
		&embedding,
		&fingerprintHash,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}

	record := &identity.EnrolledIdentity{
		ID:              id.IdentityID(rawID),
		Partition:       id.PartitionID(rawPartition),
		FullName:        fullName,
		RollCode:        rollCode.String,
		FingerprintHash: fingerprintHash.String,
	}
	if len(embedding) > 0 {
		record.FaceTemplate = comparator.EncodeEmbedding(embedding)
	}
	return record, nil
}

func (s *PostgresStore) ListFaceEnrolled(ctx context.Context, partition id.PartitionID) ([]identity.FaceTemplate, error) {
	// Ordered by enrollment time so scan tie-breaks stay deterministic.
	query := `
		SELECT id, face_embedding
		FROM identities
		WHERE partition_id = $1 AND face_embedding IS NOT NULL
		ORDER BY enrolled_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(partition))
	if err != nil {
		return nil, fmt.Errorf("list face enrolled: %w", err)
	}
	defer rows.Close()

	var templates []identity.FaceTemplate
	for rows.Next() {
		var (
			rawID     uuid.UUID
			embedding pq.Float64Array
		)
		if err := rows.Scan(&rawID, &embedding); err != nil {
			return nil, fmt.Errorf("scan face template: %w", err)
		}
		templates = append(templates, identity.FaceTemplate{
			IdentityID: id.IdentityID(rawID),
			Template:   comparator.EncodeEmbedding(embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face templates: %w", err)
	}
	return templates, nil
}
