// Package postgres persists attendance records. The insert rides the unique
// (identity_ref, session_ref) constraint so two concurrent attempts for the
// same pair cannot both commit; the loser sees the constraint violation, not
// a duplicate row.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"rollcall/internal/attendance"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed attendance store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, record *attendance.Record) error {
	query := `
		INSERT INTO attendance_records (
			id, identity_ref, session_ref, status,
			face_confidence, document_confidence, fingerprint_match,
			overall_confidence, method, marked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.IdentityID),
		uuid.UUID(record.SessionID),
		string(record.Status),
		record.FaceConfidence,
		record.DocumentConfidence,
		record.FingerprintMatch,
		record.OverallConfidence,
		record.Method,
		record.MarkedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyMarked
		}
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records
			WHERE identity_ref = $1 AND session_ref = $2
		)
	`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(identityID), uuid.UUID(sessionID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Get(ctx context.Context, attendanceID id.AttendanceID) (*attendance.Record, error) {
	query := selectColumns + ` WHERE id = $1`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(attendanceID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListBySession(ctx context.Context, sessionID id.SessionID) ([]attendance.Record, error) {
	query := selectColumns + ` WHERE session_ref = $1 ORDER BY marked_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("list session attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, attendanceID id.AttendanceID, status attendance.Status) (*attendance.Record, error) {
	query := `
		UPDATE attendance_records
		SET status = $2
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, uuid.UUID(attendanceID), string(status))
	if err != nil {
		return nil, fmt.Errorf("update attendance status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update attendance status rows affected: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrNotFound
	}

	return s.Get(ctx, attendanceID)
}

const selectColumns = `
	SELECT id, identity_ref, session_ref, status,
	       face_confidence, document_confidence, fingerprint_match,
	       overall_confidence, method, marked_at
	FROM attendance_records
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*attendance.Record, error) {
	var (
		rawID              uuid.UUID
		identityRef        uuid.UUID
		sessionRef         uuid.UUID
		status             string
		faceConfidence     sql.NullFloat64
		documentConfidence sql.NullFloat64
		fingerprintMatch   sql.NullBool
		overallConfidence  float64
		method             string
		markedAt           time.Time
	)
	err := row.Scan(
		&rawID, &identityRef, &sessionRef, &status,
		&faceConfidence, &documentConfidence, &fingerprintMatch,
		&overallConfidence, &method, &markedAt,
	)
	if err != nil {
		return nil, err
	}

	record := &attendance.Record{
		ID:                id.AttendanceID(rawID),
		IdentityID:        id.IdentityID(identityRef),
		SessionID:         id.SessionID(sessionRef),
		Status:            attendance.Status(status),
		OverallConfidence: overallConfidence,
		Method:            method,
		MarkedAt:          markedAt,
	}
	if faceConfidence.Valid {
		v := faceConfidence.Float64
		record.FaceConfidence = &v
	}
	if documentConfidence.Valid {
		v := documentConfidence.Float64
		record.DocumentConfidence = &v
	}
	if fingerprintMatch.Valid {
		v := fingerprintMatch.Bool
		record.FingerprintMatch = &v
	}
	return record, nil
}
