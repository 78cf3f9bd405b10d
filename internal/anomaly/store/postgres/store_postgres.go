// Package postgres persists anomaly records. Inserts are plain appends; the
// resolution update guards on resolved=false so a second resolution attempt
// surfaces as a conflict instead of overwriting reviewer notes.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/anomaly"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

const defaultListLimit = 50

type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed anomaly store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, record *anomaly.Record) error {
	query := `
		INSERT INTO anomalies (
			id, identity_ref, session_ref, type, severity, reason, details,
			resolved, occurred_at, source_address, device_info
		) VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $9, $10)
	`

	var details []byte
	if record.Details != nil {
		var err error
		details, err = json.Marshal(record.Details)
		if err != nil {
			return fmt.Errorf("marshal anomaly details: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		nullUUID(uuid.UUID(record.IdentityID)),
		nullUUID(uuid.UUID(record.SessionID)),
		string(record.Type),
		string(record.Severity),
		record.Reason,
		nullBytes(details),
		record.OccurredAt,
		nullString(record.SourceAddress),
		nullString(record.DeviceInfo),
	)
	if err != nil {
		return fmt.Errorf("insert anomaly: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, anomalyID id.AnomalyID) (*anomaly.Record, error) {
	query := selectColumns + ` WHERE id = $1`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(anomalyID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get anomaly: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) CountByTypeSince(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID, anomalyType anomaly.Type, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM anomalies
		WHERE identity_ref = $1 AND session_ref = $2 AND type = $3 AND occurred_at >= $4
	`

	var count int
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(identityID),
		uuid.UUID(sessionID),
		string(anomalyType),
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count anomalies: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListSourceIdentities(ctx context.Context, sourceAddress string, sessionID id.SessionID) ([]id.IdentityID, error) {
	query := `
		SELECT DISTINCT identity_ref
		FROM anomalies
		WHERE source_address = $1 AND session_ref = $2 AND identity_ref IS NOT NULL
	`

	rows, err := s.db.QueryContext(ctx, query, sourceAddress, uuid.UUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("list source identities: %w", err)
	}
	defer rows.Close()

	var identities []id.IdentityID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan source identity: %w", err)
		}
		identities = append(identities, id.IdentityID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source identities: %w", err)
	}
	return identities, nil
}

func (s *PostgresStore) List(ctx context.Context, filter anomaly.Filter) ([]anomaly.Record, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Resolved != nil {
		conditions = append(conditions, "resolved = "+arg(*filter.Resolved))
	}
	if filter.Severity != "" {
		conditions = append(conditions, "severity = "+arg(string(filter.Severity)))
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = "+arg(string(filter.Type)))
	}
	if !filter.SessionID.IsNil() {
		conditions = append(conditions, "session_ref = "+arg(uuid.UUID(filter.SessionID)))
	}

	query := selectColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY occurred_at DESC, id LIMIT " + arg(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}
	defer rows.Close()

	var records []anomaly.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anomalies: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) MarkResolved(ctx context.Context, anomalyID id.AnomalyID, resolvedBy, notes string, at time.Time) (*anomaly.Record, error) {
	query := `
		UPDATE anomalies
		SET resolved = true, resolved_by = $2, resolution_notes = $3, resolved_at = $4
		WHERE id = $1 AND resolved = false
	`

	result, err := s.db.ExecContext(ctx, query, uuid.UUID(anomalyID), resolvedBy, notes, at)
	if err != nil {
		return nil, fmt.Errorf("resolve anomaly: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resolve anomaly rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing record from an already-resolved one.
		if _, err := s.Get(ctx, anomalyID); err != nil {
			return nil, err
		}
		return nil, sentinel.ErrAnomalyResolved
	}

	return s.Get(ctx, anomalyID)
}

const selectColumns = `
	SELECT id, identity_ref, session_ref, type, severity, reason, details,
	       resolved, resolved_by, resolution_notes, resolved_at,
	       occurred_at, source_address, device_info
	FROM anomalies
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*anomaly.Record, error) {
	var (
		rawID           uuid.UUID
		identityRef     uuid.NullUUID
		sessionRef      uuid.NullUUID
		anomalyType     string
		severity        string
		reason          string
		details         []byte
		resolved        bool
		resolvedBy      sql.NullString
		resolutionNotes sql.NullString
		resolvedAt      sql.NullTime
		occurredAt      time.Time
		sourceAddress   sql.NullString
		deviceInfo      sql.NullString
	)
	err := row.Scan(
		&rawID, &identityRef, &sessionRef, &anomalyType, &severity, &reason, &details,
		&resolved, &resolvedBy, &resolutionNotes, &resolvedAt,
		&occurredAt, &sourceAddress, &deviceInfo,
	)
	if err != nil {
		return nil, err
	}

	record := &anomaly.Record{
		ID:              id.AnomalyID(rawID),
		IdentityID:      id.IdentityID(identityRef.UUID),
		SessionID:       id.SessionID(sessionRef.UUID),
		Type:            anomaly.Type(anomalyType),
		Severity:        anomaly.Severity(severity),
		Reason:          reason,
		Resolved:        resolved,
		ResolvedBy:      resolvedBy.String,
		ResolutionNotes: resolutionNotes.String,
		OccurredAt:      occurredAt,
		SourceAddress:   sourceAddress.String,
		DeviceInfo:      deviceInfo.String,
	}
	if resolvedAt.Valid {
		at := resolvedAt.Time
		record.ResolvedAt = &at
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &record.Details); err != nil {
			return nil, fmt.Errorf("unmarshal anomaly details: %w", err)
		}
	}
	return record, nil
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
