// Package postgres reads session state from the collaborator-owned
// class_sessions table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type PostgresProvider struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session state provider.
func NewPostgres(db *sql.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

func (p *PostgresProvider) Active(ctx context.Context, sessionID id.SessionID) (bool, error) {
	query := `
		SELECT is_active
		FROM class_sessions
		WHERE id = $1
	`

	var active bool
	err := p.db.QueryRowContext(ctx, query, uuid.UUID(sessionID)).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, sentinel.ErrNotFound
		}
		return false, fmt.Errorf("get session state: %w", err)
	}
	return active, nil
}
