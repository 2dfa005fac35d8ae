package tenant

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool the control-plane store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGStore reads tenant records from the Master control-plane database.
type PGStore struct {
	db Querier
}

// NewPGStore creates a control-plane store over the Master database pool.
func NewPGStore(db Querier) *PGStore {
	return &PGStore{db: db}
}

// ListActive returns every active tenant registered in the control plane.
func (s *PGStore) ListActive(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, dominio, database_name, nombre, COALESCE(logo_url, ''), status, created_at
		FROM tenant
		WHERE status = $1
		ORDER BY dominio`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("tenant: query control plane: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Slug, &rec.DatabaseName, &rec.Name, &rec.LogoURL, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("tenant: scan tenant record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenant: read tenant records: %w", err)
	}
	return records, nil
}
