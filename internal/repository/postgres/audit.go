package postgres

import (
	"context"
	"fmt"

	"venuebook/internal/domain"
)

// AuditRepo appends to the audit log. Entries are never updated or deleted.
type AuditRepo struct {
	store *Store
}

// Append writes one audit entry. When the context carries an open
// transaction the entry commits atomically with the mutation it describes.
func (r *AuditRepo) Append(ctx context.Context, e *domain.AuditEntry) error {
	const op = "postgres.AuditRepo.Append"

	db := r.store.handle(ctx)

	_, err := db.Exec(ctx,
		`INSERT INTO audit_log (
			id, actor_id, action, target_kind, target_id, detail, created_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.ActorID, e.Action, e.TargetKind, e.TargetID, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// List returns recent entries, newest first. Plain retrieval for the admin
// dashboard.
func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	const op = "postgres.AuditRepo.List"

	db := r.store.handle(ctx)

	rows, err := db.Query(ctx,
		`SELECT id, actor_id, action, target_kind, target_id, detail, created_at
       	 FROM audit_log
      	 ORDER BY created_at DESC
      	 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.Action, &e.TargetKind, &e.TargetID,
			&e.Detail, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
