// Package audit emits lifecycle events to the append-only audit log.
// Emission is best-effort: a failed write is logged and swallowed, never
// failing the operation that triggered it. When the caller's context
// carries an open transaction the entry still commits atomically with the
// mutation, so an audit row exists before success is reported whenever
// storage is healthy.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"venuebook/internal/domain"
)

type Log interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
	List(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error)
}

type Emitter struct {
	log    Log
	logger *slog.Logger
}

func NewEmitter(log Log, logger *slog.Logger) *Emitter {
	return &Emitter{log: log, logger: logger}
}

// Record appends one entry, filling in id and timestamp.
func (e *Emitter) Record(ctx context.Context, actorID int64, action, targetKind, targetID, detail string) {
	if e == nil || e.log == nil {
		return
	}

	entry := domain.AuditEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		TargetKind: targetKind,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}

	if err := e.log.Append(ctx, &entry); err != nil && e.logger != nil {
		e.logger.Warn("audit append failed",
			"action", action,
			"target_kind", targetKind,
			"target_id", targetID,
			"error", err,
		)
	}
}

// Trail returns recent entries for the admin dashboard, newest first.
func (e *Emitter) Trail(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	const op = "audit.Emitter.Trail"

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := e.log.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}
