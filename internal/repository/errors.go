package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict covers both unique-constraint violations (a concurrent
	// admission won the slot) and guarded status updates that matched no
	// row because the state moved underneath the caller.
	ErrConflict = errors.New("conflict")
)
