package repositories

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrStaleRevision is returned when a rubric changed between read and rewrite.
	ErrStaleRevision = errors.New("rubric revision changed concurrently")
)
