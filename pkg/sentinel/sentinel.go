package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store
// - ErrStaleStatus: conditional status update lost the race; the stored
//   status no longer equals the expected predecessor
// - ErrConflict: unique constraint or duplicate write
// - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrStaleStatus = errors.New("stale status")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
