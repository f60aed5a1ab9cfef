package store

import (
	"context"

	"suratdesa/internal/request/models"
	id "suratdesa/pkg/domain"
)

// TransitionUpdate is the atomic write applied by one workflow transition.
// The store persists it only if the stored status still equals the expected
// predecessor; otherwise it returns sentinel.ErrStaleStatus and writes
// nothing.
type TransitionUpdate struct {
	NextStatus models.Status

	// Stage and Stamp record the reviewer decision; both empty for
	// stamp-less moves (none exist today, but the store does not assume).
	Stage models.Stage
	Stamp *models.ReviewStamp

	// IssuedNumber is set on clerk approval of issuing types.
	IssuedNumber string

	// RejectionReason is set when NextStatus is a rejected state.
	RejectionReason string
}

// Store persists letter requests. Implementations return sentinel errors for
// infrastructure facts; services translate them into coded domain errors.
type Store interface {
	Create(ctx context.Context, req *models.Request) error
	Get(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Request, error)

	// ApplyTransition performs the conditional read-modify-write guarding the
	// approval chain and returns the updated request.
	ApplyTransition(ctx context.Context, requestID id.RequestID, expected models.Status, upd TransitionUpdate) (*models.Request, error)
}
