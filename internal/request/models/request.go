package models

import (
	"time"

	id "suratdesa/pkg/domain"
)

// ReviewStamp records one stage decision. A stamp exists only for stages that
// actually ran; skipped stages leave a nil stamp.
type ReviewStamp struct {
	ReviewerID id.UserID
	ReviewedAt time.Time
	// Note carries the mandatory rejection note when the stage rejected.
	Note string
}

// Request is the persisted letter request. It is created at submission,
// mutated only through the workflow engine, and never deleted.
type Request struct {
	ID          id.RequestID
	TypeCode    TypeCode
	ApplicantID id.CitizenID
	Status      Status
	SubmittedAt time.Time

	Neighborhood *ReviewStamp
	Clerk        *ReviewStamp
	Chief        *ReviewStamp

	// IssuedNumber is present iff the request reached CLERK_APPROVED on an
	// issuing type; it survives into ISSUED.
	IssuedNumber string

	// Payload is the type-specific structured data captured at submission,
	// validated against the type's schema. May contain a dependents roster.
	Payload Payload

	// RejectionReason mirrors the rejecting stage's note; present iff the
	// status is a rejected-by-X state.
	RejectionReason string
}

// Stamp returns the stamp for the given stage, or nil.
func (r *Request) Stamp(stage Stage) *ReviewStamp {
	switch stage {
	case StageNeighborhood:
		return r.Neighborhood
	case StageClerk:
		return r.Clerk
	case StageChief:
		return r.Chief
	}
	return nil
}

// Clone returns a deep copy so in-memory stores never hand out shared state.
func (r *Request) Clone() *Request {
	cp := *r
	cp.Neighborhood = cloneStamp(r.Neighborhood)
	cp.Clerk = cloneStamp(r.Clerk)
	cp.Chief = cloneStamp(r.Chief)
	cp.Payload = r.Payload.Clone()
	return &cp
}

func cloneStamp(s *ReviewStamp) *ReviewStamp {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
