package models

import dErrors "suratdesa/pkg/domainerrors"

// Status is the fixed lifecycle state of a letter request. Requests only move
// forward through the approval chain; every *_REJECTED state and the final
// states are terminal.
type Status string

const (
	StatusSubmitted            Status = "SUBMITTED"
	StatusNeighborhoodApproved Status = "NEIGHBORHOOD_APPROVED"
	StatusNeighborhoodRejected Status = "NEIGHBORHOOD_REJECTED"
	StatusClerkApproved        Status = "CLERK_APPROVED"
	StatusClerkRejected        Status = "CLERK_REJECTED"
	StatusChiefApproved        Status = "CHIEF_APPROVED"
	StatusChiefRejected        Status = "CHIEF_REJECTED"
	StatusIssued               Status = "ISSUED"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusSubmitted, StatusNeighborhoodApproved, StatusNeighborhoodRejected,
		StatusClerkApproved, StatusClerkRejected,
		StatusChiefApproved, StatusChiefRejected, StatusIssued:
		return Status(raw), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown status %q", raw)
}

func (s Status) IsValid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// IsTerminal reports whether no further transition may leave s. ChiefApproved
// is the end of the chain for non-issuing types; issuing types end at Issued.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusNeighborhoodRejected, StatusClerkRejected, StatusChiefRejected,
		StatusChiefApproved, StatusIssued:
		return true
	}
	return false
}

// IsRejected reports whether s is a rejected-by-X state. A rejection note is
// present iff this holds.
func (s Status) IsRejected() bool {
	switch s {
	case StatusNeighborhoodRejected, StatusClerkRejected, StatusChiefRejected:
		return true
	}
	return false
}

// Stage names the approval stage that produced a stamp.
type Stage string

const (
	StageNeighborhood Stage = "neighborhood"
	StageClerk        Stage = "clerk"
	StageChief        Stage = "chief"
)
