package handler

import (
	"suratdesa/internal/request/models"
	"suratdesa/internal/workflow"
	dErrors "suratdesa/pkg/domainerrors"
)

// SubmitRequest is the wire shape of POST /requests.
type SubmitRequest struct {
	TypeCode string `json:"type_code"`
	// ApplicantID lets an admin submit on a citizen's behalf; applicants
	// submit for themselves and must leave it empty.
	ApplicantID string         `json:"applicant_id,omitempty"`
	Payload     map[string]any `json:"payload"`
}

// VerifyRequest is the wire shape of PATCH /requests/{id}/verify. The caller
// names the status they are steering toward; the workflow engine still
// computes and enforces the legal next state itself.
type VerifyRequest struct {
	Status        string `json:"status"`
	RejectionNote string `json:"rejection_note,omitempty"`
	IssuedNumber  string `json:"issued_number,omitempty"`
}

// Decision maps the target status onto the reviewer's verdict.
func (r VerifyRequest) Decision() (workflow.Decision, error) {
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		return "", err
	}
	if status.IsRejected() {
		return workflow.DecisionReject, nil
	}
	switch status {
	case models.StatusNeighborhoodApproved, models.StatusClerkApproved,
		models.StatusChiefApproved, models.StatusIssued:
		return workflow.DecisionApprove, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "status %s is not a reviewer decision", status)
}
