package handler

import (
	"time"

	"suratdesa/internal/request/models"
)

// StampResponse is the wire view of one stage decision.
type StampResponse struct {
	ReviewerID string    `json:"reviewer_id"`
	ReviewedAt time.Time `json:"reviewed_at"`
	Note       string    `json:"note,omitempty"`
}

// RequestResponse is the wire view of a letter request.
type RequestResponse struct {
	ID          string    `json:"id"`
	TypeCode    string    `json:"type_code"`
	ApplicantID string    `json:"applicant_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`

	Neighborhood *StampResponse `json:"neighborhood,omitempty"`
	Clerk        *StampResponse `json:"clerk,omitempty"`
	Chief        *StampResponse `json:"chief,omitempty"`

	IssuedNumber    string         `json:"issued_number,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	Payload         map[string]any `json:"payload"`
}

// FromRequest converts the domain request into its wire view.
func FromRequest(req *models.Request) RequestResponse {
	return RequestResponse{
		ID:              req.ID.String(),
		TypeCode:        string(req.TypeCode),
		ApplicantID:     req.ApplicantID.String(),
		Status:          string(req.Status),
		SubmittedAt:     req.SubmittedAt,
		Neighborhood:    fromStamp(req.Neighborhood),
		Clerk:           fromStamp(req.Clerk),
		Chief:           fromStamp(req.Chief),
		IssuedNumber:    req.IssuedNumber,
		RejectionReason: req.RejectionReason,
		Payload:         req.Payload,
	}
}

// FromRequests converts a list, keeping an empty slice over null on the wire.
func FromRequests(reqs []*models.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, FromRequest(req))
	}
	return out
}

func fromStamp(s *models.ReviewStamp) *StampResponse {
	if s == nil {
		return nil
	}
	return &StampResponse{
		ReviewerID: s.ReviewerID.String(),
		ReviewedAt: s.ReviewedAt,
		Note:       s.Note,
	}
}
