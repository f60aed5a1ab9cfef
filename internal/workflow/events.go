package workflow

import (
	"context"
	"time"

	"suratdesa/internal/request/models"
	id "suratdesa/pkg/domain"
)

// TransitionEvent is emitted after every successful transition. Delivery is
// fire-and-forget: the notifier consumes these from the broker with its own
// retry policy, so a publish failure never rolls back the state change.
type TransitionEvent struct {
	RequestID      id.RequestID    `json:"request_id"`
	TypeCode       models.TypeCode `json:"type_code"`
	ApplicantID    id.CitizenID    `json:"applicant_id"`
	PreviousStatus models.Status   `json:"previous_status"`
	NewStatus      models.Status   `json:"new_status"`
	Decision       Decision        `json:"decision"`
	Stage          models.Stage    `json:"stage"`
	Note           string          `json:"note,omitempty"`
	IssuedNumber   string          `json:"issued_number,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// Publisher delivers transition events to the outbound topic.
type Publisher interface {
	Publish(ctx context.Context, event TransitionEvent) error
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TransitionEvent) error { return nil }
