// Package notify delivers applicant-facing messages for workflow
// transitions. Delivery is decoupled from the state machine: the notifier
// consumes transition events from the broker and owns its own retry policy,
// so a delivery failure can never roll back a transition.
package notify

import (
	"context"
	"log/slog"
)

// Notification is what the delivery collaborator accepts.
type Notification struct {
	RecipientAddress string `json:"recipient_address"`
	Subject          string `json:"subject"`
	Body             string `json:"body"`
}

// Sender hands a notification to the delivery collaborator. Best-effort;
// callers handle retry.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log. It stands in for a real
// delivery collaborator in development and tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.Logger.InfoContext(ctx, "notification",
		"recipient", n.RecipientAddress,
		"subject", n.Subject,
	)
	return nil
}
