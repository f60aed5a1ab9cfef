package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	citizenstore "suratdesa/internal/citizen/store"
	"suratdesa/internal/platform/kafka"
	"suratdesa/internal/platform/metrics"
	"suratdesa/internal/request/models"
	"suratdesa/internal/workflow"
	"suratdesa/pkg/sentinel"
)

const (
	DefaultMaxAttempts  = 5
	DefaultInitialDelay = 30 * time.Second
	retryPollInterval   = 5 * time.Second
)

// Notifier consumes transition events, composes the applicant-facing message
// and delivers it with exponential-backoff retries.
type Notifier struct {
	citizens citizenstore.Store
	sender   Sender
	queue    RetryQueue
	logger   *slog.Logger
	metrics  *metrics.Metrics

	maxAttempts  int
	initialDelay time.Duration
}

type Option func(*Notifier)

func WithMaxAttempts(n int) Option {
	return func(nf *Notifier) { nf.maxAttempts = n }
}

func WithInitialDelay(d time.Duration) Option {
	return func(nf *Notifier) { nf.initialDelay = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(nf *Notifier) { nf.metrics = m }
}

func New(citizens citizenstore.Store, sender Sender, queue RetryQueue, logger *slog.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		citizens:     citizens,
		sender:       sender,
		queue:        queue,
		logger:       logger,
		maxAttempts:  DefaultMaxAttempts,
		initialDelay: DefaultInitialDelay,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Handle implements the kafka consumer handler for transition events. It
// never returns an error for delivery problems; those go to the retry queue
// so the topic keeps flowing.
func (n *Notifier) Handle(ctx context.Context, msg *kafka.Message) error {
	var event workflow.TransitionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		n.logger.ErrorContext(ctx, "undecodable transition event, skipping",
			"topic", msg.Topic,
			"error", err,
		)
		return nil
	}
	return n.Notify(ctx, event)
}

// Notify composes and attempts delivery for one event.
func (n *Notifier) Notify(ctx context.Context, event workflow.TransitionEvent) error {
	applicant, err := n.citizens.GetCitizen(ctx, event.ApplicantID)
	if errors.Is(err, sentinel.ErrNotFound) || (err == nil && applicant.Email == "") {
		n.logger.WarnContext(ctx, "no notification recipient for applicant",
			"request_id", event.RequestID.String(),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve notification recipient: %w", err)
	}

	notification := Compose(event, applicant.Email)
	n.attempt(ctx, Pending{Notification: notification, Attempts: 0})
	return nil
}

// attempt tries one delivery; on failure it schedules the next attempt with
// doubled delay until attempts run out.
func (n *Notifier) attempt(ctx context.Context, p Pending) {
	if n.metrics != nil {
		n.metrics.IncNotificationAttempt()
	}
	err := n.sender.Send(ctx, p.Notification)
	if err == nil {
		return
	}
	if n.metrics != nil {
		n.metrics.IncNotificationFailure()
	}

	p.Attempts++
	if p.Attempts >= n.maxAttempts {
		n.logger.ErrorContext(ctx, "notification dropped after max attempts",
			"recipient", p.Notification.RecipientAddress,
			"attempts", p.Attempts,
			"error", err,
		)
		return
	}

	delay := n.initialDelay << (p.Attempts - 1)
	n.logger.WarnContext(ctx, "notification delivery failed, scheduling retry",
		"recipient", p.Notification.RecipientAddress,
		"attempts", p.Attempts,
		"retry_in", delay.String(),
		"error", err,
	)
	if qErr := n.queue.Schedule(ctx, p, time.Now().Add(delay)); qErr != nil {
		n.logger.ErrorContext(ctx, "failed to schedule notification retry", "error", qErr)
	}
}

// RunRetryLoop re-dispatches due retries until ctx is cancelled.
func (n *Notifier) RunRetryLoop(ctx context.Context) error {
	ticker := time.NewTicker(retryPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n.DispatchDue(ctx, time.Now())
		}
	}
}

// DispatchDue attempts every entry due at now; split out for tests.
func (n *Notifier) DispatchDue(ctx context.Context, now time.Time) {
	due, err := n.queue.Due(ctx, now)
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to read notification retry queue", "error", err)
		return
	}
	for _, p := range due {
		n.attempt(ctx, p)
	}
}

// Compose renders the applicant-facing message for an event. Rejections
// always carry the reviewer's note back verbatim.
func Compose(event workflow.TransitionEvent, recipient string) Notification {
	subject := fmt.Sprintf("Permohonan surat %s: %s", event.TypeCode, statusLabel(event.NewStatus))

	var body string
	switch {
	case event.NewStatus.IsRejected():
		body = fmt.Sprintf(
			"Permohonan Anda ditolak pada tahap %s dengan catatan: %s. Silakan ajukan permohonan baru.",
			stageLabel(event.Stage), event.Note)
	case event.NewStatus == models.StatusIssued:
		body = fmt.Sprintf(
			"Permohonan Anda telah diterbitkan dengan nomor %s dan siap dicetak.",
			event.IssuedNumber)
	default:
		body = fmt.Sprintf(
			"Permohonan Anda telah disetujui pada tahap %s dan sedang diproses lebih lanjut.",
			stageLabel(event.Stage))
	}

	return Notification{RecipientAddress: recipient, Subject: subject, Body: body}
}

func statusLabel(status models.Status) string {
	switch {
	case status.IsRejected():
		return "ditolak"
	case status == models.StatusIssued:
		return "diterbitkan"
	default:
		return "disetujui"
	}
}

func stageLabel(stage models.Stage) string {
	switch stage {
	case models.StageNeighborhood:
		return "RT/RW"
	case models.StageClerk:
		return "petugas kelurahan"
	case models.StageChief:
		return "lurah"
	}
	return string(stage)
}
