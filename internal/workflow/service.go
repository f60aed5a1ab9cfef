// Package workflow owns the approval state machine. Every request mutation
// goes through Transition; stores only persist what the engine decided.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"suratdesa/internal/docnumber"
	"suratdesa/internal/platform/metrics"
	"suratdesa/internal/request/catalog"
	"suratdesa/internal/request/models"
	"suratdesa/internal/request/store"
	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domainerrors"
	"suratdesa/pkg/requestcontext"
	"suratdesa/pkg/sentinel"
)

// Decision is the reviewer's verdict on the stage they own.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Actor is the identity-collaborator view of the caller, trusted verbatim.
type Actor struct {
	ID   id.UserID
	Role id.Role
}

// Extra carries the decision-dependent inputs: a rejection note on REJECT,
// a composed document number on clerk approval of issuing types.
type Extra struct {
	Note         string
	IssuedNumber string
}

const publishTimeout = 5 * time.Second

type Service struct {
	store     store.Store
	catalog   *catalog.Catalog
	numbers   *docnumber.Assigner
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(st store.Store, cat *catalog.Catalog, logger *slog.Logger, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if cat == nil {
		return nil, fmt.Errorf("document type catalog is required")
	}
	svc := &Service{
		store:     st,
		catalog:   cat,
		numbers:   docnumber.New(),
		publisher: NopPublisher{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Submit creates a request at SUBMITTED with a schema-validated payload.
func (s *Service) Submit(ctx context.Context, applicantID id.CitizenID, code models.TypeCode, rawPayload map[string]any) (*models.Request, error) {
	docType, err := s.catalog.Get(code)
	if err != nil {
		return nil, err
	}
	payload, err := models.ValidatePayload(docType.Code, rawPayload)
	if err != nil {
		return nil, err
	}

	req := &models.Request{
		ID:          id.NewRequestID(),
		TypeCode:    docType.Code,
		ApplicantID: applicantID,
		Status:      models.StatusSubmitted,
		SubmittedAt: requestcontext.Now(ctx),
		Payload:     payload,
	}
	if err := s.store.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}

	s.logger.InfoContext(ctx, "request submitted",
		"request_id", req.ID.String(),
		"type_code", string(req.TypeCode),
	)
	return req, nil
}

// Get fetches one request.
func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	req, err := s.store.Get(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	return req, nil
}

// ListByStatus lists requests sitting in any of the given statuses.
func (s *Service) ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Request, error) {
	reqs, err := s.store.ListByStatus(ctx, statuses...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return reqs, nil
}

// Transition validates actor and decision against the request's current
// stage, persists the computed next state via a conditional update, and emits
// a transition event. Stages are strictly sequential; a lost conditional
// update surfaces as InvalidTransition, not as a silent overwrite.
func (s *Service) Transition(ctx context.Context, requestID id.RequestID, actor Actor, decision Decision, extra Extra) (*models.Request, error) {
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	docType, err := s.catalog.Get(req.TypeCode)
	if err != nil {
		return nil, err
	}

	if req.Status.IsTerminal() {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "request is already %s", req.Status)
	}

	stage, owner := stageOwner(req.Status, docType)
	if stage == "" {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "no stage owns status %s", req.Status)
	}
	if actor.Role != owner {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "role %s does not own the %s stage", actor.Role, stage)
	}

	upd, err := s.buildUpdate(req.Status, stage, docType, actor, decision, extra, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	updated, err := s.store.ApplyTransition(ctx, requestID, req.Status, *upd)
	switch {
	case errors.Is(err, sentinel.ErrStaleStatus):
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "request state changed concurrently")
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist transition")
	}

	s.logger.InfoContext(ctx, "request transitioned",
		"request_id", requestID.String(),
		"stage", string(stage),
		"decision", string(decision),
		"status", string(updated.Status),
	)
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(stage), string(decision))
	}

	s.publish(TransitionEvent{
		RequestID:      updated.ID,
		TypeCode:       updated.TypeCode,
		ApplicantID:    updated.ApplicantID,
		PreviousStatus: req.Status,
		NewStatus:      updated.Status,
		Decision:       decision,
		Stage:          stage,
		Note:           extra.Note,
		IssuedNumber:   updated.IssuedNumber,
		OccurredAt:     requestcontext.Now(ctx),
	})
	return updated, nil
}

// stageOwner resolves which stage, and therefore which role, owns the current
// status. SUBMITTED belongs to the clerk when the type skips neighborhood
// review; the neighborhood stamp is never written in that case.
func stageOwner(status models.Status, docType models.DocumentType) (models.Stage, id.Role) {
	switch status {
	case models.StatusSubmitted:
		if docType.RequiresNeighborhoodReview {
			return models.StageNeighborhood, id.RoleNeighborhood
		}
		return models.StageClerk, id.RoleClerk
	case models.StatusNeighborhoodApproved:
		return models.StageClerk, id.RoleClerk
	case models.StatusClerkApproved:
		return models.StageChief, id.RoleChief
	}
	return "", ""
}

func (s *Service) buildUpdate(current models.Status, stage models.Stage, docType models.DocumentType, actor Actor, decision Decision, extra Extra, now time.Time) (*store.TransitionUpdate, error) {
	stamp := &models.ReviewStamp{ReviewerID: actor.ID, ReviewedAt: now}
	upd := &store.TransitionUpdate{Stage: stage, Stamp: stamp}

	switch decision {
	case DecisionReject:
		if extra.Note == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "a rejection note is required")
		}
		stamp.Note = extra.Note
		upd.RejectionReason = extra.Note
		switch stage {
		case models.StageNeighborhood:
			upd.NextStatus = models.StatusNeighborhoodRejected
		case models.StageClerk:
			upd.NextStatus = models.StatusClerkRejected
		case models.StageChief:
			upd.NextStatus = models.StatusChiefRejected
		}
		return upd, nil

	case DecisionApprove:
		switch stage {
		case models.StageNeighborhood:
			upd.NextStatus = models.StatusNeighborhoodApproved
		case models.StageClerk:
			if err := s.numbers.Validate(docType, extra.IssuedNumber); err != nil {
				return nil, err
			}
			upd.NextStatus = models.StatusClerkApproved
			upd.IssuedNumber = extra.IssuedNumber
		case models.StageChief:
			if docType.Issuing {
				upd.NextStatus = models.StatusIssued
			} else {
				upd.NextStatus = models.StatusChiefApproved
			}
		}
		return upd, nil
	}
	return nil, dErrors.Newf(dErrors.CodeValidation, "unknown decision %q", decision)
}

// publish hands the event to the broker without gating the transition. The
// goroutine gets its own context so a slow broker cannot hold the request.
func (s *Service) publish(event TransitionEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish transition event",
				"request_id", event.RequestID.String(),
				"error", err,
			)
			if s.metrics != nil {
				s.metrics.IncPublishFailures()
			}
		}
	}()
}
