package workflow

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"suratdesa/internal/request/catalog"
	"suratdesa/internal/request/models"
	"suratdesa/internal/request/store"
	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domainerrors"
)

// =============================================================================
// Workflow Service Test Suite
// =============================================================================
// Justification for unit tests: the engine combines per-stage ownership,
// decision validation, skip-review routing, and conditional-update race
// semantics that need precise exercise against a controllable store.

type capturingPublisher struct {
	mu     sync.Mutex
	events []TransitionEvent
}

func (p *capturingPublisher) Publish(_ context.Context, event TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) waitFor(t *testing.T, n int) []TransitionEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		if len(p.events) >= n {
			out := append([]TransitionEvent(nil), p.events...)
			p.mu.Unlock()
			return out
		}
		p.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d events", n)
	return nil
}

type WorkflowServiceSuite struct {
	suite.Suite
	store     *store.MemoryStore
	publisher *capturingPublisher
	service   *Service

	applicant id.CitizenID
	reviewer  Actor
	clerk     Actor
	chief     Actor
}

func TestWorkflowServiceSuite(t *testing.T) {
	suite.Run(t, new(WorkflowServiceSuite))
}

func (s *WorkflowServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.publisher = &capturingPublisher{}

	var err error
	s.service, err = New(s.store, catalog.New(models.SeedTypes()), slog.Default(),
		WithPublisher(s.publisher))
	s.Require().NoError(err)

	s.applicant = id.NewCitizenID()
	s.reviewer = Actor{ID: id.NewUserID(), Role: id.RoleNeighborhood}
	s.clerk = Actor{ID: id.NewUserID(), Role: id.RoleClerk}
	s.chief = Actor{ID: id.NewUserID(), Role: id.RoleChief}
}

func (s *WorkflowServiceSuite) submit(code models.TypeCode, payload map[string]any) *models.Request {
	req, err := s.service.Submit(context.Background(), s.applicant, code, payload)
	s.Require().NoError(err)
	s.Require().Equal(models.StatusSubmitted, req.Status)
	return req
}

func (s *WorkflowServiceSuite) domicilePayload() map[string]any {
	return map[string]any{"address": "Jl. Merdeka 1", "since_year": "2019", "purpose": "administrasi"}
}

func (s *WorkflowServiceSuite) birthPayload() map[string]any {
	return map[string]any{
		"baby_name":   "Putri",
		"baby_sex":    "P",
		"birth_date":  "2025-06-01",
		"birth_place": "Puskesmas",
	}
}

// =============================================================================
// Submission Tests
// =============================================================================

func (s *WorkflowServiceSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("unknown type is rejected", func() {
		_, err := s.service.Submit(ctx, s.applicant, "XYZ", nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown payload field is rejected", func() {
		payload := s.domicilePayload()
		payload["favorite_color"] = "blue"
		_, err := s.service.Submit(ctx, s.applicant, models.TypeDomicile, payload)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("invalid roster code is rejected", func() {
		_, err := s.service.Submit(ctx, s.applicant, models.TypePoverty, map[string]any{
			"purpose": "beasiswa",
			"dependents": []any{
				map[string]any{"name": "Budi", "sex": "X", "relationship": "ANAK"},
			},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("valid submission lands at SUBMITTED", func() {
		req := s.submit(models.TypeDomicile, s.domicilePayload())
		s.True(req.Status.IsValid())
		s.Nil(req.Neighborhood)
	})
}

// =============================================================================
// Stage Ownership Tests
// =============================================================================

func (s *WorkflowServiceSuite) TestStageOwnership() {
	ctx := context.Background()

	s.Run("clerk cannot act on a reviewed type still at SUBMITTED", func() {
		req := s.submit(models.TypeDomicile, s.domicilePayload())
		_, err := s.service.Transition(ctx, req.ID, s.clerk, DecisionApprove, Extra{IssuedNumber: "Kel.001/X/2025"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("neighborhood cannot act on a skip-review type", func() {
		req := s.submit(models.TypeBirth, s.birthPayload())
		_, err := s.service.Transition(ctx, req.ID, s.reviewer, DecisionApprove, Extra{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("applicant can never transition", func() {
		req := s.submit(models.TypeDomicile, s.domicilePayload())
		actor := Actor{ID: id.NewUserID(), Role: id.RoleApplicant}
		_, err := s.service.Transition(ctx, req.ID, actor, DecisionApprove, Extra{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

// =============================================================================
// Scenario Tests
// =============================================================================

// Scenario A: neighborhood rejection stores the note and closes the request.
func (s *WorkflowServiceSuite) TestNeighborhoodReject() {
	ctx := context.Background()
	req := s.submit(models.TypeDomicile, s.domicilePayload())

	s.Run("reject without note is a validation error", func() {
		_, err := s.service.Transition(ctx, req.ID, s.reviewer, DecisionReject, Extra{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("reject with note lands at NEIGHBORHOOD_REJECTED", func() {
		updated, err := s.service.Transition(ctx, req.ID, s.reviewer, DecisionReject, Extra{Note: "tidak sesuai"})
		s.Require().NoError(err)
		s.Equal(models.StatusNeighborhoodRejected, updated.Status)
		s.Equal("tidak sesuai", updated.RejectionReason)
		s.Require().NotNil(updated.Neighborhood)
		s.Equal("tidak sesuai", updated.Neighborhood.Note)
		s.Equal(s.reviewer.ID, updated.Neighborhood.ReviewerID)
	})

	s.Run("no further transition is possible", func() {
		_, err := s.service.Transition(ctx, req.ID, s.clerk, DecisionApprove, Extra{IssuedNumber: "Kel.001/X/2025"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

// Scenario B: a skip-review type moves straight from SUBMITTED to
// CLERK_APPROVED with the number stored and no neighborhood stamp.
func (s *WorkflowServiceSuite) TestSkipReviewClerkApprove() {
	ctx := context.Background()
	req := s.submit(models.TypeBirth, s.birthPayload())

	updated, err := s.service.Transition(ctx, req.ID, s.clerk, DecisionApprove, Extra{IssuedNumber: "Kel.001/X/2025"})
	s.Require().NoError(err)
	s.Equal(models.StatusClerkApproved, updated.Status)
	s.Equal("Kel.001/X/2025", updated.IssuedNumber)
	s.Nil(updated.Neighborhood, "skipped stage must not be stamped")
	s.NotNil(updated.Clerk)
}

// Scenario C: chief approval of an issuing type lands at ISSUED.
func (s *WorkflowServiceSuite) TestChiefApproveIssues() {
	ctx := context.Background()
	req := s.submit(models.TypeDomicile, s.domicilePayload())

	_, err := s.service.Transition(ctx, req.ID, s.reviewer, DecisionApprove, Extra{})
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, req.ID, s.clerk, DecisionApprove, Extra{IssuedNumber: "Kel.007/X/2025"})
	s.Require().NoError(err)

	updated, err := s.service.Transition(ctx, req.ID, s.chief, DecisionApprove, Extra{})
	s.Require().NoError(err)
	s.Equal(models.StatusIssued, updated.Status)
	s.Equal("Kel.007/X/2025", updated.IssuedNumber)

	s.Run("ISSUED is terminal", func() {
		_, err := s.service.Transition(ctx, req.ID, s.chief, DecisionApprove, Extra{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *WorkflowServiceSuite) TestChiefApproveTrackedTypeEndsAtChiefApproved() {
	ctx := context.Background()
	req := s.submit(models.TypeGeneral, map[string]any{"subject": "keterangan", "purpose": "arsip"})

	_, err := s.service.Transition(ctx, req.ID, s.reviewer, DecisionApprove, Extra{})
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, req.ID, s.clerk, DecisionApprove, Extra{})
	s.Require().NoError(err)

	updated, err := s.service.Transition(ctx, req.ID, s.chief, DecisionApprove, Extra{})
	s.Require().NoError(err)
	s.Equal(models.StatusChiefApproved, updated.Status)
	s.Empty(updated.IssuedNumber)
}

// =============================================================================
// Number Gate Tests
// =============================================================================

func (s *WorkflowServiceSuite) TestClerkApprovalNumberGate() {
	ctx := context.Background()
	req := s.submit(models.TypeBirth, s.birthPayload())

	s.Run("missing number is a validation error", func() {
		_, err := s.service.Transition(ctx, req.ID, s.clerk, DecisionApprove, Extra{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("malformed number is a validation error", func() {
		_, err := s.service.Transition(ctx, req.ID, s.clerk, DecisionApprove, Extra{IssuedNumber: "nomor-bebas"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Concurrency Tests
// =============================================================================

// TestConcurrentApproval verifies the conditional update: of two clerks
// approving the same request, exactly one wins and the loser sees
// InvalidTransition.
func (s *WorkflowServiceSuite) TestConcurrentApproval() {
	ctx := context.Background()
	req := s.submit(models.TypeBirth, s.birthPayload())

	const racers = 8
	var wg sync.WaitGroup
	var successes, stale int
	var mu sync.Mutex

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Transition(ctx, req.ID, s.clerk, DecisionApprove, Extra{IssuedNumber: "Kel.002/X/2025"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
				stale++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes, "exactly one approval should win")
	s.Equal(racers-1, stale)
}

// =============================================================================
// Event Emission Tests
// =============================================================================

func (s *WorkflowServiceSuite) TestTransitionEmitsEvent() {
	ctx := context.Background()
	req := s.submit(models.TypeDomicile, s.domicilePayload())

	_, err := s.service.Transition(ctx, req.ID, s.reviewer, DecisionReject, Extra{Note: "data tidak lengkap"})
	s.Require().NoError(err)

	events := s.publisher.waitFor(s.T(), 1)
	event := events[0]
	s.Equal(req.ID, event.RequestID)
	s.Equal(models.StatusSubmitted, event.PreviousStatus)
	s.Equal(models.StatusNeighborhoodRejected, event.NewStatus)
	s.Equal(DecisionReject, event.Decision)
	s.Equal("data tidak lengkap", event.Note)
}
