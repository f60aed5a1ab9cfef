//go:build integration

package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"suratdesa/internal/request/models"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/sentinel"
	"suratdesa/pkg/testutil/containers"
)

// =============================================================================
// Postgres Store Integration Test Suite
// =============================================================================
// Justification for integration tests: the conditional UPDATE is the only
// thing standing between concurrent reviewers and a double approval, and its
// RowsAffected semantics can only be trusted against a real database.

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	schema, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations", "001_init.sql"))
	s.Require().NoError(err)
	s.pg = containers.NewPostgresContainer(s.T(), schema)
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx, `TRUNCATE requests`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newRequest() *models.Request {
	return &models.Request{
		ID:          id.NewRequestID(),
		TypeCode:    models.TypePoverty,
		ApplicantID: id.NewCitizenID(),
		Status:      models.StatusSubmitted,
		SubmittedAt: time.Now().UTC().Truncate(time.Microsecond),
		Payload: models.Payload{
			"purpose": "keringanan biaya sekolah",
			"dependents": []map[string]string{
				{"name": "Andi", "sex": "L", "birth_date": "2015-01-02", "relationship": "ANAK"},
			},
		},
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	req := s.newRequest()
	s.Require().NoError(s.store.Create(s.ctx, req))

	got, err := s.store.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.ID, got.ID)
	s.Equal(req.ApplicantID, got.ApplicantID)
	s.Equal(models.StatusSubmitted, got.Status)
	s.Equal("keringanan biaya sekolah", got.Payload["purpose"])

	// The roster comes back in its typed shape after the JSONB round trip.
	dependents := got.Payload.Dependents()
	s.Require().Len(dependents, 1)
	s.Equal("Andi", dependents[0]["name"])
}

func (s *PostgresStoreSuite) TestGetUnknownReturnsNotFound() {
	_, err := s.store.Get(s.ctx, id.NewRequestID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByStatus() {
	first := s.newRequest()
	s.Require().NoError(s.store.Create(s.ctx, first))

	second := s.newRequest()
	second.Status = models.StatusClerkApproved
	s.Require().NoError(s.store.Create(s.ctx, second))

	got, err := s.store.ListByStatus(s.ctx, models.StatusSubmitted)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(first.ID, got[0].ID)

	got, err = s.store.ListByStatus(s.ctx, models.StatusSubmitted, models.StatusClerkApproved)
	s.Require().NoError(err)
	s.Len(got, 2)
}

func (s *PostgresStoreSuite) TestApplyTransitionFullChain() {
	req := s.newRequest()
	s.Require().NoError(s.store.Create(s.ctx, req))

	reviewer := id.NewUserID()
	got, err := s.store.ApplyTransition(s.ctx, req.ID, models.StatusSubmitted, TransitionUpdate{
		NextStatus: models.StatusNeighborhoodApproved,
		Stage:      models.StageNeighborhood,
		Stamp:      &models.ReviewStamp{ReviewerID: reviewer, ReviewedAt: time.Now().UTC()},
	})
	s.Require().NoError(err)
	s.Equal(models.StatusNeighborhoodApproved, got.Status)
	s.Require().NotNil(got.Neighborhood)
	s.Equal(reviewer, got.Neighborhood.ReviewerID)
	s.Nil(got.Clerk)

	got, err = s.store.ApplyTransition(s.ctx, req.ID, models.StatusNeighborhoodApproved, TransitionUpdate{
		NextStatus:   models.StatusClerkApproved,
		Stage:        models.StageClerk,
		Stamp:        &models.ReviewStamp{ReviewerID: id.NewUserID(), ReviewedAt: time.Now().UTC()},
		IssuedNumber: "Kel.042/X/2025",
	})
	s.Require().NoError(err)
	s.Equal("Kel.042/X/2025", got.IssuedNumber)
	s.Require().NotNil(got.Clerk)
	// The earlier stamp survives untouched.
	s.Require().NotNil(got.Neighborhood)
	s.Equal(reviewer, got.Neighborhood.ReviewerID)
}

func (s *PostgresStoreSuite) TestApplyTransitionStaleStatus() {
	req := s.newRequest()
	s.Require().NoError(s.store.Create(s.ctx, req))

	_, err := s.store.ApplyTransition(s.ctx, req.ID, models.StatusNeighborhoodApproved, TransitionUpdate{
		NextStatus: models.StatusClerkApproved,
	})
	s.ErrorIs(err, sentinel.ErrStaleStatus)

	got, err := s.store.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, got.Status)
}

func (s *PostgresStoreSuite) TestApplyTransitionUnknownRequest() {
	_, err := s.store.ApplyTransition(s.ctx, id.NewRequestID(), models.StatusSubmitted, TransitionUpdate{
		NextStatus: models.StatusNeighborhoodApproved,
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentTransitionsOnlyOneWins() {
	req := s.newRequest()
	s.Require().NoError(s.store.Create(s.ctx, req))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.store.ApplyTransition(s.ctx, req.ID, models.StatusSubmitted, TransitionUpdate{
				NextStatus: models.StatusNeighborhoodApproved,
				Stage:      models.StageNeighborhood,
				Stamp:      &models.ReviewStamp{ReviewerID: id.NewUserID(), ReviewedAt: time.Now().UTC()},
			})
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			s.ErrorIs(err, sentinel.ErrStaleStatus)
		}
	}
	s.Equal(1, won, "exactly one concurrent reviewer may win the conditional update")
}
