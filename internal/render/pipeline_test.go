package render

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	citizenmodels "suratdesa/internal/citizen/models"
	citizenstore "suratdesa/internal/citizen/store"
	"suratdesa/internal/render/binder"
	"suratdesa/internal/render/layout"
	"suratdesa/internal/request/models"
	"suratdesa/internal/request/store"
	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domainerrors"
	"suratdesa/pkg/requestcontext"
)

// fakeEngine echoes the markup as the "binary" document so tests can assert
// on bound content without a wkhtmltopdf binary.
type fakeEngine struct {
	calls atomic.Int32
	delay time.Duration
}

func (e *fakeEngine) Convert(ctx context.Context, markup string) ([]byte, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.delay):
		}
	}
	return []byte(markup), nil
}

type fixture struct {
	pipeline *Pipeline
	requests *store.MemoryStore
	citizens *citizenstore.MemoryStore
	engine   *fakeEngine

	applicant *citizenmodels.Citizen
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	registry, err := layout.New()
	require.NoError(t, err)

	f := &fixture{
		requests: store.NewMemory(),
		citizens: citizenstore.NewMemory(),
		engine:   &fakeEngine{},
	}
	f.applicant = &citizenmodels.Citizen{
		ID:          id.NewCitizenID(),
		HouseholdID: id.NewHouseholdID(),
		NIK:         "3201010101900002",
		Name:        "Agus Salim",
		Sex:         models.SexMale,
		BirthPlace:  "Bogor",
		BirthDate:   time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Address:     "Jl. Anggrek 9",
	}
	f.citizens.PutCitizen(f.applicant)
	f.citizens.PutHousehold(&citizenmodels.Household{
		ID:      f.applicant.HouseholdID,
		Address: "Jl. Anggrek 9",
	})

	f.pipeline = New(f.requests, binder.New(f.citizens), registry, f.engine, slog.Default(), opts...)
	return f
}

func (f *fixture) addRequest(t *testing.T, code models.TypeCode, payload models.Payload) *models.Request {
	t.Helper()
	req := &models.Request{
		ID:           id.NewRequestID(),
		TypeCode:     code,
		ApplicantID:  f.applicant.ID,
		Status:       models.StatusIssued,
		SubmittedAt:  time.Now(),
		IssuedNumber: "Kel.010/X/2025",
		Payload:      payload,
	}
	require.NoError(t, f.requests.Create(context.Background(), req))
	return req
}

func domicilePayload() models.Payload {
	return models.Payload{"address": "Jl. Anggrek 9", "since_year": "2018", "purpose": "administrasi"}
}

func TestRender_Success(t *testing.T) {
	f := newFixture(t)
	req := f.addRequest(t, models.TypeDomicile, domicilePayload())

	out, err := f.pipeline.Render(context.Background(), req.ID, id.UserID(f.applicant.ID), id.RoleApplicant)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Contains(t, string(out), "Agus Salim")
	assert.Contains(t, string(out), "Kel.010/X/2025")
	assert.Contains(t, string(out), "SURAT KETERANGAN DOMISILI")
}

// Two renders against unchanged data yield the same content when the request
// clock is pinned.
func TestRender_Idempotent(t *testing.T) {
	f := newFixture(t)
	req := f.addRequest(t, models.TypeDomicile, domicilePayload())

	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 10, 5, 8, 0, 0, 0, time.UTC))
	first, err := f.pipeline.Render(ctx, req.ID, id.UserID(f.applicant.ID), id.RoleApplicant)
	require.NoError(t, err)
	second, err := f.pipeline.Render(ctx, req.ID, id.UserID(f.applicant.ID), id.RoleApplicant)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// Scenario: a type with no registered layout fails hard with no output and
// the engine is never launched.
func TestRender_TemplateNotFound(t *testing.T) {
	f := newFixture(t)
	req := f.addRequest(t, models.TypeGeneral, models.Payload{"subject": "arsip", "purpose": "arsip"})

	out, err := f.pipeline.Render(context.Background(), req.ID, id.NewUserID(), id.RoleClerk)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTemplateNotFound))
	assert.Nil(t, out)
	assert.Zero(t, f.engine.calls.Load())
}

func TestRender_MissingDependencyAborts(t *testing.T) {
	f := newFixture(t)
	req := &models.Request{
		ID:          id.NewRequestID(),
		TypeCode:    models.TypeDomicile,
		ApplicantID: id.NewCitizenID(), // no such citizen
		Status:      models.StatusIssued,
		Payload:     domicilePayload(),
	}
	require.NoError(t, f.requests.Create(context.Background(), req))

	out, err := f.pipeline.Render(context.Background(), req.ID, id.NewUserID(), id.RoleClerk)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingDependency))
	assert.Nil(t, out)
	assert.Zero(t, f.engine.calls.Load())
}

func TestRender_AccessControl(t *testing.T) {
	f := newFixture(t)
	req := f.addRequest(t, models.TypeDomicile, domicilePayload())
	reviewerID := id.NewUserID()

	t.Run("other applicant is rejected", func(t *testing.T) {
		_, err := f.pipeline.Render(context.Background(), req.ID, id.NewUserID(), id.RoleApplicant)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unstamped neighborhood reviewer is rejected", func(t *testing.T) {
		_, err := f.pipeline.Render(context.Background(), req.ID, reviewerID, id.RoleNeighborhood)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("stamped neighborhood reviewer may render", func(t *testing.T) {
		stamped := f.addRequest(t, models.TypeDomicile, domicilePayload())
		_, err := f.requests.ApplyTransition(context.Background(), stamped.ID, models.StatusIssued, store.TransitionUpdate{
			NextStatus: models.StatusIssued,
			Stage:      models.StageNeighborhood,
			Stamp:      &models.ReviewStamp{ReviewerID: reviewerID, ReviewedAt: time.Now()},
		})
		require.NoError(t, err)

		_, err = f.pipeline.Render(context.Background(), stamped.ID, reviewerID, id.RoleNeighborhood)
		assert.NoError(t, err)
	})

	t.Run("admin may always render", func(t *testing.T) {
		_, err := f.pipeline.Render(context.Background(), req.ID, id.NewUserID(), id.RoleAdmin)
		assert.NoError(t, err)
	})
}

func TestRender_TimeoutSurfacesGenericFailure(t *testing.T) {
	f := newFixture(t, WithTimeout(20*time.Millisecond))
	f.engine.delay = 500 * time.Millisecond
	req := f.addRequest(t, models.TypeDomicile, domicilePayload())

	_, err := f.pipeline.Render(context.Background(), req.ID, id.NewUserID(), id.RoleClerk)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRenderingFailure))
	assert.Equal(t, "document unavailable", dErrors.MessageOf(err))
	assert.NotContains(t, dErrors.MessageOf(err), "deadline")
}

func TestRender_DependentsRosterInMarkup(t *testing.T) {
	f := newFixture(t)
	req := f.addRequest(t, models.TypePoverty, models.Payload{
		"purpose": "beasiswa",
		"dependents": []map[string]string{
			{"name": "Budi", "sex": "L", "relationship": "ANAK"},
		},
	})

	out, err := f.pipeline.Render(context.Background(), req.ID, id.NewUserID(), id.RoleChief)
	require.NoError(t, err)
	markup := string(out)
	assert.Contains(t, markup, "Budi")
	assert.Contains(t, markup, "Laki-laki")
	assert.Contains(t, markup, "Anak")
}

func TestRender_UnmappedSlotRendersPlaceholder(t *testing.T) {
	f := newFixture(t)
	// Single-status letter binds father/mother from the household; with no
	// members both render as dashes instead of failing.
	req := f.addRequest(t, models.TypeSingleStatus, models.Payload{"purpose": "melamar kerja"})

	out, err := f.pipeline.Render(context.Background(), req.ID, id.NewUserID(), id.RoleClerk)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Nama Ayah</td><td>:</td><td>-")
}

func TestRender_ConcurrencyBound(t *testing.T) {
	f := newFixture(t, WithConcurrency(1), WithTimeout(5*time.Second))
	f.engine.delay = 50 * time.Millisecond
	req := f.addRequest(t, models.TypeDomicile, domicilePayload())

	start := time.Now()
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := f.pipeline.Render(context.Background(), req.ID, id.NewUserID(), id.RoleClerk)
			done <- err
		}()
	}
	require.NoError(t, <-done)
	require.NoError(t, <-done)
	// With a single slot the two conversions must have run serially.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
