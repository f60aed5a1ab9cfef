// Package render turns a request into a printable PDF letter. The pipeline
// is recompute-only: nothing is cached, every call binds fresh data and runs
// a fresh engine instance under a concurrency bound and a hard timeout.
package render

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"suratdesa/internal/platform/metrics"
	"suratdesa/internal/render/binder"
	"suratdesa/internal/render/engine"
	"suratdesa/internal/render/layout"
	"suratdesa/internal/request/models"
	"suratdesa/internal/request/store"
	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domainerrors"
	"suratdesa/pkg/sentinel"
)

const (
	DefaultConcurrency = 4
	DefaultTimeout     = 30 * time.Second
)

type Pipeline struct {
	requests store.Store
	binder   *binder.Binder
	layouts  *layout.Registry
	engine   engine.Engine
	logger   *slog.Logger
	metrics  *metrics.Metrics

	sem     *semaphore.Weighted
	timeout time.Duration
}

type Option func(*Pipeline)

// WithConcurrency bounds simultaneous engine runs; each run is a separate
// wkhtmltopdf process, so this is the knob that keeps load survivable.
func WithConcurrency(n int64) Option {
	return func(p *Pipeline) { p.sem = semaphore.NewWeighted(n) }
}

// WithTimeout caps one conversion; the engine can hang on malformed markup.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func New(requests store.Store, b *binder.Binder, layouts *layout.Registry, eng engine.Engine, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		requests: requests,
		binder:   b,
		layouts:  layouts,
		engine:   eng,
		logger:   logger,
		sem:      semaphore.NewWeighted(DefaultConcurrency),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render produces the PDF for a request, enforcing per-request access rules.
// Any failure aborts with no partial artifact.
func (p *Pipeline) Render(ctx context.Context, requestID id.RequestID, actorID id.UserID, role id.Role) ([]byte, error) {
	req, err := p.requests.Get(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}

	if err := authorizeRender(req, actorID, role); err != nil {
		return nil, err
	}

	l, err := p.layouts.Resolve(req.TypeCode)
	if err != nil {
		p.countFailure("template_not_found")
		return nil, err
	}

	bindCtx, err := p.binder.Build(ctx, req)
	if err != nil {
		p.countFailure("missing_dependency")
		return nil, err
	}

	markup, err := l.Bind(bindCtx)
	if err != nil {
		p.countFailure("bind")
		return nil, dErrors.Wrap(err, dErrors.CodeRenderingFailure, "failed to bind layout")
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.countFailure("queue")
		return nil, dErrors.Wrap(err, dErrors.CodeRenderingFailure, "render queue full")
	}
	defer p.sem.Release(1)

	convertCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	pdf, err := p.engine.Convert(convertCtx, markup)
	if err != nil {
		p.countFailure("engine")
		p.logger.ErrorContext(ctx, "document conversion failed",
			"request_id", requestID.String(),
			"type_code", string(req.TypeCode),
			"error", err,
		)
		// The caller gets a generic failure; engine internals stay in logs.
		return nil, dErrors.New(dErrors.CodeRenderingFailure, "document unavailable")
	}

	if p.metrics != nil {
		p.metrics.ObserveRender(time.Since(start))
	}
	p.logger.InfoContext(ctx, "document rendered",
		"request_id", requestID.String(),
		"type_code", string(req.TypeCode),
		"bytes", len(pdf),
	)
	return pdf, nil
}

// authorizeRender enforces the per-request capability rules: clerk, chief and
// admin may always render; an applicant only their own request; a
// neighborhood reviewer only a request carrying their own stamp.
func authorizeRender(req *models.Request, actorID id.UserID, role id.Role) error {
	switch role {
	case id.RoleClerk, id.RoleChief, id.RoleAdmin:
		return nil
	case id.RoleApplicant:
		if uuid.UUID(actorID) == uuid.UUID(req.ApplicantID) {
			return nil
		}
	case id.RoleNeighborhood:
		if req.Neighborhood != nil && req.Neighborhood.ReviewerID == actorID {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeUnauthorized, "not allowed to render this request")
}

func (p *Pipeline) countFailure(kind string) {
	if p.metrics != nil {
		p.metrics.IncRenderFailure(kind)
	}
}
