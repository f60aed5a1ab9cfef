// Package handler wires the letter request endpoints to the workflow engine
// and the rendering pipeline.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"suratdesa/internal/request/models"
	"suratdesa/internal/workflow"
	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domainerrors"
	"suratdesa/pkg/httputil"
	"suratdesa/pkg/requestcontext"
)

// WorkflowService defines the request lifecycle operations the handler needs.
type WorkflowService interface {
	Submit(ctx context.Context, applicantID id.CitizenID, code models.TypeCode, payload map[string]any) (*models.Request, error)
	Get(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Request, error)
	Transition(ctx context.Context, requestID id.RequestID, actor workflow.Actor, decision workflow.Decision, extra workflow.Extra) (*models.Request, error)
}

// Renderer produces the printable PDF for a request.
type Renderer interface {
	Render(ctx context.Context, requestID id.RequestID, actorID id.UserID, role id.Role) ([]byte, error)
}

// Handler wires request endpoints to their services.
type Handler struct {
	workflow WorkflowService
	renderer Renderer
	logger   *slog.Logger
}

// New constructs a request handler with its dependencies.
func New(workflow WorkflowService, renderer Renderer, logger *slog.Logger) *Handler {
	return &Handler{
		workflow: workflow,
		renderer: renderer,
		logger:   logger,
	}
}

// Register mounts request endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.HandleSubmit)
		r.Get("/", h.HandleList)
		r.Route("/{requestID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/verify", h.HandleVerify)
			r.Get("/render", h.HandleRender)
		})
	})
}

// HandleSubmit handles POST /requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	role := requestcontext.Role(ctx)

	var req SubmitRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	code, err := models.ParseTypeCode(req.TypeCode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	applicantID, err := resolveApplicant(userID, role, req.ApplicantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.workflow.Submit(ctx, applicantID, code, req.Payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "request submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"type_code", req.TypeCode,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRequest(created))
}

// resolveApplicant decides whose request is being created. Applicants submit
// for themselves; an admin may submit on a named citizen's behalf.
func resolveApplicant(userID id.UserID, role id.Role, onBehalfOf string) (id.CitizenID, error) {
	switch role {
	case id.RoleApplicant:
		if onBehalfOf != "" {
			return id.CitizenID{}, dErrors.New(dErrors.CodeUnauthorized, "applicants may only submit for themselves")
		}
		return id.CitizenID(uuid.UUID(userID)), nil
	case id.RoleAdmin:
		if onBehalfOf == "" {
			return id.CitizenID{}, dErrors.New(dErrors.CodeValidation, "applicant_id is required")
		}
		return id.ParseCitizenID(onBehalfOf)
	}
	return id.CitizenID{}, dErrors.New(dErrors.CodeUnauthorized, "role may not submit requests")
}

// HandleGet handles GET /requests/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := h.workflow.Get(ctx, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Applicants may only read their own requests.
	if role := requestcontext.Role(ctx); role == id.RoleApplicant {
		if uuid.UUID(requestcontext.UserID(ctx)) != uuid.UUID(req.ApplicantID) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not allowed to read this request"))
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequest(req))
}

// HandleList handles GET /requests?status=A,B for reviewer dashboards.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch requestcontext.Role(ctx) {
	case id.RoleNeighborhood, id.RoleClerk, id.RoleChief, id.RoleAdmin:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "role may not list requests"))
		return
	}

	raw := r.URL.Query().Get("status")
	if raw == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "status query parameter is required"))
		return
	}
	var statuses []models.Status
	for _, part := range strings.Split(raw, ",") {
		status, err := models.ParseStatus(strings.TrimSpace(part))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		statuses = append(statuses, status)
	}

	reqs, err := h.workflow.ListByStatus(ctx, statuses...)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequests(reqs))
}

// HandleVerify handles PATCH /requests/{id}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req VerifyRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	decision, err := req.Decision()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := workflow.Actor{ID: requestcontext.UserID(ctx), Role: requestcontext.Role(ctx)}
	updated, err := h.workflow.Transition(ctx, requestID, actor, decision, workflow.Extra{
		Note:         req.RejectionNote,
		IssuedNumber: req.IssuedNumber,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "request verification rejected",
			"request_id", requestcontext.RequestID(ctx),
			"target_request", requestID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequest(updated))
}

// HandleRender handles GET /requests/{id}/render.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	pdf, err := h.renderer.Render(ctx, requestID, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+requestID.String()+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
