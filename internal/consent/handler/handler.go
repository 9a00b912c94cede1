// Package handler exposes the consent endpoints: organizations submit data
// requests, citizens list and decide theirs.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"trustgrid/internal/consent"
	"trustgrid/internal/platform/middleware"
	"trustgrid/internal/transport/http/shared"
	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/requestcontext"
)

// Service defines the consent operations the handler needs.
type Service interface {
	Submit(ctx context.Context, orgID id.OrgID, userID id.UserID, dataType, purpose string) (*consent.ConsentRequest, error)
	Respond(ctx context.Context, userID id.UserID, requestID id.RequestID, decision consent.Decision) (*consent.ConsentRequest, error)
	PendingForUser(ctx context.Context, userID id.UserID) ([]*consent.ConsentRequest, error)
}

// Handler handles consent endpoints.
type Handler struct {
	service   Service
	orgAuth   middleware.OrgAuthenticator
	validator middleware.SessionValidator
	logger    *slog.Logger
}

// New creates a consent Handler.
func New(service Service, orgAuth middleware.OrgAuthenticator, validator middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, orgAuth: orgAuth, validator: validator, logger: logger}
}

// Register mounts the consent routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOrgKey(h.orgAuth, h.logger))
		r.Post("/request-data", h.handleSubmit)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCitizen(h.validator, h.logger))
		r.Get("/citizen/{userID}/requests", h.handlePending)
		r.Post("/citizen/respond", h.handleRespond)
	})
}

type submitRequest struct {
	UserID   string `json:"user_id"`
	DataType string `json:"data_type"`
	Purpose  string `json:"purpose"`
}

type respondRequest struct {
	RequestID string `json:"request_id"`
	Decision  string `json:"decision"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	userID, err := id.ParseUserID(strings.TrimSpace(req.UserID))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	request, err := h.service.Submit(ctx, requestcontext.OrgID(ctx), userID, req.DataType, req.Purpose)
	if err != nil {
		h.writeError(ctx, w, err, "failed to submit data request")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if userID != requestcontext.UserID(ctx) {
		shared.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "cannot access another citizen's resources"))
		return
	}

	pending, err := h.service.PendingForUser(ctx, userID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to list pending requests")
		return
	}
	if pending == nil {
		pending = []*consent.ConsentRequest{}
	}
	shared.WriteJSON(w, http.StatusOK, pending)
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req respondRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	requestID, err := id.ParseRequestID(strings.TrimSpace(req.RequestID))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	decision, err := consent.ParseDecision(req.Decision)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	request, err := h.service.Respond(ctx, requestcontext.UserID(ctx), requestID, decision)
	if err != nil {
		h.writeError(ctx, w, err, "failed to record decision")
		return
	}
	shared.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}
