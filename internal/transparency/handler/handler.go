// Package handler exposes the transparency log: citizens and organizations
// each read their own slice, newest first.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trustgrid/internal/platform/middleware"
	"trustgrid/internal/transparency"
	"trustgrid/internal/transport/http/shared"
	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/requestcontext"
)

// Service defines the log reads the handler needs.
type Service interface {
	CitizenLog(ctx context.Context, userID id.UserID, limit, offset int) ([]transparency.Entry, error)
	OrgLog(ctx context.Context, orgID id.OrgID, limit, offset int) ([]transparency.Entry, error)
}

// Handler handles transparency log endpoints.
type Handler struct {
	service   Service
	orgAuth   middleware.OrgAuthenticator
	validator middleware.SessionValidator
	logger    *slog.Logger
}

// New creates a transparency Handler.
func New(service Service, orgAuth middleware.OrgAuthenticator, validator middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, orgAuth: orgAuth, validator: validator, logger: logger}
}

// Register mounts the log routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOrgKey(h.orgAuth, h.logger))
		r.Get("/org/log", h.handleOrgLog)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCitizen(h.validator, h.logger))
		r.Get("/citizen/{userID}/log", h.handleCitizenLog)
	})
}

func (h *Handler) handleOrgLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, offset, err := pagination(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entries, err := h.service.OrgLog(ctx, requestcontext.OrgID(ctx), limit, offset)
	if err != nil {
		h.writeError(ctx, w, err, "failed to read org log")
		return
	}
	if entries == nil {
		entries = []transparency.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleCitizenLog(w http.ResponseWriter, r *http.Request) {
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
	limit, offset, err := pagination(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entries, err := h.service.CitizenLog(ctx, userID, limit, offset)
	if err != nil {
		h.writeError(ctx, w, err, "failed to read citizen log")
		return
	}
	if entries == nil {
		entries = []transparency.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

// pagination reads optional limit/offset query params. Absent means zero,
// which the service maps to its defaults.
func pagination(r *http.Request) (limit, offset int, err error) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
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
