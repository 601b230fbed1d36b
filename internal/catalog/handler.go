package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jeffgoval/massage/internal/httpx"
	"github.com/jeffgoval/massage/internal/middleware"
	"github.com/jeffgoval/massage/internal/transport"
	"github.com/jeffgoval/massage/internal/validation"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

// PublicPackages lists a tenant's active packages for visitors.
func (h *Handler) PublicPackages(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	tenantID := strings.TrimSpace(chi.URLParam(r, "tenantId"))
	if tenantID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing tenantId", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListPackages(ctx, tenantID, true)
	if err != nil {
		log.Error("packages public list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

// MyPackages lists the caller's packages, inactive ones included.
func (h *Handler) MyPackages(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListPackages(ctx, ident.UserID, false)
	if err != nil {
		log.Error("packages list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req UpsertPackageRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("package create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("package create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	item, err := h.service.CreatePackage(ctx, ident.UserID, req)
	if err != nil {
		log.Error("package create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("package create: ok", slog.String("package_id", item.ID))
	transport.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req UpsertPackageRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("package update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("package update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	item, err := h.service.UpdatePackage(ctx, id, ident.UserID, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("package update: not found", slog.String("package_id", id))
			transport.WriteError(w, http.StatusNotFound, "package not found", nil)
			return
		}
		log.Error("package update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("package update: ok", slog.String("package_id", id))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.DeletePackage(ctx, id, ident.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("package delete: not found", slog.String("package_id", id))
			transport.WriteError(w, http.StatusNotFound, "package not found", nil)
			return
		}
		log.Error("package delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("package delete: ok", slog.String("package_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) PublicReviews(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	tenantID := strings.TrimSpace(chi.URLParam(r, "tenantId"))
	if tenantID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing tenantId", nil)
		return
	}
	limit, _, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListReviews(ctx, tenantID, limit)
	if err != nil {
		log.Error("reviews list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	tenantID := strings.TrimSpace(chi.URLParam(r, "tenantId"))
	if tenantID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing tenantId", nil)
		return
	}
	if tenantID == ident.UserID {
		transport.WriteError(w, http.StatusBadRequest, "cannot review yourself", nil)
		return
	}

	var req CreateReviewRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("review create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("review create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	review, err := h.service.CreateReview(ctx, tenantID, ident.UserID, req)
	if err != nil {
		log.Error("review create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("review create: ok", slog.String("review_id", review.ID), slog.Int("rating", review.Rating))
	transport.WriteJSON(w, http.StatusCreated, review)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
