package bookings

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jeffgoval/massage/internal/httpx"
	"github.com/jeffgoval/massage/internal/middleware"
	"github.com/jeffgoval/massage/internal/models"
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req CreateBookingRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("booking create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("booking create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	booking, err := h.service.Create(ctx, ident.UserID, req)
	if err != nil {
		h.writeCreateError(w, log, err)
		return
	}

	log.Info("booking create: ok",
		slog.String("booking_id", booking.ID),
		slog.String("tenant_id", booking.TenantID),
		slog.Int("price", booking.Price),
	)
	transport.WriteJSON(w, http.StatusCreated, booking)
}

func (h *Handler) writeCreateError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrPackageUnavailable):
		log.Warn("booking create: package unavailable")
		transport.WriteError(w, http.StatusUnprocessableEntity, "package unavailable", nil)
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidTime):
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrSlotClosed), errors.Is(err, ErrSlotPast):
		log.Warn("booking create: slot rejected", slog.String("reason", err.Error()))
		transport.WriteError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, ErrSlotTaken):
		log.Warn("booking create: slot taken")
		transport.WriteError(w, http.StatusConflict, "slot already booked", nil)
	default:
		log.Error("booking create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("booking list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var items []Booking
	if ident.Role == models.RoleProfessional {
		filter := ListFilter{
			Date:   strings.TrimSpace(r.URL.Query().Get("date")),
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
		}
		items, err = h.service.ListForTenant(ctx, ident.UserID, filter, limit, offset)
	} else {
		items, err = h.service.ListForClient(ctx, ident.UserID, limit, offset)
	}
	if err != nil {
		log.Error("booking list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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

	booking, err := h.service.Get(ctx, id, ident.UserID, ident.Role)
	if err != nil {
		h.writeStatusError(w, log, "booking get", id, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, booking)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("booking status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("booking status: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	booking, err := h.service.UpdateStatus(ctx, id, ident.UserID, ident.Role, req.Status)
	if err != nil {
		h.writeStatusError(w, log, "booking status", id, err)
		return
	}

	log.Info("booking status: ok", slog.String("booking_id", id), slog.String("status", booking.Status))
	transport.WriteJSON(w, http.StatusOK, booking)
}

func (h *Handler) writeStatusError(w http.ResponseWriter, log *slog.Logger, op, id string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.Warn(op+": not found", slog.String("booking_id", id))
		transport.WriteError(w, http.StatusNotFound, "booking not found", nil)
	case errors.Is(err, ErrForbidden):
		log.Warn(op+": forbidden", slog.String("booking_id", id))
		transport.WriteError(w, http.StatusForbidden, "not allowed on this booking", nil)
	case errors.Is(err, ErrBadTransition):
		log.Warn(op+": invalid transition", slog.String("booking_id", id))
		transport.WriteError(w, http.StatusUnprocessableEntity, "invalid status transition", nil)
	default:
		log.Error(op+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
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
