package tenants

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jeffgoval/massage/internal/httpx"
	"github.com/jeffgoval/massage/internal/jsoncfg"
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

// Search is the public marketplace listing.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	vip, err := httpx.ParseBool(r.URL.Query(), "vip")
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	verified, err := httpx.ParseBool(r.URL.Query(), "verified")
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := SearchFilter{
		Location: strings.TrimSpace(r.URL.Query().Get("location")),
		VIP:      vip,
		Verified: verified,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.service.Search(ctx, filter, limit, offset)
	if err != nil {
		log.Error("tenants search: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

// PublicProfile serves the composed profile by slug.
func (h *Handler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing slug", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	profile, err := h.service.PublicProfile(ctx, slug, time.Now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("tenant profile: not found", slog.String("slug", slug))
			transport.WriteError(w, http.StatusNotFound, "tenant not found", nil)
			return
		}
		log.Error("tenant profile: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, profile)
}

// Me serves the owner's raw profile with the blob fields decoded.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profile, err := h.service.Get(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "tenant not found", nil)
			return
		}
		log.Error("tenant me: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, ownerView(profile))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("tenant update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("tenant update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	profile, err := h.service.Update(ctx, ident.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			transport.WriteError(w, http.StatusNotFound, "tenant not found", nil)
		case errors.Is(err, jsoncfg.ErrPayloadTooLarge):
			log.Warn("tenant update: payload too large")
			transport.WriteError(w, http.StatusRequestEntityTooLarge, "profile lists too large", nil)
		default:
			log.Error("tenant update: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("tenant update: ok", slog.String("tenant_id", ident.UserID))
	transport.WriteJSON(w, http.StatusOK, ownerView(profile))
}

type ownerProfileView struct {
	TenantProfile
	PhotoURLs   []string     `json:"photos"`
	AmenityList []string     `json:"amenities"`
	Schedule    WeekSchedule `json:"availability"`
}

func ownerView(profile TenantProfile) ownerProfileView {
	return ownerProfileView{
		TenantProfile: profile,
		PhotoURLs:     jsoncfg.Decode(profile.Photos, []string{}),
		AmenityList:   jsoncfg.Decode(profile.Amenities, []string{}),
		Schedule:      jsoncfg.Decode(profile.Availability, DefaultAvailability()),
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
