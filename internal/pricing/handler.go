package pricing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jeffgoval/massage/internal/httpx"
	"github.com/jeffgoval/massage/internal/jsoncfg"
	"github.com/jeffgoval/massage/internal/middleware"
	"github.com/jeffgoval/massage/internal/transport"
	"github.com/jeffgoval/massage/internal/validation"
)

type SavePricingRequest struct {
	BasePrice int   `json:"basePrice" validate:"gte=0,lte=100000"`
	Periods   Table `json:"periods"`
	Weekdays  Table `json:"weekdays"`
}

// ProfileInvalidator drops the cached public profile after a pricing write.
type ProfileInvalidator interface {
	InvalidateProfile(ctx context.Context, tenantID string)
}

type Handler struct {
	service     *Service
	invalidator ProfileInvalidator
	val         *validation.Validator
	log         *slog.Logger
}

func NewHandler(service *Service, invalidator ProfileInvalidator, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		invalidator: invalidator,
		val:         val,
		log:         log,
	}
}

// Get serves the caller's own pricing config. A tenant without one gets an
// empty object, not a 404; absence is a valid state.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cfg, err := h.service.Get(ctx, ident.UserID)
	if err != nil {
		log.Error("pricing get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if cfg == nil {
		transport.WriteJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}

	transport.WriteJSON(w, http.StatusOK, configView(*cfg))
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req SavePricingRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("pricing save: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("pricing save: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	cfg, err := h.service.Save(ctx, ident.UserID, req.BasePrice, req.Periods, req.Weekdays)
	if err != nil {
		if errors.Is(err, jsoncfg.ErrPayloadTooLarge) {
			log.Warn("pricing save: payload too large")
			transport.WriteError(w, http.StatusRequestEntityTooLarge, "pricing tables too large", nil)
			return
		}
		log.Error("pricing save: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if h.invalidator != nil {
		h.invalidator.InvalidateProfile(ctx, ident.UserID)
	}

	log.Info("pricing save: ok", slog.String("tenant_id", ident.UserID), slog.Int("basePrice", cfg.BasePrice))
	transport.WriteJSON(w, http.StatusOK, configView(cfg))
}

type pricingView struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	BasePrice int       `json:"basePrice"`
	Periods   Table     `json:"periods"`
	Weekdays  Table     `json:"weekdays"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// configView decodes the stored blobs so API clients never see the raw
// JSON-in-a-string representation.
func configView(cfg Config) pricingView {
	return pricingView{
		ID:        cfg.ID,
		TenantID:  cfg.TenantID,
		BasePrice: cfg.BasePrice,
		Periods:   jsoncfg.Decode(cfg.Periods, Table{}),
		Weekdays:  jsoncfg.Decode(cfg.Weekdays, Table{}),
		UpdatedAt: cfg.UpdatedAt,
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
