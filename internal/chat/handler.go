package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jeffgoval/massage/internal/feed"
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

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req StartChatRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("chat start: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("chat start: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}
	if req.TenantID == ident.UserID {
		log.Warn("chat start: self chat", slog.String("user_id", ident.UserID))
		transport.WriteError(w, http.StatusBadRequest, "cannot chat with yourself", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	thread, err := h.service.GetOrCreate(ctx, ident.UserID, req.TenantID)
	if err != nil {
		log.Error("chat start: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("chat start: ok", slog.String("chat_id", thread.ID))
	transport.WriteJSON(w, http.StatusOK, thread)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	threads, err := h.service.Threads(ctx, ident.UserID, ident.Role)
	if err != nil {
		log.Error("chat list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": threads,
	})
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	chatID := strings.TrimSpace(chi.URLParam(r, "id"))
	if chatID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 50, 200)
	if err != nil {
		log.Warn("chat messages: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	messages, err := h.service.Messages(ctx, chatID, ident.UserID, limit, offset)
	if err != nil {
		h.writeChatError(w, log, "chat messages", chatID, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  messages,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	chatID := strings.TrimSpace(chi.URLParam(r, "id"))
	if chatID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req SendMessageRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("chat send: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("chat send: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	msg, err := h.service.Send(ctx, chatID, ident.UserID, req.Content)
	if err != nil {
		h.writeChatError(w, log, "chat send", chatID, err)
		return
	}

	log.Info("chat send: ok", slog.String("chat_id", chatID), slog.String("message_id", msg.ID))
	transport.WriteJSON(w, http.StatusCreated, msg)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	chatID := strings.TrimSpace(chi.URLParam(r, "id"))
	if chatID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	flipped, err := h.service.MarkRead(ctx, chatID, ident.UserID)
	if err != nil {
		h.writeChatError(w, log, "chat read", chatID, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"marked": flipped,
	})
}

// Stream pushes new messages for one thread over SSE. The feed carries every
// message in the system, so events are filtered here by chat id before they
// go out on the wire.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	chatID := strings.TrimSpace(chi.URLParam(r, "id"))
	if chatID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		transport.WriteError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	events, err := h.service.Subscribe(r.Context(), chatID, ident.UserID)
	if err != nil {
		h.writeChatError(w, log, "chat stream", chatID, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log.Info("chat stream: open", slog.String("chat_id", chatID))

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info("chat stream: closed", slog.String("chat_id", chatID))
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				log.Info("chat stream: feed closed", slog.String("chat_id", chatID))
				return
			}
			var msg Message
			if err := json.Unmarshal(ev.Payload, &msg); err != nil || msg.ChatID != chatID {
				continue
			}
			name := "message"
			if ev.Is(feed.ActionUpdate) {
				name = "message.update"
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, name, data)
			flusher.Flush()
		}
	}
}

// Dedupe is admin-only; mounted behind the moderation permission.
func (h *Handler) Dedupe(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	removed, err := h.service.Dedupe(ctx)
	if err != nil {
		log.Error("chat dedupe: database error", slog.String("error", err.Error()), slog.Int("removed", removed))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("chat dedupe: ok", slog.Int("removed", removed))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}

func (h *Handler) writeChatError(w http.ResponseWriter, log *slog.Logger, op, chatID string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.Warn(op+": not found", slog.String("chat_id", chatID))
		transport.WriteError(w, http.StatusNotFound, "chat not found", nil)
	case errors.Is(err, ErrNotPart):
		log.Warn(op+": forbidden", slog.String("chat_id", chatID))
		transport.WriteError(w, http.StatusForbidden, "not a chat participant", nil)
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
