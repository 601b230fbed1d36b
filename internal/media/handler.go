package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeffgoval/massage/internal/middleware"
	"github.com/jeffgoval/massage/internal/transport"
	"github.com/go-chi/chi/v5"
)

// AvatarSetter points the tenant profile at a newly uploaded image.
type AvatarSetter interface {
	SetAvatar(ctx context.Context, id, avatar string) error
}

type Handler struct {
	service *Service
	avatars AvatarSetter
	log     *slog.Logger
}

func NewHandler(service *Service, avatars AvatarSetter, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		avatars: avatars,
		log:     log,
	}
}

// UploadAvatar stores the image and replaces the caller's avatar reference.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize+1024)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		log.Warn("media upload: invalid multipart body")
		transport.WriteError(w, http.StatusBadRequest, "invalid multipart body", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "missing file field", nil)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	id, err := h.service.Store(ctx, ident.UserID, header.Filename, header.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadExtension):
			log.Warn("media upload: bad extension", slog.String("filename", header.Filename))
			transport.WriteError(w, http.StatusUnsupportedMediaType, "unsupported file extension", nil)
		case errors.Is(err, ErrTooLarge):
			log.Warn("media upload: too large", slog.Int64("size", header.Size))
			transport.WriteError(w, http.StatusRequestEntityTooLarge, "file exceeds size limit", nil)
		default:
			log.Error("media upload: storage error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "storage error", nil)
		}
		return
	}

	url := "/api/media/" + id
	if err := h.avatars.SetAvatar(ctx, ident.UserID, url); err != nil {
		log.Error("media upload: avatar update failed",
			slog.String("file_id", id),
			slog.String("error", err.Error()),
		)
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("media upload: ok", slog.String("file_id", id))
	transport.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":  id,
		"url": url,
	})
}

// Serve is the public read side of the bucket.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	stream, name, err := h.service.Open(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "file not found", nil)
			return
		}
		log.Error("media serve: storage error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "storage error", nil)
		return
	}
	defer stream.Close()

	w.Header().Set("Cache-Control", "public, max-age=86400")
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if _, err := io.Copy(w, stream); err != nil {
		log.Warn("media serve: stream interrupted", slog.String("error", err.Error()))
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
