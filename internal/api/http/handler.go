package http

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
)

// SessionServiceI defines the interface for download session logic.
type SessionServiceI interface {
	Start(ctx context.Context, req domain.DownloadRequest) (*domain.Session, error)
	Current() *domain.Session
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)
}

// SessionHandler handles HTTP requests for download sessions.
type SessionHandler struct {
	sessionService SessionServiceI
	validator      *validator.Validate
	logger         *slog.Logger
}

// NewSessionHandler creates a new SessionHandler with the provided service and logger.
func NewSessionHandler(sessionService SessionServiceI, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		validator:      validator.New(),
		logger:         logger,
	}
}

// StartDownload handles POST /downloads and starts a single or batch session.
func (h *SessionHandler) StartDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessionService.Start(ctx, req.ToRequest())
	if err != nil {
		h.logger.Warn("failed to start session", "error", err)
		writeServiceError(w, err)
		return
	}

	h.logger.Info("session accepted", "session_id", session.ID, "kind", session.Request.Kind)
	writeJSON(w, http.StatusAccepted, session)
}

// GetCurrent handles GET /session and returns the current session.
func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionService.Current())
}

// GetSession handles GET /sessions/{sessionID}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	session, err := h.sessionService.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, errpkg.ErrSessionNotFound) {
			h.logger.Error("failed to get session", "session_id", sessionID, "error", err)
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errpkg.ErrSessionRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errpkg.ErrSessionNotFound),
		errors.Is(err, errpkg.ErrNoPlaylist),
		errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		switch errpkg.Kind(err) {
		case errpkg.KindValidation:
			writeError(w, http.StatusBadRequest, err.Error())
		case errpkg.KindCollaborator:
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}
