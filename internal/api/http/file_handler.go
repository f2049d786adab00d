package http

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/veranemoloko/media-downloader/internal/domain"
)

// FileOpenerI hands downloaded files to the operating system.
type FileOpenerI interface {
	OpenFile(ctx context.Context, path string) error
	RevealInFolder(ctx context.Context, path string) error
}

// FileHandler handles open and reveal requests for downloaded files.
type FileHandler struct {
	opener    FileOpenerI
	validator *validator.Validate
	logger    *slog.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(opener FileOpenerI, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		opener:    opener,
		validator: validator.New(),
		logger:    logger,
	}
}

// OpenFile handles POST /files/open.
func (h *FileHandler) OpenFile(w http.ResponseWriter, r *http.Request) {
	h.fileAction(w, r, h.opener.OpenFile)
}

// RevealInFolder handles POST /files/reveal.
func (h *FileHandler) RevealInFolder(w http.ResponseWriter, r *http.Request) {
	h.fileAction(w, r, h.opener.RevealInFolder)
}

func (h *FileHandler) fileAction(w http.ResponseWriter, r *http.Request, action func(context.Context, string) error) {
	var req domain.FileActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := action(r.Context(), req.Path); err != nil {
		h.logger.Warn("file action failed", "path", req.Path, "error", err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
