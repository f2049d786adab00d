package http

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
	"github.com/veranemoloko/media-downloader/internal/selection"
)

// PlaylistServiceI defines the interface for playlist loading and selection.
type PlaylistServiceI interface {
	Load(ctx context.Context, url string) ([]domain.PlaylistItem, error)
	Loaded() bool
	URL() string
	Items() []domain.PlaylistItem
	Toggle(id string) bool
	ToggleAll()
	Selection() *selection.Model
	DownloadSelected(ctx context.Context, format domain.Format) (*domain.Session, error)
}

// PlaylistHandler handles HTTP requests for the loaded playlist.
type PlaylistHandler struct {
	playlistService PlaylistServiceI
	validator       *validator.Validate
	logger          *slog.Logger
}

// NewPlaylistHandler creates a new PlaylistHandler.
func NewPlaylistHandler(playlistService PlaylistServiceI, logger *slog.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		playlistService: playlistService,
		validator:       validator.New(),
		logger:          logger,
	}
}

// LoadPlaylist handles POST /playlists.
func (h *PlaylistHandler) LoadPlaylist(w http.ResponseWriter, r *http.Request) {
	var req domain.LoadPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.playlistService.Load(r.Context(), req.URL); err != nil {
		h.logger.Warn("failed to load playlist", "url", req.URL, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.playlistResponse())
}

// GetPlaylist handles GET /playlist.
func (h *PlaylistHandler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	if !h.playlistService.Loaded() {
		writeServiceError(w, errpkg.ErrNoPlaylist)
		return
	}
	writeJSON(w, http.StatusOK, h.playlistResponse())
}

// ToggleItem handles POST /playlist/items/{itemID}/toggle. Unknown ids leave
// the selection unchanged.
func (h *PlaylistHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if !h.playlistService.Toggle(itemID) {
		h.logger.Debug("toggle ignored for unknown item", "item_id", itemID)
	}
	writeJSON(w, http.StatusOK, h.selectionResponse())
}

// ToggleAll handles POST /playlist/toggle-all.
func (h *PlaylistHandler) ToggleAll(w http.ResponseWriter, r *http.Request) {
	h.playlistService.ToggleAll()
	writeJSON(w, http.StatusOK, h.selectionResponse())
}

// DownloadSelected handles POST /playlist/download.
func (h *PlaylistHandler) DownloadSelected(w http.ResponseWriter, r *http.Request) {
	var req domain.DownloadSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.playlistService.DownloadSelected(r.Context(), req.Format)
	if err != nil {
		h.logger.Warn("failed to start batch download", "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, session)
}

func (h *PlaylistHandler) playlistResponse() domain.PlaylistResponse {
	return domain.PlaylistResponse{
		URL:       h.playlistService.URL(),
		Items:     h.playlistService.Items(),
		Selection: h.selectionResponse(),
	}
}

func (h *PlaylistHandler) selectionResponse() domain.SelectionResponse {
	model := h.playlistService.Selection()
	return domain.SelectionResponse{
		State:    model.State().String(),
		Count:    model.SelectionCount(),
		Total:    model.KnownCount(),
		Selected: model.Selected(),
	}
}
