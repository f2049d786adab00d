package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
	"github.com/veranemoloko/media-downloader/internal/metrics"
	"github.com/veranemoloko/media-downloader/internal/selection"
	"github.com/veranemoloko/media-downloader/internal/validation"
)

// MetadataFetcher lists the items of a playlist.
type MetadataFetcher interface {
	FetchPlaylistMetadata(ctx context.Context, url string) ([]domain.PlaylistItem, error)
}

// SessionStarter starts download sessions.
type SessionStarter interface {
	Start(ctx context.Context, req domain.DownloadRequest) (*domain.Session, error)
}

// PlaylistService holds the loaded playlist and the user's selection over it.
type PlaylistService struct {
	fetcher  MetadataFetcher
	sessions SessionStarter
	model    *selection.Model
	logger   *slog.Logger

	mu    sync.RWMutex
	url   string
	items []domain.PlaylistItem
}

// NewPlaylistService creates a new PlaylistService with nothing loaded.
func NewPlaylistService(fetcher MetadataFetcher, sessions SessionStarter, logger *slog.Logger) *PlaylistService {
	return &PlaylistService{
		fetcher:  fetcher,
		sessions: sessions,
		model:    selection.NewModel(),
		logger:   logger,
	}
}

// Load fetches the playlist at url, replaces the loaded items and clears the selection.
// On error the previously loaded playlist is kept.
func (s *PlaylistService) Load(ctx context.Context, url string) ([]domain.PlaylistItem, error) {
	if err := validation.ValidateURL(url); err != nil {
		return nil, err
	}

	items, err := s.fetcher.FetchPlaylistMetadata(ctx, url)
	if err != nil {
		s.logger.Error("failed to load playlist", "url", url, "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.url = url
	s.items = items
	s.model.Initialize(items)
	s.mu.Unlock()

	metrics.PlaylistsLoaded.Inc()
	s.logger.Info("playlist loaded", "url", url, "items", len(items))
	return s.Items(), nil
}

// URL returns the url of the loaded playlist.
func (s *PlaylistService) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Items returns a copy of the loaded items in playlist order.
func (s *PlaylistService) Items() []domain.PlaylistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PlaylistItem(nil), s.items...)
}

// Loaded reports whether a playlist has been loaded.
func (s *PlaylistService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url != ""
}

// Toggle flips the selection of one item. Unknown ids are ignored.
func (s *PlaylistService) Toggle(id string) bool {
	return s.model.Toggle(id)
}

// ToggleAll selects every item, or clears the selection if all are selected.
func (s *PlaylistService) ToggleAll() {
	s.model.ToggleAll()
}

// Selection returns the selection model.
func (s *PlaylistService) Selection() *selection.Model {
	return s.model
}

// DownloadSelected starts a batch session over the selected items in playlist order.
func (s *PlaylistService) DownloadSelected(ctx context.Context, format domain.Format) (*domain.Session, error) {
	if !s.Loaded() {
		return nil, errpkg.ErrNoPlaylist
	}

	ids := s.model.Selected()
	if len(ids) == 0 {
		return nil, &errpkg.ValidationError{Field: "ids", Message: "no playlist items selected"}
	}

	session, err := s.sessions.Start(ctx, domain.DownloadRequest{
		Kind:    domain.KindBatch,
		ItemIDs: ids,
		Format:  format,
	})
	if err != nil {
		return session, fmt.Errorf("start batch download: %w", err)
	}
	return session, nil
}
