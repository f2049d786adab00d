package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veranemoloko/media-downloader/internal/domain"
	"github.com/veranemoloko/media-downloader/internal/metrics"
)

// DefaultDuration is reported for entries without a known length.
const DefaultDuration = "Unknown"

type playlistEntry struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Uploader       string   `json:"uploader"`
	Channel        string   `json:"channel"`
	Duration       *float64 `json:"duration"`
	DurationString string   `json:"duration_string"`
	Thumbnail      string   `json:"thumbnail"`
	Thumbnails     []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

type playlistDump struct {
	playlistEntry
	Entries []playlistEntry `json:"entries"`
}

// BuildMetadataArgs returns the yt-dlp arguments for a flat playlist listing.
func BuildMetadataArgs(url string) []string {
	return []string{
		"--flat-playlist",
		"--dump-single-json",
		"--no-warnings",
		url,
	}
}

// FetchPlaylistMetadata lists the items of the playlist at url.
// Its output is not relayed to the progress stream.
func (w *YtDlpWorker) FetchPlaylistMetadata(ctx context.Context, url string) ([]domain.PlaylistItem, error) {
	var (
		stdout    bytes.Buffer
		lastError string
	)

	cmd := w.command(ctx, w.opts.BinaryPath, BuildMetadataArgs(url)...)
	cmd.Stdout = &stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		metrics.FetcherRuns.WithLabelValues("metadata", "error").Inc()
		return nil, w.fetchError(ctx, fmt.Errorf("start %s: %w", w.opts.BinaryPath, err), "")
	}

	scanErr := scanLines(stderr, func(line string) {
		if strings.HasPrefix(line, errorLinePrefix) {
			lastError = line
		}
	})

	if err := cmd.Wait(); err != nil {
		metrics.FetcherRuns.WithLabelValues("metadata", "error").Inc()
		return nil, w.fetchError(ctx, err, lastError)
	}
	if scanErr != nil {
		return nil, fmt.Errorf("read fetcher output: %w", scanErr)
	}

	items, err := ParsePlaylistJSON(stdout.Bytes())
	if err != nil {
		metrics.FetcherRuns.WithLabelValues("metadata", "error").Inc()
		return nil, err
	}

	metrics.FetcherRuns.WithLabelValues("metadata", "success").Inc()
	w.logger.Info("playlist metadata fetched", "url", url, "items", len(items))
	return items, nil
}

// ParsePlaylistJSON converts a --dump-single-json document into playlist items.
// A document without entries is treated as a one-item playlist.
func ParsePlaylistJSON(data []byte) ([]domain.PlaylistItem, error) {
	var dump playlistDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("decode playlist metadata: %w", err)
	}

	entries := dump.Entries
	if entries == nil && dump.ID != "" {
		entries = []playlistEntry{dump.playlistEntry}
	}

	items := make([]domain.PlaylistItem, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		items = append(items, e.toItem())
	}
	return items, nil
}

func (e playlistEntry) toItem() domain.PlaylistItem {
	item := domain.PlaylistItem{
		ID:        e.ID,
		Title:     e.Title,
		Uploader:  e.Uploader,
		Duration:  DefaultDuration,
		Thumbnail: e.Thumbnail,
	}
	if item.Title == "" {
		item.Title = e.ID
	}
	if item.Uploader == "" {
		item.Uploader = e.Channel
	}
	switch {
	case e.Duration != nil && *e.Duration > 0:
		item.Duration = formatDuration(int(*e.Duration))
	case e.DurationString != "":
		item.Duration = e.DurationString
	}
	if item.Thumbnail == "" && len(e.Thumbnails) > 0 {
		item.Thumbnail = e.Thumbnails[len(e.Thumbnails)-1].URL
	}
	return item
}

// formatDuration formats seconds as MM:SS or HH:MM:SS.
func formatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
