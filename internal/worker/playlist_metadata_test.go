package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
)

const playlistJSON = `{
  "id": "PL123",
  "title": "Road trip",
  "entries": [
    {"id": "aaa", "title": "First", "uploader": "Band", "duration": 215, "thumbnails": [{"url": "small.jpg"}, {"url": "large.jpg"}]},
    {"id": "bbb", "title": "", "channel": "Label", "duration_string": "1:02:03", "thumbnail": "b.jpg"},
    {"id": "ccc", "title": "Third", "duration": 3725.4},
    {"id": "", "title": "broken"}
  ]
}`

func TestParsePlaylistJSON(t *testing.T) {
	items, err := ParsePlaylistJSON([]byte(playlistJSON))
	require.NoError(t, err)

	assert.Equal(t, []domain.PlaylistItem{
		{ID: "aaa", Title: "First", Uploader: "Band", Duration: "03:35", Thumbnail: "large.jpg"},
		{ID: "bbb", Title: "bbb", Uploader: "Label", Duration: "1:02:03", Thumbnail: "b.jpg"},
		{ID: "ccc", Title: "Third", Duration: "01:02:05"},
	}, items)
}

func TestParsePlaylistJSON_SingleVideo(t *testing.T) {
	items, err := ParsePlaylistJSON([]byte(`{"id": "solo", "title": "Only one"}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "solo", items[0].ID)
	assert.Equal(t, DefaultDuration, items[0].Duration)
}

func TestParsePlaylistJSON_Invalid(t *testing.T) {
	_, err := ParsePlaylistJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{61, "01:01"},
		{3600, "01:00:00"},
		{7322, "02:02:02"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatDuration(tt.seconds))
	}
}

func TestFetchPlaylistMetadata(t *testing.T) {
	script := "#!/bin/sh\ncat <<'EOF'\n" + playlistJSON + "\nEOF\n"
	w, pub, _ := newTestWorker(t, script)

	items, err := w.FetchPlaylistMetadata(context.Background(), "https://www.youtube.com/playlist?list=PL123")
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "bbb", "ccc"}, domain.ItemIDs(items))
	assert.Empty(t, pub.Lines())
}

func TestFetchPlaylistMetadata_Error(t *testing.T) {
	w, pub, _ := newTestWorker(t, failingScript)

	_, err := w.FetchPlaylistMetadata(context.Background(), "https://www.youtube.com/playlist?list=missing")
	require.Error(t, err)
	assert.Equal(t, errpkg.KindCollaborator, errpkg.Kind(err))
	assert.Equal(t, "ERROR: [youtube] xyz: Video unavailable", err.Error())
	assert.Empty(t, pub.Lines())
}

func TestBuildMetadataArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"--flat-playlist", "--dump-single-json", "--no-warnings", "https://example.com/list"},
		BuildMetadataArgs("https://example.com/list"),
	)
}
