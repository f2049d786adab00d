package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
	"github.com/veranemoloko/media-downloader/internal/selection"
)

type mockSessionService struct {
	startErr error
	started  []domain.DownloadRequest
	current  *domain.Session
	stored   map[uuid.UUID]*domain.Session
}

func (m *mockSessionService) Start(ctx context.Context, req domain.DownloadRequest) (*domain.Session, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	m.started = append(m.started, req)
	s := domain.NewSession(req)
	m.current = s
	return s, nil
}

func (m *mockSessionService) Current() *domain.Session {
	if m.current == nil {
		return &domain.Session{Status: domain.SessionStatusIdle, Log: []string{}}
	}
	return m.current
}

func (m *mockSessionService) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if s, ok := m.stored[id]; ok {
		return s, nil
	}
	return nil, errpkg.ErrSessionNotFound
}

type mockPlaylistService struct {
	url     string
	items   []domain.PlaylistItem
	model   *selection.Model
	loadErr error
	format  domain.Format
}

func newMockPlaylistService() *mockPlaylistService {
	return &mockPlaylistService{model: selection.NewModel()}
}

func (m *mockPlaylistService) Load(ctx context.Context, url string) ([]domain.PlaylistItem, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	m.url = url
	m.items = []domain.PlaylistItem{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}
	m.model.Initialize(m.items)
	return m.items, nil
}

func (m *mockPlaylistService) Loaded() bool { return m.url != "" }
func (m *mockPlaylistService) URL() string { return m.url }
func (m *mockPlaylistService) Items() []domain.PlaylistItem { return m.items }
func (m *mockPlaylistService) Toggle(id string) bool { return m.model.Toggle(id) }
func (m *mockPlaylistService) ToggleAll() { m.model.ToggleAll() }
func (m *mockPlaylistService) Selection() *selection.Model { return m.model }

func (m *mockPlaylistService) DownloadSelected(ctx context.Context, format domain.Format) (*domain.Session, error) {
	ids := m.model.Selected()
	if len(ids) == 0 {
		return nil, &errpkg.ValidationError{Field: "ids", Message: "no playlist items selected"}
	}
	m.format = format
	return domain.NewSession(domain.DownloadRequest{Kind: domain.KindBatch, ItemIDs: ids, Format: format}), nil
}

type mockOpener struct {
	err    error
	opened []string
}

func (m *mockOpener) OpenFile(ctx context.Context, path string) error {
	m.opened = append(m.opened, "open:"+path)
	return m.err
}

func (m *mockOpener) RevealInFolder(ctx context.Context, path string) error {
	m.opened = append(m.opened, "reveal:"+path)
	return m.err
}

type testServer struct {
	router    http.Handler
	sessions  *mockSessionService
	playlists *mockPlaylistService
	opener    *mockOpener
	hub       *Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	ts := &testServer{
		sessions:  &mockSessionService{stored: map[uuid.UUID]*domain.Session{}},
		playlists: newMockPlaylistService(),
		opener:    &mockOpener{},
	}
	ts.hub = NewHub(func() *domain.Session { return ts.sessions.Current() }, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ts.hub.Run(ctx)

	ts.router = NewRouter(ts.sessions, ts.playlists, ts.opener, ts.hub, logger)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestSessionHandler_StartDownload(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	sessions := &mockSessionService{}
	handler := NewSessionHandler(sessions, logger)

	body, _ := json.Marshal(domain.CreateDownloadRequest{
		Kind:   domain.KindSingle,
		URL:    "https://www.youtube.com/watch?v=abc",
		Format: domain.FormatAudio,
	})
	req := httptest.NewRequest(http.MethodPost, "/downloads", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.StartDownload(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var data map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&data)
	assert.Contains(t, data, "session_id")
	assert.Equal(t, "running", data["status"])
	require.Len(t, sessions.started, 1)
	assert.Equal(t, domain.FormatAudio, sessions.started[0].Format)
}

func TestSessionHandler_StartDownloadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing url", `{"kind":"single","format":"audio"}`},
		{"missing ids", `{"kind":"batch","format":"video"}`},
		{"blank id", `{"kind":"batch","ids":["a",""],"format":"video"}`},
		{"legacy format", `{"kind":"single","url":"https://x","format":"mp3"}`},
		{"unknown kind", `{"kind":"album","url":"https://x","format":"audio"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			w := ts.do(http.MethodPost, "/downloads", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, ts.sessions.started)
		})
	}
}

func TestSessionHandler_StartDownloadErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"running", errpkg.ErrSessionRunning, http.StatusConflict},
		{"validation", &errpkg.ValidationError{Field: "url", Message: "url must not be empty"}, http.StatusBadRequest},
		{"collaborator", &errpkg.CollaboratorError{Message: "ERROR: boom"}, http.StatusBadGateway},
		{"internal", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.sessions.startErr = tt.err

			w := ts.do(http.MethodPost, "/downloads", `{"kind":"single","url":"https://x","format":"video"}`)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSessionHandler_GetCurrent(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.SessionStatusIdle, decode[domain.Session](t, w).Status)
}

func TestSessionHandler_GetSession(t *testing.T) {
	ts := newTestServer(t)
	stored := domain.NewSession(domain.DownloadRequest{Kind: domain.KindSingle, URL: "https://x", Format: domain.FormatAudio})
	stored.Status = domain.SessionStatusSucceeded
	ts.sessions.stored[stored.ID] = stored

	w := ts.do(http.MethodGet, "/sessions/"+stored.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[domain.Session](t, w)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, domain.SessionStatusSucceeded, got.Status)

	w = ts.do(http.MethodGet, "/sessions/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodGet, "/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaylistHandler_Flow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/playlist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPost, "/playlists", `{"url":"https://www.youtube.com/playlist?list=PL1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	loaded := decode[domain.PlaylistResponse](t, w)
	assert.Len(t, loaded.Items, 2)
	assert.Equal(t, "none", loaded.Selection.State)
	assert.Equal(t, 2, loaded.Selection.Total)

	w = ts.do(http.MethodPost, "/playlist/items/b/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	sel := decode[domain.SelectionResponse](t, w)
	assert.Equal(t, "partial", sel.State)
	assert.Equal(t, []string{"b"}, sel.Selected)

	w = ts.do(http.MethodPost, "/playlist/items/zzz/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[domain.SelectionResponse](t, w).Count)

	w = ts.do(http.MethodPost, "/playlist/toggle-all", "")
	require.Equal(t, http.StatusOK, w.Code)
	sel = decode[domain.SelectionResponse](t, w)
	assert.Equal(t, "all", sel.State)
	assert.Equal(t, []string{"a", "b"}, sel.Selected)

	w = ts.do(http.MethodPost, "/playlist/download", `{"format":"video"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	session := decode[domain.Session](t, w)
	assert.Equal(t, []string{"a", "b"}, session.Request.ItemIDs)
	assert.Equal(t, domain.FormatVideo, ts.playlists.format)

	w = ts.do(http.MethodPost, "/playlist/toggle-all", "")
	assert.Equal(t, "none", decode[domain.SelectionResponse](t, w).State)

	w = ts.do(http.MethodPost, "/playlist/download", `{"format":"audio"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaylistHandler_LoadErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/playlists", `{"url":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.playlists.loadErr = &errpkg.CollaboratorError{Message: "ERROR: playlist does not exist"}
	w = ts.do(http.MethodPost, "/playlists", `{"url":"https://example.com/list"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "ERROR: playlist does not exist", decode[map[string]string](t, w)["error"])
}

func TestFileHandler(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/files/open", `{"path":"/d/a.mp3"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(http.MethodPost, "/files/reveal", `{"path":"/d/a.mp3"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"open:/d/a.mp3", "reveal:/d/a.mp3"}, ts.opener.opened)

	w = ts.do(http.MethodPost, "/files/open", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.opener.err = fmt.Errorf("file does not exist: %w", os.ErrNotExist)
	w = ts.do(http.MethodPost, "/files/reveal", `{"path":"/d/gone.mp3"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestHub_BroadcastsSessionEvents(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/session/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, snapshotMessageType, msg.Type)

	assert.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	id := uuid.New()
	ts.hub.Notify(domain.SessionEvent{
		Type:      domain.EventSessionProgress,
		SessionID: id,
		Status:    domain.SessionStatusRunning,
		Line:      "[download]  50.0% of 1MiB",
		Progress:  &domain.ProgressSnapshot{Percent: 50, Sequence: 1},
	})

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, string(domain.EventSessionProgress), msg.Type)

	var event domain.SessionEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, id, event.SessionID)
	assert.Equal(t, 50.0, event.Progress.Percent)
	assert.Equal(t, "[download]  50.0% of 1MiB", event.Line)
}
