package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
)

func newSession(status domain.SessionStatus) *domain.Session {
	s := domain.NewSession(domain.DownloadRequest{
		Kind:   domain.KindSingle,
		URL:    "https://www.youtube.com/watch?v=abc",
		Format: domain.FormatAudio,
	})
	s.Status = status
	return s
}

func TestSessionStorage_CRUD(t *testing.T) {
	file := t.TempDir() + "/sessions.json"
	repo, err := NewSessionStorage(file)
	assert.NoError(t, err)

	session := newSession(domain.SessionStatusRunning)

	err = repo.CreateSession(context.Background(), session)
	assert.NoError(t, err)

	got, err := repo.GetSession(context.Background(), session.ID)
	assert.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, domain.SessionStatusRunning, got.Status)

	session.Status = domain.SessionStatusSucceeded
	session.Outcome = &domain.Outcome{Path: "/downloads/song.mp3"}
	err = repo.UpdateSession(context.Background(), session)
	assert.NoError(t, err)

	got2, err := repo.GetSession(context.Background(), session.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.SessionStatusSucceeded, got2.Status)
	assert.Equal(t, "/downloads/song.mp3", got2.Outcome.Path)
}

func TestSessionStorage_StoresCopies(t *testing.T) {
	repo, err := NewSessionStorage(t.TempDir() + "/sessions.json")
	require.NoError(t, err)

	session := newSession(domain.SessionStatusRunning)
	require.NoError(t, repo.CreateSession(context.Background(), session))

	session.Log = append(session.Log, "mutated after save")

	got, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Log)
}

func TestSessionStorage_NotFound(t *testing.T) {
	repo, err := NewSessionStorage(t.TempDir() + "/sessions.json")
	require.NoError(t, err)

	_, err = repo.GetSession(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errpkg.ErrSessionNotFound)
}

func TestSessionStorage_Reload(t *testing.T) {
	file := t.TempDir() + "/sessions.json"
	repo, err := NewSessionStorage(file)
	require.NoError(t, err)

	session := newSession(domain.SessionStatusFailed)
	session.Error = "ERROR: Video unavailable"
	session.Log = []string{"[youtube] abc: Downloading webpage", "ERROR: Video unavailable"}
	require.NoError(t, repo.CreateSession(context.Background(), session))

	reloaded, err := NewSessionStorage(file)
	require.NoError(t, err)

	got, err := reloaded.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Error, got.Error)
	assert.Equal(t, session.Log, got.Log)
}

func TestSessionStorage_EmptyFile(t *testing.T) {
	file := t.TempDir() + "/sessions.json"
	require.NoError(t, os.WriteFile(file, nil, 0644))

	repo, err := NewSessionStorage(file)
	require.NoError(t, err)

	running, err := repo.GetSessionsByStatus(context.Background(), domain.SessionStatusRunning)
	require.NoError(t, err)
	assert.Empty(t, running)
}

func TestSessionStorage_CorruptFile(t *testing.T) {
	file := t.TempDir() + "/sessions.json"
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0644))

	_, err := NewSessionStorage(file)
	assert.Error(t, err)
}

func TestSessionStorage_GetSessionsByStatus(t *testing.T) {
	file := t.TempDir() + "/sessions.json"
	repo, err := NewSessionStorage(file)
	assert.NoError(t, err)

	s1 := newSession(domain.SessionStatusRunning)
	s2 := newSession(domain.SessionStatusSucceeded)

	_ = repo.CreateSession(context.Background(), s1)
	_ = repo.CreateSession(context.Background(), s2)

	running, err := repo.GetSessionsByStatus(context.Background(), domain.SessionStatusRunning)
	assert.NoError(t, err)
	assert.Len(t, running, 1)
	assert.Equal(t, s1.ID, running[0].ID)

	succeeded, err := repo.GetSessionsByStatus(context.Background(), domain.SessionStatusSucceeded)
	assert.NoError(t, err)
	assert.Len(t, succeeded, 1)
	assert.Equal(t, s2.ID, succeeded[0].ID)
}

func TestSessionStorage_ContextCanceled(t *testing.T) {
	repo, err := NewSessionStorage(t.TempDir() + "/sessions.json")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.CreateSession(ctx, newSession(domain.SessionStatusRunning)), context.Canceled)
}
