package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
)

// SessionStorage keeps session history in memory and mirrors it to a JSON file.
type SessionStorage struct {
	mu       sync.RWMutex
	writeMu  sync.Mutex
	sessions map[uuid.UUID]*domain.Session
	file     string
}

// NewSessionStorage creates a new SessionStorage and loads sessions from the file if it exists.
func NewSessionStorage(filePath string) (*SessionStorage, error) {
	repo := &SessionStorage{
		sessions: make(map[uuid.UUID]*domain.Session),
		file:     filepath.Clean(filePath),
	}

	if err := repo.restoreSessions(); err != nil {
		return nil, fmt.Errorf("failed to load state from file: %w", err)
	}

	slog.Info("session repository initialized", "file_path", repo.file, "sessions_count", len(repo.sessions))
	return repo, nil
}

func (r *SessionStorage) restoreSessions() error {
	if isFileNotExist(r.file) {
		slog.Info("state file does not exist, starting with empty history", "file_path", r.file)
		return nil
	}

	data, err := os.ReadFile(r.file)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if len(data) == 0 {
		slog.Warn("state file is empty")
		return nil
	}

	var sessions []*domain.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("failed to unmarshal state file: %w", err)
	}

	for _, s := range sessions {
		r.sessions[s.ID] = s
	}

	slog.Info("state loaded from file", "sessions_count", len(sessions), "file_path", r.file)
	return nil
}

func isFileNotExist(filePath string) bool {
	_, err := os.Stat(filePath)
	return os.IsNotExist(err)
}

func (r *SessionStorage) persistSessions() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	sessions := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	data, err := json.MarshalIndent(sessions, "", "  ")
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	tempFile := r.file + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, r.file); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	slog.Debug("state saved to file", "sessions_count", len(sessions), "file_path", r.file)
	return nil
}

// CreateSession adds a new session and persists it to the file.
func (r *SessionStorage) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.sessions[session.ID] = session.Clone()
	r.mu.Unlock()

	if err := r.persistSessions(); err != nil {
		return fmt.Errorf("failed to save state after creating session: %w", err)
	}

	slog.Debug("session created and saved", "session_id", session.ID)
	return nil
}

// GetSession retrieves a copy of a session by ID.
func (r *SessionStorage) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	session, exists := r.sessions[id]
	r.mu.RUnlock()

	if !exists {
		return nil, errpkg.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// UpdateSession replaces an existing session and persists it to the file.
func (r *SessionStorage) UpdateSession(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	stored := session.Clone()
	stored.UpdatedAt = time.Now()
	r.sessions[session.ID] = stored
	r.mu.Unlock()

	if err := r.persistSessions(); err != nil {
		return fmt.Errorf("failed to save state after updating session: %w", err)
	}

	slog.Debug("session updated and saved", "session_id", session.ID, "status", session.Status)
	return nil
}

// GetSessionsByStatus returns all sessions with the specified status.
func (r *SessionStorage) GetSessionsByStatus(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var filtered []*domain.Session
	for _, s := range r.sessions {
		if s.Status == status {
			filtered = append(filtered, s.Clone())
		}
	}
	r.mu.RUnlock()

	return filtered, nil
}
