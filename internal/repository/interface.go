package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/veranemoloko/media-downloader/internal/domain"
)

// SessionRepo defines the interface for session history storage.
type SessionRepo interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	GetSessionsByStatus(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error)
}
