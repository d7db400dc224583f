package usecase

import (
	"context"
	"fmt"
	"strings"

	"news-rag-chat/internal/domain"
)

// SessionUsecase manages session lifecycles outside of chat.
type SessionUsecase interface {
	Create(ctx context.Context) (string, error)
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)
	// Delete returns domain.ErrNotFound when no record existed.
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

type sessionUsecase struct {
	sessions domain.SessionRepository
}

func NewSessionUsecase(sessions domain.SessionRepository) SessionUsecase {
	return &sessionUsecase{sessions: sessions}
}

func (u *sessionUsecase) Create(ctx context.Context) (string, error) {
	return u.sessions.Create(ctx)
}

func (u *sessionUsecase) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId is required: %w", domain.ErrInvalidRequest)
	}
	return u.sessions.GetHistory(ctx, sessionID)
}

func (u *sessionUsecase) Delete(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("sessionId is required: %w", domain.ErrInvalidRequest)
	}
	existed, err := u.sessions.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return nil
}

func (u *sessionUsecase) Ping(ctx context.Context) error {
	return u.sessions.Ping(ctx)
}
