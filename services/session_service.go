package services

import (
	"context"
	"errors"
	"time"

	"chat-core/config"
	"chat-core/models"
	"chat-core/repository"
	"chat-core/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is the caller identity handed to clients after login. Token is the
// value they present on later calls.
type Session struct {
	ID        string       `json:"session_id"`
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type SessionService struct {
	auth     *AuthService
	sessions repository.SessionRepository
	users    repository.UserRepository
	config   *config.Config
	log      *zap.Logger
	now      func() time.Time
}

func NewSessionService(auth *AuthService, sessions repository.SessionRepository, users repository.UserRepository, cfg *config.Config, log *zap.Logger) *SessionService {
	return &SessionService{
		auth:     auth,
		sessions: sessions,
		users:    users,
		config:   cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionService) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.Start(ctx, u)
}

// Start opens a session for an already authenticated user.
func (s *SessionService) Start(ctx context.Context, u *models.User) (*Session, error) {
	now := s.now()
	rec := &models.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.SessionTTL()),
	}
	if err := s.sessions.Create(ctx, rec); err != nil {
		return nil, storeError("create session", err)
	}

	token, err := utils.GenerateJWT(s.config.JWTSecret, rec.ID, u.ID, u.Username, rec.ExpiresAt)
	if err != nil {
		return nil, err
	}

	s.log.Info("session started", zap.String("session_id", rec.ID), zap.String("user_id", u.ID))
	return &Session{ID: rec.ID, Token: token, User: u, ExpiresAt: rec.ExpiresAt}, nil
}

// CurrentUser resolves token to its user. Every failure to do so, other than
// a storage outage, is ErrNoSession.
func (s *SessionService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ParseJWT(s.config.JWTSecret, token)
	if err != nil {
		return nil, ErrNoSession
	}

	rec, err := s.sessions.FindActive(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, storeError("load session", err)
	}
	if rec.UserID != claims.UserID {
		return nil, ErrNoSession
	}

	u, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, storeError("load session user", err)
	}
	return u, nil
}

func (s *SessionService) Logout(ctx context.Context, token string) error {
	claims, err := utils.ParseJWT(s.config.JWTSecret, token)
	if err != nil {
		return ErrNoSession
	}
	if err := s.sessions.Revoke(ctx, claims.SessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoSession
		}
		return storeError("revoke session", err)
	}
	s.log.Info("session ended", zap.String("session_id", claims.SessionID), zap.String("user_id", claims.UserID))
	return nil
}
