package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"chat-core/models"
	"chat-core/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8  // characters
	maxPasswordLength = 72 // bytes, the bcrypt input limit
)

// AuthService owns user records and checks credentials.
type AuthService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	log    *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, log *zap.Logger) *AuthService {
	return &AuthService{users: userRepo, hasher: hasher, log: log}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if utf8.RuneCountInString(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, ErrWeakPassword
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:             uuid.NewString(),
		Username:       username,
		CredentialHash: hashed,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, storeError("register user", err)
	}

	s.log.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

// Authenticate returns the user whose credentials match. Unknown usernames and
// wrong passwords both yield ErrAuthFailure.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrAuthFailure
	}

	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthFailure
		}
		s.log.Error("credential lookup failed", zap.Error(err))
		return nil, storeError("authenticate", err)
	}
	if !s.hasher.Verify(password, u.CredentialHash) {
		return nil, ErrAuthFailure
	}
	return u, nil
}

func (s *AuthService) LookupUsername(ctx context.Context, userID string) (string, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", storeError("lookup username", err)
	}
	return u.Username, nil
}
