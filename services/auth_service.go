package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"docshare/models"
	"docshare/repositories"
	"docshare/utils"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Email    string
	Password string
}

// OAuthIdentity is the normalized identity returned by an OAuth provider.
type OAuthIdentity struct {
	ID       string
	Email    string
	FullName string
}

type SessionOutput struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (SessionOutput, error)
	Login(ctx context.Context, in LoginInput) (SessionOutput, error)
	GetProfile(ctx context.Context, userID uint) (models.User, error)
	OAuthLogin(ctx context.Context, provider string, identity OAuthIdentity) (SessionOutput, error)
}

type authService struct {
	users repositories.UserRepository
}

func NewAuthService(users repositories.UserRepository) AuthService {
	return &authService{users: users}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (SessionOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	count, err := s.users.CountByEmail(ctx, email)
	if err != nil {
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to check email", err)
	}
	if count > 0 {
		return SessionOutput{}, newAppError(http.StatusConflict, "Email already registered", nil)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to hash password", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, nil, &user); err != nil {
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to create user", err)
	}

	return s.session(user)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (SessionOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionOutput{}, newAppError(http.StatusUnauthorized, "Invalid credentials", nil)
		}
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to query user", err)
	}

	if !utils.CheckPassword(user.PasswordHash, in.Password) {
		return SessionOutput{}, newAppError(http.StatusUnauthorized, "Invalid credentials", nil)
	}

	now := time.Now()
	if err := s.users.UpdateByID(ctx, nil, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to update last login", err)
	}
	user.LastLogin = &now

	return s.session(user)
}

func (s *authService) GetProfile(ctx context.Context, userID uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, newAppError(http.StatusNotFound, "User not found", nil)
		}
		return models.User{}, newAppError(http.StatusInternalServerError, "failed to query user", err)
	}
	return user, nil
}

// OAuthLogin resolves a provider identity to a local account, creating one on
// first sign-in. When the provider email already has a local account the
// provider identity is attached to it instead of creating a duplicate.
func (s *authService) OAuthLogin(ctx context.Context, provider string, identity OAuthIdentity) (SessionOutput, error) {
	user, err := s.users.GetByProvider(ctx, nil, provider, identity.ID)
	if err == nil {
		return s.touchAndSession(ctx, user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to query user", err)
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return SessionOutput{}, newAppError(http.StatusBadRequest, "provider did not supply an email", nil)
	}

	existing, err := s.users.GetByEmail(ctx, nil, email)
	if err == nil {
		updates := map[string]interface{}{"provider": provider, "provider_id": identity.ID}
		if err := s.users.UpdateByID(ctx, nil, existing.ID, updates); err != nil {
			return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to link provider", err)
		}
		existing.Provider = provider
		existing.ProviderID = identity.ID
		return s.touchAndSession(ctx, existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to query user", err)
	}

	user = models.User{
		Email:      email,
		FullName:   strings.TrimSpace(identity.FullName),
		Provider:   provider,
		ProviderID: identity.ID,
		IsActive:   true,
	}
	if err := s.users.Create(ctx, nil, &user); err != nil {
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to create user", err)
	}
	return s.touchAndSession(ctx, user)
}

func (s *authService) touchAndSession(ctx context.Context, user models.User) (SessionOutput, error) {
	now := time.Now()
	if err := s.users.UpdateByID(ctx, nil, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to update last login", err)
	}
	user.LastLogin = &now
	return s.session(user)
}

func (s *authService) session(user models.User) (SessionOutput, error) {
	token, err := utils.GenerateToken(user.ID, user.Email, utils.TokenDuration)
	if err != nil {
		return SessionOutput{}, newAppError(http.StatusInternalServerError, "failed to generate token", err)
	}
	return SessionOutput{Token: token, User: user}, nil
}
