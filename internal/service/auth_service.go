package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"adminhub/internal/model"
	"adminhub/internal/rbac"
	"adminhub/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LoginResult struct {
	User   UserResponse `json:"user"`
	Tokens TokenPair    `json:"-"`
}

type MeResponse struct {
	User        UserResponse   `json:"user"`
	Permissions rbac.Effective `json:"permissions"`
}

// AuthService issues and validates sessions. It also implements the
// middleware.AuthStore surface the session guard depends on.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, *model.User, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*MeResponse, error)

	ValidateToken(ctx context.Context, token string) (*model.User, error)
	GetRolesForUser(ctx context.Context, userID uuid.UUID) ([]model.Role, error)
}

type authService struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	tokens   repository.TokenRepository
	activity ActivityRecorder

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService returns a new AuthService instance
func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	tokens repository.TokenRepository,
	activity ActivityRecorder,
	accessTTL, refreshTTL time.Duration,
) AuthService {
	return &authService{
		users:      users,
		roles:      roles,
		tokens:     tokens,
		activity:   activity,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func jwtSecret() []byte {
	// Same fallback strategy as the middleware
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	return []byte(secret)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, user.ID.String(), model.ActionUserLogin, "users", user.ID.String(), user.Username, map[string]interface{}{
		"email": user.Email,
	})

	return &LoginResult{User: *mapUserToResponse(user), Tokens: *pair}, nil
}

// Refresh rotates the refresh token: the presented token is consumed and
// a fresh pair is issued, so a leaked token is single-use.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *model.User, error) {
	stored, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		return nil, nil, errors.New("invalid refresh token")
	}

	if time.Now().After(stored.ExpiresAt) {
		_ = s.tokens.Delete(ctx, refreshToken)
		return nil, nil, errors.New("refresh token expired")
	}

	user, err := s.users.GetByID(ctx, stored.UserID.String())
	if err != nil || !user.IsActive {
		_ = s.tokens.Delete(ctx, refreshToken)
		return nil, nil, errors.New("invalid refresh token")
	}

	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, refreshToken)
}

func (s *authService) Me(ctx context.Context, userID string) (*MeResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	roles, err := s.roles.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	return &MeResponse{
		User:        *mapUserToResponse(user),
		Permissions: rbac.Resolve(roles),
	}, nil
}

// ValidateToken re-validates the session against the store on every
// request: the decoded claims alone are never trusted, so deactivation
// and role edits take effect without waiting for token expiry.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("token missing subject")
	}

	user, err := s.users.GetByID(ctx, sub)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}
	return user, nil
}

func (s *authService) GetRolesForUser(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	return s.roles.ListForUser(ctx, userID)
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(s.accessTTL).Unix(),
	})

	accessToken, err := token.SignedString(jwtSecret())
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	refresh := model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.tokens.Create(ctx, &refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refresh.Token}, nil
}
