package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"stivoting/internal/models"
	"stivoting/internal/repositories"
)

const (
	accessTokenTTL  = 5 * time.Minute
	refreshTokenTTL = 28 * 24 * time.Hour
)

type AuthService interface {
	ValidateUser(ctx context.Context, username, password string) (*models.User, error)
	// Login mints a 5-minute access token and a fresh refresh token,
	// rotating out every prior refresh token of the user.
	Login(ctx context.Context, user *models.User) (*models.TokenPair, error)
	// Refresh consumes the presented token and re-runs Login. Single-use:
	// of two concurrent calls with the same token at most one succeeds.
	Refresh(ctx context.Context, token string) (*models.TokenPair, error)
}

type authService struct {
	users     repositories.UserRepository
	tokens    repositories.RefreshTokenRepository
	jwtSecret []byte
}

func NewAuthService(users repositories.UserRepository, tokens repositories.RefreshTokenRepository, jwtSecret []byte) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		jwtSecret: jwtSecret,
	}
}

func (s *authService) ValidateUser(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, internalErr("failed to load user", err)
	}
	if user == nil {
		return nil, &UnauthorizedError{Name: "username", Message: "username not found!"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, &UnauthorizedError{Name: "password", Message: "wrong password!"}
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	now := time.Now()
	claims := &models.AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		Branch:   user.Branch,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, internalErr("failed to sign access token", err)
	}

	refreshToken := uuid.NewString()
	if err := s.tokens.Rotate(ctx, user.ID, refreshToken, now.Add(refreshTokenTTL)); err != nil {
		return nil, internalErr("failed to create refresh token", err)
	}

	log.Printf("[auth][login] success user_id=%d role=%s", user.ID, user.Role)
	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, token string) (*models.TokenPair, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &GoneError{Message: "refresh token does not exist"}
	}

	userID, err := s.tokens.Consume(ctx, token, time.Now())
	if err != nil {
		return nil, internalErr("failed to consume refresh token", err)
	}
	if userID == 0 {
		// Unknown and expired fall into the same bucket on purpose.
		return nil, &GoneError{Message: "Invalid or expired refresh token"}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, internalErr("failed to load user", err)
	}
	if user == nil {
		return nil, internalErr("failed to find user!", nil)
	}
	return s.Login(ctx, user)
}
