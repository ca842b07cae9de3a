package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"squad-markets/internal/database"
)

// Service implements registration and login on top of the user repository
type Service struct {
	repo      *database.Repository
	jwt       *JWTManager
	passwords *PasswordManager
	logger    zerolog.Logger
}

// NewService creates the auth service
func NewService(repo *database.Repository, jwt *JWTManager, passwords *PasswordManager, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		jwt:       jwt,
		passwords: passwords,
		logger:    logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new user and returns an access token
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	if err := s.passwords.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &database.User{
		ID:             uuid.New().String(),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   hash,
		DisplayName:    strings.TrimSpace(req.DisplayName),
		TradingAddress: strings.TrimSpace(req.TradingAddress),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")

	return s.tokenFor(user)
}

// Login verifies credentials and returns an access token
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !s.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.tokenFor(user)
}

func (s *Service) tokenFor(user *database.User) (*TokenResponse, error) {
	claims := UserClaims{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}

	token, err := s.jwt.GenerateAccessToken(claims)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: token,
		ExpiresIn:   s.jwt.AccessTokenDuration(),
		User:        claims,
	}, nil
}
