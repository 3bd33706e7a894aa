package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kontor/internal/core/apperror"
	appctx "kontor/internal/core/context"
	"kontor/pkg/logger"
)

// Credential is a configured API user: an email and a bcrypt password
// hash, loaded from configuration at startup.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// LoginResult carries an issued access token.
type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Service provides authentication against configured credentials.
type Service struct {
	credentials map[string]Credential
	jwtService  *JWTService
}

// NewService creates a new auth service.
func NewService(credentials []Credential, jwtService *JWTService) *Service {
	byEmail := make(map[string]Credential, len(credentials))
	for _, c := range credentials {
		byEmail[c.Email] = c
	}
	return &Service{credentials: byEmail, jwtService: jwtService}
}

// Login checks the password and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	cred, ok := s.credentials[email]
	if !ok {
		// Burn a comparison anyway so unknown emails cost the same as
		// wrong passwords.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
			[]byte(password))
		return LoginResult{}, apperror.NewUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		logger.Warn(ctx, "failed login attempt", "email", email)
		return LoginResult{}, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwtService.GenerateAccessToken(cred.UserID, cred.Email, cred.IsAdmin)
	if err != nil {
		return LoginResult{}, apperror.NewInternal(err)
	}

	logger.Info(ctx, "user logged in", "email", email)
	return LoginResult{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Validate parses an access token into a user context.
func (s *Service) Validate(tokenString string) (*appctx.UserContext, error) {
	user, err := s.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token")
	}
	return user, nil
}
