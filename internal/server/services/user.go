package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/okutsen/snipkeep/internal/common"
	"github.com/okutsen/snipkeep/internal/server/auth"
	"github.com/okutsen/snipkeep/internal/server/config"
	"github.com/okutsen/snipkeep/internal/server/models"
	"github.com/okutsen/snipkeep/internal/server/repositories/repomanager"
)

const minPasswordLength = 8

// AuthResult is returned by every sign-in path: a bearer token plus the
// identity it was minted for.
type AuthResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// GoogleExchanger redeems an OAuth authorization code for a Google profile.
type GoogleExchanger interface {
	Exchange(ctx context.Context, code string) (*auth.GoogleProfile, error)
}

// UserService provides authentication-related operations:
// - Register: create password accounts
// - Login: verify credentials and mint tokens
// - LoginWithGoogle: redeem a Google authorization code and mint tokens
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	google                GoogleExchanger
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, google GoogleExchanger, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		google:                google,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates a password account. A taken email yields
// common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", common.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password too short: %w", common.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrInternal
	}

	user := &models.User{Email: email, PasswordHash: hash}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	return s.issueToken(u)
}

// Login verifies the email and password and, on success, returns a token.
// Unknown accounts and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrUnauthorized
	}
	return s.issueToken(user)
}

// LoginWithGoogle redeems an authorization code, finds or creates the
// matching account, and returns a token. An account registered earlier
// with the same email is reused.
func (s *UserService) LoginWithGoogle(ctx context.Context, code string) (*AuthResult, error) {
	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByGoogleSub(ctx, profile.Sub)
	if err == nil {
		return s.issueToken(user)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInternal
	}

	user, err = repo.Create(ctx, &models.User{Email: profile.Email, GoogleSub: profile.Sub})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			// email registered with a password earlier: sign into that account
			user, err = repo.GetByEmail(ctx, profile.Email)
			if err != nil {
				return nil, common.ErrInternal
			}
			return s.issueToken(user)
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	return s.issueToken(user)
}

func (s *UserService) issueToken(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}
	return &AuthResult{Token: token, UserID: user.ID, Email: user.Email}, nil
}
