package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mockround/mockround/internal/shared"
)

// maxPasswordBytes is the longest input bcrypt hashes.
const maxPasswordBytes = 72

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginInput carries a credential check.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned on successful registration or login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Identity  `json:"user"`
}

// Service wraps authentication business rules.
type Service struct {
	repo        Repository
	tokens      *TokenIssuer
	revocations RevocationStore
	bcryptCost  int
	logger      *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenIssuer, revocations RevocationStore, bcryptCost int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, revocations: revocations, bcryptCost: bcryptCost, logger: logger}
}

// Register creates an account with the user role and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if len(in.Password) > maxPasswordBytes {
		return Session{}, fmt.Errorf("%w: password must be at most %d bytes", shared.ErrValidation, maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         RoleUser,
	})
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return s.issue(user)
}

// Login validates email/password credentials and issues a token.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Session{}, shared.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return Session{}, shared.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Logout revokes the token identified by claims until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Resolve verifies a raw token and loads the identity it belongs to.
func (s *Service) Resolve(ctx context.Context, raw string) (Identity, Claims, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return Identity{}, Claims{}, fmt.Errorf("%w: %v", shared.ErrUnauthenticated, err)
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, Claims{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Identity{}, Claims{}, fmt.Errorf("%w: token revoked", shared.ErrUnauthenticated)
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Identity{}, Claims{}, fmt.Errorf("%w: user no longer exists", shared.ErrUnauthenticated)
		}
		return Identity{}, Claims{}, fmt.Errorf("load user: %w", err)
	}
	return user.Identity(), claims, nil
}

func (s *Service) issue(user User) (Session, error) {
	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user.Identity()}, nil
}
