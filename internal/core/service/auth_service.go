package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/earnings-tracker/ledger-api/internal/api/metrics"
	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

const minPasswordLength = 6

// dummyHash is compared against when the email is unknown so that a missing
// account and a wrong password take the same time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ledger-api-dummy-password"), bcrypt.DefaultCost)

// AuthService implements registration, login and the account endpoints.
type AuthService struct {
	repo   ports.UserRepository
	tokens ports.TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens ports.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, log: log}
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Invalid("email must be a valid email")
	}
	if name == "" {
		return nil, domain.Invalid("name is required")
	}
	if len(password) < minPasswordLength {
		return nil, domain.Invalid("password must be at least %d characters", minPasswordLength)
	}

	user, err := s.create(ctx, email, password, name, domain.RoleUser, false)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

// EnsureUser creates the account unless the email is already registered.
// It reports whether a user was created. Used to seed administrators.
func (s *AuthService) EnsureUser(ctx context.Context, email, password, name, role string, mustChange bool) (bool, error) {
	if email == "" || password == "" {
		return false, domain.Invalid("email and password are required")
	}
	if !domain.ValidRole(role) {
		return false, domain.Invalid("role must be one of: %s %s", domain.RoleUser, domain.RoleAdmin)
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}
	if name == "" {
		name = email
	}
	if _, err := s.create(ctx, email, password, name, role, mustChange); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) create(ctx context.Context, email, password, name, role string, mustChange bool) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, &domain.User{
		Email:              email,
		PasswordHash:       string(hash),
		Role:               role,
		DisplayName:        name,
		MustChangePassword: mustChange,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	res, err := s.login(ctx, email, password)
	switch {
	case err == nil:
		metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
		s.log.Info().Int64("user_id", res.User.ID).Msg("user logged in")
	case errors.Is(err, domain.ErrInvalidCredentials):
		metrics.AuthLoginsTotal.WithLabelValues("invalid_credentials").Inc()
	default:
		metrics.AuthLoginsTotal.WithLabelValues("error").Inc()
	}
	return res, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(domain.Principal{
		UserID:      user.ID,
		Role:        user.Role,
		DisplayName: user.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	return &ports.LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Me returns the account behind the principal.
func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, p.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		// The token outlived its account.
		return nil, domain.ErrUnauthenticated
	}
	return user, err
}

func (s *AuthService) ChangePassword(ctx context.Context, p domain.Principal, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return domain.Invalid("currentPassword is required")
	}
	if len(newPassword) < minPasswordLength {
		return domain.Invalid("newPassword must be at least %d characters", minPasswordLength)
	}

	user, err := s.Me(ctx, p)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash), false); err != nil {
		return err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("password changed")
	return nil
}

// ListUsers is reserved to administrators.
func (s *AuthService) ListUsers(ctx context.Context, p domain.Principal) ([]*domain.User, error) {
	if err := Authorize(p, 0, ActionAdmin); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}
