package ports

import (
	"context"
	"time"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, p domain.Principal) (*domain.User, error)
	ChangePassword(ctx context.Context, p domain.Principal, currentPassword, newPassword string) error
	ListUsers(ctx context.Context, p domain.Principal) ([]*domain.User, error)
}

// TokenIssuer signs and verifies the session credential.
type TokenIssuer interface {
	Issue(p domain.Principal) (token string, expiresAt time.Time, err error)
	Verify(token string) (domain.Principal, error)
}
