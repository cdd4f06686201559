package ports

import (
	"context"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// UpdatePassword replaces the hash and the must-change flag of one user.
	UpdatePassword(ctx context.Context, id int64, passwordHash string, mustChange bool) error
	List(ctx context.Context) ([]*domain.User, error)
}
