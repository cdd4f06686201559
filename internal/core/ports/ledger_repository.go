package ports

import (
	"context"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// ApplicationFilter selects applications by owner. When Scope.All is set no
// owner filter is applied.
type ApplicationFilter struct {
	Scope domain.Scope
}

// EarningFilter selects the earnings of one application inside an inclusive
// date range.
type EarningFilter struct {
	ApplicationID int64
	Range         domain.DateRange
}

// LedgerFilter selects everything the aggregation engine needs for one query.
// ApplicationID is optional (zero = every application in scope).
type LedgerFilter struct {
	Scope         domain.Scope
	ApplicationID int64
	Range         domain.DateRange
}

// LedgerRepository persists applications and their earnings. It performs no
// ownership checks; callers pass the owner resolved by the authorization gate.
//
// Implementations must make DeleteApplication atomic (earnings and the
// application disappear together) and must make CreateEarning fail with
// domain.ErrApplicationNotFound when the parent is gone, so an earning can
// never be orphaned.
type LedgerRepository interface {
	CreateApplication(ctx context.Context, app *domain.Application) (*domain.Application, error)
	GetApplication(ctx context.Context, id int64) (*domain.Application, error)
	UpdateApplication(ctx context.Context, app *domain.Application) (*domain.Application, error)
	DeleteApplication(ctx context.Context, id int64) error
	// ListApplications returns applications ordered by id descending.
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]*domain.Application, error)

	CreateEarning(ctx context.Context, e *domain.Earning) (*domain.Earning, error)
	GetEarning(ctx context.Context, id int64) (*domain.Earning, error)
	UpdateEarning(ctx context.Context, e *domain.Earning) (*domain.Earning, error)
	DeleteEarning(ctx context.Context, id int64) error
	// ListEarnings returns earnings ordered by date descending, then id descending.
	ListEarnings(ctx context.Context, filter EarningFilter) ([]*domain.Earning, error)

	// ScopedLedger returns the applications in scope and their earnings inside
	// the range using a fixed number of reads, whatever the number of
	// applications.
	ScopedLedger(ctx context.Context, filter LedgerFilter) ([]*domain.Application, []*domain.Earning, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
