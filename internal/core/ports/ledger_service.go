package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// CreateApplicationInput carries the fields of a new application. OwnerUserID
// is honoured only for admins; everyone else always creates for themselves.
type CreateApplicationInput struct {
	OwnerUserID  int64
	Name         string
	StartDate    string
	InitialValue *decimal.Decimal
	DueDate      string
}

// UpdateApplicationInput is a partial update; nil fields are left unchanged.
type UpdateApplicationInput struct {
	Name         *string
	StartDate    *string
	InitialValue *decimal.Decimal
	DueDate      *string
}

// ListApplicationsInput carries the admin-only widening parameters.
type ListApplicationsInput struct {
	UserID int64
	All    bool
}

type CreateEarningInput struct {
	ApplicationID int64
	Date          string
	Gross         *decimal.Decimal
	Net           *decimal.Decimal
}

// UpdateEarningInput is a partial update; nil fields are left unchanged. The
// parent application of an earning cannot be changed.
type UpdateEarningInput struct {
	Date  *string
	Gross *decimal.Decimal
	Net   *decimal.Decimal
}

type ListEarningsInput struct {
	ApplicationID int64
	From          string
	To            string
}

// LedgerService defines the ownership-checked use cases on applications and
// earnings.
type LedgerService interface {
	CreateApplication(ctx context.Context, p domain.Principal, in CreateApplicationInput) (*domain.Application, error)
	UpdateApplication(ctx context.Context, p domain.Principal, id int64, in UpdateApplicationInput) (*domain.Application, error)
	DeleteApplication(ctx context.Context, p domain.Principal, id int64) error
	ListApplications(ctx context.Context, p domain.Principal, in ListApplicationsInput) ([]*domain.Application, error)

	CreateEarning(ctx context.Context, p domain.Principal, in CreateEarningInput) (*domain.Earning, error)
	UpdateEarning(ctx context.Context, p domain.Principal, id int64, in UpdateEarningInput) (*domain.Earning, error)
	DeleteEarning(ctx context.Context, p domain.Principal, id int64) error
	ListEarnings(ctx context.Context, p domain.Principal, in ListEarningsInput) ([]*domain.Earning, error)
}

// WriteSerializer runs fn so that all calls sharing a key execute one at a
// time, in submission order.
type WriteSerializer interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
