package ports

import (
	"context"
	"time"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// StatsQuery carries the parameters shared by both dashboard queries.
// UserID and All are honoured only for admins.
type StatsQuery struct {
	UserID        int64
	All           bool
	ApplicationID int64
	From          string
	To            string
}

// StatsService computes the dashboard views.
type StatsService interface {
	// GainsByApplication returns, per application, the net value of the
	// latest earning inside the range. It is a snapshot, not a sum.
	GainsByApplication(ctx context.Context, p domain.Principal, q StatsQuery) ([]domain.ApplicationGain, error)
	// TotalOverTime sums the net value of all in-scope earnings per date.
	TotalOverTime(ctx context.Context, p domain.Principal, q StatsQuery) ([]domain.DatePoint, error)
}

// StatsCache stores computed dashboard results. Versions let writers
// invalidate every cached entry of one owner with a single increment; the
// unrestricted scope uses owner id 0.
type StatsCache interface {
	Version(ctx context.Context, ownerID int64) (int64, error)
	Bump(ctx context.Context, ownerID int64) error
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}
