package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/earnings-tracker/ledger-api/internal/api/metrics"
	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

const defaultStatsTTL = 5 * time.Minute

const (
	queryGains  = "gains_by_application"
	queryTotals = "total_over_time"
)

// StatsService implements ports.StatsService on top of the ledger store.
type StatsService struct {
	repo  ports.LedgerRepository
	cache ports.StatsCache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewStatsService(repo ports.LedgerRepository, cache ports.StatsCache, ttl time.Duration, log zerolog.Logger) *StatsService {
	if cache == nil {
		cache = NopStatsCache{}
	}
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsService{repo: repo, cache: cache, ttl: ttl, log: log}
}

func (s *StatsService) GainsByApplication(ctx context.Context, p domain.Principal, q ports.StatsQuery) ([]domain.ApplicationGain, error) {
	filter, err := s.filter(ctx, p, q)
	if err != nil {
		return nil, err
	}

	defer observeQuery(queryGains, time.Now())

	key := s.cacheKey(ctx, "gains", filter)
	var out []domain.ApplicationGain
	if s.lookup(ctx, queryGains, key, &out) {
		return out, nil
	}

	apps, earnings, err := s.repo.ScopedLedger(ctx, filter)
	if err != nil {
		return nil, err
	}
	out = LatestByApplication(apps, earnings, filter.Range)

	s.store(ctx, key, out)
	return out, nil
}

func (s *StatsService) TotalOverTime(ctx context.Context, p domain.Principal, q ports.StatsQuery) ([]domain.DatePoint, error) {
	filter, err := s.filter(ctx, p, q)
	if err != nil {
		return nil, err
	}

	defer observeQuery(queryTotals, time.Now())

	key := s.cacheKey(ctx, "totals", filter)
	var out []domain.DatePoint
	if s.lookup(ctx, queryTotals, key, &out) {
		return out, nil
	}

	apps, earnings, err := s.repo.ScopedLedger(ctx, filter)
	if err != nil {
		return nil, err
	}
	out = TotalsByDate(apps, earnings, filter.Range)

	s.store(ctx, key, out)
	return out, nil
}

// filter resolves the owner scope and validates the optional application
// filter against the caller.
func (s *StatsService) filter(ctx context.Context, p domain.Principal, q ports.StatsQuery) (ports.LedgerFilter, error) {
	if err := Authorize(p, p.UserID, ActionRead); err != nil {
		return ports.LedgerFilter{}, err
	}
	r, err := domain.NewDateRange(q.From, q.To)
	if err != nil {
		return ports.LedgerFilter{}, err
	}
	if q.ApplicationID < 0 {
		return ports.LedgerFilter{}, domain.Invalid("applicationId must be a positive integer")
	}
	scope := ResolveScope(p, q.UserID, q.All)
	if q.ApplicationID > 0 {
		app, err := s.repo.GetApplication(ctx, q.ApplicationID)
		if err != nil {
			return ports.LedgerFilter{}, err
		}
		if err := Authorize(p, app.OwnerUserID, ActionRead); err != nil {
			return ports.LedgerFilter{}, err
		}
		// A single application is always viewed in its owner's scope.
		scope = domain.Scope{OwnerID: app.OwnerUserID}
	}
	return ports.LedgerFilter{
		Scope:         scope,
		ApplicationID: q.ApplicationID,
		Range:         r,
	}, nil
}

// cacheKey returns "" when the cache version cannot be read, which disables
// caching for this query.
func (s *StatsService) cacheKey(ctx context.Context, kind string, f ports.LedgerFilter) string {
	owner := f.Scope.OwnerID
	if f.Scope.All {
		owner = 0
	}
	ver, err := s.cache.Version(ctx, owner)
	if err != nil {
		s.log.Warn().Err(err).Msg("stats cache version unavailable")
		return ""
	}
	return fmt.Sprintf("stats:%s:o%d:all=%t:v%d:app%d:%s:%s",
		kind, owner, f.Scope.All, ver, f.ApplicationID, f.Range.From, f.Range.To)
}

func (s *StatsService) lookup(ctx context.Context, query, key string, dst any) bool {
	if key == "" {
		metrics.StatsQueriesTotal.WithLabelValues(query, "error").Inc()
		return false
	}
	hit, err := s.cache.Get(ctx, key, dst)
	switch {
	case err != nil:
		metrics.StatsQueriesTotal.WithLabelValues(query, "error").Inc()
		s.log.Warn().Err(err).Str("key", key).Msg("stats cache read failed, computing")
		return false
	case hit:
		metrics.StatsQueriesTotal.WithLabelValues(query, "hit").Inc()
	default:
		metrics.StatsQueriesTotal.WithLabelValues(query, "miss").Inc()
	}
	return hit
}

func observeQuery(query string, start time.Time) {
	metrics.StatsQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

func (s *StatsService) store(ctx context.Context, key string, value any) {
	if key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
	}
}

// NopStatsCache is used when no cache is configured. It never hits.
type NopStatsCache struct{}

func (NopStatsCache) Version(context.Context, int64) (int64, error) { return 0, nil }

func (NopStatsCache) Bump(context.Context, int64) error { return nil }

func (NopStatsCache) Get(context.Context, string, any) (bool, error) { return false, nil }

func (NopStatsCache) Set(context.Context, string, any, time.Duration) error { return nil }

var _ ports.StatsService = (*StatsService)(nil)
