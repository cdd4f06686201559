package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/earnings-tracker/ledger-api/internal/api/metrics"
	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

// LedgerService implements ports.LedgerService. Every read and write is
// checked against the caller with Authorize before the repository is touched.
type LedgerService struct {
	repo   ports.LedgerRepository
	writes ports.WriteSerializer
	cache  ports.StatsCache
	log    zerolog.Logger
}

func NewLedgerService(repo ports.LedgerRepository, writes ports.WriteSerializer, cache ports.StatsCache, log zerolog.Logger) *LedgerService {
	if writes == nil {
		writes = inlineSerializer{}
	}
	if cache == nil {
		cache = NopStatsCache{}
	}
	return &LedgerService{repo: repo, writes: writes, cache: cache, log: log}
}

// inlineSerializer runs writes on the caller goroutine.
type inlineSerializer struct{}

func (inlineSerializer) Do(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func applicationKey(id int64) string { return "application:" + strconv.FormatInt(id, 10) }

// --- Applications ---

func (s *LedgerService) CreateApplication(ctx context.Context, p domain.Principal, in ports.CreateApplicationInput) (*domain.Application, error) {
	if err := Authorize(p, p.UserID, ActionWrite); err != nil {
		return nil, err
	}
	ownerID := p.UserID
	if p.IsAdmin() && in.OwnerUserID > 0 {
		ownerID = in.OwnerUserID
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name is required")
	}
	if strings.TrimSpace(in.StartDate) == "" {
		return nil, domain.Invalid("startDate is required")
	}
	start, err := domain.ParseDate(in.StartDate)
	if err != nil {
		return nil, domain.Invalid("startDate: %v", err)
	}
	if in.InitialValue == nil {
		return nil, domain.Invalid("initialValue is required")
	}
	if in.InitialValue.IsNegative() {
		return nil, domain.Invalid("initialValue must not be negative")
	}
	due, err := domain.ParseOptionalDate(in.DueDate)
	if err != nil {
		return nil, domain.Invalid("dueDate: %v", err)
	}

	now := time.Now().UTC()
	app, err := s.repo.CreateApplication(ctx, &domain.Application{
		OwnerUserID:  ownerID,
		Name:         name,
		StartDate:    start,
		InitialValue: *in.InitialValue,
		DueDate:      due,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerWritesTotal.WithLabelValues("application", "create").Inc()
	s.invalidate(ctx, ownerID)
	s.log.Info().Int64("application_id", app.ID).Int64("owner_id", ownerID).Msg("application created")
	return app, nil
}

func (s *LedgerService) UpdateApplication(ctx context.Context, p domain.Principal, id int64, in ports.UpdateApplicationInput) (*domain.Application, error) {
	var updated *domain.Application
	err := s.writes.Do(ctx, applicationKey(id), func(ctx context.Context) error {
		app, err := s.ownedApplication(ctx, p, id, ActionWrite)
		if err != nil {
			return err
		}
		if err := applyApplicationUpdate(app, in); err != nil {
			return err
		}
		app.UpdatedAt = time.Now().UTC()

		updated, err = s.repo.UpdateApplication(ctx, app)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerWritesTotal.WithLabelValues("application", "update").Inc()
	s.invalidate(ctx, updated.OwnerUserID)
	s.log.Info().Int64("application_id", id).Msg("application updated")
	return updated, nil
}

func applyApplicationUpdate(app *domain.Application, in ports.UpdateApplicationInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.Invalid("name must not be empty")
		}
		app.Name = name
	}
	if in.StartDate != nil {
		start, err := domain.ParseDate(*in.StartDate)
		if err != nil {
			return domain.Invalid("startDate: %v", err)
		}
		app.StartDate = start
	}
	if in.InitialValue != nil {
		if in.InitialValue.IsNegative() {
			return domain.Invalid("initialValue must not be negative")
		}
		app.InitialValue = *in.InitialValue
	}
	if in.DueDate != nil {
		due, err := domain.ParseOptionalDate(*in.DueDate)
		if err != nil {
			return domain.Invalid("dueDate: %v", err)
		}
		app.DueDate = due
	}
	return nil
}

func (s *LedgerService) DeleteApplication(ctx context.Context, p domain.Principal, id int64) error {
	var ownerID int64
	err := s.writes.Do(ctx, applicationKey(id), func(ctx context.Context) error {
		app, err := s.ownedApplication(ctx, p, id, ActionDelete)
		if err != nil {
			return err
		}
		ownerID = app.OwnerUserID
		return s.repo.DeleteApplication(ctx, id)
	})
	if err != nil {
		return err
	}

	metrics.LedgerWritesTotal.WithLabelValues("application", "delete").Inc()
	s.invalidate(ctx, ownerID)
	s.log.Info().Int64("application_id", id).Msg("application deleted with its earnings")
	return nil
}

func (s *LedgerService) ListApplications(ctx context.Context, p domain.Principal, in ports.ListApplicationsInput) ([]*domain.Application, error) {
	if err := Authorize(p, p.UserID, ActionRead); err != nil {
		return nil, err
	}
	scope := ResolveScope(p, in.UserID, in.All)
	return s.repo.ListApplications(ctx, ports.ApplicationFilter{Scope: scope})
}

// ownedApplication loads an application and checks the caller may act on it.
func (s *LedgerService) ownedApplication(ctx context.Context, p domain.Principal, id int64, action Action) (*domain.Application, error) {
	if id <= 0 {
		return nil, domain.Invalid("application id must be a positive integer")
	}
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, app.OwnerUserID, action); err != nil {
		return nil, err
	}
	return app, nil
}

// --- Earnings ---

func (s *LedgerService) CreateEarning(ctx context.Context, p domain.Principal, in ports.CreateEarningInput) (*domain.Earning, error) {
	if in.ApplicationID <= 0 {
		return nil, domain.Invalid("applicationId is required")
	}
	if strings.TrimSpace(in.Date) == "" {
		return nil, domain.Invalid("date is required")
	}
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return nil, domain.Invalid("date: %v", err)
	}
	if in.Gross == nil {
		return nil, domain.Invalid("gross is required")
	}
	if in.Net == nil {
		return nil, domain.Invalid("net is required")
	}

	var (
		created *domain.Earning
		ownerID int64
	)
	err = s.writes.Do(ctx, applicationKey(in.ApplicationID), func(ctx context.Context) error {
		app, err := s.ownedApplication(ctx, p, in.ApplicationID, ActionWrite)
		if err != nil {
			return err
		}
		ownerID = app.OwnerUserID
		created, err = s.repo.CreateEarning(ctx, &domain.Earning{
			ApplicationID: app.ID,
			Date:          date,
			Gross:         *in.Gross,
			Net:           *in.Net,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerWritesTotal.WithLabelValues("earning", "create").Inc()
	s.warnNetAboveGross(created)
	s.invalidate(ctx, ownerID)
	s.log.Info().Int64("earning_id", created.ID).Int64("application_id", created.ApplicationID).Msg("earning created")
	return created, nil
}

func (s *LedgerService) UpdateEarning(ctx context.Context, p domain.Principal, id int64, in ports.UpdateEarningInput) (*domain.Earning, error) {
	earning, err := s.getEarning(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		updated *domain.Earning
		ownerID int64
	)
	err = s.writes.Do(ctx, applicationKey(earning.ApplicationID), func(ctx context.Context) error {
		app, err := s.ownedApplication(ctx, p, earning.ApplicationID, ActionWrite)
		if err != nil {
			return err
		}
		ownerID = app.OwnerUserID

		// Re-read under the serializer; a concurrent delete may have won.
		current, err := s.repo.GetEarning(ctx, id)
		if err != nil {
			return err
		}
		if err := applyEarningUpdate(current, in); err != nil {
			return err
		}
		updated, err = s.repo.UpdateEarning(ctx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerWritesTotal.WithLabelValues("earning", "update").Inc()
	s.warnNetAboveGross(updated)
	s.invalidate(ctx, ownerID)
	s.log.Info().Int64("earning_id", id).Msg("earning updated")
	return updated, nil
}

func applyEarningUpdate(e *domain.Earning, in ports.UpdateEarningInput) error {
	if in.Date != nil {
		date, err := domain.ParseDate(*in.Date)
		if err != nil {
			return domain.Invalid("date: %v", err)
		}
		e.Date = date
	}
	if in.Gross != nil {
		e.Gross = *in.Gross
	}
	if in.Net != nil {
		e.Net = *in.Net
	}
	return nil
}

func (s *LedgerService) DeleteEarning(ctx context.Context, p domain.Principal, id int64) error {
	earning, err := s.getEarning(ctx, id)
	if err != nil {
		return err
	}

	var ownerID int64
	err = s.writes.Do(ctx, applicationKey(earning.ApplicationID), func(ctx context.Context) error {
		app, err := s.ownedApplication(ctx, p, earning.ApplicationID, ActionDelete)
		if err != nil {
			return err
		}
		ownerID = app.OwnerUserID
		return s.repo.DeleteEarning(ctx, id)
	})
	if err != nil {
		return err
	}

	metrics.LedgerWritesTotal.WithLabelValues("earning", "delete").Inc()
	s.invalidate(ctx, ownerID)
	s.log.Info().Int64("earning_id", id).Msg("earning deleted")
	return nil
}

func (s *LedgerService) ListEarnings(ctx context.Context, p domain.Principal, in ports.ListEarningsInput) ([]*domain.Earning, error) {
	if in.ApplicationID <= 0 {
		return nil, domain.Invalid("applicationId is required")
	}
	r, err := domain.NewDateRange(in.From, in.To)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedApplication(ctx, p, in.ApplicationID, ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ListEarnings(ctx, ports.EarningFilter{ApplicationID: in.ApplicationID, Range: r})
}

func (s *LedgerService) getEarning(ctx context.Context, id int64) (*domain.Earning, error) {
	if id <= 0 {
		return nil, domain.Invalid("earning id must be a positive integer")
	}
	return s.repo.GetEarning(ctx, id)
}

// warnNetAboveGross flags the entry without rejecting it; net above gross is
// accepted input.
func (s *LedgerService) warnNetAboveGross(e *domain.Earning) {
	if e.Net.GreaterThan(e.Gross) {
		s.log.Warn().Int64("earning_id", e.ID).Str("gross", e.Gross.String()).Str("net", e.Net.String()).Msg("earning net above gross")
	}
}

// invalidate drops the cached dashboards of the owner. A cache failure never
// fails the write that already committed.
func (s *LedgerService) invalidate(ctx context.Context, ownerID int64) {
	if err := s.cache.Bump(ctx, ownerID); err != nil {
		s.log.Warn().Err(err).Int64("owner_id", ownerID).Msg("stats cache invalidation failed")
	}
}

var _ ports.LedgerService = (*LedgerService)(nil)
