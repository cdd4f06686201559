// Package memory is a thread-safe in-process ledger store. A single writer
// lock covers every mutation, which makes each write, including the cascading
// delete of an application, atomic with respect to readers.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

// Store implements ports.UserRepository and ports.LedgerRepository.
type Store struct {
	mu sync.RWMutex

	nextUserID        int64
	nextApplicationID int64
	nextEarningID     int64

	users        map[int64]domain.User
	emails       map[string]int64
	applications map[int64]domain.Application
	earnings     map[int64]domain.Earning
	// byApplication indexes earning ids per application for the cascade.
	byApplication map[int64]map[int64]struct{}
}

var (
	_ ports.UserRepository   = (*Store)(nil)
	_ ports.LedgerRepository = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:         make(map[int64]domain.User),
		emails:        make(map[string]int64),
		applications:  make(map[int64]domain.Application),
		earnings:      make(map[int64]domain.Earning),
		byApplication: make(map[int64]map[int64]struct{}),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// --- Users ---

func (s *Store) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	s.nextUserID++
	u := *user
	u.ID = s.nextUserID
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return &u, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) FindByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) UpdatePassword(_ context.Context, id int64, passwordHash string, mustChange bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.MustChangePassword = mustChange
	s.users[id] = u
	return nil
}

func (s *Store) List(context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Applications ---

func (s *Store) CreateApplication(_ context.Context, app *domain.Application) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[app.OwnerUserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	s.nextApplicationID++
	a := *app
	a.ID = s.nextApplicationID
	s.applications[a.ID] = a
	return &a, nil
}

func (s *Store) GetApplication(_ context.Context, id int64) (*domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.applications[id]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	return &a, nil
}

// UpdateApplication replaces the mutable fields. Owner and creation time are
// kept from the stored row.
func (s *Store) UpdateApplication(_ context.Context, app *domain.Application) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.applications[app.ID]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	current.Name = app.Name
	current.StartDate = app.StartDate
	current.InitialValue = app.InitialValue
	current.DueDate = app.DueDate
	current.UpdatedAt = app.UpdatedAt
	s.applications[app.ID] = current
	return &current, nil
}

func (s *Store) DeleteApplication(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[id]; !ok {
		return domain.ErrApplicationNotFound
	}
	for eid := range s.byApplication[id] {
		delete(s.earnings, eid)
	}
	delete(s.byApplication, id)
	delete(s.applications, id)
	return nil
}

func (s *Store) ListApplications(_ context.Context, f ports.ApplicationFilter) ([]*domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.applicationsInScope(f.Scope, 0), nil
}

// applicationsInScope must be called with the lock held.
func (s *Store) applicationsInScope(scope domain.Scope, onlyID int64) []*domain.Application {
	out := make([]*domain.Application, 0)
	for _, a := range s.applications {
		if !scope.Includes(a.OwnerUserID) {
			continue
		}
		if onlyID > 0 && a.ID != onlyID {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// --- Earnings ---

func (s *Store) CreateEarning(_ context.Context, e *domain.Earning) (*domain.Earning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[e.ApplicationID]; !ok {
		return nil, domain.ErrApplicationNotFound
	}
	s.nextEarningID++
	earning := *e
	earning.ID = s.nextEarningID
	s.earnings[earning.ID] = earning

	idx, ok := s.byApplication[earning.ApplicationID]
	if !ok {
		idx = make(map[int64]struct{})
		s.byApplication[earning.ApplicationID] = idx
	}
	idx[earning.ID] = struct{}{}
	return &earning, nil
}

func (s *Store) GetEarning(_ context.Context, id int64) (*domain.Earning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.earnings[id]
	if !ok {
		return nil, domain.ErrEarningNotFound
	}
	return &e, nil
}

func (s *Store) UpdateEarning(_ context.Context, e *domain.Earning) (*domain.Earning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.earnings[e.ID]
	if !ok {
		return nil, domain.ErrEarningNotFound
	}
	current.Date = e.Date
	current.Gross = e.Gross
	current.Net = e.Net
	s.earnings[e.ID] = current
	return &current, nil
}

func (s *Store) DeleteEarning(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.earnings[id]
	if !ok {
		return domain.ErrEarningNotFound
	}
	delete(s.earnings, id)
	delete(s.byApplication[e.ApplicationID], id)
	return nil
}

func (s *Store) ListEarnings(_ context.Context, f ports.EarningFilter) ([]*domain.Earning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.earningsOf(f.ApplicationID, f.Range)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// earningsOf must be called with the lock held.
func (s *Store) earningsOf(applicationID int64, r domain.DateRange) []*domain.Earning {
	out := make([]*domain.Earning, 0, len(s.byApplication[applicationID]))
	for eid := range s.byApplication[applicationID] {
		e := s.earnings[eid]
		if e.Date.Within(r.From, r.To) {
			out = append(out, &e)
		}
	}
	return out
}

func (s *Store) ScopedLedger(_ context.Context, f ports.LedgerFilter) ([]*domain.Application, []*domain.Earning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps := s.applicationsInScope(f.Scope, f.ApplicationID)
	var earnings []*domain.Earning
	for _, a := range apps {
		earnings = append(earnings, s.earningsOf(a.ID, f.Range)...)
	}
	return apps, earnings, nil
}

// Counts returns the number of stored applications and earnings. Tests use
// it to assert the absence of orphans.
func (s *Store) Counts() (applications, earnings int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.applications), len(s.earnings)
}

// Orphans returns the ids of earnings whose application no longer exists.
func (s *Store) Orphans() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []int64
	for id, e := range s.earnings {
		if _, ok := s.applications[e.ApplicationID]; !ok {
			out = append(out, id)
		}
	}
	return out
}
