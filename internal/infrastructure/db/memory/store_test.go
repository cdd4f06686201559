package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

func seedUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u, err := s.Create(context.Background(), &domain.User{Email: email, Role: domain.RoleUser, DisplayName: email})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func seedApp(t *testing.T, s *Store, owner int64, name string) *domain.Application {
	t.Helper()
	a, err := s.CreateApplication(context.Background(), &domain.Application{
		OwnerUserID:  owner,
		Name:         name,
		StartDate:    "2024-01-01",
		InitialValue: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	return a
}

func seedEarning(t *testing.T, s *Store, appID int64, date domain.Date, net int64) *domain.Earning {
	t.Helper()
	e, err := s.CreateEarning(context.Background(), &domain.Earning{
		ApplicationID: appID,
		Date:          date,
		Gross:         decimal.NewFromInt(net + 10),
		Net:           decimal.NewFromInt(net),
	})
	if err != nil {
		t.Fatalf("create earning: %v", err)
	}
	return e
}

var fullRange = domain.DateRange{From: domain.MinDate, To: domain.MaxDate}

func TestStore_CreateUser_DuplicateEmail(t *testing.T) {
	s := New()
	seedUser(t, s, "a@example.com")
	if _, err := s.Create(context.Background(), &domain.User{Email: "a@example.com"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	// Emails are case-sensitive as stored.
	if _, err := s.Create(context.Background(), &domain.User{Email: "A@example.com"}); err != nil {
		t.Fatalf("expected distinct email to be accepted, got %v", err)
	}
}

func TestStore_CreateApplication_UnknownOwner(t *testing.T) {
	s := New()
	_, err := s.CreateApplication(context.Background(), &domain.Application{OwnerUserID: 99, Name: "x"})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStore_ListApplications_ScopeAndOrder(t *testing.T) {
	s := New()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")
	a1 := seedApp(t, s, alice.ID, "CDB")
	seedApp(t, s, bob.ID, "LCI")
	a3 := seedApp(t, s, alice.ID, "Tesouro")

	got, _ := s.ListApplications(context.Background(), ports.ApplicationFilter{Scope: domain.Scope{OwnerID: alice.ID}})
	if len(got) != 2 || got[0].ID != a3.ID || got[1].ID != a1.ID {
		t.Fatalf("expected alice's applications newest first, got %+v", got)
	}

	all, _ := s.ListApplications(context.Background(), ports.ApplicationFilter{Scope: domain.Scope{All: true}})
	if len(all) != 3 {
		t.Fatalf("expected 3 applications, got %d", len(all))
	}
}

func TestStore_DeleteApplication_Cascades(t *testing.T) {
	s := New()
	u := seedUser(t, s, "u@example.com")
	keep := seedApp(t, s, u.ID, "keep")
	gone := seedApp(t, s, u.ID, "gone")
	seedEarning(t, s, gone.ID, "2024-01-01", 1)
	seedEarning(t, s, gone.ID, "2024-01-02", 2)
	kept := seedEarning(t, s, keep.ID, "2024-01-01", 3)

	if err := s.DeleteApplication(context.Background(), gone.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	left, _ := s.ListEarnings(context.Background(), ports.EarningFilter{ApplicationID: gone.ID, Range: fullRange})
	if len(left) != 0 {
		t.Fatalf("expected no earnings for deleted application, got %d", len(left))
	}
	if _, err := s.GetEarning(context.Background(), kept.ID); err != nil {
		t.Fatalf("earning of another application must survive: %v", err)
	}
	if orphans := s.Orphans(); len(orphans) != 0 {
		t.Fatalf("orphan earnings: %v", orphans)
	}
	if err := s.DeleteApplication(context.Background(), gone.ID); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound on second delete, got %v", err)
	}
}

func TestStore_CreateEarning_MissingParent(t *testing.T) {
	s := New()
	_, err := s.CreateEarning(context.Background(), &domain.Earning{ApplicationID: 7, Date: "2024-01-01"})
	if !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestStore_ListEarnings_RangeAndOrder(t *testing.T) {
	s := New()
	u := seedUser(t, s, "u@example.com")
	app := seedApp(t, s, u.ID, "CDB")
	seedEarning(t, s, app.ID, "2023-12-31", 1)
	e2 := seedEarning(t, s, app.ID, "2024-01-01", 2)
	e3 := seedEarning(t, s, app.ID, "2024-01-05", 3)
	e4 := seedEarning(t, s, app.ID, "2024-01-05", 4)
	seedEarning(t, s, app.ID, "2024-01-11", 5)

	got, _ := s.ListEarnings(context.Background(), ports.EarningFilter{
		ApplicationID: app.ID,
		Range:         domain.DateRange{From: "2024-01-01", To: "2024-01-10"},
	})
	want := []int64{e4.ID, e3.ID, e2.ID}
	if len(got) != len(want) {
		t.Fatalf("expected %d earnings, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected earning %d, got %d", i, id, got[i].ID)
		}
	}
}

func TestStore_UpdateApplication_KeepsOwner(t *testing.T) {
	s := New()
	u := seedUser(t, s, "u@example.com")
	app := seedApp(t, s, u.ID, "CDB")

	changed := *app
	changed.Name = "CDB 120%"
	changed.OwnerUserID = 999
	got, err := s.UpdateApplication(context.Background(), &changed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "CDB 120%" || got.OwnerUserID != u.ID {
		t.Fatalf("unexpected application after update: %+v", got)
	}
}

func TestStore_ConcurrentInsertAndCascade_NoOrphans(t *testing.T) {
	s := New()
	u := seedUser(t, s, "u@example.com")

	for round := 0; round < 20; round++ {
		app := seedApp(t, s, u.ID, "race")
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.CreateEarning(context.Background(), &domain.Earning{ApplicationID: app.ID, Date: "2024-01-01"})
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.DeleteApplication(context.Background(), app.ID)
		}()
		wg.Wait()
	}

	if orphans := s.Orphans(); len(orphans) != 0 {
		t.Fatalf("orphan earnings after concurrent cascade: %v", orphans)
	}
	if apps, earnings := s.Counts(); apps != 0 || earnings != 0 {
		t.Fatalf("expected empty store, got %d applications and %d earnings", apps, earnings)
	}
}

func TestStore_ScopedLedger(t *testing.T) {
	s := New()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")
	a := seedApp(t, s, alice.ID, "A")
	b := seedApp(t, s, bob.ID, "B")
	seedEarning(t, s, a.ID, "2024-01-01", 100)
	seedEarning(t, s, a.ID, "2025-01-01", 100)
	seedEarning(t, s, b.ID, "2024-01-01", 50)

	apps, earnings, err := s.ScopedLedger(context.Background(), ports.LedgerFilter{
		Scope: domain.Scope{OwnerID: alice.ID},
		Range: domain.DateRange{From: "2024-01-01", To: "2024-12-31"},
	})
	if err != nil {
		t.Fatalf("scoped ledger: %v", err)
	}
	if len(apps) != 1 || apps[0].ID != a.ID {
		t.Fatalf("expected only alice's application, got %+v", apps)
	}
	if len(earnings) != 1 {
		t.Fatalf("expected one earning in range, got %d", len(earnings))
	}
}
