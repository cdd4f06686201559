package mongo

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

func TestDecimal128RoundTrip(t *testing.T) {
	for _, in := range []string{"0", "1000.50", "-12.345", "99999999999.99"} {
		d := decimal.RequireFromString(in)
		enc, err := toDecimal128(d)
		if err != nil {
			t.Fatalf("encode %s: %v", in, err)
		}
		out, err := fromDecimal128(enc)
		if err != nil {
			t.Fatalf("decode %s: %v", in, err)
		}
		if !out.Equal(d) {
			t.Fatalf("round trip of %s gave %s", in, out)
		}
	}
}

func TestScopeFilter(t *testing.T) {
	if got := scopeFilter(domain.Scope{OwnerID: 3}, 0); len(got) != 1 || got["owner_user_id"] != int64(3) {
		t.Fatalf("unexpected owner filter %v", got)
	}
	if got := scopeFilter(domain.Scope{All: true}, 0); len(got) != 0 {
		t.Fatalf("unrestricted scope must not filter, got %v", got)
	}
	if got := scopeFilter(domain.Scope{All: true}, 8); got["_id"] != int64(8) {
		t.Fatalf("expected id filter, got %v", got)
	}
}

func TestRangeFilter(t *testing.T) {
	got := rangeFilter(domain.DateRange{From: "2024-01-01", To: "2024-12-31"})
	want := bson.M{"$gte": "2024-01-01", "$lte": "2024-12-31"}
	if got["$gte"] != want["$gte"] || got["$lte"] != want["$lte"] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestStoreIntegration needs a replica set, e.g.
// TEST_MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0
func TestStoreIntegration(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping mongo integration test")
	}

	ctx := context.Background()
	client, db, err := Connect(ctx, Config{URI: uri, Database: "ledger_test_" + strconv.FormatInt(time.Now().UnixNano(), 36)})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := New(client, db)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	user, err := store.Create(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleUser, DisplayName: "A"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.Create(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleUser}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	app, err := store.CreateApplication(ctx, &domain.Application{
		OwnerUserID:  user.ID,
		Name:         "CDB",
		StartDate:    "2024-01-01",
		InitialValue: decimal.RequireFromString("100.25"),
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	for i, net := range []int64{100, 150} {
		if _, err := store.CreateEarning(ctx, &domain.Earning{
			ApplicationID: app.ID,
			Date:          domain.Date("2024-0" + strconv.Itoa(i+1) + "-01"),
			Gross:         decimal.NewFromInt(net),
			Net:           decimal.NewFromInt(net),
		}); err != nil {
			t.Fatalf("create earning: %v", err)
		}
	}

	apps, earnings, err := store.ScopedLedger(ctx, ports.LedgerFilter{
		Scope: domain.Scope{OwnerID: user.ID},
		Range: domain.DateRange{From: domain.MinDate, To: domain.MaxDate},
	})
	if err != nil || len(apps) != 1 || len(earnings) != 2 {
		t.Fatalf("scoped ledger: %d apps, %d earnings, err %v", len(apps), len(earnings), err)
	}

	if err := store.DeleteApplication(ctx, app.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.CreateEarning(ctx, &domain.Earning{ApplicationID: app.ID, Date: "2024-03-01"}); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
	left, _ := store.ListEarnings(ctx, ports.EarningFilter{ApplicationID: app.ID, Range: domain.DateRange{From: domain.MinDate, To: domain.MaxDate}})
	if len(left) != 0 {
		t.Fatalf("expected cascade, %d earnings left", len(left))
	}
}
