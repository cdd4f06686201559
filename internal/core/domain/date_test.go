package domain

import (
	"errors"
	"testing"
)

func TestParseDate_Normalises(t *testing.T) {
	cases := map[string]Date{
		"2024-01-05":   "2024-01-05",
		"2024-1-5":     "2024-01-05",
		" 2024-12-31 ": "2024-12-31",
		"0000-01-01":   MinDate,
		"9999-12-31":   MaxDate,
	}
	for in, want := range cases {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2024-13-01", "2024-02-30", "05/01/2024"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q): expected error", in)
		}
	}
}

func TestParseOptionalDate_Empty(t *testing.T) {
	d, err := ParseOptionalDate("  ")
	if err != nil || !d.IsZero() {
		t.Fatalf("expected empty date, got %q (%v)", d, err)
	}
}

func TestNewDateRange_Defaults(t *testing.T) {
	r, err := NewDateRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.From != MinDate || r.To != MaxDate {
		t.Fatalf("unexpected default range: %+v", r)
	}
}

func TestNewDateRange_Inverted(t *testing.T) {
	_, err := NewDateRange("2024-02-01", "2024-01-01")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDate_Within(t *testing.T) {
	d := Date("2024-01-05")
	if !d.Within("2024-01-05", "2024-01-05") {
		t.Error("range bounds must be inclusive")
	}
	if d.Within("2024-01-06", "2024-01-10") {
		t.Error("date before range reported inside")
	}
}

func TestScope_Includes(t *testing.T) {
	if !(Scope{All: true}).Includes(42) {
		t.Error("unrestricted scope must include any owner")
	}
	if (Scope{OwnerID: 1}).Includes(2) {
		t.Error("owner scope must exclude other owners")
	}
}
