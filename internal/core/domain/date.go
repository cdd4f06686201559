package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the canonical layout of a Date.
const DateFormat = "2006-01-02"

// readDateFormat accepts single-digit months and days, e.g. "2024-1-5".
const readDateFormat = "2006-1-2"

const (
	MinDate Date = "0000-01-01"
	MaxDate Date = "9999-12-31"
)

// Date is a calendar day stored in its canonical ISO form. The zero value
// means "no date". Because the form is fixed width, string comparison is
// chronological comparison.
type Date string

// ParseDate parses s leniently and returns its canonical form.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(readDateFormat, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return Date(t.Format(DateFormat)), nil
}

// ParseOptionalDate is ParseDate but maps the empty string to the empty Date.
func ParseOptionalDate(s string) (Date, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return ParseDate(s)
}

func (d Date) String() string { return string(d) }

func (d Date) IsZero() bool { return d == "" }

func (d Date) Before(x Date) bool { return d < x }

func (d Date) After(x Date) bool { return d > x }

// Within reports whether d lies in the inclusive range [from, to].
func (d Date) Within(from, to Date) bool {
	return d >= from && d <= to
}

// DateRange is an inclusive day range.
type DateRange struct {
	From Date
	To   Date
}

// NewDateRange parses optional bounds, defaulting to MinDate and MaxDate.
func NewDateRange(from, to string) (DateRange, error) {
	r := DateRange{From: MinDate, To: MaxDate}
	if strings.TrimSpace(from) != "" {
		d, err := ParseDate(from)
		if err != nil {
			return DateRange{}, Invalid("from: %v", err)
		}
		r.From = d
	}
	if strings.TrimSpace(to) != "" {
		d, err := ParseDate(to)
		if err != nil {
			return DateRange{}, Invalid("to: %v", err)
		}
		r.To = d
	}
	if r.From.After(r.To) {
		return DateRange{}, Invalid("from must not be after to")
	}
	return r, nil
}
