package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// LatestByApplication returns one entry per application holding the net value
// of its latest earning inside r. Among earnings sharing the latest date the
// highest id wins. Applications with no earning in range report zero.
// Output is ordered by name, then id.
func LatestByApplication(apps []*domain.Application, earnings []*domain.Earning, r domain.DateRange) []domain.ApplicationGain {
	latest := make(map[int64]*domain.Earning, len(apps))
	for _, app := range apps {
		latest[app.ID] = nil
	}

	for _, e := range earnings {
		best, tracked := latest[e.ApplicationID]
		if !tracked || !e.Date.Within(r.From, r.To) {
			continue
		}
		if best == nil || e.Date.After(best.Date) || (e.Date == best.Date && e.ID > best.ID) {
			latest[e.ApplicationID] = e
		}
	}

	out := make([]domain.ApplicationGain, 0, len(apps))
	for _, app := range apps {
		value := decimal.Zero
		if e := latest[app.ID]; e != nil {
			value = e.Net
		}
		out = append(out, domain.ApplicationGain{ApplicationID: app.ID, Name: app.Name, Value: value})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ApplicationID < out[j].ApplicationID
	})
	return out
}

// TotalsByDate sums the net value of the earnings of apps per date inside r,
// ascending by date. Unlike LatestByApplication, entries sharing a date add up.
func TotalsByDate(apps []*domain.Application, earnings []*domain.Earning, r domain.DateRange) []domain.DatePoint {
	inScope := make(map[int64]struct{}, len(apps))
	for _, app := range apps {
		inScope[app.ID] = struct{}{}
	}

	totals := make(map[domain.Date]decimal.Decimal)
	for _, e := range earnings {
		if _, ok := inScope[e.ApplicationID]; !ok || !e.Date.Within(r.From, r.To) {
			continue
		}
		totals[e.Date] = totals[e.Date].Add(e.Net)
	}

	out := make([]domain.DatePoint, 0, len(totals))
	for d, v := range totals {
		out = append(out, domain.DatePoint{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
