package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

type StatsHandler struct {
	stats ports.StatsService
}

func NewStatsHandler(stats ports.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func statsQuery(c echo.Context) (ports.StatsQuery, error) {
	var q ports.StatsQuery
	err := echo.QueryParamsBinder(c).
		String("from", &q.From).
		String("to", &q.To).
		Int64("applicationId", &q.ApplicationID).
		Int64("userId", &q.UserID).
		Bool("all", &q.All).
		BindError()
	return q, bindingError(err)
}

// GainsByApplication returns, per application, the net value of its latest
// earning inside the range (a snapshot, not a sum).
//
// @Summary      Gains by application
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Param        from           query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to             query     string  false  "End date (YYYY-MM-DD)"
// @Param        applicationId  query     int     false  "Restrict to one application"
// @Param        userId         query     int     false  "Owner to impersonate (admin only)"
// @Param        all            query     bool    false  "Every owner (admin only)"
// @Success      200            {array}   gainResponse
// @Failure      400            {object}  map[string]any
// @Failure      403            {object}  map[string]any
// @Failure      404            {object}  map[string]any
// @Router       /stats/gains-by-application [get]
func (h *StatsHandler) GainsByApplication(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	q, err := statsQuery(c)
	if err != nil {
		return err
	}

	gains, err := h.stats.GainsByApplication(c.Request().Context(), p, q)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toGainResponses(gains))
}

// TotalOverTime returns the summed net value of all in-scope earnings per date.
//
// @Summary      Total over time
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Param        from           query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to             query     string  false  "End date (YYYY-MM-DD)"
// @Param        applicationId  query     int     false  "Restrict to one application"
// @Param        userId         query     int     false  "Owner to impersonate (admin only)"
// @Param        all            query     bool    false  "Every owner (admin only)"
// @Success      200            {array}   datePointResponse
// @Failure      400            {object}  map[string]any
// @Failure      403            {object}  map[string]any
// @Failure      404            {object}  map[string]any
// @Router       /stats/total-over-time [get]
func (h *StatsHandler) TotalOverTime(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	q, err := statsQuery(c)
	if err != nil {
		return err
	}

	points, err := h.stats.TotalOverTime(c.Request().Context(), p, q)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toDatePointResponses(points))
}

func toGainResponses(gains []domain.ApplicationGain) []gainResponse {
	out := make([]gainResponse, 0, len(gains))
	for _, g := range gains {
		out = append(out, gainResponse{ApplicationID: g.ApplicationID, Name: g.Name, Value: g.Value.InexactFloat64()})
	}
	return out
}

func toDatePointResponses(points []domain.DatePoint) []datePointResponse {
	out := make([]datePointResponse, 0, len(points))
	for _, pt := range points {
		out = append(out, datePointResponse{Date: pt.Date.String(), Value: pt.Value.InexactFloat64()})
	}
	return out
}
