package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

type EarningHandler struct {
	ledger ports.LedgerService
}

func NewEarningHandler(ledger ports.LedgerService) *EarningHandler {
	return &EarningHandler{ledger: ledger}
}

// List returns the earnings of one application inside an inclusive date range.
//
// @Summary      List earnings
// @Tags         earnings
// @Produce      json
// @Security     BearerAuth
// @Param        applicationId  query     int     true   "Application ID"
// @Param        from           query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to             query     string  false  "End date (YYYY-MM-DD)"
// @Success      200            {array}   earningResponse
// @Failure      400            {object}  map[string]any
// @Failure      403            {object}  map[string]any
// @Failure      404            {object}  map[string]any
// @Router       /earnings [get]
func (h *EarningHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var in ports.ListEarningsInput
	err = echo.QueryParamsBinder(c).
		Int64("applicationId", &in.ApplicationID).
		String("from", &in.From).
		String("to", &in.To).
		BindError()
	if err := bindingError(err); err != nil {
		return err
	}

	earnings, err := h.ledger.ListEarnings(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toEarningResponses(earnings))
}

// Create records a balance snapshot for an application.
//
// @Summary      Create earning
// @Tags         earnings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createEarningRequest  true  "Earning"
// @Success      201   {object}  earningResponse
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /earnings [post]
func (h *EarningHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req createEarningRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	earning, err := h.ledger.CreateEarning(c.Request().Context(), p, ports.CreateEarningInput{
		ApplicationID: req.ApplicationID,
		Date:          req.Date,
		Gross:         req.Gross,
		Net:           req.Net,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, toEarningResponse(earning))
}

// Update applies a partial update to an earning.
//
// @Summary      Update earning
// @Tags         earnings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "Earning ID"
// @Param        body  body      updateEarningRequest  true  "Fields to change"
// @Success      200   {object}  earningResponse
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /earnings/{id} [put]
func (h *EarningHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateEarningRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	earning, err := h.ledger.UpdateEarning(c.Request().Context(), p, id, ports.UpdateEarningInput{
		Date:  req.Date,
		Gross: req.Gross,
		Net:   req.Net,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toEarningResponse(earning))
}

// Delete removes one earning.
//
// @Summary      Delete earning
// @Tags         earnings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Earning ID"
// @Success      200  {object}  envelope
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /earnings/{id} [delete]
func (h *EarningHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.ledger.DeleteEarning(c.Request().Context(), p, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, flagResponse{"deleted": true})
}
