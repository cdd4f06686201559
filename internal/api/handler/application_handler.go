package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

type ApplicationHandler struct {
	ledger ports.LedgerService
}

func NewApplicationHandler(ledger ports.LedgerService) *ApplicationHandler {
	return &ApplicationHandler{ledger: ledger}
}

// List returns the applications in the caller's scope, newest first.
//
// @Summary      List applications
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        userId  query     int   false  "Owner to impersonate (admin only)"
// @Param        all     query     bool  false  "Every owner (admin only)"
// @Success      200     {array}   applicationResponse
// @Failure      400     {object}  map[string]any
// @Failure      401     {object}  map[string]any
// @Router       /applications [get]
func (h *ApplicationHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var in ports.ListApplicationsInput
	err = echo.QueryParamsBinder(c).
		Int64("userId", &in.UserID).
		Bool("all", &in.All).
		BindError()
	if err := bindingError(err); err != nil {
		return err
	}

	apps, err := h.ledger.ListApplications(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toApplicationResponses(apps))
}

// Create records a new application for the caller.
//
// @Summary      Create application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createApplicationRequest  true  "Application"
// @Success      201   {object}  applicationResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /applications [post]
func (h *ApplicationHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req createApplicationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	app, err := h.ledger.CreateApplication(c.Request().Context(), p, ports.CreateApplicationInput{
		OwnerUserID:  req.UserID,
		Name:         req.Name,
		StartDate:    req.StartDate,
		InitialValue: req.InitialValue,
		DueDate:      req.DueDate,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, toApplicationResponse(app))
}

// Update applies a partial update; omitted fields keep their value.
//
// @Summary      Update application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                       true  "Application ID"
// @Param        body  body      updateApplicationRequest  true  "Fields to change"
// @Success      200   {object}  applicationResponse
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /applications/{id} [put]
func (h *ApplicationHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateApplicationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	app, err := h.ledger.UpdateApplication(c.Request().Context(), p, id, ports.UpdateApplicationInput{
		Name:         req.Name,
		StartDate:    req.StartDate,
		InitialValue: req.InitialValue,
		DueDate:      req.DueDate,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toApplicationResponse(app))
}

// Delete removes an application together with all of its earnings.
//
// @Summary      Delete application
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Application ID"
// @Success      200  {object}  envelope
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /applications/{id} [delete]
func (h *ApplicationHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.ledger.DeleteApplication(c.Request().Context(), p, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, flagResponse{"deleted": true})
}
