package handler

import (
	"github.com/labstack/echo/v4"
)

// envelope is the success body of every endpoint. Failures are rendered by
// the API error handler as {"ok": false, "error": "..."}.
type envelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{OK: true, Data: data})
}
