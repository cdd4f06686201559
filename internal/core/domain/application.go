package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Application is a tracked investment position owned by a single user.
type Application struct {
	ID           int64
	OwnerUserID  int64
	Name         string
	StartDate    Date
	InitialValue decimal.Decimal
	// DueDate is empty when the position has no maturity.
	DueDate   Date
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Earning is a dated balance snapshot of an Application.
type Earning struct {
	ID            int64
	ApplicationID int64
	Date          Date
	Gross         decimal.Decimal
	Net           decimal.Decimal
}

// ApplicationGain is the latest net value observed for one application in a
// date range. Value is zero when no earning falls inside the range.
type ApplicationGain struct {
	ApplicationID int64
	Name          string
	Value         decimal.Decimal
}

// DatePoint is the total net value of all in-scope earnings on one date.
type DatePoint struct {
	Date  Date
	Value decimal.Decimal
}
