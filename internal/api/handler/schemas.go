package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// Amounts are accepted as JSON numbers or numeric strings and rendered as
// JSON numbers.

// --- Requests ---

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type createApplicationRequest struct {
	// UserID creates the application on behalf of another user (admin only).
	UserID       int64            `json:"userId"`
	Name         string           `json:"name" validate:"required"`
	StartDate    string           `json:"startDate" validate:"required"`
	InitialValue *decimal.Decimal `json:"initialValue" validate:"required" swaggertype:"number"`
	DueDate      string           `json:"dueDate"`
}

type updateApplicationRequest struct {
	Name         *string          `json:"name"`
	StartDate    *string          `json:"startDate"`
	InitialValue *decimal.Decimal `json:"initialValue" swaggertype:"number"`
	DueDate      *string          `json:"dueDate"`
}

type createEarningRequest struct {
	ApplicationID int64            `json:"applicationId" validate:"required"`
	Date          string           `json:"date" validate:"required"`
	Gross         *decimal.Decimal `json:"gross" validate:"required" swaggertype:"number"`
	Net           *decimal.Decimal `json:"net" validate:"required" swaggertype:"number"`
}

type updateEarningRequest struct {
	Date  *string          `json:"date"`
	Gross *decimal.Decimal `json:"gross" swaggertype:"number"`
	Net   *decimal.Decimal `json:"net" swaggertype:"number"`
}

// --- Responses ---

type userResponse struct {
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	Name               string `json:"name"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Role:               u.Role,
		Name:               u.DisplayName,
		MustChangePassword: u.MustChangePassword,
	}
}

type userSummary struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type userEnvelope struct {
	User userResponse `json:"user"`
}

type loginResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type applicationResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Name         string    `json:"name"`
	StartDate    string    `json:"startDate"`
	InitialValue float64   `json:"initialValue"`
	DueDate      string    `json:"dueDate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toApplicationResponse(a *domain.Application) applicationResponse {
	return applicationResponse{
		ID:           a.ID,
		UserID:       a.OwnerUserID,
		Name:         a.Name,
		StartDate:    a.StartDate.String(),
		InitialValue: a.InitialValue.InexactFloat64(),
		DueDate:      a.DueDate.String(),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toApplicationResponses(apps []*domain.Application) []applicationResponse {
	out := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationResponse(a))
	}
	return out
}

type earningResponse struct {
	ID            int64   `json:"id"`
	ApplicationID int64   `json:"applicationId"`
	Date          string  `json:"date"`
	Gross         float64 `json:"gross"`
	Net           float64 `json:"net"`
}

func toEarningResponse(e *domain.Earning) earningResponse {
	return earningResponse{
		ID:            e.ID,
		ApplicationID: e.ApplicationID,
		Date:          e.Date.String(),
		Gross:         e.Gross.InexactFloat64(),
		Net:           e.Net.InexactFloat64(),
	}
}

func toEarningResponses(es []*domain.Earning) []earningResponse {
	out := make([]earningResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toEarningResponse(e))
	}
	return out
}

type gainResponse struct {
	ApplicationID int64   `json:"applicationId"`
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
}

type datePointResponse struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type flagResponse map[string]bool
