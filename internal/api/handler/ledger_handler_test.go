package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/earnings-tracker/ledger-api/internal/api/middleware"
	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

// stubLedgerService records the last input it received and returns canned values.
type stubLedgerService struct {
	err error

	createAppIn  ports.CreateApplicationInput
	updateAppIn  ports.UpdateApplicationInput
	listAppsIn   ports.ListApplicationsInput
	createEarnIn ports.CreateEarningInput
	updateEarnIn ports.UpdateEarningInput
	listEarnIn   ports.ListEarningsInput
	lastID       int64
}

var testApp = &domain.Application{
	ID: 5, OwnerUserID: 2, Name: "CDB", StartDate: "2024-01-01",
	InitialValue: decimal.RequireFromString("1000.50"),
}

var testEarning = &domain.Earning{
	ID: 9, ApplicationID: 5, Date: "2024-01-05",
	Gross: decimal.RequireFromString("12.5"), Net: decimal.RequireFromString("10.25"),
}

func (s *stubLedgerService) CreateApplication(_ context.Context, _ domain.Principal, in ports.CreateApplicationInput) (*domain.Application, error) {
	s.createAppIn = in
	return testApp, s.err
}

func (s *stubLedgerService) UpdateApplication(_ context.Context, _ domain.Principal, id int64, in ports.UpdateApplicationInput) (*domain.Application, error) {
	s.lastID, s.updateAppIn = id, in
	return testApp, s.err
}

func (s *stubLedgerService) DeleteApplication(_ context.Context, _ domain.Principal, id int64) error {
	s.lastID = id
	return s.err
}

func (s *stubLedgerService) ListApplications(_ context.Context, _ domain.Principal, in ports.ListApplicationsInput) ([]*domain.Application, error) {
	s.listAppsIn = in
	return []*domain.Application{testApp}, s.err
}

func (s *stubLedgerService) CreateEarning(_ context.Context, _ domain.Principal, in ports.CreateEarningInput) (*domain.Earning, error) {
	s.createEarnIn = in
	return testEarning, s.err
}

func (s *stubLedgerService) UpdateEarning(_ context.Context, _ domain.Principal, id int64, in ports.UpdateEarningInput) (*domain.Earning, error) {
	s.lastID, s.updateEarnIn = id, in
	return testEarning, s.err
}

func (s *stubLedgerService) DeleteEarning(_ context.Context, _ domain.Principal, id int64) error {
	s.lastID = id
	return s.err
}

func (s *stubLedgerService) ListEarnings(_ context.Context, _ domain.Principal, in ports.ListEarningsInput) ([]*domain.Earning, error) {
	s.listEarnIn = in
	return []*domain.Earning{testEarning}, s.err
}

func authedContext(e *echo.Echo, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetPrincipal(c, domain.Principal{UserID: 2, Role: domain.RoleUser})
	return c, rec
}

func TestApplicationHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubLedgerService{}
	handler := NewApplicationHandler(stub)

	c, rec := authedContext(e, jsonRequest(http.MethodPost, "/applications",
		`{"name":"CDB","startDate":"2024-1-1","initialValue":"1000.50"}`))

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.createAppIn.InitialValue == nil || !stub.createAppIn.InitialValue.Equal(decimal.RequireFromString("1000.5")) {
		t.Fatalf("numeric string not decoded: %+v", stub.createAppIn)
	}
	if stub.createAppIn.DueDate != "" {
		t.Fatalf("expected empty dueDate, got %q", stub.createAppIn.DueDate)
	}

	var data applicationResponse
	decodeData(t, rec, &data)
	if data.ID != 5 || data.UserID != 2 || data.InitialValue != 1000.5 || data.StartDate != "2024-01-01" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestApplicationHandler_Create_Validation(t *testing.T) {
	e := newEcho()
	handler := NewApplicationHandler(&stubLedgerService{})

	cases := map[string]string{
		"missing name":      `{"startDate":"2024-01-01","initialValue":1}`,
		"missing value":     `{"name":"CDB","startDate":"2024-01-01"}`,
		"non-numeric value": `{"name":"CDB","startDate":"2024-01-01","initialValue":"abc"}`,
	}
	for name, body := range cases {
		c, _ := authedContext(e, jsonRequest(http.MethodPost, "/applications", body))
		if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestApplicationHandler_List_Query(t *testing.T) {
	e := newEcho()
	stub := &stubLedgerService{}
	handler := NewApplicationHandler(stub)

	c, rec := authedContext(e, httptest.NewRequest(http.MethodGet, "/applications?userId=4&all=true", nil))
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.listAppsIn.UserID != 4 || !stub.listAppsIn.All {
		t.Fatalf("query not forwarded: %+v", stub.listAppsIn)
	}

	var data []applicationResponse
	decodeData(t, rec, &data)
	if len(data) != 1 || data[0].Name != "CDB" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}

	c, _ = authedContext(e, httptest.NewRequest(http.MethodGet, "/applications?userId=abc", nil))
	if err := handler.List(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad userId, got %v", err)
	}
}

func TestApplicationHandler_Update_Partial(t *testing.T) {
	e := newEcho()
	stub := &stubLedgerService{}
	handler := NewApplicationHandler(stub)

	c, _ := authedContext(e, jsonRequest(http.MethodPut, "/applications/5", `{"name":"Tesouro"}`))
	c.SetPath("/applications/:id")
	c.SetParamNames("id")
	c.SetParamValues("5")

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastID != 5 {
		t.Fatalf("expected id 5, got %d", stub.lastID)
	}
	in := stub.updateAppIn
	if in.Name == nil || *in.Name != "Tesouro" || in.StartDate != nil || in.InitialValue != nil || in.DueDate != nil {
		t.Fatalf("expected only name to be set: %+v", in)
	}
}

func TestApplicationHandler_Delete_ErrorsPropagate(t *testing.T) {
	e := newEcho()
	handler := NewApplicationHandler(&stubLedgerService{err: domain.ErrForbidden})

	c, _ := authedContext(e, httptest.NewRequest(http.MethodDelete, "/applications/5", nil))
	c.SetParamNames("id")
	c.SetParamValues("5")

	if err := handler.Delete(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestApplicationHandler_BadPathID(t *testing.T) {
	e := newEcho()
	handler := NewApplicationHandler(&stubLedgerService{})

	for _, raw := range []string{"abc", "0", "-3"} {
		c, _ := authedContext(e, httptest.NewRequest(http.MethodDelete, "/applications/"+raw, nil))
		c.SetParamNames("id")
		c.SetParamValues(raw)
		if err := handler.Delete(c); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("id %q: expected ErrValidation, got %v", raw, err)
		}
	}
}

func TestEarningHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubLedgerService{}
	handler := NewEarningHandler(stub)

	c, rec := authedContext(e, jsonRequest(http.MethodPost, "/earnings",
		`{"applicationId":5,"date":"2024-01-05","gross":12.5,"net":"10.25"}`))

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	in := stub.createEarnIn
	if in.ApplicationID != 5 || in.Date != "2024-01-05" || !in.Gross.Equal(decimal.RequireFromString("12.5")) || !in.Net.Equal(decimal.RequireFromString("10.25")) {
		t.Fatalf("unexpected input: %+v", in)
	}

	var data earningResponse
	decodeData(t, rec, &data)
	if data.ID != 9 || data.Net != 10.25 || data.Gross != 12.5 {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestEarningHandler_Create_RequiresApplicationID(t *testing.T) {
	e := newEcho()
	handler := NewEarningHandler(&stubLedgerService{})

	c, _ := authedContext(e, jsonRequest(http.MethodPost, "/earnings", `{"date":"2024-01-05","gross":1,"net":1}`))
	if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEarningHandler_List_Query(t *testing.T) {
	e := newEcho()
	stub := &stubLedgerService{}
	handler := NewEarningHandler(stub)

	c, _ := authedContext(e, httptest.NewRequest(http.MethodGet, "/earnings?applicationId=5&from=2024-01-01&to=2024-02-01", nil))
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	want := ports.ListEarningsInput{ApplicationID: 5, From: "2024-01-01", To: "2024-02-01"}
	if stub.listEarnIn != want {
		t.Fatalf("expected %+v, got %+v", want, stub.listEarnIn)
	}
}

func TestEarningHandler_UpdateAndDelete(t *testing.T) {
	e := newEcho()
	stub := &stubLedgerService{}
	handler := NewEarningHandler(stub)

	c, _ := authedContext(e, jsonRequest(http.MethodPut, "/earnings/9", `{"net":11}`))
	c.SetParamNames("id")
	c.SetParamValues("9")
	if err := handler.Update(c); err != nil {
		t.Fatalf("update error: %v", err)
	}
	if stub.lastID != 9 || stub.updateEarnIn.Net == nil || stub.updateEarnIn.Date != nil || stub.updateEarnIn.Gross != nil {
		t.Fatalf("unexpected update input: %+v", stub.updateEarnIn)
	}

	c, rec := authedContext(e, httptest.NewRequest(http.MethodDelete, "/earnings/9", nil))
	c.SetParamNames("id")
	c.SetParamValues("9")
	if err := handler.Delete(c); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	var data map[string]bool
	decodeData(t, rec, &data)
	if !data["deleted"] {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}
