package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/budgetly/budgetly-core/internal/service"
	"github.com/budgetly/budgetly-core/internal/testutil"
	"github.com/budgetly/budgetly-core/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Bad decimal %q: %v", s, err)
	}
	return d
}

func newBillHandler() (*BillHandler, *service.BillService) {
	billRepo := testutil.NewMockBillRepository()
	queueRepo := testutil.NewMockSyncQueueRepository()
	calcRepo := testutil.NewMockCalculationRepository()
	applier := &testutil.FakeRemoteApplier{}
	publisher := &websocket.NoOpPublisher{}
	syncService := service.NewSyncService(queueRepo, calcRepo, applier, publisher)
	billService := service.NewBillService(billRepo, queueRepo, applier, syncService, publisher)
	return NewBillHandler(billService), billService
}

func TestCreateBill_Success(t *testing.T) {
	e := echo.New()
	handler, _ := newBillHandler()

	reqBody := `{"name": "Rent", "amount": "1200.00", "dueDay": 1, "category": "housing"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Create(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var bill domain.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &bill); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if bill.Name != "Rent" {
		t.Errorf("Expected name Rent, got %q", bill.Name)
	}
	if !bill.Amount.Equal(mustDecimal(t, "1200.00")) {
		t.Errorf("Expected amount 1200.00, got %s", bill.Amount.String())
	}
	if !bill.IsRecurring {
		t.Error("Expected recurring to default to true")
	}
}

func TestCreateBill_ValidationError(t *testing.T) {
	e := echo.New()
	handler, _ := newBillHandler()

	reqBody := `{"name": "", "amount": "10.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Create(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "name" {
		t.Errorf("Expected a name field error, got %+v", problem.Errors)
	}
}

func TestListBills_ActiveAndArchived(t *testing.T) {
	e := echo.New()
	handler, billService := newBillHandler()

	rent, err := billService.CreateBill(context.Background(), service.CreateBillInput{
		Name: "Rent", Amount: mustDecimal(t, "1200.00"), DueDay: 1,
		Category: domain.BillCategoryHousing, IsRecurring: true,
	})
	if err != nil {
		t.Fatalf("Failed to create bill: %v", err)
	}
	if _, err := billService.ArchiveBill(context.Background(), rent.ID); err != nil {
		t.Fatalf("Failed to archive bill: %v", err)
	}

	// Active list is empty
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
	rec := httptest.NewRecorder()
	if err := handler.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("Expected empty active list, got %s", body)
	}

	// Archived list holds the bill
	req = httptest.NewRequest(http.MethodGet, "/api/v1/bills?archived=true", nil)
	rec = httptest.NewRecorder()
	if err := handler.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var archived []domain.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &archived); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(archived) != 1 || archived[0].ID != rent.ID {
		t.Errorf("Expected archived rent, got %+v", archived)
	}
}

func TestUpdateBill_NotFound(t *testing.T) {
	e := echo.New()
	handler, _ := newBillHandler()

	reqBody := `{"amount": "99.00"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/bills/42", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := handler.Update(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestPayBill(t *testing.T) {
	e := echo.New()
	handler, billService := newBillHandler()

	bill, err := billService.CreateBill(context.Background(), service.CreateBillInput{
		Name: "Internet", Amount: mustDecimal(t, "60.00"), DueDay: 15,
		Category: domain.BillCategorySubscription, IsRecurring: true,
	})
	if err != nil {
		t.Fatalf("Failed to create bill: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/1/pay", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := handler.Pay(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var paid domain.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &paid); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if paid.ID != bill.ID || !paid.IsPaid {
		t.Errorf("Expected bill %d paid, got %+v", bill.ID, paid)
	}
	if paid.PaymentDate == nil {
		t.Error("Expected payment date")
	}
}

func TestDeleteBill_InvalidID(t *testing.T) {
	e := echo.New()
	handler, _ := newBillHandler()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bills/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := handler.Delete(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestBillSummary(t *testing.T) {
	e := echo.New()
	handler, billService := newBillHandler()

	if _, err := billService.CreateBill(context.Background(), service.CreateBillInput{
		Name: "Rent", Amount: mustDecimal(t, "1200.00"), DueDay: 1,
		Category: domain.BillCategoryHousing, IsRecurring: true,
	}); err != nil {
		t.Fatalf("Failed to create bill: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/summary", nil)
	rec := httptest.NewRecorder()
	if err := handler.Summary(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var summary service.BillSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if summary.ActiveCount != 1 {
		t.Errorf("Expected 1 active bill, got %d", summary.ActiveCount)
	}
	if !summary.MonthlyTotal.Equal(mustDecimal(t, "1200.00")) {
		t.Errorf("Expected monthly total 1200.00, got %s", summary.MonthlyTotal.String())
	}
}
