package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/internal/testutil/mocks"
	customError "github.com/segyhp/loan-reconciler/pkg/errors"
	"github.com/segyhp/loan-reconciler/pkg/response"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*mocks.MockLoanService, http.Handler) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	svc := mocks.NewMockLoanService()
	router := NewRouter(NewLoanHandler(svc, logger), NewHealthHandler(okPinger{}, nil, time.Second), logger)
	return svc, router
}

func do(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoanHandler_CreateLoan(t *testing.T) {
	valid := map[string]interface{}{
		"borrower_name":     "Asha",
		"principal":         "10000",
		"interest_amount":   "200",
		"document_charge":   "150",
		"cadence":           "monthly",
		"duration":          10,
		"disbursement_date": "2024-01-01",
	}
	with := func(key string, value interface{}) map[string]interface{} {
		out := map[string]interface{}{}
		for k, v := range valid {
			out[k] = v
		}
		out[key] = value
		return out
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*mocks.MockLoanService)
		expectedStatus int
	}{
		{
			name: "created",
			body: valid,
			setupMock: func(m *mocks.MockLoanService) {
				m.On("CreateLoan", mock.Anything, mock.MatchedBy(func(r *domain.CreateLoanRequest) bool {
					return r.Principal.Equal(decimal.NewFromInt(10000)) && r.Cadence == domain.CadenceMonthly
				})).Return(&domain.Loan{ID: 1, Status: domain.LoanStatusActive}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{name: "malformed json", body: "{", expectedStatus: http.StatusBadRequest},
		{name: "zero principal", body: with("principal", "0"), expectedStatus: http.StatusBadRequest},
		{name: "negative interest", body: with("interest_amount", "-5"), expectedStatus: http.StatusBadRequest},
		{name: "unknown cadence", body: with("cadence", "daily"), expectedStatus: http.StatusBadRequest},
		{name: "bad date", body: with("disbursement_date", "2024/01/01"), expectedStatus: http.StatusBadRequest},
		{name: "zero duration", body: with("duration", 0), expectedStatus: http.StatusBadRequest},
		{
			name: "service rejects",
			body: valid,
			setupMock: func(m *mocks.MockLoanService) {
				m.On("CreateLoan", mock.Anything, mock.Anything).Return(nil, customError.WrapInvalidInput("nope"))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := setupRouter(t)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			rec := do(router, http.MethodPost, "/api/v1/loans", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestLoanHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"not found", customError.WrapLoanNotFound(9), http.StatusNotFound, customError.ErrCodeLoanNotFound},
		{"invalid period", customError.WrapInvalidPeriod(11, 10), http.StatusBadRequest, customError.ErrCodeInvalidPeriod},
		{"database", customError.WrapDatabaseError(errors.New("conn reset")), http.StatusInternalServerError, customError.ErrCodeDatabaseError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := setupRouter(t)
			svc.On("GetLoan", mock.Anything, int64(9)).Return(nil, tt.err)

			rec := do(router, http.MethodGet, "/api/v1/loans/9", nil)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.expectedCode, body.Code)
			assert.NotContains(t, body.Message, "conn reset", "internal details stay in the logs")
		})
	}
}

func TestLoanHandler_ListLoans(t *testing.T) {
	svc, router := setupRouter(t)
	loans := []*domain.Loan{{ID: 1, Status: domain.LoanStatusCompleted}}
	svc.On("ListLoans", mock.Anything, domain.LoanStatusCompleted).Return(loans, nil).Once()
	svc.On("ListLoans", mock.Anything, "defaulted").
		Return(nil, customError.WrapInvalidInput("status must be active or completed")).Once()

	rec := do(router, http.MethodGet, "/api/v1/loans?status=completed", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	rec = do(router, http.MethodGet, "/api/v1/loans?status=defaulted", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertExpectations(t)
}

func TestLoanHandler_InvalidPathID(t *testing.T) {
	_, router := setupRouter(t)

	for _, path := range []string{"/api/v1/loans/abc", "/api/v1/loans/0/summary", "/api/v1/loans/-3/schedule"} {
		rec := do(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestLoanHandler_GetSchedule(t *testing.T) {
	svc, router := setupRouter(t)

	expected := domain.ScheduleQuery{Status: domain.PeriodStatusMissed, IncludeAll: true, Page: 2, PageSize: 5}
	svc.On("GetSchedule", mock.Anything, int64(3), expected).
		Return(&domain.SchedulePage{LoanID: 3, Page: 2, PageSize: 5, Rows: []domain.Period{}}, nil)

	rec := do(router, http.MethodGet, "/api/v1/loans/3/schedule?page=2&pageSize=5&status=missed&includeAll=true", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)

	rec = do(router, http.MethodGet, "/api/v1/loans/3/schedule?page=two", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/loans/3/schedule?includeAll=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoanHandler_Repayments(t *testing.T) {
	period := 2
	result := &domain.RepaymentResult{
		Loan:      &domain.Loan{ID: 4},
		Repayment: &domain.RepaymentView{Repayment: &domain.Repayment{ID: 8, LoanID: 4}, ResolvedPeriod: &period, Resolution: domain.ResolutionActive},
	}
	body := map[string]interface{}{"amount": "1200", "paid_date": "2024-03-01", "kind": "full"}

	t.Run("record", func(t *testing.T) {
		svc, router := setupRouter(t)
		svc.On("RecordRepayment", mock.Anything, int64(4), mock.MatchedBy(func(r *domain.RepaymentRequest) bool {
			return r.Amount.Equal(decimal.NewFromInt(1200)) && r.PeriodNumber == nil
		})).Return(result, nil)

		rec := do(router, http.MethodPost, "/api/v1/loans/4/repayments", body)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"resolution":"active"`)
		svc.AssertExpectations(t)
	})

	t.Run("record rejects bad kind and period", func(t *testing.T) {
		_, router := setupRouter(t)

		rec := do(router, http.MethodPost, "/api/v1/loans/4/repayments",
			map[string]interface{}{"amount": "1200", "paid_date": "2024-03-01", "kind": "partial"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(router, http.MethodPost, "/api/v1/loans/4/repayments",
			map[string]interface{}{"amount": "1200", "paid_date": "2024-03-01", "kind": "full", "period_number": 0})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(router, http.MethodPost, "/api/v1/loans/4/repayments",
			map[string]interface{}{"amount": "-1", "paid_date": "2024-03-01", "kind": "full"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		svc, router := setupRouter(t)
		svc.On("UpdateRepayment", mock.Anything, int64(4), int64(8), mock.Anything).Return(result, nil)

		rec := do(router, http.MethodPut, "/api/v1/loans/4/repayments/8", body)
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("delete missing", func(t *testing.T) {
		svc, router := setupRouter(t)
		svc.On("DeleteRepayment", mock.Anything, int64(4), int64(8)).Return(nil, customError.WrapRepaymentNotFound(4, 8))

		rec := do(router, http.MethodDelete, "/api/v1/loans/4/repayments/8", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, customError.ErrCodeRepaymentNotFound, decodeError(t, rec).Code)
	})

	t.Run("list and log", func(t *testing.T) {
		svc, router := setupRouter(t)
		svc.On("ListRepayments", mock.Anything, int64(4)).Return([]*domain.RepaymentView{result.Repayment}, nil)
		svc.On("RepaymentLog", mock.Anything, int64(4)).Return([]*domain.RepaymentLogEntry{{ID: 1, Action: domain.RepaymentActionCreated}}, nil)

		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/loans/4/repayments", nil).Code)
		rec := do(router, http.MethodGet, "/api/v1/loans/4/repayments/log", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"action":"created"`)
		svc.AssertExpectations(t)
	})
}

func TestLoanHandler_SummaryAndReconcile(t *testing.T) {
	svc, router := setupRouter(t)
	svc.On("GetSummary", mock.Anything, int64(5)).Return(&domain.LoanSummary{LoanID: 5, PaidPeriods: 2}, nil)
	svc.On("Reconcile", mock.Anything, int64(5)).Return(&domain.Loan{ID: 5}, nil)

	rec := do(router, http.MethodGet, "/api/v1/loans/5/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"paid_periods":2`)

	rec = do(router, http.MethodPost, "/api/v1/loans/5/reconcile", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(response.RequestIDHeader))
	svc.AssertExpectations(t)
}
