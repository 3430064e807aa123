package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/segyhp/loan-reconciler/internal/domain"
	customError "github.com/segyhp/loan-reconciler/pkg/errors"
	"github.com/segyhp/loan-reconciler/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// LoanService is what the HTTP layer needs from the reconciliation service
type LoanService interface {
	CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error)
	GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error)
	ListLoans(ctx context.Context, status string) ([]*domain.Loan, error)
	GetSummary(ctx context.Context, loanID int64) (*domain.LoanSummary, error)
	GetSchedule(ctx context.Context, loanID int64, query domain.ScheduleQuery) (*domain.SchedulePage, error)
	ListRepayments(ctx context.Context, loanID int64) ([]*domain.RepaymentView, error)
	RepaymentLog(ctx context.Context, loanID int64) ([]*domain.RepaymentLogEntry, error)
	RecordRepayment(ctx context.Context, loanID int64, request *domain.RepaymentRequest) (*domain.RepaymentResult, error)
	UpdateRepayment(ctx context.Context, loanID, repaymentID int64, request *domain.RepaymentRequest) (*domain.RepaymentResult, error)
	DeleteRepayment(ctx context.Context, loanID, repaymentID int64) (*domain.RepaymentResult, error)
	Reconcile(ctx context.Context, loanID int64) (*domain.Loan, error)
}

type LoanHandler struct {
	service   LoanService
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewLoanHandler(service LoanService, logger *logrus.Logger) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger,
	}
}

// CreateLoan handles POST /loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, loan)
}

// ListLoans handles GET /loans?status
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loans)
}

// GetLoan handles GET /loans/{loanId}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loan)
}

// GetSummary handles GET /loans/{loanId}/summary
func (h *LoanHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), loanID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, summary)
}

// GetSchedule handles GET /loans/{loanId}/schedule?page&pageSize&status&includeAll
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	query, err := scheduleQuery(r)
	if err != nil {
		response.Fail(w, http.StatusBadRequest, customError.ErrCodeInvalidInput, "Invalid query parameters", err)
		return
	}

	page, err := h.service.GetSchedule(r.Context(), loanID, query)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, page)
}

// ListRepayments handles GET /loans/{loanId}/repayments
func (h *LoanHandler) ListRepayments(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	views, err := h.service.ListRepayments(r.Context(), loanID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, views)
}

// RepaymentLog handles GET /loans/{loanId}/repayments/log
func (h *LoanHandler) RepaymentLog(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	entries, err := h.service.RepaymentLog(r.Context(), loanID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, entries)
}

// RecordRepayment handles POST /loans/{loanId}/repayments
func (h *LoanHandler) RecordRepayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	var req domain.RepaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.RecordRepayment(r.Context(), loanID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, result)
}

// UpdateRepayment handles PUT /loans/{loanId}/repayments/{repaymentId}
func (h *LoanHandler) UpdateRepayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}
	repaymentID, ok := pathID(w, r, "repaymentId")
	if !ok {
		return
	}

	var req domain.RepaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.UpdateRepayment(r.Context(), loanID, repaymentID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

// DeleteRepayment handles DELETE /loans/{loanId}/repayments/{repaymentId}
func (h *LoanHandler) DeleteRepayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}
	repaymentID, ok := pathID(w, r, "repaymentId")
	if !ok {
		return
	}

	result, err := h.service.DeleteRepayment(r.Context(), loanID, repaymentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

// Reconcile handles POST /loans/{loanId}/reconcile
func (h *LoanHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.service.Reconcile(r.Context(), loanID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loan)
}

// decode reads and validates a JSON body, answering 400 itself on failure
func (h *LoanHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Fail(w, http.StatusBadRequest, customError.ErrCodeInvalidInput, "Invalid request body", err)
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		response.Fail(w, http.StatusBadRequest, customError.ErrCodeInvalidInput, "Validation failed", err)
		return false
	}

	return true
}

// fail maps service errors to HTTP statuses
func (h *LoanHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := ""
	message := err.Error()
	var be *customError.BusinessError
	if errors.As(err, &be) {
		code, message = be.Code, be.Message
	}

	switch {
	case customError.IsNotFound(err):
		response.Fail(w, http.StatusNotFound, code, message, nil)
	case customError.IsInvalidInput(err):
		response.Fail(w, http.StatusBadRequest, code, message, nil)
	default:
		h.logger.WithFields(logrus.Fields{
			"request_id": response.RequestID(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
		response.Fail(w, http.StatusInternalServerError, code, "Internal server error", nil)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Fail(w, http.StatusBadRequest, customError.ErrCodeInvalidInput, "Invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func scheduleQuery(r *http.Request) (domain.ScheduleQuery, error) {
	values := r.URL.Query()
	q := domain.ScheduleQuery{Status: domain.PeriodStatus(values.Get("status"))}

	var err error
	if raw := values.Get("page"); raw != "" {
		if q.Page, err = strconv.Atoi(raw); err != nil {
			return q, err
		}
	}
	if raw := values.Get("pageSize"); raw != "" {
		if q.PageSize, err = strconv.Atoi(raw); err != nil {
			return q, err
		}
	}
	if raw := values.Get("includeAll"); raw != "" {
		if q.IncludeAll, err = strconv.ParseBool(raw); err != nil {
			return q, err
		}
	}
	return q, nil
}
