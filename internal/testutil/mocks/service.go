package mocks

import (
	"context"

	"github.com/segyhp/loan-reconciler/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) GetSummary(ctx context.Context, loanID int64) (*domain.LoanSummary, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanSummary), args.Error(1)
}

func (m *MockLoanService) GetSchedule(ctx context.Context, loanID int64, query domain.ScheduleQuery) (*domain.SchedulePage, error) {
	args := m.Called(ctx, loanID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchedulePage), args.Error(1)
}

func (m *MockLoanService) ListRepayments(ctx context.Context, loanID int64) ([]*domain.RepaymentView, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RepaymentView), args.Error(1)
}

func (m *MockLoanService) RepaymentLog(ctx context.Context, loanID int64) ([]*domain.RepaymentLogEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RepaymentLogEntry), args.Error(1)
}

func (m *MockLoanService) RecordRepayment(ctx context.Context, loanID int64, request *domain.RepaymentRequest) (*domain.RepaymentResult, error) {
	args := m.Called(ctx, loanID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepaymentResult), args.Error(1)
}

func (m *MockLoanService) UpdateRepayment(ctx context.Context, loanID, repaymentID int64, request *domain.RepaymentRequest) (*domain.RepaymentResult, error) {
	args := m.Called(ctx, loanID, repaymentID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepaymentResult), args.Error(1)
}

func (m *MockLoanService) DeleteRepayment(ctx context.Context, loanID, repaymentID int64) (*domain.RepaymentResult, error) {
	args := m.Called(ctx, loanID, repaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepaymentResult), args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, status string) ([]*domain.Loan, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanService) Reconcile(ctx context.Context, loanID int64) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

// NewMockLoanService creates a new mock loan service instance
func NewMockLoanService() *MockLoanService {
	return &MockLoanService{}
}
