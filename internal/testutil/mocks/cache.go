package mocks

import (
	"context"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/internal/notify"

	"github.com/stretchr/testify/mock"
)

type MockLoanCache struct {
	mock.Mock
}

func (m *MockLoanCache) GetSummary(ctx context.Context, loanID int64) (*domain.LoanSummary, bool, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.LoanSummary), args.Bool(1), args.Error(2)
}

func (m *MockLoanCache) SetSummary(ctx context.Context, summary *domain.LoanSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockLoanCache) Invalidate(ctx context.Context, loanID int64) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendRepaymentReminder(ctx context.Context, r notify.Reminder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
