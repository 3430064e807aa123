package reconcile

import (
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyLoan() *domain.Loan {
	return &domain.Loan{
		ID:                1,
		Principal:         decimal.NewFromInt(10000),
		InterestAmount:    decimal.NewFromInt(200),
		Cadence:           domain.CadenceMonthly,
		Duration:          10,
		DisbursementDate:  day(2024, 1, 1),
		InstallmentAmount: decimal.NewFromInt(1200),
		RemainingAmount:   decimal.NewFromInt(10000),
		Status:            domain.LoanStatusActive,
	}
}

func weeklyLoan() *domain.Loan {
	return &domain.Loan{
		ID:                2,
		Principal:         decimal.NewFromInt(5000),
		InterestAmount:    decimal.NewFromInt(50),
		Cadence:           domain.CadenceWeekly,
		Duration:          11,
		DisbursementDate:  day(2024, 1, 1),
		InstallmentAmount: decimal.NewFromInt(550),
		RemainingAmount:   decimal.NewFromInt(5000),
		Status:            domain.LoanStatusActive,
	}
}

func repayment(id int64, amount int64, paid time.Time, kind domain.RepaymentKind) domain.Repayment {
	return domain.Repayment{
		ID:       id,
		LoanID:   1,
		Amount:   decimal.NewFromInt(amount),
		PaidDate: paid,
		Kind:     kind,
	}
}

func withPeriod(r domain.Repayment, n int) domain.Repayment {
	r.PeriodNumber = &n
	return r
}
