package reconcile

import (
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/pkg/utils"
)

// DueDate returns the due date of period n for a loan disbursed on disbursed.
func DueDate(disbursed time.Time, cadence domain.Cadence, n int) time.Time {
	if cadence == domain.CadenceWeekly {
		return utils.CalculateDueDate(disbursed, n)
	}
	return utils.AddMonths(disbursed, n)
}

// GenerateSchedule derives the loan's periods 1..Duration, all pending and unmatched.
func GenerateSchedule(loan *domain.Loan) []domain.Period {
	if loan.Duration < 1 {
		return nil
	}

	schedule := make([]domain.Period, 0, loan.Duration)
	for n := 1; n <= loan.Duration; n++ {
		schedule = append(schedule, domain.Period{
			LoanID:  loan.ID,
			Number:  n,
			DueDate: DueDate(loan.DisbursementDate, loan.Cadence, n),
			Amount:  loan.InstallmentAmount,
			Status:  domain.PeriodStatusPending,
		})
	}
	return schedule
}
