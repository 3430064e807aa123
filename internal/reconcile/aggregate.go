package reconcile

import (
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/pkg/utils"
	"github.com/shopspring/decimal"
)

// ApplyStatuses returns a copy of schedule with each period's status and
// matched repayment filled in as of today.
func ApplyStatuses(schedule []domain.Period, match Match, today time.Time) []domain.Period {
	out := make([]domain.Period, len(schedule))
	for i, p := range schedule {
		p.Repayment = nil
		if r, ok := match.Periods[p.Number]; ok {
			r := r
			p.Repayment = &r
			if r.Kind == domain.RepaymentKindInterestOnly {
				p.Status = domain.PeriodStatusInterestOnly
			} else {
				p.Status = domain.PeriodStatusPaid
			}
		} else if utils.IsDateOverdue(p.DueDate, today) {
			p.Status = domain.PeriodStatusMissed
		} else {
			p.Status = domain.PeriodStatusPending
		}
		out[i] = p
	}
	return out
}

// ExpectedPayments is the number of periods that should have been paid by today.
func ExpectedPayments(loan *domain.Loan, today time.Time) int {
	var elapsed int
	if loan.Cadence == domain.CadenceWeekly {
		elapsed = utils.WeeksElapsed(loan.DisbursementDate, today)
	} else {
		elapsed = utils.MonthsElapsed(loan.DisbursementDate, today)
	}
	return utils.ClampInt(elapsed, 0, loan.Duration)
}

// PrincipalComponent is the principal share of a single installment.
func PrincipalComponent(loan *domain.Loan) decimal.Decimal {
	return loan.Principal.Div(decimal.NewFromInt(int64(loan.EffectiveDuration()))).Round(2)
}

// RemainingPrincipal subtracts every active full repayment from the principal,
// floored at zero. Interest-only repayments never reduce it.
func RemainingPrincipal(loan *domain.Loan, match Match) decimal.Decimal {
	remaining := loan.Principal
	for _, r := range match.Periods {
		if r.Kind == domain.RepaymentKindFull {
			remaining = remaining.Sub(r.Amount)
		}
	}
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Recalculate derives the loan aggregate from the match as of today.
func Recalculate(loan *domain.Loan, schedule []domain.Period, match Match, today time.Time) domain.Aggregate {
	agg := domain.Aggregate{
		RemainingAmount: RemainingPrincipal(loan, match),
		Status:          domain.LoanStatusActive,
		OverdueAmount:   decimal.Zero,
	}
	if !agg.RemainingAmount.IsPositive() {
		agg.Status = domain.LoanStatusCompleted
		return agg
	}

	principalShare := PrincipalComponent(loan)
	expected := ExpectedPayments(loan, today)
	for n := 1; n <= expected; n++ {
		r, ok := match.Periods[n]
		switch {
		case !ok:
			agg.OverdueAmount = agg.OverdueAmount.Add(installmentFor(loan, schedule, n))
			agg.MissedPayments++
		case r.Kind == domain.RepaymentKindInterestOnly:
			agg.OverdueAmount = agg.OverdueAmount.Add(principalShare)
			agg.MissedPayments++
		}
	}

	agg.NextPaymentDate = nextPaymentDate(schedule, match, today)
	return agg
}

func installmentFor(loan *domain.Loan, schedule []domain.Period, n int) decimal.Decimal {
	if n-1 < len(schedule) && schedule[n-1].Number == n {
		return schedule[n-1].Amount
	}
	return loan.InstallmentAmount
}

// nextPaymentDate picks the earliest overdue unpaid period, otherwise the
// earliest unpaid period due on or after today.
func nextPaymentDate(schedule []domain.Period, match Match, today time.Time) *time.Time {
	if len(schedule) == 0 {
		return nil
	}
	if match.Total == 0 {
		d := schedule[0].DueDate
		return &d
	}

	var overdue, upcoming *time.Time
	for _, p := range schedule {
		if r, ok := match.Periods[p.Number]; ok && r.Kind == domain.RepaymentKindFull {
			continue
		}
		d := p.DueDate
		if utils.IsDateOverdue(d, today) {
			if overdue == nil || d.Before(*overdue) {
				overdue = &d
			}
		} else if upcoming == nil || d.Before(*upcoming) {
			upcoming = &d
		}
	}
	if overdue != nil {
		return overdue
	}
	return upcoming
}
