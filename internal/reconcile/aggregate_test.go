package reconcile

import (
	"testing"
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recalc(loan *domain.Loan, today time.Time, repayments ...domain.Repayment) domain.Aggregate {
	schedule := GenerateSchedule(loan)
	match := NewMatcher(DefaultMonthlyWindowDays).Match(loan, schedule, repayments)
	return Recalculate(loan, schedule, match, today)
}

func TestRecalculate_MonthlyScenario(t *testing.T) {
	loan := monthlyLoan()

	agg := recalc(loan, day(2024, 4, 15),
		repayment(1, 1200, day(2024, 2, 1), domain.RepaymentKindFull),
		repayment(2, 1200, day(2024, 3, 1), domain.RepaymentKindFull),
	)

	assert.Equal(t, domain.LoanStatusActive, agg.Status)
	assert.True(t, agg.RemainingAmount.Equal(decimal.NewFromInt(7600)), "remaining %s", agg.RemainingAmount)
	assert.True(t, agg.OverdueAmount.Equal(decimal.NewFromInt(1200)), "overdue %s", agg.OverdueAmount)
	assert.Equal(t, 1, agg.MissedPayments)
	require.NotNil(t, agg.NextPaymentDate)
	assert.Equal(t, day(2024, 4, 1), *agg.NextPaymentDate)
}

func TestRecalculate_WeeklyScenario(t *testing.T) {
	loan := weeklyLoan()

	agg := recalc(loan, day(2024, 1, 10),
		repayment(1, 550, day(2024, 1, 8), domain.RepaymentKindFull),
	)

	assert.Equal(t, domain.LoanStatusActive, agg.Status)
	assert.True(t, agg.RemainingAmount.Equal(decimal.NewFromInt(4450)))
	assert.True(t, agg.OverdueAmount.Equal(decimal.NewFromInt(550)))
	assert.Equal(t, 1, agg.MissedPayments)
	require.NotNil(t, agg.NextPaymentDate)
	assert.Equal(t, day(2024, 1, 8), *agg.NextPaymentDate, "period 1 stays overdue")
}

func TestRecalculate_InterestOnlyCountsPrincipalShare(t *testing.T) {
	tests := []struct {
		name            string
		loan            *domain.Loan
		repayment       domain.Repayment
		today           time.Time
		expectedOverdue decimal.Decimal
	}{
		{
			name:            "monthly spreads principal over duration",
			loan:            monthlyLoan(),
			repayment:       repayment(1, 200, day(2024, 2, 1), domain.RepaymentKindInterestOnly),
			today:           day(2024, 2, 15),
			expectedOverdue: decimal.NewFromInt(1000),
		},
		{
			name:            "weekly spreads principal over duration minus one",
			loan:            weeklyLoan(),
			repayment:       repayment(1, 50, day(2024, 1, 3), domain.RepaymentKindInterestOnly),
			today:           day(2024, 1, 9),
			expectedOverdue: decimal.NewFromInt(500),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := recalc(tt.loan, tt.today, tt.repayment)

			assert.True(t, agg.OverdueAmount.Equal(tt.expectedOverdue), "overdue %s", agg.OverdueAmount)
			assert.Equal(t, 1, agg.MissedPayments)
			assert.True(t, agg.RemainingAmount.Equal(tt.loan.Principal), "interest-only never reduces principal")
		})
	}
}

func TestRecalculate_CompletedClampsOverdue(t *testing.T) {
	loan := monthlyLoan()

	agg := recalc(loan, day(2024, 9, 15),
		withPeriod(repayment(1, 10000, day(2024, 4, 1), domain.RepaymentKindFull), 3),
	)

	assert.Equal(t, domain.LoanStatusCompleted, agg.Status)
	assert.True(t, agg.RemainingAmount.IsZero())
	assert.True(t, agg.OverdueAmount.IsZero())
	assert.Equal(t, 0, agg.MissedPayments)
	assert.Nil(t, agg.NextPaymentDate)
}

func TestRecalculate_OverpaymentFloorsAtZero(t *testing.T) {
	loan := monthlyLoan()

	agg := recalc(loan, day(2024, 3, 15),
		repayment(1, 6000, day(2024, 2, 1), domain.RepaymentKindFull),
		repayment(2, 6000, day(2024, 3, 1), domain.RepaymentKindFull),
	)

	assert.True(t, agg.RemainingAmount.IsZero())
	assert.Equal(t, domain.LoanStatusCompleted, agg.Status)
}

func TestRecalculate_DeletionRestoresActive(t *testing.T) {
	loan := monthlyLoan()
	first := repayment(1, 5000, day(2024, 2, 1), domain.RepaymentKindFull)
	second := repayment(2, 5000, day(2024, 3, 1), domain.RepaymentKindFull)
	today := day(2024, 3, 10)

	completed := recalc(loan, today, first, second)
	require.Equal(t, domain.LoanStatusCompleted, completed.Status)

	reopened := recalc(loan, today, first)

	assert.Equal(t, domain.LoanStatusActive, reopened.Status)
	assert.True(t, reopened.RemainingAmount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, reopened.OverdueAmount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, 1, reopened.MissedPayments)
	require.NotNil(t, reopened.NextPaymentDate)
	assert.Equal(t, day(2024, 3, 1), *reopened.NextPaymentDate)
}

func TestRecalculate_NoRepayments(t *testing.T) {
	loan := monthlyLoan()

	before := recalc(loan, day(2024, 1, 5))
	assert.True(t, before.OverdueAmount.IsZero())
	assert.Equal(t, 0, before.MissedPayments)
	require.NotNil(t, before.NextPaymentDate)
	assert.Equal(t, day(2024, 2, 1), *before.NextPaymentDate)

	late := recalc(loan, day(2024, 4, 15))
	assert.True(t, late.OverdueAmount.Equal(decimal.NewFromInt(3600)))
	assert.Equal(t, 3, late.MissedPayments)
	require.NotNil(t, late.NextPaymentDate)
	assert.Equal(t, day(2024, 2, 1), *late.NextPaymentDate)
}

func TestRecalculate_EveryPeriodPaidWithoutClearingPrincipal(t *testing.T) {
	loan := monthlyLoan()
	var repayments []domain.Repayment
	for n := 1; n <= loan.Duration; n++ {
		repayments = append(repayments, withPeriod(repayment(int64(n), 100, day(2024, 1, 1), domain.RepaymentKindFull), n))
	}

	agg := recalc(loan, day(2025, 1, 1), repayments...)

	assert.Equal(t, domain.LoanStatusActive, agg.Status)
	assert.True(t, agg.RemainingAmount.Equal(decimal.NewFromInt(9000)))
	assert.True(t, agg.OverdueAmount.IsZero())
	assert.Nil(t, agg.NextPaymentDate)
}

func TestRecalculate_UnmatchedExcluded(t *testing.T) {
	loan := monthlyLoan()

	agg := recalc(loan, day(2024, 1, 5),
		repayment(1, 1200, day(2023, 11, 1), domain.RepaymentKindFull),
	)

	assert.True(t, agg.RemainingAmount.Equal(loan.Principal))
	require.NotNil(t, agg.NextPaymentDate)
	assert.Equal(t, day(2024, 2, 1), *agg.NextPaymentDate)
}

func TestExpectedPayments(t *testing.T) {
	tests := []struct {
		name     string
		loan     *domain.Loan
		today    time.Time
		expected int
	}{
		{name: "monthly scenario", loan: monthlyLoan(), today: day(2024, 4, 15), expected: 3},
		{name: "monthly late in month", loan: monthlyLoan(), today: day(2024, 3, 31), expected: 2},
		{name: "monthly before disbursement", loan: monthlyLoan(), today: day(2023, 12, 1), expected: 0},
		{name: "monthly clamps to duration", loan: monthlyLoan(), today: day(2030, 1, 1), expected: 10},
		{name: "weekly partial week", loan: weeklyLoan(), today: day(2024, 1, 20), expected: 2},
		{name: "weekly clamps to duration", loan: weeklyLoan(), today: day(2025, 1, 1), expected: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpectedPayments(tt.loan, tt.today))
		})
	}
}

func TestApplyStatuses(t *testing.T) {
	loan := monthlyLoan()
	schedule := GenerateSchedule(loan)
	match := NewMatcher(14).Match(loan, schedule, []domain.Repayment{
		repayment(1, 1200, day(2024, 2, 1), domain.RepaymentKindFull),
		repayment(2, 200, day(2024, 3, 1), domain.RepaymentKindInterestOnly),
	})

	periods := ApplyStatuses(schedule, match, day(2024, 5, 1))

	assert.Equal(t, domain.PeriodStatusPaid, periods[0].Status)
	require.NotNil(t, periods[0].Repayment)
	assert.Equal(t, int64(1), periods[0].Repayment.ID)
	assert.Equal(t, domain.PeriodStatusInterestOnly, periods[1].Status)
	assert.Equal(t, domain.PeriodStatusMissed, periods[2].Status)
	assert.Equal(t, domain.PeriodStatusPending, periods[3].Status, "due today is not missed")
	assert.Equal(t, domain.PeriodStatusPending, schedule[0].Status, "input schedule untouched")
}
