package reconcile

import (
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/pkg/utils"
)

// Result is one full reconciliation of a loan.
type Result struct {
	Schedule         []domain.Period
	Match            Match
	Aggregate        domain.Aggregate
	ExpectedPayments int
}

// Engine chains schedule generation, matching and recalculation.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	matcher *Matcher
	view    ViewOptions
}

func NewEngine(windowDays int, view ViewOptions) *Engine {
	return &Engine{matcher: NewMatcher(windowDays), view: view}
}

// Reconcile runs the whole pipeline for a loan as of today.
func (e *Engine) Reconcile(loan *domain.Loan, repayments []domain.Repayment, today time.Time) Result {
	today = utils.DateOnly(today)
	schedule := GenerateSchedule(loan)
	match := e.matcher.Match(loan, schedule, repayments)

	return Result{
		Schedule:         ApplyStatuses(schedule, match, today),
		Match:            match,
		Aggregate:        Recalculate(loan, schedule, match, today),
		ExpectedPayments: ExpectedPayments(loan, today),
	}
}

// View pages the reconciled schedule.
func (e *Engine) View(res Result, q domain.ScheduleQuery, today time.Time) domain.SchedulePage {
	return BuildScheduleView(res.Schedule, q, today, e.view)
}

// ResolvePeriod exposes the matcher's period resolution for a single repayment.
func (e *Engine) ResolvePeriod(loan *domain.Loan, r domain.Repayment) (int, string, bool) {
	return e.matcher.ResolvePeriod(loan, GenerateSchedule(loan), r)
}

// Summary condenses a result into per-status counts.
func (r Result) Summary(loanID int64, asOf time.Time) domain.LoanSummary {
	s := domain.LoanSummary{
		LoanID:              loanID,
		Aggregate:           r.Aggregate,
		ExpectedPayments:    r.ExpectedPayments,
		UnmatchedRepayments: len(r.Match.Unmatched),
		AsOf:                utils.DateOnly(asOf),
	}
	for _, p := range r.Schedule {
		switch p.Status {
		case domain.PeriodStatusPaid:
			s.PaidPeriods++
		case domain.PeriodStatusInterestOnly:
			s.InterestOnlyPeriods++
		case domain.PeriodStatusMissed:
			s.MissedPeriods++
		default:
			s.PendingPeriods++
		}
	}
	return s
}

// Views pairs each repayment with how it resolved.
func (r Result) Views(repayments []domain.Repayment) []*domain.RepaymentView {
	views := make([]*domain.RepaymentView, 0, len(repayments))
	for i := range repayments {
		rp := repayments[i]
		period, resolution, reason := r.Match.Resolution(rp)
		views = append(views, &domain.RepaymentView{
			Repayment:      &rp,
			ResolvedPeriod: period,
			Resolution:     resolution,
			Reason:         reason,
		})
	}
	return views
}
