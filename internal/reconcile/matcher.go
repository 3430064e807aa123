package reconcile

import (
	"sort"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/pkg/utils"
)

// DefaultMonthlyWindowDays is how far a monthly repayment may land from a due
// date and still be matched to it.
const DefaultMonthlyWindowDays = 14

// Reasons a repayment is left out of reconciliation.
const (
	ReasonPeriodOutOfRange = "explicit period outside schedule"
	ReasonBeyondSchedule   = "paid after the last weekly period"
	ReasonNoDueDateInRange = "no due date within matching window"
)

// Unmatched is a repayment the matcher could not assign to any period.
type Unmatched struct {
	Repayment domain.Repayment
	Reason    string
}

// Match is the outcome of assigning repayments to periods.
type Match struct {
	// Periods holds the active repayment for each matched period number.
	Periods map[int]domain.Repayment
	// Resolved maps every matchable repayment id to its period, active or not.
	Resolved map[int64]int
	// Reasons maps every unmatched repayment id to why it was left out.
	Reasons    map[int64]string
	Superseded []domain.Repayment
	Unmatched  []Unmatched
	// Total counts every repayment handed to the matcher.
	Total int
}

// Matcher assigns repayment events to schedule periods.
type Matcher struct {
	windowDays int
}

func NewMatcher(windowDays int) *Matcher {
	if windowDays <= 0 {
		windowDays = DefaultMonthlyWindowDays
	}
	return &Matcher{windowDays: windowDays}
}

// ResolvePeriod finds the period a single repayment belongs to. The explicit
// period wins, weekly loans are resolved arithmetically and monthly loans go to
// the closest due date inside the window.
func (m *Matcher) ResolvePeriod(loan *domain.Loan, schedule []domain.Period, r domain.Repayment) (int, string, bool) {
	if r.PeriodNumber != nil {
		n := *r.PeriodNumber
		if n < 1 || n > loan.Duration {
			return 0, ReasonPeriodOutOfRange, false
		}
		return n, "", true
	}

	if loan.Cadence == domain.CadenceWeekly {
		n := utils.GetCurrentWeek(loan.DisbursementDate, r.PaidDate)
		if n > loan.Duration {
			return 0, ReasonBeyondSchedule, false
		}
		return n, "", true
	}

	best, bestDays := 0, -1
	for _, p := range schedule {
		days := utils.AbsDaysBetween(p.DueDate, r.PaidDate)
		// Strict comparison keeps the earlier period on an exact tie.
		if bestDays < 0 || days < bestDays {
			best, bestDays = p.Number, days
		}
	}
	if best == 0 || bestDays > m.windowDays {
		return 0, ReasonNoDueDateInRange, false
	}
	return best, "", true
}

// Match assigns repayments to periods. When several repayments resolve to the
// same period the latest paid date wins, ties going to the higher id, so the
// result does not depend on input order.
func (m *Matcher) Match(loan *domain.Loan, schedule []domain.Period, repayments []domain.Repayment) Match {
	sorted := make([]domain.Repayment, len(repayments))
	copy(sorted, repayments)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.PaidDate.Equal(b.PaidDate) {
			return a.PaidDate.Before(b.PaidDate)
		}
		return a.ID < b.ID
	})

	result := Match{
		Periods:  make(map[int]domain.Repayment),
		Resolved: make(map[int64]int),
		Reasons:  make(map[int64]string),
		Total:    len(repayments),
	}

	for _, r := range sorted {
		n, reason, ok := m.ResolvePeriod(loan, schedule, r)
		if !ok {
			result.Unmatched = append(result.Unmatched, Unmatched{Repayment: r, Reason: reason})
			result.Reasons[r.ID] = reason
			continue
		}
		result.Resolved[r.ID] = n
		if prev, exists := result.Periods[n]; exists {
			result.Superseded = append(result.Superseded, prev)
		}
		result.Periods[n] = r
	}

	return result
}

// Resolution describes how a repayment took part in the match.
func (mt Match) Resolution(r domain.Repayment) (period *int, resolution string, reason string) {
	if reason, ok := mt.Reasons[r.ID]; ok {
		return nil, domain.ResolutionUnmatched, reason
	}
	n, ok := mt.Resolved[r.ID]
	if !ok {
		return nil, domain.ResolutionUnmatched, ""
	}
	if active, ok := mt.Periods[n]; ok && active.ID == r.ID {
		return &n, domain.ResolutionActive, ""
	}
	return &n, domain.ResolutionSuperseded, ""
}
