package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// CalculateInstallment calculates the per-period installment amount
// Formula: Principal / Periods + per-period interest
func CalculateInstallment(principal decimal.Decimal, interestPerPeriod decimal.Decimal, periods int) decimal.Decimal {
	if periods < 1 {
		periods = 1
	}
	installment := principal.Div(decimal.NewFromInt(int64(periods))).Add(interestPerPeriod)

	// Round to 2 decimal places
	return installment.Round(2)
}

// DateOnly strips the clock from t, keeping its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// CalculateDueDate calculates the due date for a specific week
// Week 1 is due 7 days after start, Week 2 is due 14 days after, etc.
func CalculateDueDate(loanStartDate time.Time, weekNumber int) time.Time {
	return DateOnly(loanStartDate).AddDate(0, 0, 7*weekNumber)
}

// AddMonths moves t forward by n calendar months, clamping to the last day of
// the target month (Jan 31 + 1 month is Feb 28/29, not Mar 2/3).
func AddMonths(t time.Time, n int) time.Time {
	t = DateOnly(t)
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// AbsDaysBetween returns the unsigned number of calendar days between a and b.
func AbsDaysBetween(a, b time.Time) int {
	days := DaysBetween(a, b)
	if days < 0 {
		return -days
	}
	return days
}

// GetCurrentWeek calculates which week a date falls in relative to the loan start date.
// Dates before the start belong to week 1.
func GetCurrentWeek(loanStartDate time.Time, date time.Time) int {
	days := DaysBetween(loanStartDate, date)
	if days < 0 {
		return 1
	}
	return days/7 + 1
}

// WeeksElapsed counts whole weeks between start and today.
func WeeksElapsed(start, today time.Time) int {
	days := DaysBetween(start, today)
	if days < 0 {
		return 0
	}
	return days / 7
}

// MonthsElapsed counts whole calendar months between start and today. A month
// only counts once today's day-of-month has reached start's.
func MonthsElapsed(start, today time.Time) int {
	start, today = DateOnly(start), DateOnly(today)
	months := (today.Year()-start.Year())*12 + int(today.Month()-start.Month())
	if today.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// IsDateOverdue checks if a due date lies strictly before today
func IsDateOverdue(dueDate time.Time, today time.Time) bool {
	return DateOnly(dueDate).Before(DateOnly(today))
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
