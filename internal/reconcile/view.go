package reconcile

import (
	"sort"
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/pkg/utils"
)

// ViewOptions bounds the schedule view.
type ViewOptions struct {
	LookaheadDays   int
	DefaultPageSize int
	MaxPageSize     int
}

func DefaultViewOptions() ViewOptions {
	return ViewOptions{LookaheadDays: 7, DefaultPageSize: 10, MaxPageSize: 100}
}

// BuildScheduleView filters the reconciled periods down to the visible window,
// applies the status filter and returns the requested page, newest period first.
//
// Without IncludeAll a period is visible when it is past due, already settled
// or missed, or due within the lookahead window. The next pending period is
// always visible even when it falls outside the window.
func BuildScheduleView(periods []domain.Period, q domain.ScheduleQuery, today time.Time, opts ViewOptions) domain.SchedulePage {
	today = utils.DateOnly(today)
	horizon := today.AddDate(0, 0, opts.LookaheadDays)

	nextPending := 0
	for _, p := range periods {
		if p.Status == domain.PeriodStatusPending && !p.DueDate.Before(today) {
			if nextPending == 0 || p.Number < nextPending {
				nextPending = p.Number
			}
		}
	}

	visible := make([]domain.Period, 0, len(periods))
	for _, p := range periods {
		if !q.IncludeAll && !inWindow(p, today, horizon, nextPending) {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		visible = append(visible, p)
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Number > visible[j].Number })

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = opts.DefaultPageSize
	}
	if opts.MaxPageSize > 0 && pageSize > opts.MaxPageSize {
		pageSize = opts.MaxPageSize
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	total := len(visible)
	totalPages := (total + pageSize - 1) / pageSize

	rows := []domain.Period{}
	if start := (page - 1) * pageSize; start < total {
		end := start + pageSize
		if end > total {
			end = total
		}
		rows = visible[start:end]
	}

	var loanID int64
	if len(periods) > 0 {
		loanID = periods[0].LoanID
	}

	return domain.SchedulePage{
		LoanID:     loanID,
		Rows:       rows,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
}

func inWindow(p domain.Period, today, horizon time.Time, nextPending int) bool {
	switch {
	case p.Status != domain.PeriodStatusPending:
		return true
	case p.DueDate.Before(today):
		return true
	case !p.DueDate.After(horizon):
		return true
	}
	return p.Number == nextPending
}
