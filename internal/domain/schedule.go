package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodStatus is the reconciled state of one scheduled installment.
type PeriodStatus string

const (
	PeriodStatusPending      PeriodStatus = "pending"
	PeriodStatusPaid         PeriodStatus = "paid"
	PeriodStatusInterestOnly PeriodStatus = "interest_only"
	PeriodStatusMissed       PeriodStatus = "missed"
)

func (s PeriodStatus) Valid() bool {
	switch s {
	case PeriodStatusPending, PeriodStatusPaid, PeriodStatusInterestOnly, PeriodStatusMissed:
		return true
	}
	return false
}

// Period is one generated installment. Periods are never stored.
type Period struct {
	LoanID    int64           `json:"loan_id"`
	Number    int             `json:"period"`
	DueDate   time.Time       `json:"due_date"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PeriodStatus    `json:"status"`
	Repayment *Repayment      `json:"matched_event,omitempty"`
}

type ScheduleQuery struct {
	Status     PeriodStatus
	IncludeAll bool
	Page       int
	PageSize   int
}

type SchedulePage struct {
	LoanID     int64    `json:"loan_id"`
	Rows       []Period `json:"rows"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalCount int      `json:"total_count"`
	TotalPages int      `json:"total_pages"`
}
