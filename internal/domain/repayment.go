package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepaymentKind tells whether a repayment reduces principal.
type RepaymentKind string

const (
	RepaymentKindFull         RepaymentKind = "full"
	RepaymentKindInterestOnly RepaymentKind = "interest_only"
)

func (k RepaymentKind) Valid() bool {
	return k == RepaymentKindFull || k == RepaymentKindInterestOnly
}

// Repayment is a single recorded payment event against a loan.
type Repayment struct {
	ID           int64           `json:"id" db:"id"`
	LoanID       int64           `json:"loan_id" db:"loan_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	PaidDate     time.Time       `json:"paid_date" db:"paid_date"`
	Kind         RepaymentKind   `json:"kind" db:"kind"`
	PeriodNumber *int            `json:"period_number,omitempty" db:"period_number"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

const (
	RepaymentActionCreated = "created"
	RepaymentActionUpdated = "updated"
	RepaymentActionDeleted = "deleted"
)

// RepaymentLogEntry is an append-only record of a repayment mutation.
type RepaymentLogEntry struct {
	ID           int64           `json:"id" db:"id"`
	LoanID       int64           `json:"loan_id" db:"loan_id"`
	RepaymentID  int64           `json:"repayment_id" db:"repayment_id"`
	Action       string          `json:"action" db:"action"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	PaidDate     time.Time       `json:"paid_date" db:"paid_date"`
	Kind         RepaymentKind   `json:"kind" db:"kind"`
	PeriodNumber *int            `json:"period_number,omitempty" db:"period_number"`
	RecordedAt   time.Time       `json:"recorded_at" db:"recorded_at"`
}

// NewRepaymentLogEntry snapshots a repayment for the audit log.
func NewRepaymentLogEntry(r *Repayment, action string, at time.Time) *RepaymentLogEntry {
	return &RepaymentLogEntry{
		LoanID:       r.LoanID,
		RepaymentID:  r.ID,
		Action:       action,
		Amount:       r.Amount,
		PaidDate:     r.PaidDate,
		Kind:         r.Kind,
		PeriodNumber: r.PeriodNumber,
		RecordedAt:   at,
	}
}

const (
	ResolutionActive     = "active"
	ResolutionSuperseded = "superseded"
	ResolutionUnmatched  = "unmatched"
)

// RepaymentView shows how a stored repayment took part in reconciliation.
type RepaymentView struct {
	*Repayment
	ResolvedPeriod *int   `json:"resolved_period"`
	Resolution     string `json:"resolution"`
	Reason         string `json:"reason,omitempty"`
}

type RepaymentRequest struct {
	Amount       decimal.Decimal `json:"amount" validate:"decimal_gt0"`
	PaidDate     string          `json:"paid_date" validate:"required,datetime=2006-01-02"`
	Kind         RepaymentKind   `json:"kind" validate:"required,kind"`
	PeriodNumber *int            `json:"period_number" validate:"omitempty,gt=0"`
}

// RepaymentResult is returned by repayment mutations: the reconciled loan and,
// except on delete, how the touched repayment resolved.
type RepaymentResult struct {
	Loan      *Loan          `json:"loan"`
	Repayment *RepaymentView `json:"repayment,omitempty"`
}
