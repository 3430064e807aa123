package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "active"
	LoanStatusCompleted = "completed"
)

// Cadence is the repayment frequency of a loan.
type Cadence string

const (
	CadenceMonthly Cadence = "monthly"
	CadenceWeekly  Cadence = "weekly"
)

func (c Cadence) Valid() bool {
	return c == CadenceMonthly || c == CadenceWeekly
}

// Loan represents a loan entity. The aggregate block (remaining amount through
// next payment date) is a cache written only by reconciliation.
type Loan struct {
	ID                int64           `json:"id" db:"id"`
	BorrowerName      string          `json:"borrower_name" db:"borrower_name"`
	BorrowerEmail     string          `json:"borrower_email,omitempty" db:"borrower_email"`
	Principal         decimal.Decimal `json:"principal" db:"principal"`
	InterestAmount    decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	DocumentCharge    decimal.Decimal `json:"document_charge" db:"document_charge"`
	Cadence           Cadence         `json:"cadence" db:"cadence"`
	Duration          int             `json:"duration" db:"duration"`
	DisbursementDate  time.Time       `json:"disbursement_date" db:"disbursement_date"`
	InstallmentAmount decimal.Decimal `json:"installment_amount" db:"installment_amount"`

	RemainingAmount decimal.Decimal `json:"remaining_amount" db:"remaining_amount"`
	Status          string          `json:"status" db:"status"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount" db:"overdue_amount"`
	MissedPayments  int             `json:"missed_payments" db:"missed_payments"`
	NextPaymentDate *time.Time      `json:"next_payment_date" db:"next_payment_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EffectiveDuration is the number of periods the principal is spread over.
// Weekly loans collect principal over one period less than their duration.
func (l *Loan) EffectiveDuration() int {
	if l.Cadence == CadenceWeekly && l.Duration > 1 {
		return l.Duration - 1
	}
	if l.Duration < 1 {
		return 1
	}
	return l.Duration
}

// Aggregate is the derived state of a loan produced by reconciliation.
type Aggregate struct {
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          string          `json:"status"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
	MissedPayments  int             `json:"missed_payments"`
	NextPaymentDate *time.Time      `json:"next_payment_date"`
}

// Equal reports whether two aggregates would persist to the same row values.
func (a Aggregate) Equal(b Aggregate) bool {
	if !a.RemainingAmount.Equal(b.RemainingAmount) || a.Status != b.Status ||
		!a.OverdueAmount.Equal(b.OverdueAmount) || a.MissedPayments != b.MissedPayments {
		return false
	}
	if a.NextPaymentDate == nil || b.NextPaymentDate == nil {
		return a.NextPaymentDate == nil && b.NextPaymentDate == nil
	}
	return a.NextPaymentDate.Equal(*b.NextPaymentDate)
}

// Aggregate returns the cached aggregate currently stored on the loan.
func (l *Loan) Aggregate() Aggregate {
	return Aggregate{
		RemainingAmount: l.RemainingAmount,
		Status:          l.Status,
		OverdueAmount:   l.OverdueAmount,
		MissedPayments:  l.MissedPayments,
		NextPaymentDate: l.NextPaymentDate,
	}
}

// ApplyAggregate overwrites the loan's cached aggregate.
func (l *Loan) ApplyAggregate(a Aggregate) {
	l.RemainingAmount = a.RemainingAmount
	l.Status = a.Status
	l.OverdueAmount = a.OverdueAmount
	l.MissedPayments = a.MissedPayments
	l.NextPaymentDate = a.NextPaymentDate
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	BorrowerName      string          `json:"borrower_name" validate:"required,max=200"`
	BorrowerEmail     string          `json:"borrower_email" validate:"omitempty,email"`
	Principal         decimal.Decimal `json:"principal" validate:"decimal_gt0"`
	InterestAmount    decimal.Decimal `json:"interest_amount" validate:"decimal_gte0"`
	DocumentCharge    decimal.Decimal `json:"document_charge" validate:"decimal_gte0"`
	Cadence           Cadence         `json:"cadence" validate:"required,cadence"`
	Duration          int             `json:"duration" validate:"required,gt=0"`
	DisbursementDate  string          `json:"disbursement_date" validate:"required,datetime=2006-01-02"`
	InstallmentAmount decimal.Decimal `json:"installment_amount" validate:"decimal_gte0"`
}

type LoanSummary struct {
	LoanID              int64     `json:"loan_id"`
	Aggregate           Aggregate `json:"aggregate"`
	ExpectedPayments    int       `json:"expected_payments"`
	PaidPeriods         int       `json:"paid_periods"`
	InterestOnlyPeriods int       `json:"interest_only_periods"`
	MissedPeriods       int       `json:"missed_periods"`
	PendingPeriods      int       `json:"pending_periods"`
	UnmatchedRepayments int       `json:"unmatched_repayments"`
	AsOf                time.Time `json:"as_of"`
}
