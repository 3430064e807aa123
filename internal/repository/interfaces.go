package repository

import (
	"context"

	"github.com/segyhp/loan-reconciler/internal/domain"
)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan and sets its ID
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, id int64) (*domain.Loan, error)

	// GetByIDForUpdate retrieves a loan and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error)

	// UpdateAggregate overwrites the reconciled aggregate columns of a loan
	UpdateAggregate(ctx context.Context, id int64, agg domain.Aggregate) error

	// ListActive lists loans whose status is active
	ListActive(ctx context.Context) ([]*domain.Loan, error)

	// ListAll lists every loan
	ListAll(ctx context.Context) ([]*domain.Loan, error)
}

// RepaymentRepository defines the interface for repayment data operations
type RepaymentRepository interface {
	// Create creates a new repayment record and sets its ID
	Create(ctx context.Context, repayment *domain.Repayment) error

	// GetByID retrieves a repayment belonging to a loan
	GetByID(ctx context.Context, loanID, id int64) (*domain.Repayment, error)

	// Update rewrites amount, paid date, kind and period of a repayment
	Update(ctx context.Context, repayment *domain.Repayment) error

	// Delete removes a repayment from a loan
	Delete(ctx context.Context, loanID, id int64) error

	// ListByLoanID retrieves all repayments for a loan ordered by paid date
	ListByLoanID(ctx context.Context, loanID int64) ([]domain.Repayment, error)
}

// RepaymentLogRepository is the append-only audit trail of repayment mutations
type RepaymentLogRepository interface {
	Append(ctx context.Context, entry *domain.RepaymentLogEntry) error
	ListByLoanID(ctx context.Context, loanID int64) ([]*domain.RepaymentLogEntry, error)
}

// Repos bundles repositories bound to the same connection or transaction
type Repos struct {
	Loans      LoanRepository
	Repayments RepaymentRepository
	Log        RepaymentLogRepository
}

// UnitOfWork runs callbacks inside a database transaction
type UnitOfWork interface {
	// WithinTx runs fn in a transaction, committing only if fn returns nil
	WithinTx(ctx context.Context, fn func(r Repos) error) error

	// WithinLoanTx locks the loan row first, then passes it in
	WithinLoanTx(ctx context.Context, loanID int64, fn func(r Repos, loan *domain.Loan) error) error
}
