package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	customError "github.com/segyhp/loan-reconciler/pkg/errors"

	"github.com/jmoiron/sqlx"
)

const loanColumns = `id, borrower_name, borrower_email, principal, interest_amount, document_charge, cadence,
	duration, disbursement_date, installment_amount, remaining_amount, status, overdue_amount,
	missed_payments, next_payment_date, created_at, updated_at`

type loanRepository struct {
	db sqlx.ExtContext
}

func NewLoanRepository(db sqlx.ExtContext) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (borrower_name, borrower_email, principal, interest_amount, document_charge, cadence,
			duration, disbursement_date, installment_amount, remaining_amount, status, overdue_amount,
			missed_payments, next_payment_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	now := time.Now().UTC()
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = now
	}
	loan.UpdatedAt = now

	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		loan.BorrowerName,
		loan.BorrowerEmail,
		loan.Principal,
		loan.InterestAmount,
		loan.DocumentCharge,
		loan.Cadence,
		loan.Duration,
		loan.DisbursementDate,
		loan.InstallmentAmount,
		loan.RemainingAmount,
		loan.Status,
		loan.OverdueAmount,
		loan.MissedPayments,
		loan.NextPaymentDate,
		loan.CreatedAt,
		loan.UpdatedAt,
	).Scan(&loan.ID)
}

func (r *loanRepository) GetByID(ctx context.Context, id int64) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`
	// SQLite locks the whole database on write and has no row locks
	if r.db.DriverName() == "postgres" {
		query += ` FOR UPDATE`
	}
	return r.get(ctx, query, id)
}

func (r *loanRepository) get(ctx context.Context, query string, id int64) (*domain.Loan, error) {
	var loan domain.Loan
	err := sqlx.GetContext(ctx, r.db, &loan, r.db.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) UpdateAggregate(ctx context.Context, id int64, agg domain.Aggregate) error {
	query := `
		UPDATE loans
		SET remaining_amount = ?, status = ?, overdue_amount = ?, missed_payments = ?, next_payment_date = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		agg.RemainingAmount,
		agg.Status,
		agg.OverdueAmount,
		agg.MissedPayments,
		agg.NextPaymentDate,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return customError.WrapLoanNotFound(id)
	}
	return nil
}

func (r *loanRepository) ListActive(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = ? ORDER BY id`

	loans := []*domain.Loan{}
	err := sqlx.SelectContext(ctx, r.db, &loans, r.db.Rebind(query), domain.LoanStatusActive)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListAll(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY id`

	loans := []*domain.Loan{}
	if err := sqlx.SelectContext(ctx, r.db, &loans, query); err != nil {
		return nil, err
	}

	return loans, nil
}
