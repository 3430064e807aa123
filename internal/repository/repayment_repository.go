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

const repaymentColumns = `id, loan_id, amount, paid_date, kind, period_number, created_at, updated_at`

type repaymentRepository struct {
	db sqlx.ExtContext
}

func NewRepaymentRepository(db sqlx.ExtContext) RepaymentRepository {
	return &repaymentRepository{db: db}
}

func (r *repaymentRepository) Create(ctx context.Context, repayment *domain.Repayment) error {
	query := `
		INSERT INTO repayments (loan_id, amount, paid_date, kind, period_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	now := time.Now().UTC()
	repayment.CreatedAt = now
	repayment.UpdatedAt = now

	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		repayment.LoanID,
		repayment.Amount,
		repayment.PaidDate,
		repayment.Kind,
		repayment.PeriodNumber,
		repayment.CreatedAt,
		repayment.UpdatedAt,
	).Scan(&repayment.ID)
}

func (r *repaymentRepository) GetByID(ctx context.Context, loanID, id int64) (*domain.Repayment, error) {
	query := `SELECT ` + repaymentColumns + ` FROM repayments WHERE loan_id = ? AND id = ?`

	var repayment domain.Repayment
	err := sqlx.GetContext(ctx, r.db, &repayment, r.db.Rebind(query), loanID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapRepaymentNotFound(loanID, id)
	}
	if err != nil {
		return nil, err
	}

	return &repayment, nil
}

func (r *repaymentRepository) Update(ctx context.Context, repayment *domain.Repayment) error {
	query := `
		UPDATE repayments
		SET amount = ?, paid_date = ?, kind = ?, period_number = ?, updated_at = ?
		WHERE loan_id = ? AND id = ?
	`

	repayment.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		repayment.Amount,
		repayment.PaidDate,
		repayment.Kind,
		repayment.PeriodNumber,
		repayment.UpdatedAt,
		repayment.LoanID,
		repayment.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(res, repayment.LoanID, repayment.ID)
}

func (r *repaymentRepository) Delete(ctx context.Context, loanID, id int64) error {
	query := `DELETE FROM repayments WHERE loan_id = ? AND id = ?`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), loanID, id)
	if err != nil {
		return err
	}

	return requireRow(res, loanID, id)
}

func (r *repaymentRepository) ListByLoanID(ctx context.Context, loanID int64) ([]domain.Repayment, error) {
	query := `SELECT ` + repaymentColumns + ` FROM repayments WHERE loan_id = ? ORDER BY paid_date, id`

	repayments := []domain.Repayment{}
	if err := sqlx.SelectContext(ctx, r.db, &repayments, r.db.Rebind(query), loanID); err != nil {
		return nil, err
	}

	return repayments, nil
}

func requireRow(res sql.Result, loanID, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return customError.WrapRepaymentNotFound(loanID, id)
	}
	return nil
}
