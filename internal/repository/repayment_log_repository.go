package repository

import (
	"context"

	"github.com/segyhp/loan-reconciler/internal/domain"

	"github.com/jmoiron/sqlx"
)

type repaymentLogRepository struct {
	db sqlx.ExtContext
}

func NewRepaymentLogRepository(db sqlx.ExtContext) RepaymentLogRepository {
	return &repaymentLogRepository{db: db}
}

func (r *repaymentLogRepository) Append(ctx context.Context, entry *domain.RepaymentLogEntry) error {
	query := `
		INSERT INTO repayment_log (loan_id, repayment_id, action, amount, paid_date, kind, period_number, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		entry.LoanID,
		entry.RepaymentID,
		entry.Action,
		entry.Amount,
		entry.PaidDate,
		entry.Kind,
		entry.PeriodNumber,
		entry.RecordedAt,
	).Scan(&entry.ID)
}

func (r *repaymentLogRepository) ListByLoanID(ctx context.Context, loanID int64) ([]*domain.RepaymentLogEntry, error) {
	query := `
		SELECT id, loan_id, repayment_id, action, amount, paid_date, kind, period_number, recorded_at
		FROM repayment_log
		WHERE loan_id = ?
		ORDER BY id
	`

	entries := []*domain.RepaymentLogEntry{}
	if err := sqlx.SelectContext(ctx, r.db, &entries, r.db.Rebind(query), loanID); err != nil {
		return nil, err
	}

	return entries, nil
}
