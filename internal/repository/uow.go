package repository

import (
	"context"

	"github.com/segyhp/loan-reconciler/internal/domain"

	"github.com/jmoiron/sqlx"
)

// NewRepos binds all repositories to the same connection or transaction.
func NewRepos(db sqlx.ExtContext) Repos {
	return Repos{
		Loans:      NewLoanRepository(db),
		Repayments: NewRepaymentRepository(db),
		Log:        NewRepaymentLogRepository(db),
	}
}

type SqlxUnitOfWork struct {
	db *sqlx.DB
}

func NewUnitOfWork(db *sqlx.DB) *SqlxUnitOfWork {
	return &SqlxUnitOfWork{db: db}
}

func (u *SqlxUnitOfWork) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func (u *SqlxUnitOfWork) WithinLoanTx(ctx context.Context, loanID int64, fn func(r Repos, loan *domain.Loan) error) error {
	return u.WithinTx(ctx, func(r Repos) error {
		// lock the loan row up-front so concurrent recomputes queue behind us
		loan, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, loan)
	})
}
