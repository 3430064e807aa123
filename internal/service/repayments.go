package service

import (
	"context"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/internal/reconcile"
	"github.com/segyhp/loan-reconciler/internal/repository"
	customError "github.com/segyhp/loan-reconciler/pkg/errors"
	"github.com/segyhp/loan-reconciler/pkg/utils"
)

// RecordRepayment stores a new repayment and reconciles the loan in the same
// transaction
func (s *LoanService) RecordRepayment(ctx context.Context, loanID int64, request *domain.RepaymentRequest) (*domain.RepaymentResult, error) {
	input, err := parseRepayment(request)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, loanID, func(r repository.Repos, loan *domain.Loan) (*domain.Repayment, error) {
		if err := checkPeriod(loan, input.PeriodNumber); err != nil {
			return nil, err
		}

		repayment := input
		repayment.LoanID = loan.ID
		if err := r.Repayments.Create(ctx, &repayment); err != nil {
			return nil, err
		}
		if err := r.Log.Append(ctx, domain.NewRepaymentLogEntry(&repayment, domain.RepaymentActionCreated, s.now().UTC())); err != nil {
			return nil, err
		}
		return &repayment, nil
	})
}

// UpdateRepayment rewrites amount, date, kind and period of a repayment
func (s *LoanService) UpdateRepayment(ctx context.Context, loanID, repaymentID int64, request *domain.RepaymentRequest) (*domain.RepaymentResult, error) {
	input, err := parseRepayment(request)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, loanID, func(r repository.Repos, loan *domain.Loan) (*domain.Repayment, error) {
		if err := checkPeriod(loan, input.PeriodNumber); err != nil {
			return nil, err
		}

		repayment, err := r.Repayments.GetByID(ctx, loan.ID, repaymentID)
		if err != nil {
			return nil, err
		}
		repayment.Amount = input.Amount
		repayment.PaidDate = input.PaidDate
		repayment.Kind = input.Kind
		repayment.PeriodNumber = input.PeriodNumber

		if err := r.Repayments.Update(ctx, repayment); err != nil {
			return nil, err
		}
		if err := r.Log.Append(ctx, domain.NewRepaymentLogEntry(repayment, domain.RepaymentActionUpdated, s.now().UTC())); err != nil {
			return nil, err
		}
		return repayment, nil
	})
}

// DeleteRepayment removes a repayment. Its last state stays in the audit log.
func (s *LoanService) DeleteRepayment(ctx context.Context, loanID, repaymentID int64) (*domain.RepaymentResult, error) {
	return s.mutate(ctx, loanID, func(r repository.Repos, loan *domain.Loan) (*domain.Repayment, error) {
		repayment, err := r.Repayments.GetByID(ctx, loan.ID, repaymentID)
		if err != nil {
			return nil, err
		}
		if err := r.Repayments.Delete(ctx, loan.ID, repaymentID); err != nil {
			return nil, err
		}
		if err := r.Log.Append(ctx, domain.NewRepaymentLogEntry(repayment, domain.RepaymentActionDeleted, s.now().UTC())); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// mutate runs change and the following recompute under the loan lock and a
// single transaction. change returns the repayment to describe, if any.
func (s *LoanService) mutate(
	ctx context.Context,
	loanID int64,
	change func(r repository.Repos, loan *domain.Loan) (*domain.Repayment, error),
) (*domain.RepaymentResult, error) {
	unlock := s.locks.Lock(loanID)
	defer unlock()

	today := s.today()
	var result domain.RepaymentResult

	err := s.uow.WithinLoanTx(ctx, loanID, func(r repository.Repos, loan *domain.Loan) error {
		touched, err := change(r, loan)
		if err != nil {
			return err
		}

		res, err := s.recompute(ctx, r, loan, today)
		if err != nil {
			return err
		}

		result.Loan = loan
		if touched != nil {
			result.Repayment = describe(res, *touched)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}

	s.invalidate(ctx, loanID)
	return &result, nil
}

func describe(res reconcile.Result, r domain.Repayment) *domain.RepaymentView {
	period, resolution, reason := res.Match.Resolution(r)
	return &domain.RepaymentView{
		Repayment:      &r,
		ResolvedPeriod: period,
		Resolution:     resolution,
		Reason:         reason,
	}
}

// parseRepayment checks everything that does not depend on the loan.
func parseRepayment(request *domain.RepaymentRequest) (domain.Repayment, error) {
	if request == nil {
		return domain.Repayment{}, customError.WrapInvalidInput("request body is required")
	}
	if !request.Amount.IsPositive() {
		return domain.Repayment{}, customError.WrapInvalidPaymentAmount(request.Amount.String())
	}

	paid, err := utils.ParseDate(request.PaidDate)
	if err != nil {
		return domain.Repayment{}, customError.WrapInvalidDate(request.PaidDate)
	}

	kind := request.Kind
	if kind == "" {
		kind = domain.RepaymentKindFull
	}
	if !kind.Valid() {
		return domain.Repayment{}, customError.WrapInvalidInput("kind must be full or interest_only")
	}

	var period *int
	if request.PeriodNumber != nil {
		n := *request.PeriodNumber
		period = &n
	}

	return domain.Repayment{
		Amount:       request.Amount,
		PaidDate:     paid,
		Kind:         kind,
		PeriodNumber: period,
	}, nil
}

func checkPeriod(loan *domain.Loan, period *int) error {
	if period == nil {
		return nil
	}
	if *period < 1 || *period > loan.Duration {
		return customError.WrapInvalidPeriod(*period, loan.Duration)
	}
	return nil
}
