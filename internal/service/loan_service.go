package service

import (
	"context"
	"errors"
	"time"

	"github.com/segyhp/loan-reconciler/internal/cache"
	"github.com/segyhp/loan-reconciler/internal/config"
	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/internal/notify"
	"github.com/segyhp/loan-reconciler/internal/reconcile"
	"github.com/segyhp/loan-reconciler/internal/repository"
	customError "github.com/segyhp/loan-reconciler/pkg/errors"
	"github.com/segyhp/loan-reconciler/pkg/utils"

	"github.com/sirupsen/logrus"
)

// LoanService is the reconciliation orchestrator. It is the only writer of the
// loan aggregate columns.
type LoanService struct {
	uow      repository.UnitOfWork
	repos    repository.Repos
	engine   *reconcile.Engine
	cache    cache.LoanCache
	notifier notify.Notifier
	logger   *logrus.Logger
	config   *config.Config

	now   func() time.Time
	locks *loanLocks
}

func NewLoanService(
	uow repository.UnitOfWork,
	repos repository.Repos,
	loanCache cache.LoanCache,
	notifier notify.Notifier,
	logger *logrus.Logger,
	config *config.Config,
) *LoanService {
	if loanCache == nil {
		loanCache = cache.Nop{}
	}
	if notifier == nil {
		notifier = notify.Noop{Logger: logger}
	}

	view := reconcile.ViewOptions{
		LookaheadDays:   config.Business.ScheduleLookaheadDays,
		DefaultPageSize: config.Business.DefaultPageSize,
		MaxPageSize:     config.Business.MaxPageSize,
	}

	return &LoanService{
		uow:      uow,
		repos:    repos,
		engine:   reconcile.NewEngine(config.Business.MonthlyMatchWindowDays, view),
		cache:    loanCache,
		notifier: notifier,
		logger:   logger,
		config:   config,
		now:      time.Now,
		locks:    newLoanLocks(),
	}
}

// WithClock replaces the wall clock, mostly for tests.
func (s *LoanService) WithClock(now func() time.Time) *LoanService {
	s.now = now
	return s
}

// today is the current calendar date in the configured business timezone.
func (s *LoanService) today() time.Time {
	return utils.DateOnly(s.now().In(s.config.Location()))
}

// CreateLoan validates the terms, seeds the aggregate and stores the loan
func (s *LoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	if request == nil {
		return nil, customError.WrapInvalidInput("request body is required")
	}

	disbursed, err := utils.ParseDate(request.DisbursementDate)
	if err != nil {
		return nil, customError.WrapInvalidDate(request.DisbursementDate)
	}

	switch {
	case !request.Principal.IsPositive():
		return nil, customError.WrapInvalidInput("principal must be greater than 0")
	case request.InterestAmount.IsNegative():
		return nil, customError.WrapInvalidInput("interest amount must not be negative")
	case request.DocumentCharge.IsNegative():
		return nil, customError.WrapInvalidInput("document charge must not be negative")
	case request.InstallmentAmount.IsNegative():
		return nil, customError.WrapInvalidInput("installment amount must not be negative")
	case !request.Cadence.Valid():
		return nil, customError.WrapInvalidInput("cadence must be monthly or weekly")
	case request.Duration < 1:
		return nil, customError.WrapInvalidInput("duration must be at least 1 period")
	}

	loan := &domain.Loan{
		BorrowerName:      request.BorrowerName,
		BorrowerEmail:     request.BorrowerEmail,
		Principal:         request.Principal,
		InterestAmount:    request.InterestAmount,
		DocumentCharge:    request.DocumentCharge,
		Cadence:           request.Cadence,
		Duration:          request.Duration,
		DisbursementDate:  disbursed,
		InstallmentAmount: request.InstallmentAmount,
	}
	if loan.InstallmentAmount.IsZero() {
		loan.InstallmentAmount = utils.CalculateInstallment(loan.Principal, loan.InterestAmount, loan.EffectiveDuration())
	}

	// A new loan has no repayments, so its aggregate is known before insert
	res := s.engine.Reconcile(loan, nil, s.today())
	loan.ApplyAggregate(res.Aggregate)

	if err := s.repos.Loans.Create(ctx, loan); err != nil {
		return nil, dbError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"loan_id":     loan.ID,
		"cadence":     loan.Cadence,
		"duration":    loan.Duration,
		"principal":   loan.Principal.String(),
		"installment": loan.InstallmentAmount.String(),
	}).Info("loan created")

	return loan, nil
}

// GetLoan returns the loan with its stored aggregate
func (s *LoanService) GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error) {
	loan, err := s.repos.Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}
	return loan, nil
}

// ListLoans lists stored loans, optionally only those with the given status
func (s *LoanService) ListLoans(ctx context.Context, status string) ([]*domain.Loan, error) {
	switch status {
	case domain.LoanStatusActive:
		loans, err := s.repos.Loans.ListActive(ctx)
		if err != nil {
			return nil, dbError(err)
		}
		return loans, nil
	case "", domain.LoanStatusCompleted:
	default:
		return nil, customError.WrapInvalidInput("status must be active or completed")
	}

	loans, err := s.repos.Loans.ListAll(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	if status == "" {
		return loans, nil
	}

	filtered := make([]*domain.Loan, 0, len(loans))
	for _, l := range loans {
		if l.Status == status {
			filtered = append(filtered, l)
		}
	}
	return filtered, nil
}

// GetSummary returns period counts and the aggregate, served from cache when
// an entry for today exists
func (s *LoanService) GetSummary(ctx context.Context, loanID int64) (*domain.LoanSummary, error) {
	today := s.today()

	cached, ok, err := s.cache.GetSummary(ctx, loanID)
	if err != nil {
		s.logger.WithField("loan_id", loanID).WithError(err).Warn("summary cache read failed")
	}
	if ok && cached.AsOf.Equal(today) {
		return cached, nil
	}

	// Held until the entry is stored so a concurrent mutation invalidates after it
	unlock := s.locks.Lock(loanID)
	defer unlock()

	loan, res, err := s.load(ctx, loanID, today)
	if err != nil {
		return nil, err
	}

	summary := res.Summary(loan.ID, today)
	if err := s.cache.SetSummary(ctx, &summary); err != nil {
		s.logger.WithField("loan_id", loanID).WithError(err).Warn("summary cache write failed")
	}

	return &summary, nil
}

// GetSchedule builds one page of the reconciled schedule
func (s *LoanService) GetSchedule(ctx context.Context, loanID int64, query domain.ScheduleQuery) (*domain.SchedulePage, error) {
	if query.Status != "" && !query.Status.Valid() {
		return nil, customError.WrapInvalidInput("unknown period status " + string(query.Status))
	}

	today := s.today()
	_, res, err := s.load(ctx, loanID, today)
	if err != nil {
		return nil, err
	}

	page := s.engine.View(res, query, today)
	return &page, nil
}

// ListRepayments lists every repayment together with how it resolved
func (s *LoanService) ListRepayments(ctx context.Context, loanID int64) ([]*domain.RepaymentView, error) {
	loan, err := s.repos.Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}

	repayments, err := s.repos.Repayments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}

	res := s.engine.Reconcile(loan, repayments, s.today())
	return res.Views(repayments), nil
}

// RepaymentLog returns the audit trail of repayment mutations
func (s *LoanService) RepaymentLog(ctx context.Context, loanID int64) ([]*domain.RepaymentLogEntry, error) {
	if _, err := s.repos.Loans.GetByID(ctx, loanID); err != nil {
		return nil, dbError(err)
	}

	entries, err := s.repos.Log.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}
	return entries, nil
}

// Reconcile recomputes and stores the aggregate of one loan. Running it twice
// without a repayment change in between writes nothing the second time.
func (s *LoanService) Reconcile(ctx context.Context, loanID int64) (*domain.Loan, error) {
	unlock := s.locks.Lock(loanID)
	defer unlock()

	var out *domain.Loan
	err := s.uow.WithinLoanTx(ctx, loanID, func(r repository.Repos, loan *domain.Loan) error {
		if _, err := s.recompute(ctx, r, loan, s.today()); err != nil {
			return err
		}
		out = loan
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}

	s.invalidate(ctx, loanID)
	return out, nil
}

// ReconcileActiveLoans re-runs reconciliation for every active loan. Overdue
// and missed counts move with the date even when no repayment changes.
func (s *LoanService) ReconcileActiveLoans(ctx context.Context) (int, error) {
	loans, err := s.repos.Loans.ListActive(ctx)
	if err != nil {
		return 0, dbError(err)
	}

	var errs []error
	done := 0
	for _, loan := range loans {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.Reconcile(ctx, loan.ID); err != nil {
			s.logger.WithField("loan_id", loan.ID).WithError(err).Error("scheduled reconciliation failed")
			errs = append(errs, err)
			continue
		}
		done++
	}

	s.logger.WithFields(logrus.Fields{
		"loans":  len(loans),
		"done":   done,
		"failed": len(loans) - done,
	}).Info("active loans reconciled")

	return done, errors.Join(errs...)
}

// load reads a loan and its repayments and reconciles them without writing.
func (s *LoanService) load(ctx context.Context, loanID int64, today time.Time) (*domain.Loan, reconcile.Result, error) {
	loan, err := s.repos.Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, reconcile.Result{}, dbError(err)
	}

	repayments, err := s.repos.Repayments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, reconcile.Result{}, dbError(err)
	}

	return loan, s.engine.Reconcile(loan, repayments, today), nil
}

// recompute reconciles a locked loan against its current repayments and writes
// the full aggregate when it changed. loan is updated in place.
func (s *LoanService) recompute(ctx context.Context, r repository.Repos, loan *domain.Loan, today time.Time) (reconcile.Result, error) {
	repayments, err := r.Repayments.ListByLoanID(ctx, loan.ID)
	if err != nil {
		return reconcile.Result{}, err
	}

	res := s.engine.Reconcile(loan, repayments, today)
	s.logMatch(loan.ID, res.Match)

	changed := !res.Aggregate.Equal(loan.Aggregate())
	if changed {
		if err := r.Loans.UpdateAggregate(ctx, loan.ID, res.Aggregate); err != nil {
			return reconcile.Result{}, err
		}
	}
	loan.ApplyAggregate(res.Aggregate)

	entry := s.logger.WithFields(logrus.Fields{
		"loan_id":   loan.ID,
		"remaining": res.Aggregate.RemainingAmount.String(),
		"status":    res.Aggregate.Status,
		"overdue":   res.Aggregate.OverdueAmount.String(),
		"missed":    res.Aggregate.MissedPayments,
	})
	if changed {
		entry.Info("loan reconciled")
	} else {
		entry.Debug("loan reconciled, aggregate unchanged")
	}

	return res, nil
}

func (s *LoanService) logMatch(loanID int64, m reconcile.Match) {
	for _, u := range m.Unmatched {
		s.logger.WithFields(logrus.Fields{
			"loan_id":      loanID,
			"repayment_id": u.Repayment.ID,
			"paid_date":    u.Repayment.PaidDate.Format(utils.DateLayout),
			"reason":       u.Reason,
		}).Warn("repayment left unmatched")
	}
	for _, r := range m.Superseded {
		s.logger.WithFields(logrus.Fields{
			"loan_id":      loanID,
			"repayment_id": r.ID,
			"paid_date":    r.PaidDate.Format(utils.DateLayout),
			"period":       m.Resolved[r.ID],
		}).Info("repayment superseded by a later one for the same period")
	}
}

func (s *LoanService) invalidate(ctx context.Context, loanID int64) {
	if err := s.cache.Invalidate(ctx, loanID); err != nil {
		s.logger.WithField("loan_id", loanID).WithError(err).Warn("summary cache invalidation failed")
	}
}

// dbError keeps business errors intact and wraps everything else.
func dbError(err error) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return customError.WrapDatabaseError(err)
}
