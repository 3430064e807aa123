// Package testutil holds an in-memory storage backend and other doubles shared
// by package tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	"github.com/segyhp/loan-reconciler/internal/repository"
	customError "github.com/segyhp/loan-reconciler/pkg/errors"
)

// Store is an in-memory repository.UnitOfWork. Transactions are serialised and
// rolled back by restoring a snapshot.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	loans      map[int64]domain.Loan
	repayments map[int64]domain.Repayment
	log        []domain.RepaymentLogEntry

	nextLoanID      int64
	nextRepaymentID int64
	nextLogID       int64

	// AggregateWrites counts UpdateAggregate calls
	AggregateWrites int
	// FailAggregate, when set, is returned by UpdateAggregate
	FailAggregate error
}

func NewStore() *Store {
	return &Store{
		loans:      make(map[int64]domain.Loan),
		repayments: make(map[int64]domain.Repayment),
	}
}

// Repos returns repositories working outside any transaction.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Loans:      &loanRepo{s},
		Repayments: &repaymentRepo{s},
		Log:        &logRepo{s},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(s.Repos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID int64, fn func(r repository.Repos, loan *domain.Loan) error) error {
	return s.WithinTx(ctx, func(r repository.Repos) error {
		loan, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, loan)
	})
}

// Loan returns a copy of the stored loan.
func (s *Store) Loan(id int64) (domain.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[id]
	return l, ok
}

// RepaymentCount is the number of stored repayments across all loans.
func (s *Store) RepaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.repayments)
}

type snapshot struct {
	loans           map[int64]domain.Loan
	repayments      map[int64]domain.Repayment
	logLen          int
	nextLoanID      int64
	nextRepaymentID int64
	nextLogID       int64
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		loans:           make(map[int64]domain.Loan, len(s.loans)),
		repayments:      make(map[int64]domain.Repayment, len(s.repayments)),
		logLen:          len(s.log),
		nextLoanID:      s.nextLoanID,
		nextRepaymentID: s.nextRepaymentID,
		nextLogID:       s.nextLogID,
	}
	for k, v := range s.loans {
		snap.loans[k] = v
	}
	for k, v := range s.repayments {
		snap.repayments[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loans = snap.loans
	s.repayments = snap.repayments
	s.log = s.log[:snap.logLen]
	s.nextLoanID = snap.nextLoanID
	s.nextRepaymentID = snap.nextRepaymentID
	s.nextLogID = snap.nextLogID
}

type loanRepo struct{ s *Store }

func (r *loanRepo) Create(_ context.Context, loan *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextLoanID++
	loan.ID = r.s.nextLoanID
	now := time.Now().UTC()
	loan.CreatedAt, loan.UpdatedAt = now, now
	r.s.loans[loan.ID] = *loan
	return nil
}

func (r *loanRepo) GetByID(_ context.Context, id int64) (*domain.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	loan, ok := r.s.loans[id]
	if !ok {
		return nil, customError.WrapLoanNotFound(id)
	}
	return &loan, nil
}

func (r *loanRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *loanRepo) UpdateAggregate(_ context.Context, id int64, agg domain.Aggregate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.AggregateWrites++
	if r.s.FailAggregate != nil {
		return r.s.FailAggregate
	}

	loan, ok := r.s.loans[id]
	if !ok {
		return customError.WrapLoanNotFound(id)
	}
	loan.ApplyAggregate(agg)
	loan.UpdatedAt = time.Now().UTC()
	r.s.loans[id] = loan
	return nil
}

func (r *loanRepo) ListActive(ctx context.Context) ([]*domain.Loan, error) {
	all, _ := r.ListAll(ctx)
	active := all[:0]
	for _, l := range all {
		if l.Status == domain.LoanStatusActive {
			active = append(active, l)
		}
	}
	return active, nil
}

func (r *loanRepo) ListAll(_ context.Context) ([]*domain.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	loans := make([]*domain.Loan, 0, len(r.s.loans))
	for _, l := range r.s.loans {
		l := l
		loans = append(loans, &l)
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

type repaymentRepo struct{ s *Store }

func (r *repaymentRepo) Create(_ context.Context, repayment *domain.Repayment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.loans[repayment.LoanID]; !ok {
		return errors.New("foreign key violation: loan does not exist")
	}
	r.s.nextRepaymentID++
	repayment.ID = r.s.nextRepaymentID
	now := time.Now().UTC()
	repayment.CreatedAt, repayment.UpdatedAt = now, now
	r.s.repayments[repayment.ID] = *repayment
	return nil
}

func (r *repaymentRepo) GetByID(_ context.Context, loanID, id int64) (*domain.Repayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rp, ok := r.s.repayments[id]
	if !ok || rp.LoanID != loanID {
		return nil, customError.WrapRepaymentNotFound(loanID, id)
	}
	return &rp, nil
}

func (r *repaymentRepo) Update(_ context.Context, repayment *domain.Repayment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.repayments[repayment.ID]
	if !ok || current.LoanID != repayment.LoanID {
		return customError.WrapRepaymentNotFound(repayment.LoanID, repayment.ID)
	}
	repayment.UpdatedAt = time.Now().UTC()
	r.s.repayments[repayment.ID] = *repayment
	return nil
}

func (r *repaymentRepo) Delete(_ context.Context, loanID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rp, ok := r.s.repayments[id]
	if !ok || rp.LoanID != loanID {
		return customError.WrapRepaymentNotFound(loanID, id)
	}
	delete(r.s.repayments, id)
	return nil
}

func (r *repaymentRepo) ListByLoanID(_ context.Context, loanID int64) ([]domain.Repayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []domain.Repayment{}
	for _, rp := range r.s.repayments {
		if rp.LoanID == loanID {
			out = append(out, rp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaidDate.Equal(out[j].PaidDate) {
			return out[i].PaidDate.Before(out[j].PaidDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type logRepo struct{ s *Store }

func (r *logRepo) Append(_ context.Context, entry *domain.RepaymentLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextLogID++
	entry.ID = r.s.nextLogID
	r.s.log = append(r.s.log, *entry)
	return nil
}

func (r *logRepo) ListByLoanID(_ context.Context, loanID int64) ([]*domain.RepaymentLogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.RepaymentLogEntry{}
	for _, e := range r.s.log {
		if e.LoanID == loanID {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}
