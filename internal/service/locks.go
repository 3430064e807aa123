package service

import "sync"

// loanLocks serialises work per loan id inside this process. Entries are
// dropped once nobody holds or waits on them.
type loanLocks struct {
	mu    sync.Mutex
	locks map[int64]*loanLock
}

type loanLock struct {
	mu   sync.Mutex
	refs int
}

func newLoanLocks() *loanLocks {
	return &loanLocks{locks: make(map[int64]*loanLock)}
}

// Lock blocks until the loan is free and returns the matching unlock.
func (l *loanLocks) Lock(loanID int64) func() {
	l.mu.Lock()
	lk, ok := l.locks[loanID]
	if !ok {
		lk = &loanLock{}
		l.locks[loanID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()

		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, loanID)
		}
		l.mu.Unlock()
	}
}

func (l *loanLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
