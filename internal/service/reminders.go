package service

import (
	"context"
	"errors"

	"github.com/segyhp/loan-reconciler/internal/notify"
	"github.com/segyhp/loan-reconciler/pkg/utils"

	"github.com/sirupsen/logrus"
)

// SendDueReminders mails borrowers whose next payment is overdue or falls due
// within the configured lead days. It reads the stored aggregate, so it should
// run after the daily reconciliation.
func (s *LoanService) SendDueReminders(ctx context.Context) (int, error) {
	loans, err := s.repos.Loans.ListActive(ctx)
	if err != nil {
		return 0, dbError(err)
	}

	today := s.today()
	lead := s.config.Business.ReminderLeadDays

	var errs []error
	sent := 0
	for _, loan := range loans {
		if loan.NextPaymentDate == nil || loan.BorrowerEmail == "" {
			continue
		}

		days := utils.DaysBetween(today, *loan.NextPaymentDate)
		if days > lead {
			continue
		}

		reminder := notify.Reminder{
			Loan:      loan,
			DueDate:   *loan.NextPaymentDate,
			Amount:    loan.InstallmentAmount,
			Overdue:   loan.OverdueAmount,
			IsOverdue: days < 0,
		}
		if err := s.notifier.SendRepaymentReminder(ctx, reminder); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}

	s.logger.WithFields(logrus.Fields{
		"candidates": len(loans),
		"sent":       sent,
		"failed":     len(errs),
	}).Info("repayment reminders processed")

	return sent, errors.Join(errs...)
}
