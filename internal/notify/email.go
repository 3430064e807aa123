package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/segyhp/loan-reconciler/internal/config"
	"github.com/segyhp/loan-reconciler/internal/domain"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Reminder is one upcoming or overdue installment to tell a borrower about.
type Reminder struct {
	Loan      *domain.Loan
	DueDate   time.Time
	Amount    decimal.Decimal
	Overdue   decimal.Decimal
	IsOverdue bool
}

// Notifier delivers repayment reminders to borrowers.
type Notifier interface {
	SendRepaymentReminder(ctx context.Context, r Reminder) error
}

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg config.SMTPConfig, logger *logrus.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	s.send = func(e *email.Email) error {
		addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
		var auth smtp.Auth
		if cfg.Username != "" {
			auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		}
		return e.Send(addr, auth)
	}
	return s
}

// SendRepaymentReminder mails the borrower about the installment in r
func (s *Sender) SendRepaymentReminder(ctx context.Context, r Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Loan.BorrowerEmail == "" {
		return nil
	}

	e := BuildReminder(s.cfg.SenderEmail, r)
	if err := s.send(e); err != nil {
		s.logger.WithFields(logrus.Fields{
			"loan_id": r.Loan.ID,
			"to":      r.Loan.BorrowerEmail,
		}).WithError(err).Error("failed to send repayment reminder")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"loan_id": r.Loan.ID,
		"to":      r.Loan.BorrowerEmail,
	}).Infof("email sent: %s", e.Subject)
	return nil
}

// BuildReminder renders the reminder mail without sending it.
func BuildReminder(from string, r Reminder) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{r.Loan.BorrowerEmail}
	if r.IsOverdue {
		e.Subject = fmt.Sprintf("Overdue repayment on loan #%d", r.Loan.ID)
	} else {
		e.Subject = fmt.Sprintf("Upcoming repayment on loan #%d", r.Loan.ID)
	}

	body := fmt.Sprintf("Dear %s,\n\n", r.Loan.BorrowerName)
	if r.IsOverdue {
		body += fmt.Sprintf(
			"Your installment of %s was due on %s and has not been received.\n"+
				"The total overdue on this loan is %s.\n"+
				"Please pay as soon as possible.\n",
			r.Amount.StringFixed(2), r.DueDate.Format("2006-01-02"), r.Overdue.StringFixed(2),
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your installment of %s is due on %s.\n",
			r.Amount.StringFixed(2), r.DueDate.Format("2006-01-02"),
		)
	}
	body += fmt.Sprintf("Outstanding principal: %s\n", r.Loan.RemainingAmount.StringFixed(2))
	body += "\nBest regards,\nLoan Servicing"
	e.Text = []byte(body)

	return e
}

// Noop drops reminders. Used when SMTP is not configured.
type Noop struct {
	Logger *logrus.Logger
}

func (n Noop) SendRepaymentReminder(_ context.Context, r Reminder) error {
	if n.Logger != nil {
		n.Logger.WithField("loan_id", r.Loan.ID).Debug("mail disabled, reminder skipped")
	}
	return nil
}
