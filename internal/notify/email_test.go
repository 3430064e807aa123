package notify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/segyhp/loan-reconciler/internal/config"
	"github.com/segyhp/loan-reconciler/internal/domain"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func reminder(overdue bool) Reminder {
	return Reminder{
		Loan: &domain.Loan{
			ID:              7,
			BorrowerName:    "Ravi",
			BorrowerEmail:   "ravi@example.com",
			RemainingAmount: decimal.NewFromInt(7600),
		},
		DueDate:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.NewFromInt(1200),
		Overdue:   decimal.NewFromInt(2400),
		IsOverdue: overdue,
	}
}

func TestBuildReminder(t *testing.T) {
	tests := []struct {
		name        string
		overdue     bool
		subject     string
		contains    []string
		notContains string
	}{
		{
			name:        "upcoming",
			subject:     "Upcoming repayment on loan #7",
			contains:    []string{"Dear Ravi", "1200.00 is due on 2024-04-01", "Outstanding principal: 7600.00"},
			notContains: "overdue",
		},
		{
			name:     "overdue",
			overdue:  true,
			subject:  "Overdue repayment on loan #7",
			contains: []string{"was due on 2024-04-01", "total overdue on this loan is 2400.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := BuildReminder("loans@example.com", reminder(tt.overdue))

			assert.Equal(t, "loans@example.com", e.From)
			assert.Equal(t, []string{"ravi@example.com"}, e.To)
			assert.Equal(t, tt.subject, e.Subject)
			for _, s := range tt.contains {
				assert.Contains(t, string(e.Text), s)
			}
			if tt.notContains != "" {
				assert.NotContains(t, string(e.Text), tt.notContains)
			}
		})
	}
}

func TestSender_SendRepaymentReminder(t *testing.T) {
	s := NewSender(config.SMTPConfig{SenderEmail: "loans@example.com"}, quietLogger())

	var sent []*email.Email
	s.send = func(e *email.Email) error {
		sent = append(sent, e)
		return nil
	}

	require.NoError(t, s.SendRepaymentReminder(context.Background(), reminder(false)))
	require.Len(t, sent, 1)
	assert.Equal(t, "Upcoming repayment on loan #7", sent[0].Subject)

	noAddress := reminder(false)
	noAddress.Loan.BorrowerEmail = ""
	require.NoError(t, s.SendRepaymentReminder(context.Background(), noAddress))
	assert.Len(t, sent, 1, "borrowers without email are skipped")
}

func TestSender_SendFailure(t *testing.T) {
	s := NewSender(config.SMTPConfig{}, quietLogger())
	s.send = func(*email.Email) error { return errors.New("connection refused") }

	err := s.SendRepaymentReminder(context.Background(), reminder(true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSender_CanceledContext(t *testing.T) {
	s := NewSender(config.SMTPConfig{}, quietLogger())
	s.send = func(*email.Email) error {
		t.Fatal("must not send after cancel")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.SendRepaymentReminder(ctx, reminder(false)), context.Canceled)
}

func TestNoop(t *testing.T) {
	var n Notifier = Noop{Logger: quietLogger()}
	assert.NoError(t, n.SendRepaymentReminder(context.Background(), reminder(true)))
}
