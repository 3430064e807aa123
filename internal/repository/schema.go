package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS loans (
		id                 BIGSERIAL PRIMARY KEY,
		borrower_name      TEXT NOT NULL,
		borrower_email     TEXT NOT NULL DEFAULT '',
		principal          NUMERIC(18,2) NOT NULL,
		interest_amount    NUMERIC(18,2) NOT NULL DEFAULT 0,
		document_charge    NUMERIC(18,2) NOT NULL DEFAULT 0,
		cadence            TEXT NOT NULL CHECK (cadence IN ('monthly', 'weekly')),
		duration           INTEGER NOT NULL CHECK (duration > 0),
		disbursement_date  DATE NOT NULL,
		installment_amount NUMERIC(18,2) NOT NULL,
		remaining_amount   NUMERIC(18,2) NOT NULL CHECK (remaining_amount >= 0),
		status             TEXT NOT NULL,
		overdue_amount     NUMERIC(18,2) NOT NULL DEFAULT 0,
		missed_payments    INTEGER NOT NULL DEFAULT 0,
		next_payment_date  DATE,
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_status ON loans (status)`,
	`CREATE TABLE IF NOT EXISTS repayments (
		id            BIGSERIAL PRIMARY KEY,
		loan_id       BIGINT NOT NULL REFERENCES loans (id),
		amount        NUMERIC(18,2) NOT NULL CHECK (amount > 0),
		paid_date     DATE NOT NULL,
		kind          TEXT NOT NULL CHECK (kind IN ('full', 'interest_only')),
		period_number INTEGER,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_repayments_loan ON repayments (loan_id, paid_date)`,
	`CREATE TABLE IF NOT EXISTS repayment_log (
		id            BIGSERIAL PRIMARY KEY,
		loan_id       BIGINT NOT NULL REFERENCES loans (id),
		repayment_id  BIGINT NOT NULL,
		action        TEXT NOT NULL,
		amount        NUMERIC(18,2) NOT NULL,
		paid_date     DATE NOT NULL,
		kind          TEXT NOT NULL,
		period_number INTEGER,
		recorded_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_repayment_log_loan ON repayment_log (loan_id)`,
}

// SQLite has no decimal type; amounts are kept as TEXT so no precision is lost.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS loans (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		borrower_name      TEXT NOT NULL,
		borrower_email     TEXT NOT NULL DEFAULT '',
		principal          TEXT NOT NULL,
		interest_amount    TEXT NOT NULL DEFAULT '0',
		document_charge    TEXT NOT NULL DEFAULT '0',
		cadence            TEXT NOT NULL,
		duration           INTEGER NOT NULL,
		disbursement_date  DATE NOT NULL,
		installment_amount TEXT NOT NULL,
		remaining_amount   TEXT NOT NULL,
		status             TEXT NOT NULL,
		overdue_amount     TEXT NOT NULL DEFAULT '0',
		missed_payments    INTEGER NOT NULL DEFAULT 0,
		next_payment_date  DATE,
		created_at         DATETIME NOT NULL,
		updated_at         DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_status ON loans (status)`,
	`CREATE TABLE IF NOT EXISTS repayments (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		loan_id       INTEGER NOT NULL REFERENCES loans (id),
		amount        TEXT NOT NULL,
		paid_date     DATE NOT NULL,
		kind          TEXT NOT NULL,
		period_number INTEGER,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_repayments_loan ON repayments (loan_id, paid_date)`,
	`CREATE TABLE IF NOT EXISTS repayment_log (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		loan_id       INTEGER NOT NULL REFERENCES loans (id),
		repayment_id  INTEGER NOT NULL,
		action        TEXT NOT NULL,
		amount        TEXT NOT NULL,
		paid_date     DATE NOT NULL,
		kind          TEXT NOT NULL,
		period_number INTEGER,
		recorded_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_repayment_log_loan ON repayment_log (loan_id)`,
}

// EnsureSchema creates the tables if they don't already exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := postgresSchema
	if db.DriverName() == "sqlite3" {
		statements = sqliteSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
