package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Banks, ledger, cards, loans, transactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS banks (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					account_number TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				// seq is the insertion order the balance fold chains on;
				// id is the stable reference handed to collaborators.
				`CREATE TABLE IF NOT EXISTS bank_ledger (
					seq INTEGER PRIMARY KEY AUTOINCREMENT,
					id TEXT UNIQUE NOT NULL,
					bank_id TEXT NOT NULL,
					entry_date TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					debit TEXT NOT NULL DEFAULT '0',
					credit TEXT NOT NULL DEFAULT '0',
					balance_after TEXT NOT NULL,
					ref_kind TEXT NOT NULL,
					ref_id TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (bank_id) REFERENCES banks(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_bank_ledger_bank ON bank_ledger(bank_id)`,
				`CREATE INDEX idx_bank_ledger_bank_date ON bank_ledger(bank_id, entry_date)`,
				`CREATE INDEX idx_bank_ledger_ref ON bank_ledger(ref_kind, ref_id)`,

				`CREATE TABLE IF NOT EXISTS credit_cards (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					credit_limit TEXT NOT NULL DEFAULT '0',
					outstanding TEXT NOT NULL DEFAULT '0',
					due_day INTEGER DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS loans (
					id TEXT PRIMARY KEY,
					borrower TEXT NOT NULL,
					principal TEXT NOT NULL,
					outstanding TEXT NOT NULL,
					paid BOOLEAN DEFAULT 0,
					source_type TEXT NOT NULL,
					source_ref TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_loans_paid ON loans(paid)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					txn_date TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					amount TEXT NOT NULL,
					owner TEXT NOT NULL DEFAULT '',
					bank_id TEXT NOT NULL,
					loan_id TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_bank ON transactions(bank_id)`,
				`CREATE INDEX idx_transactions_date ON transactions(txn_date)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Persons registry for expense owner resolution",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS persons (
					id TEXT PRIMARY KEY,
					name TEXT UNIQUE NOT NULL COLLATE NOCASE,
					is_self BOOLEAN DEFAULT 0
				)`,
				`CREATE INDEX idx_persons_self ON persons(is_self)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "IPO applications",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS ipo_applications (
					id TEXT PRIMARY KEY,
					company TEXT NOT NULL,
					applied_on TEXT NOT NULL,
					allotted_on TEXT,
					amount TEXT NOT NULL,
					shares_applied INTEGER NOT NULL DEFAULT 0,
					issue_price TEXT NOT NULL DEFAULT '0',
					bank_id TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'APPLIED',
					shares_allotted INTEGER,
					listing_price TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_ipo_status ON ipo_applications(status)`,
				`CREATE INDEX idx_ipo_bank ON ipo_applications(bank_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
