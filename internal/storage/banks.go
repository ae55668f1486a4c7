package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
)

// CreateBank persists a new bank account.
func (s *SQLiteStorage) CreateBank(ctx context.Context, bank *model.Bank) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBank(bank); err != nil {
		return err
	}
	return createBankIn(ctx, s.db, bank)
}

func createBankIn(ctx context.Context, q querier, bank *model.Bank) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO banks (id, name, account_number)
		VALUES (?, ?, ?)`,
		bank.ID, bank.Name, bank.AccountNumber)
	if err != nil {
		return fmt.Errorf("failed to insert bank: %w", err)
	}
	return nil
}

// GetBank returns a bank by id. The caller is responsible for
// augmenting it with a computed balance; stored fields only here.
func (s *SQLiteStorage) GetBank(ctx context.Context, id string) (*model.Bank, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getBankIn(ctx, s.db, id)
}

func getBankIn(ctx context.Context, q querier, id string) (*model.Bank, error) {
	var bank model.Bank
	err := q.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(account_number, ''), created_at
		FROM banks
		WHERE id = ?`, id).
		Scan(&bank.ID, &bank.Name, &bank.AccountNumber, &bank.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bank %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bank: %w", err)
	}
	return &bank, nil
}

// ListBanks returns all banks ordered by name.
func (s *SQLiteStorage) ListBanks(ctx context.Context) ([]model.Bank, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listBanksIn(ctx, s.db)
}

func listBanksIn(ctx context.Context, q querier) ([]model.Bank, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, COALESCE(account_number, ''), created_at
		FROM banks
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query banks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var banks []model.Bank
	for rows.Next() {
		var bank model.Bank
		if err := rows.Scan(&bank.ID, &bank.Name, &bank.AccountNumber, &bank.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bank: %w", err)
		}
		banks = append(banks, bank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banks: %w", err)
	}
	return banks, nil
}

// UpdateBank updates a bank's name and account number. Balance is
// never written; it only exists as a fold over the ledger.
func (s *SQLiteStorage) UpdateBank(ctx context.Context, bank *model.Bank) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBank(bank); err != nil {
		return err
	}
	return updateBankIn(ctx, s.db, bank)
}

func updateBankIn(ctx context.Context, q querier, bank *model.Bank) error {
	res, err := q.ExecContext(ctx, `
		UPDATE banks SET name = ?, account_number = ?
		WHERE id = ?`,
		bank.Name, bank.AccountNumber, bank.ID)
	if err != nil {
		return fmt.Errorf("failed to update bank: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bank %s: %w", bank.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteBank hard-deletes a bank. Its ledger entries cascade; callers
// are expected to have warned the user that this is destructive.
func (s *SQLiteStorage) DeleteBank(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteBankIn(ctx, s.db, id)
}

func deleteBankIn(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM banks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bank: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bank %s: %w", id, common.ErrNotFound)
	}
	slog.Debug("deleted bank", "bank_id", id)
	return nil
}
