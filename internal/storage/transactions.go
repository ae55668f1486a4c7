package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"
)

// CreateTransaction persists a transaction row.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return createTransactionIn(ctx, s.db, txn)
}

func createTransactionIn(ctx context.Context, q querier, txn *model.Transaction) error {
	var loanID any
	if txn.LoanID != "" {
		loanID = txn.LoanID
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (id, txn_date, description, amount, owner, bank_id, loan_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, dateValue(txn.Date), txn.Description, txn.Amount.String(),
		txn.Owner, txn.BankID, loanID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction returns a transaction by id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getTransactionIn(ctx, s.db, id)
}

func getTransactionIn(ctx context.Context, q querier, id string) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, txn_date, description, amount, owner, bank_id, COALESCE(loan_id, ''), created_at
		FROM transactions
		WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return txn, err
}

// ListTransactions returns transactions newest first, filtered.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listTransactionsIn(ctx, s.db, filter)
}

func listTransactionsIn(ctx context.Context, q querier, filter service.TransactionFilter) ([]model.Transaction, error) {
	var (
		conds []string
		args  []any
	)
	if filter.BankID != "" {
		conds = append(conds, "bank_id = ?")
		args = append(args, filter.BankID)
	}
	if filter.Owner != "" {
		conds = append(conds, "owner = ? COLLATE NOCASE")
		args = append(args, filter.Owner)
	}
	if filter.StartDate != nil {
		conds = append(conds, "txn_date >= ?")
		args = append(args, dateValue(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conds = append(conds, "txn_date <= ?")
		args = append(args, dateValue(*filter.EndDate))
	}

	query := `
		SELECT id, txn_date, description, amount, owner, bank_id, COALESCE(loan_id, ''), created_at
		FROM transactions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY txn_date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn                model.Transaction
		dateStr, amountStr string
	)
	if err := row.Scan(&txn.ID, &dateStr, &txn.Description, &amountStr,
		&txn.Owner, &txn.BankID, &txn.LoanID, &txn.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	var err error
	if txn.Date, err = parseDate(dateStr); err != nil {
		return nil, err
	}
	if txn.Amount, err = parseAmount(amountStr); err != nil {
		return nil, err
	}
	return &txn, nil
}

// UpdateTransaction writes date and description. The posted amount,
// bank, owner, and loan linkage are immutable; the orchestrator
// enforces that before calling here.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return updateTransactionIn(ctx, s.db, txn)
}

func updateTransactionIn(ctx context.Context, q querier, txn *model.Transaction) error {
	res, err := q.ExecContext(ctx, `
		UPDATE transactions SET txn_date = ?, description = ?
		WHERE id = ?`,
		dateValue(txn.Date), txn.Description, txn.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction row. Ledger compensation is
// the orchestrator's job; this only deletes the record.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteTransactionIn(ctx, s.db, id)
}

func deleteTransactionIn(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}
