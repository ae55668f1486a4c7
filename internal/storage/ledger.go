package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"
)

// AppendLedgerEntry appends one entry to a bank's ledger, computing
// balance-after from the full prior history at call time. When invoked
// on the storage directly it runs in its own transaction so the
// read-then-insert sequence cannot interleave with another append.
func (s *SQLiteStorage) AppendLedgerEntry(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLedgerEntry(entry); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	appended, err := appendLedgerEntryIn(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ledger append: %w", err)
	}
	return appended, nil
}

func appendLedgerEntryIn(ctx context.Context, q querier, entry *model.LedgerEntry) (*model.LedgerEntry, error) {
	if _, err := getBankIn(ctx, q, entry.BankID); err != nil {
		return nil, err
	}

	balance, err := computeBalanceIn(ctx, q, entry.BankID)
	if err != nil {
		return nil, err
	}

	appended := *entry
	appended.ID = ulid.Make().String()
	appended.BalanceAfter = balance.Add(appended.Credit).Sub(appended.Debit)

	res, err := q.ExecContext(ctx, `
		INSERT INTO bank_ledger (id, bank_id, entry_date, description, debit, credit, balance_after, ref_kind, ref_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appended.ID, appended.BankID, dateValue(appended.Date), appended.Description,
		appended.Debit.String(), appended.Credit.String(), appended.BalanceAfter.String(),
		string(appended.RefKind), appended.RefID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	appended.Seq, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger sequence: %w", err)
	}

	slog.Debug("appended ledger entry",
		"bank_id", appended.BankID,
		"ref_kind", appended.RefKind,
		"debit", appended.Debit,
		"credit", appended.Credit,
		"balance_after", appended.BalanceAfter)
	return &appended, nil
}

// ComputeBalance folds credit minus debit over the bank's entries in
// insertion order, starting from zero. Fails with a not-found error
// when the bank does not exist.
func (s *SQLiteStorage) ComputeBalance(ctx context.Context, bankID string) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(bankID, "bankID"); err != nil {
		return decimal.Zero, err
	}
	if _, err := getBankIn(ctx, s.db, bankID); err != nil {
		return decimal.Zero, err
	}
	return computeBalanceIn(ctx, s.db, bankID)
}

func computeBalanceIn(ctx context.Context, q querier, bankID string) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT debit, credit
		FROM bank_ledger
		WHERE bank_id = ?
		ORDER BY seq`, bankID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query ledger for balance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	balance := decimal.Zero
	for rows.Next() {
		var debitStr, creditStr string
		if err := rows.Scan(&debitStr, &creditStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan ledger amounts: %w", err)
		}
		debit, err := parseAmount(debitStr)
		if err != nil {
			return decimal.Zero, err
		}
		credit, err := parseAmount(creditStr)
		if err != nil {
			return decimal.Zero, err
		}
		balance = balance.Add(credit).Sub(debit)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating ledger: %w", err)
	}
	return balance, nil
}

// ListLedgerEntries returns the bank's entries. Date-descending is the
// display convention; insertion order is the audit view whose running
// balances chain.
func (s *SQLiteStorage) ListLedgerEntries(ctx context.Context, bankID string, order service.LedgerOrder) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(bankID, "bankID"); err != nil {
		return nil, err
	}
	return listLedgerEntriesIn(ctx, s.db, bankID, order)
}

func listLedgerEntriesIn(ctx context.Context, q querier, bankID string, order service.LedgerOrder) ([]model.LedgerEntry, error) {
	if _, err := getBankIn(ctx, q, bankID); err != nil {
		return nil, err
	}

	orderBy := "entry_date DESC, seq DESC"
	if order == service.LedgerByInsertion {
		orderBy = "seq"
	}

	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT seq, id, bank_id, entry_date, description, debit, credit, balance_after, ref_kind, COALESCE(ref_id, ''), created_at
		FROM bank_ledger
		WHERE bank_id = ?
		ORDER BY %s`, orderBy), bankID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

// rowScanner abstracts sql.Rows and sql.Row for entry scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedgerEntry(row rowScanner) (*model.LedgerEntry, error) {
	var (
		entry               model.LedgerEntry
		dateStr, kindStr    string
		debitStr, creditStr string
		balanceStr          string
	)
	if err := row.Scan(&entry.Seq, &entry.ID, &entry.BankID, &dateStr, &entry.Description,
		&debitStr, &creditStr, &balanceStr, &kindStr, &entry.RefID, &entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	var err error
	if entry.Date, err = parseDate(dateStr); err != nil {
		return nil, err
	}
	if entry.Debit, err = parseAmount(debitStr); err != nil {
		return nil, err
	}
	if entry.Credit, err = parseAmount(creditStr); err != nil {
		return nil, err
	}
	if entry.BalanceAfter, err = parseAmount(balanceStr); err != nil {
		return nil, err
	}
	entry.RefKind = model.ReferenceKind(kindStr)
	return &entry, nil
}
