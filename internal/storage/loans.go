package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
)

// CreateLoan persists a new loan. Loans are only ever created as a
// side effect of recording an expense for a non-self owner.
func (s *SQLiteStorage) CreateLoan(ctx context.Context, loan *model.Loan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLoan(loan); err != nil {
		return err
	}
	return createLoanIn(ctx, s.db, loan)
}

func createLoanIn(ctx context.Context, q querier, loan *model.Loan) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO loans (id, borrower, principal, outstanding, paid, source_type, source_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		loan.ID, loan.Borrower, loan.Principal.String(), loan.Outstanding.String(),
		loan.Paid, string(loan.Source), loan.SourceRef)
	if err != nil {
		return fmt.Errorf("failed to insert loan: %w", err)
	}
	return nil
}

// GetLoan returns a loan by id.
func (s *SQLiteStorage) GetLoan(ctx context.Context, id string) (*model.Loan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getLoanIn(ctx, s.db, id)
}

func getLoanIn(ctx context.Context, q querier, id string) (*model.Loan, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, borrower, principal, outstanding, paid, source_type, COALESCE(source_ref, ''), created_at
		FROM loans
		WHERE id = ?`, id)
	loan, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loan %s: %w", id, common.ErrNotFound)
	}
	return loan, err
}

// ListLoans returns loans newest first, optionally including paid ones.
func (s *SQLiteStorage) ListLoans(ctx context.Context, includePaid bool) ([]model.Loan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listLoansIn(ctx, s.db, includePaid)
}

func listLoansIn(ctx context.Context, q querier, includePaid bool) ([]model.Loan, error) {
	query := `
		SELECT id, borrower, principal, outstanding, paid, source_type, COALESCE(source_ref, ''), created_at
		FROM loans`
	if !includePaid {
		query += ` WHERE paid = 0`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loans []model.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loans: %w", err)
	}
	return loans, nil
}

func scanLoan(row rowScanner) (*model.Loan, error) {
	var (
		loan                      model.Loan
		principalStr, outstandStr string
		sourceStr                 string
	)
	if err := row.Scan(&loan.ID, &loan.Borrower, &principalStr, &outstandStr,
		&loan.Paid, &sourceStr, &loan.SourceRef, &loan.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan loan: %w", err)
	}

	var err error
	if loan.Principal, err = parseAmount(principalStr); err != nil {
		return nil, err
	}
	if loan.Outstanding, err = parseAmount(outstandStr); err != nil {
		return nil, err
	}
	loan.Source = model.LoanSource(sourceStr)
	return &loan, nil
}

// UpdateLoan writes a loan's outstanding and paid state. Principal and
// origin never change after creation.
func (s *SQLiteStorage) UpdateLoan(ctx context.Context, loan *model.Loan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLoan(loan); err != nil {
		return err
	}
	return updateLoanIn(ctx, s.db, loan)
}

func updateLoanIn(ctx context.Context, q querier, loan *model.Loan) error {
	res, err := q.ExecContext(ctx, `
		UPDATE loans SET borrower = ?, outstanding = ?, paid = ?
		WHERE id = ?`,
		loan.Borrower, loan.Outstanding.String(), loan.Paid, loan.ID)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("loan %s: %w", loan.ID, common.ErrNotFound)
	}
	return nil
}
