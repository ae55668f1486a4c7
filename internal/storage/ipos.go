package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
)

// CreateIPO persists a new IPO application.
func (s *SQLiteStorage) CreateIPO(ctx context.Context, app *model.IPOApplication) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateIPO(app); err != nil {
		return err
	}
	return createIPOIn(ctx, s.db, app)
}

func createIPOIn(ctx context.Context, q querier, app *model.IPOApplication) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ipo_applications (id, company, applied_on, amount, shares_applied, issue_price, bank_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.Company, dateValue(app.AppliedOn), app.Amount.String(),
		app.SharesApplied, app.IssuePrice.String(), app.BankID, string(app.Status))
	if err != nil {
		return fmt.Errorf("failed to insert ipo application: %w", err)
	}
	return nil
}

// GetIPO returns an IPO application by id.
func (s *SQLiteStorage) GetIPO(ctx context.Context, id string) (*model.IPOApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getIPOIn(ctx, s.db, id)
}

func getIPOIn(ctx context.Context, q querier, id string) (*model.IPOApplication, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, company, applied_on, allotted_on, amount, shares_applied, issue_price,
		       bank_id, status, shares_allotted, listing_price, created_at
		FROM ipo_applications
		WHERE id = ?`, id)
	app, err := scanIPO(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ipo application %s: %w", id, common.ErrNotFound)
	}
	return app, err
}

// ListIPOs returns all applications, pending first, then newest first.
func (s *SQLiteStorage) ListIPOs(ctx context.Context) ([]model.IPOApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listIPOsIn(ctx, s.db)
}

func listIPOsIn(ctx context.Context, q querier) ([]model.IPOApplication, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, company, applied_on, allotted_on, amount, shares_applied, issue_price,
		       bank_id, status, shares_allotted, listing_price, created_at
		FROM ipo_applications
		ORDER BY CASE status WHEN 'APPLIED' THEN 0 ELSE 1 END, applied_on DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ipo applications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var apps []model.IPOApplication
	for rows.Next() {
		app, err := scanIPO(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ipo applications: %w", err)
	}
	return apps, nil
}

func scanIPO(row rowScanner) (*model.IPOApplication, error) {
	var (
		app                    model.IPOApplication
		appliedStr, statusStr  string
		amountStr, priceStr    string
		allottedOn, listingStr sql.NullString
		sharesAllot            sql.NullInt64
	)
	if err := row.Scan(&app.ID, &app.Company, &appliedStr, &allottedOn, &amountStr,
		&app.SharesApplied, &priceStr, &app.BankID, &statusStr, &sharesAllot,
		&listingStr, &app.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan ipo application: %w", err)
	}

	var err error
	if app.AppliedOn, err = parseDate(appliedStr); err != nil {
		return nil, err
	}
	if allottedOn.Valid {
		d, err := parseDate(allottedOn.String)
		if err != nil {
			return nil, err
		}
		app.AllottedOn = &d
	}
	if app.Amount, err = parseAmount(amountStr); err != nil {
		return nil, err
	}
	if app.IssuePrice, err = parseAmount(priceStr); err != nil {
		return nil, err
	}
	if listingStr.Valid {
		p, err := parseAmount(listingStr.String)
		if err != nil {
			return nil, err
		}
		app.ListingPrice = &p
	}
	if sharesAllot.Valid {
		n := sharesAllot.Int64
		app.SharesAllot = &n
	}
	app.Status = model.IPOStatus(statusStr)
	return &app, nil
}

// UpdateIPO writes the mutable outcome fields of an application. The
// applied amount, bank, and company never change.
func (s *SQLiteStorage) UpdateIPO(ctx context.Context, app *model.IPOApplication) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateIPO(app); err != nil {
		return err
	}
	return updateIPOIn(ctx, s.db, app)
}

func updateIPOIn(ctx context.Context, q querier, app *model.IPOApplication) error {
	var (
		allottedOn  any
		sharesAllot any
		listing     any
	)
	if app.AllottedOn != nil {
		allottedOn = dateValue(*app.AllottedOn)
	}
	if app.SharesAllot != nil {
		sharesAllot = *app.SharesAllot
	}
	if app.ListingPrice != nil {
		listing = app.ListingPrice.String()
	}

	res, err := q.ExecContext(ctx, `
		UPDATE ipo_applications
		SET status = ?, allotted_on = ?, shares_allotted = ?, listing_price = ?
		WHERE id = ?`,
		string(app.Status), allottedOn, sharesAllot, listing, app.ID)
	if err != nil {
		return fmt.Errorf("failed to update ipo application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ipo application %s: %w", app.ID, common.ErrNotFound)
	}
	return nil
}
