package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
)

// CreateCard persists a new credit card.
func (s *SQLiteStorage) CreateCard(ctx context.Context, card *model.CreditCard) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCard(card); err != nil {
		return err
	}
	return createCardIn(ctx, s.db, card)
}

func createCardIn(ctx context.Context, q querier, card *model.CreditCard) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO credit_cards (id, name, credit_limit, outstanding, due_day)
		VALUES (?, ?, ?, ?, ?)`,
		card.ID, card.Name, card.Limit.String(), card.Outstanding.String(), card.DueDay)
	if err != nil {
		return fmt.Errorf("failed to insert credit card: %w", err)
	}
	return nil
}

// GetCard returns a credit card by id.
func (s *SQLiteStorage) GetCard(ctx context.Context, id string) (*model.CreditCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getCardIn(ctx, s.db, id)
}

func getCardIn(ctx context.Context, q querier, id string) (*model.CreditCard, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, credit_limit, outstanding, due_day, created_at
		FROM credit_cards
		WHERE id = ?`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credit card %s: %w", id, common.ErrNotFound)
	}
	return card, err
}

// ListCards returns all credit cards ordered by name.
func (s *SQLiteStorage) ListCards(ctx context.Context) ([]model.CreditCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listCardsIn(ctx, s.db)
}

func listCardsIn(ctx context.Context, q querier) ([]model.CreditCard, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, credit_limit, outstanding, due_day, created_at
		FROM credit_cards
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []model.CreditCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit cards: %w", err)
	}
	return cards, nil
}

func scanCard(row rowScanner) (*model.CreditCard, error) {
	var (
		card                  model.CreditCard
		limitStr, outstandStr string
	)
	if err := row.Scan(&card.ID, &card.Name, &limitStr, &outstandStr, &card.DueDay, &card.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan credit card: %w", err)
	}

	var err error
	if card.Limit, err = parseAmount(limitStr); err != nil {
		return nil, err
	}
	if card.Outstanding, err = parseAmount(outstandStr); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard updates a card's name, limit, and due day. Outstanding is
// only written through UpdateCardOutstanding so spend/pay stay the sole
// mutation paths.
func (s *SQLiteStorage) UpdateCard(ctx context.Context, card *model.CreditCard) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCard(card); err != nil {
		return err
	}
	return updateCardIn(ctx, s.db, card)
}

func updateCardIn(ctx context.Context, q querier, card *model.CreditCard) error {
	res, err := q.ExecContext(ctx, `
		UPDATE credit_cards SET name = ?, credit_limit = ?, due_day = ?
		WHERE id = ?`,
		card.Name, card.Limit.String(), card.DueDay, card.ID)
	if err != nil {
		return fmt.Errorf("failed to update credit card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("credit card %s: %w", card.ID, common.ErrNotFound)
	}
	return nil
}

// UpdateCardOutstanding sets a card's stored outstanding total.
func (s *SQLiteStorage) UpdateCardOutstanding(ctx context.Context, id string, outstanding decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return updateCardOutstandingIn(ctx, s.db, id, outstanding)
}

func updateCardOutstandingIn(ctx context.Context, q querier, id string, outstanding decimal.Decimal) error {
	if outstanding.IsNegative() {
		return fmt.Errorf("%w: outstanding", ErrNegativeAmount)
	}
	res, err := q.ExecContext(ctx, `
		UPDATE credit_cards SET outstanding = ? WHERE id = ?`,
		outstanding.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update outstanding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("credit card %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteCard hard-deletes a credit card. Cards own no ledger entries,
// so there is nothing to cascade.
func (s *SQLiteStorage) DeleteCard(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteCardIn(ctx, s.db, id)
}

func deleteCardIn(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM credit_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credit card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("credit card %s: %w", id, common.ErrNotFound)
	}
	return nil
}
