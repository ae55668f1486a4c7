package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"
)

// CreateCard registers a credit card with zero outstanding.
func (e *Engine) CreateCard(ctx context.Context, name string, limit decimal.Decimal, dueDay int) (*model.CreditCard, error) {
	if limit.IsNegative() {
		return nil, requirePositive(limit, "credit limit")
	}

	card := &model.CreditCard{
		ID:          uuid.NewString(),
		Name:        name,
		Limit:       limit,
		Outstanding: decimal.Zero,
		DueDay:      dueDay,
	}
	if err := e.storage.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	slog.Info("created credit card", "card_id", card.ID, "name", name, "limit", limit)
	return card, nil
}

// GetCard returns a card by id.
func (e *Engine) GetCard(ctx context.Context, id string) (*model.CreditCard, error) {
	return e.storage.GetCard(ctx, id)
}

// ListCards returns all cards.
func (e *Engine) ListCards(ctx context.Context) ([]model.CreditCard, error) {
	return e.storage.ListCards(ctx)
}

// UpdateCard changes a card's name, limit, and due day. Outstanding is
// only ever moved by Spend and Pay.
func (e *Engine) UpdateCard(ctx context.Context, id, name string, limit decimal.Decimal, dueDay int) (*model.CreditCard, error) {
	if limit.IsNegative() {
		return nil, requirePositive(limit, "credit limit")
	}

	unlock := e.cardLocks.lock(id)
	defer unlock()

	card, err := e.storage.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	card.Name = name
	card.Limit = limit
	card.DueDay = dueDay
	if err := e.storage.UpdateCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteCard hard-deletes a card. Cards own no ledger entries, so
// nothing cascades.
func (e *Engine) DeleteCard(ctx context.Context, id string) error {
	unlock := e.cardLocks.lock(id)
	defer unlock()
	return e.storage.DeleteCard(ctx, id)
}

// Spend records a card purchase: outstanding grows by the amount, and
// a non-self owner spawns a loan sourced from the card. No bank ledger
// entry is posted; no bank is debited at purchase time.
func (e *Engine) Spend(ctx context.Context, cardID string, date time.Time, description string, amount decimal.Decimal, owner string) (*model.CreditCard, *model.Loan, error) {
	if err := requirePositive(amount, "amount"); err != nil {
		return nil, nil, err
	}

	unlock := e.cardLocks.lock(cardID)
	defer unlock()

	if owner == "" {
		owner = "Me"
	}

	var (
		card *model.CreditCard
		loan *model.Loan
	)
	err := e.withTx(ctx, func(tx service.Tx) error {
		var err error
		card, err = tx.GetCard(ctx, cardID)
		if err != nil {
			return err
		}

		card.Outstanding = card.Outstanding.Add(amount)
		if card.Outstanding.GreaterThan(card.Limit) {
			slog.Warn("card outstanding exceeds limit",
				"card_id", cardID,
				"outstanding", card.Outstanding,
				"limit", card.Limit)
		}
		if err := tx.UpdateCardOutstanding(ctx, cardID, card.Outstanding); err != nil {
			return err
		}

		self, err := isSelf(ctx, tx, owner)
		if err != nil {
			return err
		}
		if !self {
			loan = &model.Loan{
				ID:          uuid.NewString(),
				Borrower:    owner,
				Principal:   amount,
				Outstanding: amount,
				Source:      model.LoanSourceCard,
				SourceRef:   cardID,
			}
			if err := tx.CreateLoan(ctx, loan); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("recorded card spend",
		"card_id", cardID,
		"date", date.Format("2006-01-02"),
		"description", description,
		"amount", amount,
		"owner", owner,
		"outstanding", card.Outstanding)
	return card, loan, nil
}

// Pay records a payment against a card from a bank. The card's
// outstanding clamps at zero, but the ledger debits the full requested
// amount; the same policy loan repayment follows.
func (e *Engine) Pay(ctx context.Context, cardID, bankID string, date time.Time, amount decimal.Decimal) (*model.CreditCard, *model.LedgerEntry, error) {
	if err := requirePositive(amount, "amount"); err != nil {
		return nil, nil, err
	}

	// Lock order: card before bank, everywhere.
	unlockCard := e.cardLocks.lock(cardID)
	defer unlockCard()
	unlockBank := e.bankLocks.lock(bankID)
	defer unlockBank()

	var (
		card  *model.CreditCard
		entry *model.LedgerEntry
	)
	err := e.withTx(ctx, func(tx service.Tx) error {
		var err error
		card, err = tx.GetCard(ctx, cardID)
		if err != nil {
			return err
		}

		card.Outstanding = decimal.Max(decimal.Zero, card.Outstanding.Sub(amount))
		if err := tx.UpdateCardOutstanding(ctx, cardID, card.Outstanding); err != nil {
			return err
		}

		entry, err = tx.AppendLedgerEntry(ctx, &model.LedgerEntry{
			BankID:      bankID,
			Date:        date,
			Description: "Credit card payment - " + card.Name,
			Debit:       amount,
			RefKind:     model.RefCardPayment,
			RefID:       cardID,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("recorded card payment",
		"card_id", cardID,
		"bank_id", bankID,
		"amount", amount,
		"outstanding", card.Outstanding)
	return card, entry, nil
}
