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

// CreateBank registers a bank account. A positive opening balance
// seeds one opening_balance credit entry dated the given day; zero
// skips the seed entirely.
func (e *Engine) CreateBank(ctx context.Context, name, accountNumber string, openingBalance decimal.Decimal, openedOn time.Time) (*model.Bank, error) {
	if openingBalance.IsNegative() {
		return nil, requirePositive(openingBalance, "opening balance")
	}

	bank := &model.Bank{
		ID:            uuid.NewString(),
		Name:          name,
		AccountNumber: accountNumber,
	}

	err := e.withTx(ctx, func(tx service.Tx) error {
		if err := tx.CreateBank(ctx, bank); err != nil {
			return err
		}
		if openingBalance.IsZero() {
			return nil
		}
		_, err := tx.AppendLedgerEntry(ctx, &model.LedgerEntry{
			BankID:      bank.ID,
			Date:        openedOn,
			Description: "Opening balance",
			Credit:      openingBalance,
			RefKind:     model.RefOpeningBalance,
			RefID:       bank.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	bank.Balance = openingBalance
	slog.Info("created bank", "bank_id", bank.ID, "name", name, "opening_balance", openingBalance)
	return bank, nil
}

// GetBank returns a bank with its balance freshly computed from the
// ledger. The balance is never cached.
func (e *Engine) GetBank(ctx context.Context, id string) (*model.Bank, error) {
	bank, err := e.storage.GetBank(ctx, id)
	if err != nil {
		return nil, err
	}
	bank.Balance, err = e.storage.ComputeBalance(ctx, id)
	if err != nil {
		return nil, err
	}
	return bank, nil
}

// ListBanks returns all banks, each augmented with a computed balance.
func (e *Engine) ListBanks(ctx context.Context) ([]model.Bank, error) {
	banks, err := e.storage.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range banks {
		banks[i].Balance, err = e.storage.ComputeBalance(ctx, banks[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return banks, nil
}

// UpdateBank changes a bank's display fields. Balance is not a stored
// field and cannot be updated.
func (e *Engine) UpdateBank(ctx context.Context, id, name, accountNumber string) (*model.Bank, error) {
	bank, err := e.storage.GetBank(ctx, id)
	if err != nil {
		return nil, err
	}
	bank.Name = name
	bank.AccountNumber = accountNumber
	if err := e.storage.UpdateBank(ctx, bank); err != nil {
		return nil, err
	}
	return e.GetBank(ctx, id)
}

// DeleteBank hard-deletes a bank and cascades its ledger entries.
// Collaborators must warn the user before calling; there is no undo.
func (e *Engine) DeleteBank(ctx context.Context, id string) error {
	unlock := e.bankLocks.lock(id)
	defer unlock()

	if err := e.storage.DeleteBank(ctx, id); err != nil {
		return err
	}
	slog.Warn("deleted bank and its ledger history", "bank_id", id)
	return nil
}

// Ledger lists a bank's entries, date-descending by default.
func (e *Engine) Ledger(ctx context.Context, bankID string, order service.LedgerOrder) ([]model.LedgerEntry, error) {
	return e.storage.ListLedgerEntries(ctx, bankID, order)
}

// AddPerson registers a named party for owner resolution.
func (e *Engine) AddPerson(ctx context.Context, name string, self bool) (*model.Person, error) {
	person := &model.Person{
		ID:   uuid.NewString(),
		Name: name,
		Self: self,
	}
	if err := e.storage.CreatePerson(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

// ListPersons returns the persons registry, self first.
func (e *Engine) ListPersons(ctx context.Context) ([]model.Person, error) {
	return e.storage.ListPersons(ctx)
}
