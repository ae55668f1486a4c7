package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"
)

// TransactionParams describes an expense to record against a bank.
type TransactionParams struct {
	Date        time.Time
	Description string
	Owner       string
	BankID      string
	Amount      decimal.Decimal
}

// CreateTransaction records an expense. When the owner is not the self
// person a loan is spawned for the full amount, sourced from the bank;
// either way exactly one ledger debit is posted. The three writes
// happen in one storage transaction under the bank's lock.
func (e *Engine) CreateTransaction(ctx context.Context, params TransactionParams) (*model.Transaction, error) {
	if err := requirePositive(params.Amount, "amount"); err != nil {
		return nil, err
	}

	unlock := e.bankLocks.lock(params.BankID)
	defer unlock()

	owner := params.Owner
	if owner == "" {
		owner = "Me"
	}

	txn := &model.Transaction{
		ID:          uuid.NewString(),
		Date:        params.Date,
		Description: params.Description,
		Amount:      params.Amount,
		Owner:       owner,
		BankID:      params.BankID,
	}

	err := e.withTx(ctx, func(tx service.Tx) error {
		// Verify the bank before any write so nothing dangles.
		if _, err := tx.GetBank(ctx, params.BankID); err != nil {
			return err
		}

		self, err := isSelf(ctx, tx, owner)
		if err != nil {
			return err
		}
		if !self {
			loan := &model.Loan{
				ID:          uuid.NewString(),
				Borrower:    owner,
				Principal:   params.Amount,
				Outstanding: params.Amount,
				Source:      model.LoanSourceBank,
				SourceRef:   params.BankID,
			}
			if err := tx.CreateLoan(ctx, loan); err != nil {
				return err
			}
			txn.LoanID = loan.ID
		}

		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		_, err = tx.AppendLedgerEntry(ctx, &model.LedgerEntry{
			BankID:      params.BankID,
			Date:        params.Date,
			Description: params.Description,
			Debit:       params.Amount,
			RefKind:     model.RefTransaction,
			RefID:       txn.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("recorded transaction",
		"txn_id", txn.ID,
		"bank_id", txn.BankID,
		"amount", txn.Amount,
		"owner", txn.Owner,
		"loan_id", txn.LoanID)
	return txn, nil
}

// UpdateTransaction edits the date and description of a transaction.
// Amount, bank, owner, and loan linkage are immutable once the ledger
// entry is posted; re-recording is the way to change those.
func (e *Engine) UpdateTransaction(ctx context.Context, id string, date time.Time, description string) (*model.Transaction, error) {
	txn, err := e.storage.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !date.IsZero() {
		txn.Date = date
	}
	txn.Description = description
	if err := e.storage.UpdateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// DeleteTransaction removes a transaction and posts a compensating
// credit for its ledger debit, keeping the running balance auditable.
// A spawned loan must still be untouched; it is written off along with
// the delete. A partially or fully repaid loan blocks the delete.
func (e *Engine) DeleteTransaction(ctx context.Context, id string) error {
	txn, err := e.storage.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	unlock := e.bankLocks.lock(txn.BankID)
	defer unlock()

	err = e.withTx(ctx, func(tx service.Tx) error {
		txn, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}

		if txn.LoanID != "" {
			loan, err := tx.GetLoan(ctx, txn.LoanID)
			if err != nil {
				return err
			}
			if loan.Paid || !loan.Outstanding.Equal(loan.Principal) {
				return fmt.Errorf("%w: loan %s has repayments recorded", common.ErrConstraintViolation, loan.ID)
			}
			loan.Outstanding = decimal.Zero
			loan.Paid = true
			if err := tx.UpdateLoan(ctx, loan); err != nil {
				return err
			}
		}

		if _, err := tx.AppendLedgerEntry(ctx, &model.LedgerEntry{
			BankID:      txn.BankID,
			Date:        txn.Date,
			Description: "Reversal: " + txn.Description,
			Credit:      txn.Amount,
			RefKind:     model.RefTransactionReversal,
			RefID:       txn.ID,
		}); err != nil {
			return err
		}

		return tx.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.Info("deleted transaction with reversal", "txn_id", id, "bank_id", txn.BankID, "amount", txn.Amount)
	return nil
}

// ListTransactions returns recorded transactions, newest first.
func (e *Engine) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	return e.storage.ListTransactions(ctx, filter)
}
