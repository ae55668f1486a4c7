package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"
)

// ListLoans returns loans, open ones unless includePaid is set.
func (e *Engine) ListLoans(ctx context.Context, includePaid bool) ([]model.Loan, error) {
	return e.storage.ListLoans(ctx, includePaid)
}

// GetLoan returns a loan by id.
func (e *Engine) GetLoan(ctx context.Context, id string) (*model.Loan, error) {
	return e.storage.GetLoan(ctx, id)
}

// Repay records a repayment received into a bank. The loan's
// outstanding clamps at zero and the paid flag follows it, while the
// ledger credits the full requested amount; this mirrors the card
// payment policy.
func (e *Engine) Repay(ctx context.Context, loanID, bankID string, date time.Time, amount decimal.Decimal) (*model.Loan, *model.LedgerEntry, error) {
	if err := requirePositive(amount, "amount"); err != nil {
		return nil, nil, err
	}

	// Lock order: loan before bank, everywhere.
	unlockLoan := e.loanLocks.lock(loanID)
	defer unlockLoan()
	unlockBank := e.bankLocks.lock(bankID)
	defer unlockBank()

	var (
		loan  *model.Loan
		entry *model.LedgerEntry
	)
	err := e.withTx(ctx, func(tx service.Tx) error {
		var err error
		loan, err = tx.GetLoan(ctx, loanID)
		if err != nil {
			return err
		}

		loan.Outstanding = decimal.Max(decimal.Zero, loan.Outstanding.Sub(amount))
		loan.Paid = loan.Outstanding.IsZero()
		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return err
		}

		entry, err = tx.AppendLedgerEntry(ctx, &model.LedgerEntry{
			BankID:      bankID,
			Date:        date,
			Description: "Loan repayment - " + loan.Borrower,
			Credit:      amount,
			RefKind:     model.RefLoanRepayment,
			RefID:       loanID,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("recorded loan repayment",
		"loan_id", loanID,
		"bank_id", bankID,
		"amount", amount,
		"outstanding", loan.Outstanding,
		"paid", loan.Paid)
	return loan, entry, nil
}

// Close writes a loan off: outstanding zero, paid set, and no ledger
// entry. This is the administrative path, distinct from Repay.
func (e *Engine) Close(ctx context.Context, loanID string) (*model.Loan, error) {
	unlock := e.loanLocks.lock(loanID)
	defer unlock()

	loan, err := e.storage.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	loan.Outstanding = decimal.Zero
	loan.Paid = true
	if err := e.storage.UpdateLoan(ctx, loan); err != nil {
		return nil, err
	}

	slog.Info("closed loan without repayment", "loan_id", loanID, "borrower", loan.Borrower)
	return loan, nil
}
