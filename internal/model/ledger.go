package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceKind tags a ledger entry with the operation that produced it.
type ReferenceKind string

// Reference kinds for ledger entries.
const (
	RefOpeningBalance      ReferenceKind = "opening_balance"
	RefTransaction         ReferenceKind = "transaction"
	RefTransactionReversal ReferenceKind = "transaction_reversal"
	RefCardPayment         ReferenceKind = "cc_payment"
	RefIPOApply            ReferenceKind = "ipo_apply"
	RefIPORefund           ReferenceKind = "ipo_refund"
	RefLoanRepayment       ReferenceKind = "loan_repayment"
)

// Valid reports whether k is a known reference kind.
func (k ReferenceKind) Valid() bool {
	switch k {
	case RefOpeningBalance, RefTransaction, RefTransactionReversal,
		RefCardPayment, RefIPOApply, RefIPORefund, RefLoanRepayment:
		return true
	}
	return false
}

// LedgerEntry is one dated, immutable record of money moving into or
// out of a bank account. BalanceAfter is the running balance snapshot
// taken at insertion time; entries chain in insertion order (Seq), not
// date order. Entries are append-only: they are never edited, and the
// only delete path is the cascade when the owning bank is deleted.
type LedgerEntry struct {
	CreatedAt    time.Time
	Date         time.Time
	ID           string
	BankID       string
	Description  string
	RefID        string
	RefKind      ReferenceKind
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	BalanceAfter decimal.Decimal
	Seq          int64
}
