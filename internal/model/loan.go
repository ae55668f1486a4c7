package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanSource identifies what funded a loan, so repayment can be routed
// back to the right place.
type LoanSource string

// Loan funding sources.
const (
	LoanSourceBank    LoanSource = "bank_expense"
	LoanSourceCard    LoanSource = "credit_card"
	LoanSourceGeneric LoanSource = "generic_expense"
)

// Loan tracks money lent to another party. Loans are spawned
// automatically when an expense names an owner other than self; they
// are never created directly. Paid loans are kept for history.
type Loan struct {
	CreatedAt   time.Time
	ID          string
	Borrower    string
	SourceRef   string
	Source      LoanSource
	Principal   decimal.Decimal
	Outstanding decimal.Decimal
	Paid        bool
}
