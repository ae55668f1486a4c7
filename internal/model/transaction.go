package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a recorded bank expense. Creating one always posts a
// ledger debit against BankID, and spawns a loan when Owner is not the
// self person. LoanID is set at creation time and immutable afterward.
type Transaction struct {
	CreatedAt   time.Time
	Date        time.Time
	ID          string
	Description string
	Owner       string
	BankID      string
	LoanID      string
	Amount      decimal.Decimal
}
