// Package model defines the core domain types for hisab.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bank represents a bank account. Balance is never stored; it is
// derived from the ledger at read time and populated on the struct by
// whoever loaded it.
type Bank struct {
	CreatedAt     time.Time
	ID            string
	Name          string
	AccountNumber string
	Balance       decimal.Decimal
}
