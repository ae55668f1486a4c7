package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditCard represents a credit card account. Unlike a bank balance,
// Outstanding is a stored running total mutated directly by spend and
// pay operations; it is clamped so it never goes negative.
type CreditCard struct {
	CreatedAt   time.Time
	ID          string
	Name        string
	Limit       decimal.Decimal
	Outstanding decimal.Decimal
	DueDay      int
}

// Available returns the credit still usable on the card.
func (c *CreditCard) Available() decimal.Decimal {
	return c.Limit.Sub(c.Outstanding)
}
