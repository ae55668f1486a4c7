package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// IPOStatus is the state of an IPO application. APPLIED is the only
// non-terminal state; ALLOTTED and REFUNDED are terminal and mutually
// exclusive.
type IPOStatus string

// IPO application states.
const (
	IPOApplied  IPOStatus = "APPLIED"
	IPOAllotted IPOStatus = "ALLOTTED"
	IPORefunded IPOStatus = "REFUNDED"
)

// Terminal reports whether no further transitions are allowed.
func (s IPOStatus) Terminal() bool {
	return s == IPOAllotted || s == IPORefunded
}

// IPOApplication holds bank funds on a hypothecated basis until the
// allotment outcome is known. Amount is debited from the bank at apply
// time and reconciled back through the ledger on allot (partial refund)
// or refund (full amount).
type IPOApplication struct {
	CreatedAt     time.Time
	AppliedOn     time.Time
	AllottedOn    *time.Time
	SharesAllot   *int64
	ListingPrice  *decimal.Decimal
	ID            string
	Company       string
	BankID        string
	Status        IPOStatus
	Amount        decimal.Decimal
	IssuePrice    decimal.Decimal
	SharesApplied int64
}
