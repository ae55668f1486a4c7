// Package storage provides the SQLite persistence layer for hisab.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hisablabs/hisab/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrInvalidEntry       = errors.New("invalid ledger entry")
	ErrInvalidBank        = errors.New("invalid bank")
	ErrInvalidCard        = errors.New("invalid credit card")
	ErrInvalidLoan        = errors.New("invalid loan")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidIPO         = errors.New("invalid ipo application")
	ErrInvalidPerson      = errors.New("invalid person")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateBank(bank *model.Bank) error {
	if bank == nil {
		return fmt.Errorf("%w: bank", ErrNilParameter)
	}
	if bank.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBank)
	}
	if strings.TrimSpace(bank.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidBank)
	}
	return nil
}

// validateLedgerEntry checks the fields the caller must supply. The
// balance snapshot, id, and sequence are assigned at append time.
func validateLedgerEntry(entry *model.LedgerEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if entry.BankID == "" {
		return fmt.Errorf("%w: missing bank ID", ErrInvalidEntry)
	}
	if entry.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidEntry)
	}
	if !entry.RefKind.Valid() {
		return fmt.Errorf("%w: unknown reference kind %q", ErrInvalidEntry, entry.RefKind)
	}
	if entry.Debit.IsNegative() || entry.Credit.IsNegative() {
		return fmt.Errorf("%w: debit and credit must be >= 0", ErrInvalidEntry)
	}
	return nil
}

func validateCard(card *model.CreditCard) error {
	if card == nil {
		return fmt.Errorf("%w: card", ErrNilParameter)
	}
	if card.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCard)
	}
	if strings.TrimSpace(card.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCard)
	}
	if card.Limit.IsNegative() {
		return fmt.Errorf("%w: negative credit limit", ErrInvalidCard)
	}
	if card.Outstanding.IsNegative() {
		return fmt.Errorf("%w: negative outstanding", ErrInvalidCard)
	}
	if card.DueDay < 0 || card.DueDay > 31 {
		return fmt.Errorf("%w: due day %d out of range", ErrInvalidCard, card.DueDay)
	}
	return nil
}

func validateLoan(loan *model.Loan) error {
	if loan == nil {
		return fmt.Errorf("%w: loan", ErrNilParameter)
	}
	if loan.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidLoan)
	}
	if strings.TrimSpace(loan.Borrower) == "" {
		return fmt.Errorf("%w: missing borrower", ErrInvalidLoan)
	}
	if loan.Principal.IsNegative() || loan.Outstanding.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidLoan)
	}
	switch loan.Source {
	case model.LoanSourceBank, model.LoanSourceCard, model.LoanSourceGeneric:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidLoan, loan.Source)
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.BankID == "" {
		return fmt.Errorf("%w: missing bank ID", ErrInvalidTransaction)
	}
	if txn.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidTransaction)
	}
	return nil
}

func validateIPO(app *model.IPOApplication) error {
	if app == nil {
		return fmt.Errorf("%w: application", ErrNilParameter)
	}
	if app.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidIPO)
	}
	if strings.TrimSpace(app.Company) == "" {
		return fmt.Errorf("%w: missing company", ErrInvalidIPO)
	}
	if app.BankID == "" {
		return fmt.Errorf("%w: missing bank ID", ErrInvalidIPO)
	}
	if app.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidIPO)
	}
	switch app.Status {
	case model.IPOApplied, model.IPOAllotted, model.IPORefunded:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidIPO, app.Status)
	}
	return nil
}

func validatePerson(person *model.Person) error {
	if person == nil {
		return fmt.Errorf("%w: person", ErrNilParameter)
	}
	if person.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidPerson)
	}
	if strings.TrimSpace(person.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPerson)
	}
	return nil
}
