// Package engine implements the ledger consistency engine: the
// orchestrators that keep bank balances, card outstandings, and
// auto-spawned loans mutually consistent as operations are recorded.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/service"
)

// Engine orchestrates all balance-affecting writes. Collaborators
// (CLI, bot, importers) never touch storage directly for anything that
// moves money; they go through these operations.
type Engine struct {
	storage   service.Storage
	bankLocks keyedMutex
	cardLocks keyedMutex
	loanLocks keyedMutex
}

// New creates an engine over the given storage.
func New(storage service.Storage) *Engine {
	return &Engine{storage: storage}
}

// withTx runs fn inside a single storage transaction so a multi-step
// orchestrator call either fully persists or not at all.
func (e *Engine) withTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// requirePositive validates an amount that must be strictly positive.
func requirePositive(amount decimal.Decimal, what string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", common.ErrInvalidAmount, what, amount)
	}
	return nil
}

// selfNames are owner spellings that always mean the primary user,
// independent of the persons registry.
var selfNames = map[string]bool{
	"":       true,
	"me":     true,
	"self":   true,
	"myself": true,
}

// isSelf reports whether the named expense owner is the primary user.
// Unknown names are treated as other parties, so they spawn loans.
func isSelf(ctx context.Context, store service.Storage, owner string) (bool, error) {
	if selfNames[strings.ToLower(strings.TrimSpace(owner))] {
		return true, nil
	}

	person, err := store.GetPersonByName(ctx, owner)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return person.Self, nil
}
