// Package service defines the interfaces between the orchestration
// layer and the persistence layer.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/model"
)

// LedgerOrder selects the ordering of a ledger listing. Balance
// computation always folds entries in insertion order regardless of the
// listing order requested here.
type LedgerOrder int

// Ledger listing orders.
const (
	// LedgerByDateDesc orders entries newest calendar day first, the
	// display convention.
	LedgerByDateDesc LedgerOrder = iota
	// LedgerByInsertion orders entries by append sequence, the audit
	// view that matches balance chaining.
	LedgerByInsertion
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	BankID    string
	Owner     string
	Limit     int
}

// BankBalance pairs a bank with its derived balance for aggregation.
type BankBalance struct {
	BankID   string
	BankName string
	Balance  decimal.Decimal
}

// DashboardSummary is a best-effort snapshot across all entities. It is
// assembled from unlocked reads and tolerant of concurrent writes.
type DashboardSummary struct {
	Banks           []BankBalance
	TotalBalance    decimal.Decimal
	CardOutstanding decimal.Decimal
	LoanReceivable  decimal.Decimal
	IPOFundsOnHold  decimal.Decimal
	OpenLoans       int
	PendingIPOs     int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Bank operations
	CreateBank(ctx context.Context, bank *model.Bank) error
	GetBank(ctx context.Context, id string) (*model.Bank, error)
	ListBanks(ctx context.Context) ([]model.Bank, error)
	UpdateBank(ctx context.Context, bank *model.Bank) error
	DeleteBank(ctx context.Context, id string) error

	// Ledger operations. AppendLedgerEntry computes the entry's
	// balance-after from the bank's full prior history at call time and
	// fails with a not-found error when the bank does not exist.
	AppendLedgerEntry(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, error)
	ComputeBalance(ctx context.Context, bankID string) (decimal.Decimal, error)
	ListLedgerEntries(ctx context.Context, bankID string, order LedgerOrder) ([]model.LedgerEntry, error)

	// Credit card operations
	CreateCard(ctx context.Context, card *model.CreditCard) error
	GetCard(ctx context.Context, id string) (*model.CreditCard, error)
	ListCards(ctx context.Context) ([]model.CreditCard, error)
	UpdateCard(ctx context.Context, card *model.CreditCard) error
	UpdateCardOutstanding(ctx context.Context, id string, outstanding decimal.Decimal) error
	DeleteCard(ctx context.Context, id string) error

	// Loan operations
	CreateLoan(ctx context.Context, loan *model.Loan) error
	GetLoan(ctx context.Context, id string) (*model.Loan, error)
	ListLoans(ctx context.Context, includePaid bool) ([]model.Loan, error)
	UpdateLoan(ctx context.Context, loan *model.Loan) error

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	// IPO operations
	CreateIPO(ctx context.Context, app *model.IPOApplication) error
	GetIPO(ctx context.Context, id string) (*model.IPOApplication, error)
	ListIPOs(ctx context.Context) ([]model.IPOApplication, error)
	UpdateIPO(ctx context.Context, app *model.IPOApplication) error

	// Person operations
	CreatePerson(ctx context.Context, person *model.Person) error
	GetPersonByName(ctx context.Context, name string) (*model.Person, error)
	ListPersons(ctx context.Context) ([]model.Person, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a storage transaction. All Storage methods invoked on a
// Tx observe and join the same underlying database transaction.
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}
