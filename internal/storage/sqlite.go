package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// querier is satisfied by both *sql.DB and *sql.Tx so every query
// helper can run standalone or inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Tx, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{tx: tx, storage: s}, nil
}

// sqliteTx wraps sql.Tx to implement service.Tx. Every Storage method
// on it runs against the wrapped transaction.
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) CreateBank(ctx context.Context, bank *model.Bank) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBank(bank); err != nil {
		return err
	}
	return createBankIn(ctx, t.tx, bank)
}

func (t *sqliteTx) GetBank(ctx context.Context, id string) (*model.Bank, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getBankIn(ctx, t.tx, id)
}

func (t *sqliteTx) ListBanks(ctx context.Context) ([]model.Bank, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listBanksIn(ctx, t.tx)
}

func (t *sqliteTx) UpdateBank(ctx context.Context, bank *model.Bank) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBank(bank); err != nil {
		return err
	}
	return updateBankIn(ctx, t.tx, bank)
}

func (t *sqliteTx) DeleteBank(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteBankIn(ctx, t.tx, id)
}

func (t *sqliteTx) AppendLedgerEntry(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLedgerEntry(entry); err != nil {
		return nil, err
	}
	return appendLedgerEntryIn(ctx, t.tx, entry)
}

func (t *sqliteTx) ComputeBalance(ctx context.Context, bankID string) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(bankID, "bankID"); err != nil {
		return decimal.Zero, err
	}
	return computeBalanceIn(ctx, t.tx, bankID)
}

func (t *sqliteTx) ListLedgerEntries(ctx context.Context, bankID string, order service.LedgerOrder) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(bankID, "bankID"); err != nil {
		return nil, err
	}
	return listLedgerEntriesIn(ctx, t.tx, bankID, order)
}

func (t *sqliteTx) CreateCard(ctx context.Context, card *model.CreditCard) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCard(card); err != nil {
		return err
	}
	return createCardIn(ctx, t.tx, card)
}

func (t *sqliteTx) GetCard(ctx context.Context, id string) (*model.CreditCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getCardIn(ctx, t.tx, id)
}

func (t *sqliteTx) ListCards(ctx context.Context) ([]model.CreditCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listCardsIn(ctx, t.tx)
}

func (t *sqliteTx) UpdateCard(ctx context.Context, card *model.CreditCard) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCard(card); err != nil {
		return err
	}
	return updateCardIn(ctx, t.tx, card)
}

func (t *sqliteTx) UpdateCardOutstanding(ctx context.Context, id string, outstanding decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return updateCardOutstandingIn(ctx, t.tx, id, outstanding)
}

func (t *sqliteTx) DeleteCard(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteCardIn(ctx, t.tx, id)
}

func (t *sqliteTx) CreateLoan(ctx context.Context, loan *model.Loan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLoan(loan); err != nil {
		return err
	}
	return createLoanIn(ctx, t.tx, loan)
}

func (t *sqliteTx) GetLoan(ctx context.Context, id string) (*model.Loan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getLoanIn(ctx, t.tx, id)
}

func (t *sqliteTx) ListLoans(ctx context.Context, includePaid bool) ([]model.Loan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listLoansIn(ctx, t.tx, includePaid)
}

func (t *sqliteTx) UpdateLoan(ctx context.Context, loan *model.Loan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLoan(loan); err != nil {
		return err
	}
	return updateLoanIn(ctx, t.tx, loan)
}

func (t *sqliteTx) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return createTransactionIn(ctx, t.tx, txn)
}

func (t *sqliteTx) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getTransactionIn(ctx, t.tx, id)
}

func (t *sqliteTx) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listTransactionsIn(ctx, t.tx, filter)
}

func (t *sqliteTx) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return updateTransactionIn(ctx, t.tx, txn)
}

func (t *sqliteTx) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteTransactionIn(ctx, t.tx, id)
}

func (t *sqliteTx) CreateIPO(ctx context.Context, app *model.IPOApplication) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateIPO(app); err != nil {
		return err
	}
	return createIPOIn(ctx, t.tx, app)
}

func (t *sqliteTx) GetIPO(ctx context.Context, id string) (*model.IPOApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getIPOIn(ctx, t.tx, id)
}

func (t *sqliteTx) ListIPOs(ctx context.Context) ([]model.IPOApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listIPOsIn(ctx, t.tx)
}

func (t *sqliteTx) UpdateIPO(ctx context.Context, app *model.IPOApplication) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateIPO(app); err != nil {
		return err
	}
	return updateIPOIn(ctx, t.tx, app)
}

func (t *sqliteTx) CreatePerson(ctx context.Context, person *model.Person) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePerson(person); err != nil {
		return err
	}
	return createPersonIn(ctx, t.tx, person)
}

func (t *sqliteTx) GetPersonByName(ctx context.Context, name string) (*model.Person, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getPersonByNameIn(ctx, t.tx, name)
}

func (t *sqliteTx) ListPersons(ctx context.Context) ([]model.Person, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listPersonsIn(ctx, t.tx)
}

func (t *sqliteTx) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTx) BeginTx(_ context.Context) (service.Tx, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTx) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}

// dateValue formats a calendar day for storage.
func dateValue(d time.Time) string {
	return d.Format("2006-01-02")
}

// parseDate parses a stored calendar day.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return d, nil
}

// parseAmount parses a stored decimal amount.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return d, nil
}
