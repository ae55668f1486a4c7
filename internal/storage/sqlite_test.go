package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func testBank(id, name string) *model.Bank {
	return &model.Bank{
		ID:            id,
		Name:          name,
		AccountNumber: "0001",
	}
}

func testDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSQLiteStorage_BankCRUD(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	bank := testBank("bank1", "HDFC")
	if err := store.CreateBank(ctx, bank); err != nil {
		t.Fatalf("Failed to create bank: %v", err)
	}

	got, err := store.GetBank(ctx, "bank1")
	if err != nil {
		t.Fatalf("Failed to get bank: %v", err)
	}
	if got.Name != "HDFC" || got.AccountNumber != "0001" {
		t.Errorf("Got bank %+v, want name HDFC account 0001", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}

	got.Name = "HDFC Salary"
	if err := store.UpdateBank(ctx, got); err != nil {
		t.Fatalf("Failed to update bank: %v", err)
	}
	got, err = store.GetBank(ctx, "bank1")
	if err != nil {
		t.Fatalf("Failed to re-get bank: %v", err)
	}
	if got.Name != "HDFC Salary" {
		t.Errorf("Got name %q after update, want HDFC Salary", got.Name)
	}

	if err := store.DeleteBank(ctx, "bank1"); err != nil {
		t.Fatalf("Failed to delete bank: %v", err)
	}
	if _, err := store.GetBank(ctx, "bank1"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Got err %v after delete, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_GetBankNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetBank(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Got err %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_UpdateBankNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	err := store.UpdateBank(context.Background(), testBank("missing", "Ghost"))
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Got err %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_DeleteBankCascadesLedger(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.CreateBank(ctx, testBank("bank1", "HDFC")); err != nil {
		t.Fatalf("Failed to create bank: %v", err)
	}
	_, err := store.AppendLedgerEntry(ctx, &model.LedgerEntry{
		BankID:  "bank1",
		Date:    testDate("2024-01-01"),
		Credit:  decimal.NewFromInt(1000),
		RefKind: model.RefOpeningBalance,
		RefID:   "bank1",
	})
	if err != nil {
		t.Fatalf("Failed to append entry: %v", err)
	}

	if err := store.DeleteBank(ctx, "bank1"); err != nil {
		t.Fatalf("Failed to delete bank: %v", err)
	}

	var count int
	row := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bank_ledger WHERE bank_id = ?`, "bank1")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Failed to count entries: %v", err)
	}
	if count != 0 {
		t.Errorf("Got %d ledger entries after bank delete, want 0", count)
	}
}

func TestSQLiteStorage_TransactionCommitAndRollback(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	// Rolled-back writes must not persist.
	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	if err := tx.CreateBank(ctx, testBank("bank1", "HDFC")); err != nil {
		t.Fatalf("Failed to create bank in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to rollback: %v", err)
	}
	if _, err := store.GetBank(ctx, "bank1"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Got err %v after rollback, want ErrNotFound", err)
	}

	// Committed writes must persist.
	tx, err = store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	if err := tx.CreateBank(ctx, testBank("bank1", "HDFC")); err != nil {
		t.Fatalf("Failed to create bank in tx: %v", err)
	}
	if _, err := tx.AppendLedgerEntry(ctx, &model.LedgerEntry{
		BankID:  "bank1",
		Date:    testDate("2024-01-01"),
		Credit:  decimal.NewFromInt(500),
		RefKind: model.RefOpeningBalance,
		RefID:   "bank1",
	}); err != nil {
		t.Fatalf("Failed to append in tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	balance, err := store.ComputeBalance(ctx, "bank1")
	if err != nil {
		t.Fatalf("Failed to compute balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Got balance %s, want 500", balance)
	}
}

func TestSQLiteStorage_CardCRUD(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	card := &model.CreditCard{
		ID:          "card1",
		Name:        "Axis",
		Limit:       decimal.NewFromInt(50000),
		Outstanding: decimal.Zero,
		DueDay:      5,
	}
	if err := store.CreateCard(ctx, card); err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}

	if err := store.UpdateCardOutstanding(ctx, "card1", decimal.NewFromInt(2000)); err != nil {
		t.Fatalf("Failed to update outstanding: %v", err)
	}

	got, err := store.GetCard(ctx, "card1")
	if err != nil {
		t.Fatalf("Failed to get card: %v", err)
	}
	if !got.Outstanding.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("Got outstanding %s, want 2000", got.Outstanding)
	}
	if !got.Available().Equal(decimal.NewFromInt(48000)) {
		t.Errorf("Got available %s, want 48000", got.Available())
	}

	if err := store.DeleteCard(ctx, "card1"); err != nil {
		t.Fatalf("Failed to delete card: %v", err)
	}
	if _, err := store.GetCard(ctx, "card1"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Got err %v after delete, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_LoanListFiltersPaid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	open := &model.Loan{
		ID:          "loan1",
		Borrower:    "Raj",
		Principal:   decimal.NewFromInt(300),
		Outstanding: decimal.NewFromInt(300),
		Source:      model.LoanSourceBank,
		SourceRef:   "bank1",
	}
	paid := &model.Loan{
		ID:          "loan2",
		Borrower:    "Priya",
		Principal:   decimal.NewFromInt(100),
		Outstanding: decimal.Zero,
		Paid:        true,
		Source:      model.LoanSourceCard,
		SourceRef:   "card1",
	}
	for _, loan := range []*model.Loan{open, paid} {
		if err := store.CreateLoan(ctx, loan); err != nil {
			t.Fatalf("Failed to create loan %s: %v", loan.ID, err)
		}
	}

	openOnly, err := store.ListLoans(ctx, false)
	if err != nil {
		t.Fatalf("Failed to list open loans: %v", err)
	}
	if len(openOnly) != 1 || openOnly[0].ID != "loan1" {
		t.Errorf("Got %d open loans, want just loan1", len(openOnly))
	}

	all, err := store.ListLoans(ctx, true)
	if err != nil {
		t.Fatalf("Failed to list all loans: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Got %d loans, want 2", len(all))
	}
}

func TestSQLiteStorage_TransactionFilters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, bank := range []string{"bank1", "bank2"} {
		if err := store.CreateBank(ctx, testBank(bank, bank)); err != nil {
			t.Fatalf("Failed to create %s: %v", bank, err)
		}
	}

	txns := []*model.Transaction{
		{ID: "t1", Date: testDate("2024-01-05"), Description: "a", Owner: "Me", BankID: "bank1", Amount: decimal.NewFromInt(10)},
		{ID: "t2", Date: testDate("2024-02-05"), Description: "b", Owner: "Raj", BankID: "bank1", Amount: decimal.NewFromInt(20)},
		{ID: "t3", Date: testDate("2024-03-05"), Description: "c", Owner: "Me", BankID: "bank2", Amount: decimal.NewFromInt(30)},
	}
	for _, txn := range txns {
		if err := store.CreateTransaction(ctx, txn); err != nil {
			t.Fatalf("Failed to create %s: %v", txn.ID, err)
		}
	}

	start := testDate("2024-02-01")
	end := testDate("2024-02-28")

	tests := []struct {
		name    string
		filter  service.TransactionFilter
		wantIDs []string
	}{
		{name: "no filter returns newest first", filter: service.TransactionFilter{}, wantIDs: []string{"t3", "t2", "t1"}},
		{name: "by bank", filter: service.TransactionFilter{BankID: "bank1"}, wantIDs: []string{"t2", "t1"}},
		{name: "by owner", filter: service.TransactionFilter{Owner: "Raj"}, wantIDs: []string{"t2"}},
		{name: "by date range", filter: service.TransactionFilter{StartDate: &start, EndDate: &end}, wantIDs: []string{"t2"}},
		{name: "with limit", filter: service.TransactionFilter{Limit: 2}, wantIDs: []string{"t3", "t2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Failed to list: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Got %d transactions, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("Position %d: got %s, want %s", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestSQLiteStorage_IPORoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	app := &model.IPOApplication{
		ID:            "ipo1",
		Company:       "X",
		BankID:        "bank1",
		AppliedOn:     testDate("2024-03-01"),
		Amount:        decimal.NewFromInt(10000),
		IssuePrice:    decimal.NewFromInt(100),
		SharesApplied: 100,
		Status:        model.IPOApplied,
	}
	if err := store.CreateIPO(ctx, app); err != nil {
		t.Fatalf("Failed to create ipo: %v", err)
	}

	got, err := store.GetIPO(ctx, "ipo1")
	if err != nil {
		t.Fatalf("Failed to get ipo: %v", err)
	}
	if got.Status != model.IPOApplied {
		t.Errorf("Got status %s, want APPLIED", got.Status)
	}
	if got.SharesAllot != nil || got.AllottedOn != nil || got.ListingPrice != nil {
		t.Error("Expected nullable allotment fields to be nil before allotment")
	}

	shares := int64(60)
	allottedOn := testDate("2024-03-10")
	price := decimal.RequireFromString("132.50")
	got.Status = model.IPOAllotted
	got.SharesAllot = &shares
	got.AllottedOn = &allottedOn
	got.ListingPrice = &price
	if err := store.UpdateIPO(ctx, got); err != nil {
		t.Fatalf("Failed to update ipo: %v", err)
	}

	got, err = store.GetIPO(ctx, "ipo1")
	if err != nil {
		t.Fatalf("Failed to re-get ipo: %v", err)
	}
	if got.Status != model.IPOAllotted {
		t.Errorf("Got status %s, want ALLOTTED", got.Status)
	}
	if got.SharesAllot == nil || *got.SharesAllot != 60 {
		t.Errorf("Got shares allot %v, want 60", got.SharesAllot)
	}
	if got.AllottedOn == nil || !got.AllottedOn.Equal(allottedOn) {
		t.Errorf("Got allotted on %v, want %v", got.AllottedOn, allottedOn)
	}
	if got.ListingPrice == nil || !got.ListingPrice.Equal(price) {
		t.Errorf("Got listing price %v, want %s", got.ListingPrice, price)
	}
}

func TestSQLiteStorage_PersonLookup(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.CreatePerson(ctx, &model.Person{ID: "p1", Name: "Ankit", Self: true}); err != nil {
		t.Fatalf("Failed to create person: %v", err)
	}

	got, err := store.GetPersonByName(ctx, "ankit")
	if err != nil {
		t.Fatalf("Failed to look up person: %v", err)
	}
	if !got.Self {
		t.Error("Expected case-insensitive lookup to find the self person")
	}

	if _, err := store.GetPersonByName(ctx, "nobody"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Got err %v, want ErrNotFound", err)
	}
}
