package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"
	"github.com/hisablabs/hisab/internal/storage"
)

func newTestEngine(t *testing.T) (*Engine, service.Storage) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err, "create storage")

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx), "migrate")

	t.Cleanup(func() { _ = store.Close() })
	return New(store), store
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBankExpenseForSelf(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("1000"), day("2024-01-01"))
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(amt("1000")), "opening balance seeds the ledger")

	txn, err := eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-02"),
		Description: "Groceries",
		Owner:       "Me",
		BankID:      bank.ID,
		Amount:      amt("200"),
	})
	require.NoError(t, err)
	assert.Empty(t, txn.LoanID, "self expense spawns no loan")

	bank, err = eng.GetBank(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(amt("800")), "got %s", bank.Balance)

	loans, err := eng.ListLoans(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestBankExpenseSpawnsLoan(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("800"), day("2024-01-01"))
	require.NoError(t, err)

	txn, err := eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-03"),
		Description: "Dinner for Raj",
		Owner:       "Raj",
		BankID:      bank.ID,
		Amount:      amt("300"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, txn.LoanID, "non-self expense spawns a loan")

	bank, err = eng.GetBank(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(amt("500")), "bank debited for the full amount, got %s", bank.Balance)

	loan, err := eng.GetLoan(ctx, txn.LoanID)
	require.NoError(t, err)
	assert.Equal(t, "Raj", loan.Borrower)
	assert.True(t, loan.Principal.Equal(amt("300")))
	assert.True(t, loan.Outstanding.Equal(amt("300")))
	assert.False(t, loan.Paid)
	assert.Equal(t, model.LoanSourceBank, loan.Source)
	assert.Equal(t, bank.ID, loan.SourceRef)
}

func TestLoanRepaymentCreditsBank(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("800"), day("2024-01-01"))
	require.NoError(t, err)

	txn, err := eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-03"),
		Description: "Dinner for Raj",
		Owner:       "Raj",
		BankID:      bank.ID,
		Amount:      amt("300"),
	})
	require.NoError(t, err)

	loan, entry, err := eng.Repay(ctx, txn.LoanID, bank.ID, day("2024-01-10"), amt("300"))
	require.NoError(t, err)
	assert.True(t, loan.Outstanding.IsZero())
	assert.True(t, loan.Paid)
	assert.True(t, entry.Credit.Equal(amt("300")))
	assert.True(t, entry.BalanceAfter.Equal(amt("800")), "500 + 300, got %s", entry.BalanceAfter)

	// Paid loans drop out of the default listing but stay in history.
	open, err := eng.ListLoans(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, open)
	all, err := eng.ListLoans(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCardSpendAndPay(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("5000"), day("2024-01-01"))
	require.NoError(t, err)
	card, err := eng.CreateCard(ctx, "Axis", amt("50000"), 5)
	require.NoError(t, err)

	card, loan, err := eng.Spend(ctx, card.ID, day("2024-01-05"), "Laptop sleeve", amt("2000"), "Me")
	require.NoError(t, err)
	assert.Nil(t, loan, "self spend spawns no loan")
	assert.True(t, card.Outstanding.Equal(amt("2000")))
	assert.True(t, card.Available().Equal(amt("48000")))

	// Spend never touches any bank ledger.
	entries, err := eng.Ledger(ctx, bank.ID, service.LedgerByInsertion)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	card, entry, err := eng.Pay(ctx, card.ID, bank.ID, day("2024-01-20"), amt("2000"))
	require.NoError(t, err)
	assert.True(t, card.Outstanding.IsZero())
	assert.True(t, entry.Debit.Equal(amt("2000")))
	assert.Equal(t, model.RefCardPayment, entry.RefKind)

	entries, err = eng.Ledger(ctx, bank.ID, service.LedgerByInsertion)
	require.NoError(t, err)
	require.Len(t, entries, 2, "pay posts exactly one debit entry")
	assert.True(t, entries[1].BalanceAfter.Equal(amt("3000")))
}

func TestCardSpendSpawnsLoan(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	card, err := eng.CreateCard(ctx, "Axis", amt("50000"), 5)
	require.NoError(t, err)

	card, loan, err := eng.Spend(ctx, card.ID, day("2024-02-01"), "Flights for Priya", amt("7500"), "Priya")
	require.NoError(t, err)
	require.NotNil(t, loan)
	assert.Equal(t, "Priya", loan.Borrower)
	assert.True(t, loan.Outstanding.Equal(amt("7500")))
	assert.Equal(t, model.LoanSourceCard, loan.Source)
	assert.Equal(t, card.ID, loan.SourceRef)
	assert.True(t, card.Outstanding.Equal(amt("7500")))
}

func TestIPOLifecycle(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("800"), day("2024-01-01"))
	require.NoError(t, err)

	app, err := eng.Apply(ctx, IPOParams{
		AppliedOn:     day("2024-03-01"),
		Company:       "X",
		BankID:        bank.ID,
		Amount:        amt("10000"),
		IssuePrice:    amt("100"),
		SharesApplied: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, model.IPOApplied, app.Status)

	// Overdraft is allowed at the ledger level.
	bank, err = eng.GetBank(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(amt("-9200")), "got %s", bank.Balance)

	app, err = eng.Allot(ctx, app.ID, 60, amt("4000"), day("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, model.IPOAllotted, app.Status)
	require.NotNil(t, app.SharesAllot)
	assert.Equal(t, int64(60), *app.SharesAllot)

	bank, err = eng.GetBank(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(amt("-5200")), "got %s", bank.Balance)

	app, err = eng.UpdateListingPrice(ctx, app.ID, amt("132.50"))
	require.NoError(t, err)
	require.NotNil(t, app.ListingPrice)
	assert.True(t, app.ListingPrice.Equal(amt("132.50")))
}

func TestIPOFullRefund(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("10000"), day("2024-01-01"))
	require.NoError(t, err)

	app, err := eng.Apply(ctx, IPOParams{
		AppliedOn:     day("2024-03-01"),
		Company:       "Y",
		BankID:        bank.ID,
		Amount:        amt("6000"),
		IssuePrice:    amt("60"),
		SharesApplied: 100,
	})
	require.NoError(t, err)

	app, err = eng.Refund(ctx, app.ID, day("2024-03-12"))
	require.NoError(t, err)
	assert.Equal(t, model.IPORefunded, app.Status)

	bank, err = eng.GetBank(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(amt("10000")), "full refund restores the balance, got %s", bank.Balance)
}

func TestIPOTerminalStateGuards(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("10000"), day("2024-01-01"))
	require.NoError(t, err)

	app, err := eng.Apply(ctx, IPOParams{
		AppliedOn:     day("2024-03-01"),
		Company:       "Z",
		BankID:        bank.ID,
		Amount:        amt("5000"),
		SharesApplied: 50,
	})
	require.NoError(t, err)

	_, err = eng.Refund(ctx, app.ID, day("2024-03-12"))
	require.NoError(t, err)

	_, err = eng.Refund(ctx, app.ID, day("2024-03-13"))
	assert.ErrorIs(t, err, common.ErrInvalidState, "refund cannot re-fire")
	_, err = eng.Allot(ctx, app.ID, 10, amt("1000"), day("2024-03-13"))
	assert.ErrorIs(t, err, common.ErrInvalidState, "allot cannot follow refund")

	// No ledger movement from the rejected transitions.
	bank, err = eng.GetBank(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(amt("10000")))
}

func TestListingPriceRequiresAllotment(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("10000"), day("2024-01-01"))
	require.NoError(t, err)

	app, err := eng.Apply(ctx, IPOParams{
		AppliedOn:     day("2024-03-01"),
		Company:       "Z",
		BankID:        bank.ID,
		Amount:        amt("5000"),
		SharesApplied: 50,
	})
	require.NoError(t, err)

	_, err = eng.UpdateListingPrice(ctx, app.ID, amt("55"))
	assert.ErrorIs(t, err, common.ErrInvalidState)
}

func TestOverpaymentClampsStoredOwedFields(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("10000"), day("2024-01-01"))
	require.NoError(t, err)
	card, err := eng.CreateCard(ctx, "Axis", amt("50000"), 5)
	require.NoError(t, err)

	_, _, err = eng.Spend(ctx, card.ID, day("2024-01-05"), "Dining", amt("1000"), "Me")
	require.NoError(t, err)

	// Card pay: outstanding clamps at zero, ledger debits the full
	// requested amount.
	card, entry, err := eng.Pay(ctx, card.ID, bank.ID, day("2024-01-20"), amt("1500"))
	require.NoError(t, err)
	assert.True(t, card.Outstanding.IsZero())
	assert.True(t, entry.Debit.Equal(amt("1500")))

	// Loan repay follows the same policy: full requested credit.
	txn, err := eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-21"),
		Description: "Cab for Raj",
		Owner:       "Raj",
		BankID:      bank.ID,
		Amount:      amt("400"),
	})
	require.NoError(t, err)

	loan, entry, err := eng.Repay(ctx, txn.LoanID, bank.ID, day("2024-01-25"), amt("600"))
	require.NoError(t, err)
	assert.True(t, loan.Outstanding.IsZero())
	assert.True(t, loan.Paid)
	assert.True(t, entry.Credit.Equal(amt("600")))
}

func TestInvalidAmountsRejected(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("1000"), day("2024-01-01"))
	require.NoError(t, err)
	card, err := eng.CreateCard(ctx, "Axis", amt("50000"), 5)
	require.NoError(t, err)

	_, err = eng.CreateTransaction(ctx, TransactionParams{
		Date:   day("2024-01-02"),
		BankID: bank.ID,
		Amount: amt("0"),
	})
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = eng.CreateTransaction(ctx, TransactionParams{
		Date:   day("2024-01-02"),
		BankID: bank.ID,
		Amount: amt("-5"),
	})
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, _, err = eng.Spend(ctx, card.ID, day("2024-01-02"), "x", amt("-1"), "")
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, _, err = eng.Pay(ctx, card.ID, bank.ID, day("2024-01-02"), amt("0"))
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = eng.Apply(ctx, IPOParams{AppliedOn: day("2024-01-02"), Company: "X", BankID: bank.ID, Amount: amt("0")})
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = eng.CreateBank(ctx, "Bad", "", amt("-100"), day("2024-01-01"))
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestTransactionAgainstMissingBank(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-02"),
		Description: "orphan",
		BankID:      "no-such-bank",
		Amount:      amt("100"),
	})
	assert.ErrorIs(t, err, common.ErrNotFound)

	// The failed create leaves no transaction behind.
	txns, err := eng.ListTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestDeleteTransactionPostsReversal(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("1000"), day("2024-01-01"))
	require.NoError(t, err)

	txn, err := eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-02"),
		Description: "Groceries",
		BankID:      bank.ID,
		Amount:      amt("200"),
	})
	require.NoError(t, err)

	require.NoError(t, eng.DeleteTransaction(ctx, txn.ID))

	// The debit is not erased; a compensating credit restores the
	// balance and keeps history auditable.
	entries, err := eng.Ledger(ctx, bank.ID, service.LedgerByInsertion)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, model.RefTransactionReversal, entries[2].RefKind)
	assert.True(t, entries[2].Credit.Equal(amt("200")))
	assert.True(t, entries[2].BalanceAfter.Equal(amt("1000")))

	_, err = eng.storage.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteTransactionWritesOffUntouchedLoan(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("1000"), day("2024-01-01"))
	require.NoError(t, err)

	txn, err := eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-02"),
		Description: "Dinner for Raj",
		Owner:       "Raj",
		BankID:      bank.ID,
		Amount:      amt("300"),
	})
	require.NoError(t, err)

	require.NoError(t, eng.DeleteTransaction(ctx, txn.ID))

	loan, err := eng.GetLoan(ctx, txn.LoanID)
	require.NoError(t, err)
	assert.True(t, loan.Paid)
	assert.True(t, loan.Outstanding.IsZero())
}

func TestDeleteTransactionBlockedByRepaidLoan(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("1000"), day("2024-01-01"))
	require.NoError(t, err)

	txn, err := eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-02"),
		Description: "Dinner for Raj",
		Owner:       "Raj",
		BankID:      bank.ID,
		Amount:      amt("300"),
	})
	require.NoError(t, err)

	_, _, err = eng.Repay(ctx, txn.LoanID, bank.ID, day("2024-01-05"), amt("100"))
	require.NoError(t, err)

	err = eng.DeleteTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrConstraintViolation)

	// Nothing rolled forward: transaction and partial loan both intact.
	_, err = eng.storage.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	loan, err := eng.GetLoan(ctx, txn.LoanID)
	require.NoError(t, err)
	assert.True(t, loan.Outstanding.Equal(amt("200")))
}

func TestSelfResolutionThroughRegistry(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("1000"), day("2024-01-01"))
	require.NoError(t, err)
	_, err = eng.AddPerson(ctx, "Ankit", true)
	require.NoError(t, err)
	_, err = eng.AddPerson(ctx, "Raj", false)
	require.NoError(t, err)

	tests := []struct {
		owner    string
		wantLoan bool
	}{
		{"", false},
		{"Me", false},
		{"MYSELF", false},
		{"Ankit", false},
		{"Raj", true},
		{"Unknown Person", true},
	}
	for _, tt := range tests {
		txn, err := eng.CreateTransaction(ctx, TransactionParams{
			Date:        day("2024-01-02"),
			Description: "expense",
			Owner:       tt.owner,
			BankID:      bank.ID,
			Amount:      amt("10"),
		})
		require.NoError(t, err, "owner %q", tt.owner)
		if tt.wantLoan {
			assert.NotEmpty(t, txn.LoanID, "owner %q should spawn a loan", tt.owner)
		} else {
			assert.Empty(t, txn.LoanID, "owner %q should not spawn a loan", tt.owner)
		}
	}
}

func TestUpdateTransactionOnlyDateAndDescription(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("1000"), day("2024-01-01"))
	require.NoError(t, err)

	txn, err := eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-02"),
		Description: "Groceries",
		BankID:      bank.ID,
		Amount:      amt("200"),
	})
	require.NoError(t, err)

	updated, err := eng.UpdateTransaction(ctx, txn.ID, day("2024-01-03"), "Groceries and fruit")
	require.NoError(t, err)
	assert.Equal(t, "Groceries and fruit", updated.Description)
	assert.True(t, updated.Amount.Equal(amt("200")))

	// The ledger keeps the original debit untouched.
	bankAfter, err := eng.GetBank(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bankAfter.Balance.Equal(amt("800")))
}

func TestDashboardSnapshot(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	hdfc, err := eng.CreateBank(ctx, "HDFC", "1", amt("1000"), day("2024-01-01"))
	require.NoError(t, err)
	_, err = eng.CreateBank(ctx, "SBI", "2", amt("500"), day("2024-01-01"))
	require.NoError(t, err)
	card, err := eng.CreateCard(ctx, "Axis", amt("50000"), 5)
	require.NoError(t, err)

	_, _, err = eng.Spend(ctx, card.ID, day("2024-01-05"), "Dining", amt("1200"), "Me")
	require.NoError(t, err)
	_, err = eng.CreateTransaction(ctx, TransactionParams{
		Date:        day("2024-01-06"),
		Description: "Cab for Raj",
		Owner:       "Raj",
		BankID:      hdfc.ID,
		Amount:      amt("300"),
	})
	require.NoError(t, err)
	_, err = eng.Apply(ctx, IPOParams{
		AppliedOn: day("2024-01-07"),
		Company:   "X",
		BankID:    hdfc.ID,
		Amount:    amt("400"),
	})
	require.NoError(t, err)

	summary, err := eng.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, summary.Banks, 2)
	assert.True(t, summary.TotalBalance.Equal(amt("800")), "1000-300-400+500, got %s", summary.TotalBalance)
	assert.True(t, summary.CardOutstanding.Equal(amt("1200")))
	assert.True(t, summary.LoanReceivable.Equal(amt("300")))
	assert.Equal(t, 1, summary.OpenLoans)
	assert.True(t, summary.IPOFundsOnHold.Equal(amt("400")))
	assert.Equal(t, 1, summary.PendingIPOs)
}

func TestConcurrentAppendsChainBalances(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	bank, err := eng.CreateBank(ctx, "HDFC", "123456", amt("10000"), day("2024-01-01"))
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := eng.CreateTransaction(ctx, TransactionParams{
				Date:        day("2024-01-02"),
				Description: "parallel expense",
				BankID:      bank.ID,
				Amount:      amt("10"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	bank, err = eng.GetBank(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(amt("9840")), "10000 - 16*10, got %s", bank.Balance)

	// Every entry's balance must chain from its predecessor in
	// insertion order.
	entries, err := eng.Ledger(ctx, bank.ID, service.LedgerByInsertion)
	require.NoError(t, err)
	require.Len(t, entries, workers+1)
	running := decimal.Zero
	for _, entry := range entries {
		running = running.Add(entry.Credit).Sub(entry.Debit)
		assert.True(t, entry.BalanceAfter.Equal(running),
			"entry seq %d: balance_after %s, want %s", entry.Seq, entry.BalanceAfter, running)
	}
}

func TestConcurrentCardSpends(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	card, err := eng.CreateCard(ctx, "Axis", amt("50000"), 5)
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _, err := eng.Spend(ctx, card.ID, day("2024-01-05"), "parallel spend", amt("25"), "Me")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	card, err = eng.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, card.Outstanding.Equal(amt("250")), "got %s", card.Outstanding)
}
