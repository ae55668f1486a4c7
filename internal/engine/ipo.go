package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"
)

// IPOParams describes a new IPO application.
type IPOParams struct {
	AppliedOn     time.Time
	Company       string
	BankID        string
	Amount        decimal.Decimal
	IssuePrice    decimal.Decimal
	SharesApplied int64
}

// Apply records an IPO application and debits the bank for the held
// amount. No floor is enforced on the bank balance; an application may
// drive it negative.
func (e *Engine) Apply(ctx context.Context, params IPOParams) (*model.IPOApplication, error) {
	if err := requirePositive(params.Amount, "amount"); err != nil {
		return nil, err
	}

	unlock := e.bankLocks.lock(params.BankID)
	defer unlock()

	app := &model.IPOApplication{
		ID:            uuid.NewString(),
		Company:       params.Company,
		AppliedOn:     params.AppliedOn,
		Amount:        params.Amount,
		SharesApplied: params.SharesApplied,
		IssuePrice:    params.IssuePrice,
		BankID:        params.BankID,
		Status:        model.IPOApplied,
	}

	err := e.withTx(ctx, func(tx service.Tx) error {
		if err := tx.CreateIPO(ctx, app); err != nil {
			return err
		}
		_, err := tx.AppendLedgerEntry(ctx, &model.LedgerEntry{
			BankID:      params.BankID,
			Date:        params.AppliedOn,
			Description: "IPO application - " + params.Company,
			Debit:       params.Amount,
			RefKind:     model.RefIPOApply,
			RefID:       app.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("recorded ipo application",
		"ipo_id", app.ID,
		"company", app.Company,
		"bank_id", app.BankID,
		"amount", app.Amount)
	return app, nil
}

// Allot transitions an application to ALLOTTED, recording the allotted
// shares and crediting back any partial-allotment refund. Only APPLIED
// applications can be allotted.
func (e *Engine) Allot(ctx context.Context, id string, sharesAllotted int64, refundAmount decimal.Decimal, allottedOn time.Time) (*model.IPOApplication, error) {
	if refundAmount.IsNegative() {
		return nil, requirePositive(refundAmount, "refund amount")
	}

	app, err := e.storage.GetIPO(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := e.bankLocks.lock(app.BankID)
	defer unlock()

	err = e.withTx(ctx, func(tx service.Tx) error {
		var err error
		app, err = tx.GetIPO(ctx, id)
		if err != nil {
			return err
		}
		if app.Status != model.IPOApplied {
			return fmt.Errorf("%w: ipo application %s is %s", common.ErrInvalidState, id, app.Status)
		}

		app.Status = model.IPOAllotted
		app.SharesAllot = &sharesAllotted
		app.AllottedOn = &allottedOn
		if err := tx.UpdateIPO(ctx, app); err != nil {
			return err
		}

		if refundAmount.IsPositive() {
			_, err = tx.AppendLedgerEntry(ctx, &model.LedgerEntry{
				BankID:      app.BankID,
				Date:        allottedOn,
				Description: "IPO partial refund - " + app.Company,
				Credit:      refundAmount,
				RefKind:     model.RefIPORefund,
				RefID:       app.ID,
			})
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("allotted ipo application",
		"ipo_id", id,
		"shares_allotted", sharesAllotted,
		"refund", refundAmount)
	return app, nil
}

// Refund transitions an application to REFUNDED and credits back the
// full original amount. Refund and Allot are mutually exclusive
// terminal paths; only APPLIED applications can be refunded.
func (e *Engine) Refund(ctx context.Context, id string, refundedOn time.Time) (*model.IPOApplication, error) {
	app, err := e.storage.GetIPO(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := e.bankLocks.lock(app.BankID)
	defer unlock()

	err = e.withTx(ctx, func(tx service.Tx) error {
		var err error
		app, err = tx.GetIPO(ctx, id)
		if err != nil {
			return err
		}
		if app.Status != model.IPOApplied {
			return fmt.Errorf("%w: ipo application %s is %s", common.ErrInvalidState, id, app.Status)
		}

		app.Status = model.IPORefunded
		if err := tx.UpdateIPO(ctx, app); err != nil {
			return err
		}

		_, err = tx.AppendLedgerEntry(ctx, &model.LedgerEntry{
			BankID:      app.BankID,
			Date:        refundedOn,
			Description: "IPO refund - " + app.Company,
			Credit:      app.Amount,
			RefKind:     model.RefIPORefund,
			RefID:       app.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("refunded ipo application", "ipo_id", id, "amount", app.Amount)
	return app, nil
}

// UpdateListingPrice records the listing price on an allotted
// application. Display-only figure; it never touches the ledger.
func (e *Engine) UpdateListingPrice(ctx context.Context, id string, price decimal.Decimal) (*model.IPOApplication, error) {
	if err := requirePositive(price, "listing price"); err != nil {
		return nil, err
	}

	app, err := e.storage.GetIPO(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != model.IPOAllotted {
		return nil, fmt.Errorf("%w: listing price requires an allotted application, got %s", common.ErrInvalidState, app.Status)
	}

	app.ListingPrice = &price
	if err := e.storage.UpdateIPO(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListIPOs returns all applications, pending first.
func (e *Engine) ListIPOs(ctx context.Context) ([]model.IPOApplication, error) {
	return e.storage.ListIPOs(ctx)
}
