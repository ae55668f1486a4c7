package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/model"
	"github.com/hisablabs/hisab/internal/service"
)

// Snapshot aggregates balances across all entities. It takes no locks:
// the dashboard is a best-effort read and tolerates entries landing
// while it runs.
func (e *Engine) Snapshot(ctx context.Context) (*service.DashboardSummary, error) {
	summary := &service.DashboardSummary{
		TotalBalance:    decimal.Zero,
		CardOutstanding: decimal.Zero,
		LoanReceivable:  decimal.Zero,
		IPOFundsOnHold:  decimal.Zero,
	}

	banks, err := e.storage.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	for _, bank := range banks {
		balance, err := e.storage.ComputeBalance(ctx, bank.ID)
		if err != nil {
			return nil, err
		}
		summary.Banks = append(summary.Banks, service.BankBalance{
			BankID:   bank.ID,
			BankName: bank.Name,
			Balance:  balance,
		})
		summary.TotalBalance = summary.TotalBalance.Add(balance)
	}

	cards, err := e.storage.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	for _, card := range cards {
		summary.CardOutstanding = summary.CardOutstanding.Add(card.Outstanding)
	}

	loans, err := e.storage.ListLoans(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, loan := range loans {
		summary.LoanReceivable = summary.LoanReceivable.Add(loan.Outstanding)
		summary.OpenLoans++
	}

	ipos, err := e.storage.ListIPOs(ctx)
	if err != nil {
		return nil, err
	}
	for _, app := range ipos {
		if app.Status == model.IPOApplied {
			summary.IPOFundsOnHold = summary.IPOFundsOnHold.Add(app.Amount)
			summary.PendingIPOs++
		}
	}

	return summary, nil
}
