package storage

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hisablabs/hisab/internal/model"
)

func TestValidateBank(t *testing.T) {
	tests := []struct {
		bank    *model.Bank
		wantErr error
		name    string
	}{
		{name: "valid", bank: &model.Bank{ID: "b1", Name: "HDFC"}},
		{name: "nil", bank: nil, wantErr: ErrNilParameter},
		{name: "missing id", bank: &model.Bank{Name: "HDFC"}, wantErr: ErrInvalidBank},
		{name: "blank name", bank: &model.Bank{ID: "b1", Name: "   "}, wantErr: ErrInvalidBank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBank(tt.bank)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Got err %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCard(t *testing.T) {
	valid := func() *model.CreditCard {
		return &model.CreditCard{ID: "c1", Name: "Axis", Limit: decimal.NewFromInt(50000), DueDay: 5}
	}

	tests := []struct {
		mutate  func(*model.CreditCard)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*model.CreditCard) {}},
		{name: "missing id", mutate: func(c *model.CreditCard) { c.ID = "" }, wantErr: ErrInvalidCard},
		{name: "blank name", mutate: func(c *model.CreditCard) { c.Name = " " }, wantErr: ErrInvalidCard},
		{name: "negative limit", mutate: func(c *model.CreditCard) { c.Limit = decimal.NewFromInt(-1) }, wantErr: ErrInvalidCard},
		{name: "negative outstanding", mutate: func(c *model.CreditCard) { c.Outstanding = decimal.NewFromInt(-1) }, wantErr: ErrInvalidCard},
		{name: "due day out of range", mutate: func(c *model.CreditCard) { c.DueDay = 32 }, wantErr: ErrInvalidCard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := valid()
			tt.mutate(card)
			err := validateCard(card)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Got err %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLoan(t *testing.T) {
	valid := func() *model.Loan {
		return &model.Loan{
			ID:          "l1",
			Borrower:    "Raj",
			Principal:   decimal.NewFromInt(300),
			Outstanding: decimal.NewFromInt(300),
			Source:      model.LoanSourceBank,
		}
	}

	tests := []struct {
		mutate  func(*model.Loan)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*model.Loan) {}},
		{name: "missing borrower", mutate: func(l *model.Loan) { l.Borrower = "" }, wantErr: ErrInvalidLoan},
		{name: "negative principal", mutate: func(l *model.Loan) { l.Principal = decimal.NewFromInt(-1) }, wantErr: ErrInvalidLoan},
		{name: "unknown source", mutate: func(l *model.Loan) { l.Source = "crypto" }, wantErr: ErrInvalidLoan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := valid()
			tt.mutate(loan)
			err := validateLoan(loan)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Got err %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIPO(t *testing.T) {
	valid := func() *model.IPOApplication {
		return &model.IPOApplication{
			ID:        "i1",
			Company:   "X",
			BankID:    "b1",
			AppliedOn: testDate("2024-03-01"),
			Amount:    decimal.NewFromInt(10000),
			Status:    model.IPOApplied,
		}
	}

	tests := []struct {
		mutate  func(*model.IPOApplication)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*model.IPOApplication) {}},
		{name: "missing company", mutate: func(a *model.IPOApplication) { a.Company = "" }, wantErr: ErrInvalidIPO},
		{name: "missing bank", mutate: func(a *model.IPOApplication) { a.BankID = "" }, wantErr: ErrInvalidIPO},
		{name: "negative amount", mutate: func(a *model.IPOApplication) { a.Amount = decimal.NewFromInt(-1) }, wantErr: ErrInvalidIPO},
		{name: "unknown status", mutate: func(a *model.IPOApplication) { a.Status = "PENDING" }, wantErr: ErrInvalidIPO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := valid()
			tt.mutate(app)
			err := validateIPO(app)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Got err %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReferenceKind(t *testing.T) {
	for _, kind := range []model.ReferenceKind{
		model.RefOpeningBalance,
		model.RefTransaction,
		model.RefTransactionReversal,
		model.RefCardPayment,
		model.RefIPOApply,
		model.RefIPORefund,
		model.RefLoanRepayment,
	} {
		if !kind.Valid() {
			t.Errorf("Expected %q to be a valid reference kind", kind)
		}
	}
	if model.ReferenceKind("salary").Valid() {
		t.Error("Expected unknown kind to be invalid")
	}
}
