package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hisablabs/hisab/internal/cli"
	"github.com/hisablabs/hisab/internal/service"
)

func bankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Manage bank accounts",
		Long:  `Create, list, update, and delete bank accounts, and inspect their ledgers.`,
	}

	cmd.AddCommand(bankAddCmd())
	cmd.AddCommand(bankListCmd())
	cmd.AddCommand(bankUpdateCmd())
	cmd.AddCommand(bankDeleteCmd())
	cmd.AddCommand(bankLedgerCmd())

	return cmd
}

func bankAddCmd() *cobra.Command {
	var (
		accountNumber string
		openingStr    string
		dateStr       string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a bank account",
		Long:  `Register a bank account. A positive opening balance seeds the first ledger entry.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			opening := decimal.Zero
			if openingStr != "" {
				if opening, err = parseAmountArg(openingStr); err != nil {
					return err
				}
			}
			openedOn, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			bank, err := eng.CreateBank(ctx, args[0], accountNumber, opening, openedOn)
			if err != nil {
				return fmt.Errorf("failed to create bank: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Created bank %q (id %s) with balance %s", bank.Name, bank.ID, bank.Balance)))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountNumber, "account-number", "", "bank account number")
	cmd.Flags().StringVar(&openingStr, "opening-balance", "", "opening balance to seed the ledger with")
	cmd.Flags().StringVar(&dateStr, "date", "", "opening date (YYYY-MM-DD, default today)")
	return cmd
}

func bankListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bank accounts with derived balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			banks, err := eng.ListBanks(ctx)
			if err != nil {
				return fmt.Errorf("failed to list banks: %w", err)
			}
			if len(banks) == 0 {
				fmt.Println(cli.InfoStyle.Render("No banks yet. Use 'hisab bank add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tNAME\tACCOUNT\tBALANCE")
			for _, bank := range banks {
				balance := bank.Balance.StringFixed(2)
				if bank.Balance.IsNegative() {
					balance = cli.NegativeStyle.Render(balance)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", bank.ID, bank.Name, bank.AccountNumber, balance)
			}
			return nil
		},
	}
}

func bankUpdateCmd() *cobra.Command {
	var accountNumber string

	cmd := &cobra.Command{
		Use:   "update <id> <name>",
		Short: "Update a bank's name and account number",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bank, err := eng.UpdateBank(ctx, args[0], args[1], accountNumber)
			if err != nil {
				return fmt.Errorf("failed to update bank: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Updated bank %q", bank.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountNumber, "account-number", "", "bank account number")
	return cmd
}

func bankDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bank and its entire ledger history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !force {
				fmt.Println(cli.WarningStyle.Render(
					"This permanently deletes the bank and every ledger entry it owns."))
				fmt.Print("Type the bank id to confirm: ")
				var confirm string
				if _, err := fmt.Scanln(&confirm); err != nil || strings.TrimSpace(confirm) != args[0] {
					return fmt.Errorf("delete aborted")
				}
			}

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := eng.DeleteBank(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete bank: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render("Bank deleted."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	return cmd
}

func bankLedgerCmd() *cobra.Command {
	var byInsertion bool

	cmd := &cobra.Command{
		Use:   "ledger <id>",
		Short: "Show a bank's ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			order := service.LedgerByDateDesc
			if byInsertion {
				order = service.LedgerByInsertion
			}

			entries, err := eng.Ledger(ctx, args[0], order)
			if err != nil {
				return fmt.Errorf("failed to list ledger: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println(cli.InfoStyle.Render("Ledger is empty."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "DATE\tDESCRIPTION\tDEBIT\tCREDIT\tBALANCE\tKIND")
			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					entry.Date.Format("2006-01-02"),
					entry.Description,
					entry.Debit.StringFixed(2),
					entry.Credit.StringFixed(2),
					entry.BalanceAfter.StringFixed(2),
					entry.RefKind)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&byInsertion, "by-insertion", false, "order by append sequence instead of date")
	return cmd
}
