package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hisablabs/hisab/internal/cli"
	"github.com/hisablabs/hisab/internal/engine"
	"github.com/hisablabs/hisab/internal/service"
)

func txnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "txn",
		Aliases: []string{"transaction"},
		Short:   "Record and manage expenses",
	}

	cmd.AddCommand(txnAddCmd())
	cmd.AddCommand(txnListCmd())
	cmd.AddCommand(txnUpdateCmd())
	cmd.AddCommand(txnDeleteCmd())

	return cmd
}

func txnAddCmd() *cobra.Command {
	var (
		owner   string
		dateStr string
	)

	cmd := &cobra.Command{
		Use:   "add <bank-id> <amount> <description>",
		Short: "Record an expense against a bank account",
		Long: `Record an expense. The bank is debited immediately. When --owner names
someone other than you, a loan is opened for the amount so it can be
collected back later.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			amount, err := parseAmountArg(args[1])
			if err != nil {
				return err
			}
			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			txn, err := eng.CreateTransaction(ctx, engine.TransactionParams{
				Date:        date,
				Description: joinArgs(args[2:]),
				Owner:       owner,
				BankID:      args[0],
				Amount:      amount,
			})
			if err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Recorded %s for %q (id %s)", txn.Amount, txn.Description, txn.ID)))
			if txn.LoanID != "" {
				fmt.Println(cli.InfoStyle.Render(
					fmt.Sprintf("Opened loan %s for %s", txn.LoanID, txn.Owner)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "who the expense belongs to (default: you)")
	cmd.Flags().StringVar(&dateStr, "date", "", "transaction date (YYYY-MM-DD, default today)")
	return cmd
}

func txnListCmd() *cobra.Command {
	var (
		bankID   string
		owner    string
		startStr string
		endStr   string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.TransactionFilter{
				BankID: bankID,
				Owner:  owner,
				Limit:  limit,
			}
			if startStr != "" {
				start, err := parseDateFlag(startStr)
				if err != nil {
					return err
				}
				filter.StartDate = &start
			}
			if endStr != "" {
				end, err := parseDateFlag(endStr)
				if err != nil {
					return err
				}
				filter.EndDate = &end
			}

			txns, err := eng.ListTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			if len(txns) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions match."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tOWNER\tAMOUNT\tLOAN")
			for _, txn := range txns {
				loan := "-"
				if txn.LoanID != "" {
					loan = txn.LoanID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					txn.ID,
					txn.Date.Format("2006-01-02"),
					txn.Description,
					txn.Owner,
					txn.Amount.StringFixed(2),
					loan)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bankID, "bank", "", "filter by bank id")
	cmd.Flags().StringVar(&owner, "owner", "", "filter by owner")
	cmd.Flags().StringVar(&startStr, "start", "", "earliest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endStr, "end", "", "latest date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to show (0 = all)")
	return cmd
}

func txnUpdateCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "update <id> <description>",
		Short: "Update a transaction's date and description",
		Long: `Only the date and description can change. Amount, bank, and owner are
frozen once the ledger entry is written; delete and re-add instead.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			txn, err := eng.UpdateTransaction(ctx, args[0], date, joinArgs(args[1:]))
			if err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Updated transaction %s", txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "new transaction date (YYYY-MM-DD, default today)")
	return cmd
}

func txnDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction, reversing its ledger debit",
		Long: `Deleting posts a compensating credit to the bank's ledger. A loan the
transaction spawned is written off if untouched; a partially repaid
loan blocks the delete.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := eng.DeleteTransaction(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render("Transaction deleted and reversed."))
			return nil
		},
	}
}
