package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hisablabs/hisab/internal/cli"
)

func loanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Track loans owed to you",
		Long: `Loans are opened automatically when an expense belongs to someone
else. Use these commands to see what is owed and record repayments.`,
	}

	cmd.AddCommand(loanListCmd())
	cmd.AddCommand(loanRepayCmd())
	cmd.AddCommand(loanCloseCmd())

	return cmd
}

func loanListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open loans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			loans, err := eng.ListLoans(ctx, all)
			if err != nil {
				return fmt.Errorf("failed to list loans: %w", err)
			}
			if len(loans) == 0 {
				fmt.Println(cli.InfoStyle.Render("No loans outstanding."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tBORROWER\tPRINCIPAL\tOUTSTANDING\tSOURCE\tSTATUS")
			for _, loan := range loans {
				status := "open"
				if loan.Paid {
					status = "paid"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					loan.ID, loan.Borrower,
					loan.Principal.StringFixed(2),
					loan.Outstanding.StringFixed(2),
					loan.Source, status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include repaid loans")
	return cmd
}

func loanRepayCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "repay <loan-id> <bank-id> <amount>",
		Short: "Record a loan repayment into a bank account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			amount, err := parseAmountArg(args[2])
			if err != nil {
				return err
			}
			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			loan, entry, err := eng.Repay(ctx, args[0], args[1], date, amount)
			if err != nil {
				return fmt.Errorf("failed to record repayment: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("%s repaid %s; loan outstanding %s, bank balance %s",
					loan.Borrower, amount, loan.Outstanding, entry.BalanceAfter)))
			if loan.Paid {
				fmt.Println(cli.InfoStyle.Render("Loan fully repaid."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "repayment date (YYYY-MM-DD, default today)")
	return cmd
}

func loanCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <loan-id>",
		Short: "Write off a loan without repayment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			loan, err := eng.Close(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to close loan: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Wrote off loan of %s to %s", loan.Principal, loan.Borrower)))
			return nil
		},
	}
}
