package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hisablabs/hisab/internal/cli"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show a snapshot of everything: banks, cards, loans, IPOs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summary, err := eng.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("failed to build dashboard: %w", err)
			}

			title := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
			fmt.Println(title.Render("Hisab"))
			fmt.Println()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BANK\tBALANCE")
			for _, bank := range summary.Banks {
				balance := bank.Balance.StringFixed(2)
				if bank.Balance.IsNegative() {
					balance = cli.NegativeStyle.Render(balance)
				}
				fmt.Fprintf(w, "%s\t%s\n", bank.BankName, balance)
			}
			fmt.Fprintf(w, "TOTAL\t%s\n", summary.TotalBalance.StringFixed(2))
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(cli.InfoStyle.Render(
				fmt.Sprintf("Card outstanding: %s", summary.CardOutstanding.StringFixed(2))))
			fmt.Println(cli.InfoStyle.Render(
				fmt.Sprintf("Owed to you: %s across %d open loans",
					summary.LoanReceivable.StringFixed(2), summary.OpenLoans)))
			fmt.Println(cli.InfoStyle.Render(
				fmt.Sprintf("IPO funds on hold: %s across %d pending applications",
					summary.IPOFundsOnHold.StringFixed(2), summary.PendingIPOs)))
			return nil
		},
	}
}
