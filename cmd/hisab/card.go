package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hisablabs/hisab/internal/cli"
)

func cardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage credit cards",
		Long:  `Track credit cards: limits, outstanding amounts, spends, and payments.`,
	}

	cmd.AddCommand(cardAddCmd())
	cmd.AddCommand(cardListCmd())
	cmd.AddCommand(cardUpdateCmd())
	cmd.AddCommand(cardDeleteCmd())
	cmd.AddCommand(cardSpendCmd())
	cmd.AddCommand(cardPayCmd())

	return cmd
}

func cardAddCmd() *cobra.Command {
	var dueDay int

	cmd := &cobra.Command{
		Use:   "add <name> <limit>",
		Short: "Add a credit card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			limit, err := parseAmountArg(args[1])
			if err != nil {
				return err
			}

			card, err := eng.CreateCard(ctx, args[0], limit, dueDay)
			if err != nil {
				return fmt.Errorf("failed to create card: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Created card %q (id %s) with limit %s", card.Name, card.ID, card.Limit)))
			return nil
		},
	}

	cmd.Flags().IntVar(&dueDay, "due-day", 1, "day of month the statement is due")
	return cmd
}

func cardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List credit cards with outstanding and available amounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cards, err := eng.ListCards(ctx)
			if err != nil {
				return fmt.Errorf("failed to list cards: %w", err)
			}
			if len(cards) == 0 {
				fmt.Println(cli.InfoStyle.Render("No cards yet. Use 'hisab card add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tNAME\tLIMIT\tOUTSTANDING\tAVAILABLE\tDUE DAY")
			for _, card := range cards {
				available := card.Available().StringFixed(2)
				if card.Available().IsNegative() {
					available = cli.NegativeStyle.Render(available)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					card.ID, card.Name,
					card.Limit.StringFixed(2),
					card.Outstanding.StringFixed(2),
					available,
					card.DueDay)
			}
			return nil
		},
	}
}

func cardUpdateCmd() *cobra.Command {
	var dueDay int

	cmd := &cobra.Command{
		Use:   "update <id> <name> <limit>",
		Short: "Update a card's name, limit, and due day",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			limit, err := parseAmountArg(args[2])
			if err != nil {
				return err
			}

			card, err := eng.UpdateCard(ctx, args[0], args[1], limit, dueDay)
			if err != nil {
				return fmt.Errorf("failed to update card: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Updated card %q", card.Name)))
			return nil
		},
	}

	cmd.Flags().IntVar(&dueDay, "due-day", 1, "day of month the statement is due")
	return cmd
}

func cardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a credit card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := eng.DeleteCard(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete card: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render("Card deleted."))
			return nil
		},
	}
}

func cardSpendCmd() *cobra.Command {
	var (
		owner   string
		dateStr string
	)

	cmd := &cobra.Command{
		Use:   "spend <card-id> <amount> <description>",
		Short: "Record a card spend",
		Long: `Record a spend on a credit card. The card's outstanding grows by the
amount. When --owner names someone other than you, a loan is opened so
the amount can be collected back later.`,
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

			description := joinArgs(args[2:])
			card, loan, err := eng.Spend(ctx, args[0], date, description, amount, owner)
			if err != nil {
				return fmt.Errorf("failed to record spend: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Spent %s on %q; outstanding now %s", amount, card.Name, card.Outstanding)))
			if loan != nil {
				fmt.Println(cli.InfoStyle.Render(
					fmt.Sprintf("Opened loan of %s to %s", loan.Principal, loan.Borrower)))
			}
			if card.Available().IsNegative() {
				fmt.Println(cli.WarningStyle.Render("Card is over its limit."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "who the spend belongs to (default: you)")
	cmd.Flags().StringVar(&dateStr, "date", "", "spend date (YYYY-MM-DD, default today)")
	return cmd
}

func cardPayCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "pay <card-id> <bank-id> <amount>",
		Short: "Pay a card's outstanding from a bank account",
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

			card, entry, err := eng.Pay(ctx, args[0], args[1], date, amount)
			if err != nil {
				return fmt.Errorf("failed to record payment: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Paid %s toward %q; outstanding now %s, bank balance %s",
					amount, card.Name, card.Outstanding, entry.BalanceAfter)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "payment date (YYYY-MM-DD, default today)")
	return cmd
}
