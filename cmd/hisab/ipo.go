package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hisablabs/hisab/internal/cli"
	"github.com/hisablabs/hisab/internal/engine"
)

func ipoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipo",
		Short: "Track IPO applications",
		Long: `Apply for IPOs from a bank account and resolve them. Applying debits
the bank immediately; allotment credits back the unallotted portion and
a full refund credits back everything.`,
	}

	cmd.AddCommand(ipoApplyCmd())
	cmd.AddCommand(ipoListCmd())
	cmd.AddCommand(ipoAllotCmd())
	cmd.AddCommand(ipoRefundCmd())
	cmd.AddCommand(ipoListingCmd())

	return cmd
}

func ipoApplyCmd() *cobra.Command {
	var (
		issuePriceStr string
		shares        int64
		dateStr       string
	)

	cmd := &cobra.Command{
		Use:   "apply <company> <bank-id> <amount>",
		Short: "Apply for an IPO, debiting the bank for the held amount",
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
			issuePrice, err := parseAmountArg(issuePriceStr)
			if err != nil {
				return err
			}
			appliedOn, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			app, err := eng.Apply(ctx, engine.IPOParams{
				AppliedOn:     appliedOn,
				Company:       args[0],
				BankID:        args[1],
				Amount:        amount,
				IssuePrice:    issuePrice,
				SharesApplied: shares,
			})
			if err != nil {
				return fmt.Errorf("failed to apply: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Applied to %s for %s (id %s)", app.Company, app.Amount, app.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&issuePriceStr, "issue-price", "0", "issue price per share")
	cmd.Flags().Int64Var(&shares, "shares", 0, "number of shares applied for")
	cmd.Flags().StringVar(&dateStr, "date", "", "application date (YYYY-MM-DD, default today)")
	return cmd
}

func ipoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List IPO applications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			apps, err := eng.ListIPOs(ctx)
			if err != nil {
				return fmt.Errorf("failed to list applications: %w", err)
			}
			if len(apps) == 0 {
				fmt.Println(cli.InfoStyle.Render("No IPO applications."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tCOMPANY\tAPPLIED\tAMOUNT\tSTATUS\tSHARES\tLISTING")
			for _, app := range apps {
				shares := "-"
				if app.SharesAllot != nil {
					shares = strconv.FormatInt(*app.SharesAllot, 10)
				}
				listing := "-"
				if app.ListingPrice != nil {
					listing = app.ListingPrice.StringFixed(2)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					app.ID, app.Company,
					app.AppliedOn.Format("2006-01-02"),
					app.Amount.StringFixed(2),
					app.Status, shares, listing)
			}
			return nil
		},
	}
}

func ipoAllotCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "allot <id> <shares> <refund-amount>",
		Short: "Record an allotment, crediting back the refund portion",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			shares, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid share count %q: %w", args[1], err)
			}
			refund, err := parseAmountArg(args[2])
			if err != nil {
				return err
			}
			allottedOn, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			app, err := eng.Allot(ctx, args[0], shares, refund, allottedOn)
			if err != nil {
				return fmt.Errorf("failed to record allotment: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("%s allotted %d shares; refunded %s", app.Company, shares, refund)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "allotment date (YYYY-MM-DD, default today)")
	return cmd
}

func ipoRefundCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "refund <id>",
		Short: "Record a full refund, crediting the bank for the whole amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			refundedOn, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			app, err := eng.Refund(ctx, args[0], refundedOn)
			if err != nil {
				return fmt.Errorf("failed to record refund: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("%s refunded %s in full", app.Company, app.Amount)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "refund date (YYYY-MM-DD, default today)")
	return cmd
}

func ipoListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listing <id> <price>",
		Short: "Record the listing price of an allotted IPO",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			price, err := parseAmountArg(args[1])
			if err != nil {
				return err
			}

			app, err := eng.UpdateListingPrice(ctx, args[0], price)
			if err != nil {
				return fmt.Errorf("failed to set listing price: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("%s listed at %s", app.Company, price)))
			return nil
		},
	}
}
