package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hisablabs/hisab/internal/cli"
	"github.com/hisablabs/hisab/internal/engine"
	"github.com/hisablabs/hisab/internal/ofx"
)

func importCmd() *cobra.Command {
	var (
		owner  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import <bank-id> <file.ofx>",
		Short: "Import bank statement debits from an OFX/QFX file",
		Long: `Parse an OFX or QFX statement export and record each debit as an
expense against the bank. Credits in the file are skipped; record
those through loan repayments, card payments, or IPO refunds so the
ledger keeps its provenance.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open statement: %w", err)
			}
			defer func() { _ = f.Close() }()

			entries, err := ofx.NewParser().ParseFile(f)
			if err != nil {
				return fmt.Errorf("failed to parse statement: %w", err)
			}

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			imported, skipped := 0, 0
			for _, entry := range entries {
				if !entry.Debit {
					skipped++
					continue
				}
				if dryRun {
					fmt.Printf("%s  %s  %s\n",
						entry.Date.Format("2006-01-02"),
						entry.Amount.StringFixed(2),
						entry.Description)
					imported++
					continue
				}
				_, err := eng.CreateTransaction(ctx, engine.TransactionParams{
					Date:        entry.Date,
					Description: entry.Description,
					Owner:       owner,
					BankID:      args[0],
					Amount:      entry.Amount,
				})
				if err != nil {
					return fmt.Errorf("failed to import %q: %w", entry.Description, err)
				}
				imported++
			}

			verb := "Imported"
			if dryRun {
				verb = "Would import"
			}
			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("%s %d debits (%d credits skipped)", verb, imported, skipped)))
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner to attribute every imported expense to")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be imported without writing")
	return cmd
}
