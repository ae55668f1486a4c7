package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hisablabs/hisab/internal/cli"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations",
		Long: `Bring the database schema up to the current version. Every command
runs migrations on startup, so this mainly exists to prepare a fresh
database or verify an existing one without touching data.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fmt.Println(cli.SuccessStyle.Render("Database schema is up to date."))
			return nil
		},
	}
}
