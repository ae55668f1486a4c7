package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hisablabs/hisab/internal/cli"
)

func personCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage the people expenses can belong to",
	}

	cmd.AddCommand(personAddCmd())
	cmd.AddCommand(personListCmd())

	return cmd
}

func personAddCmd() *cobra.Command {
	var self bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a person",
		Long: `Register a person so their name resolves consistently. Expenses owned
by anyone other than the self person open a loan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			person, err := eng.AddPerson(ctx, args[0], self)
			if err != nil {
				return fmt.Errorf("failed to add person: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Added %s", person.Name)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&self, "self", false, "mark this person as you")
	return cmd
}

func personListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered people",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			persons, err := eng.ListPersons(ctx)
			if err != nil {
				return fmt.Errorf("failed to list persons: %w", err)
			}
			if len(persons) == 0 {
				fmt.Println(cli.InfoStyle.Render("No people registered."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tNAME\tSELF")
			for _, person := range persons {
				self := ""
				if person.Self {
					self = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", person.ID, person.Name, self)
			}
			return nil
		},
	}
}
