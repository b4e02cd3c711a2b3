package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/journal"
)

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a stored run as an Org-mode report",
	Long: `Show loads a run and its trades from the SQLite journal and renders
them as Org-mode.

Examples:
  backtester show 01J9Z3Q4K8M2V6X0T5R7B1N3C9
  backtester show 01J9Z3Q4K8M2V6X0T5R7B1N3C9 -o run.org`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var (
	dbPath     string
	showOutput string
)

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&dbPath, "db", "d", "./backtests.db", "path to SQLite journal DB")
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "", "write the report to a file instead of stdout")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := journal.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	org, err := db.ExportRunOrg(ctx, args[0])
	if err != nil {
		return err
	}

	if showOutput != "" {
		return os.WriteFile(showOutput, []byte(org), 0644)
	}
	fmt.Fprint(cmd.OutOrStdout(), org)
	return nil
}
