package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var listLimit int

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&dbPath, "db", "d", "./backtests.db", "path to SQLite journal DB")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum runs to show (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := journal.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, listLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}
	report.PrintRuns(cmd.OutOrStdout(), runs)
	return nil
}
