package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/mcqflow/internal/sink"
	"github.com/abhisek/mcqflow/internal/store"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved pipeline runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		recs, err := s.RunRepo().ListRuns(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "No runs recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-19s  %-6s  %-5s  %s\n", "ID", "Timestamp", "Status", "Valid", "Topic")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, r := range recs {
			valid := fmt.Sprintf("%d/%d", r.ValidCount, r.MCQCount)
			if r.Status == store.RunStatusError {
				valid = "-"
			}
			fmt.Fprintf(out, "%-36s  %-19s  %-6s  %-5s  %s\n",
				r.ID,
				r.Timestamp.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				valid,
				truncate(r.Topic, 40),
			)
		}
		return nil
	},
}

var runsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Print a saved run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := s.RunRepo().GetRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		if rec == nil {
			return fmt.Errorf("run %s not found", args[0])
		}
		result, err := sink.Decode(rec)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		fmt.Fprintf(out, "Saved:     %s\n", rec.Timestamp.Local().Format("2006-01-02 15:04:05"))
		printResult(out, result)
		return nil
	},
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	runsViewCmd.Flags().Bool("json", false, "Print the stored JSON result")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsViewCmd)
}
