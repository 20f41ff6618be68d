package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/abhisek/mcqflow/internal/harness"
	"github.com/spf13/cobra"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Run the pipeline over a topic set and flag suspicious output",
	RunE: func(cmd *cobra.Command, args []string) error {
		topicsPath, _ := cmd.Flags().GetString("topics")
		if topicsPath == "" {
			topicsPath = cfg.Stress.TopicsFile
		}
		reportPath, _ := cmd.Flags().GetString("report")
		if reportPath == "" {
			reportPath = cfg.Stress.Report
		}

		topics := harness.DefaultTopics
		if topicsPath != "" {
			var err error
			if topics, err = harness.LoadTopics(topicsPath); err != nil {
				return err
			}
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		h := harness.New(d.orchestrator(nil), log.New(os.Stderr, "[STRESS] ", log.LstdFlags))
		report, runErr := h.Run(cmd.Context(), topics)
		if report != nil {
			if err := harness.WriteReport(reportPath, report); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}
		if runErr != nil {
			return &ExitError{Code: 130, Err: fmt.Errorf("stress run interrupted, partial report at %s: %w", reportPath, runErr)}
		}

		out := cmd.OutOrStdout()
		s := report.Summary
		fmt.Fprintf(out, "\nTotal: %d  Pass: %d  Fail: %d\n", s.Total, s.Pass, s.Fail)
		for _, line := range s.Details {
			fmt.Fprintf(out, "  - %s\n", line)
		}
		fmt.Fprintf(out, "Report written to %s\n", reportPath)
		return nil
	},
}

func init() {
	stressCmd.Flags().String("topics", "", "YAML file with a topics list (default: built-in set)")
	stressCmd.Flags().String("report", "", "Report output path (overrides stress.report)")
}
