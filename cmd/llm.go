package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/mcqflow/internal/llm"
	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/store"
	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		runID, _ := cmd.Flags().GetString("run")
		if err := checkPurpose(purpose); err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		var events []store.LLMEvent
		if runID != "" {
			events, err = s.EventRepo().LLMEventsForRun(ctx, runID)
		} else {
			events, err = s.EventRepo().QueryLLMEvents(ctx, store.QueryOpts{Limit: limit})
		}
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		shown := 0
		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			if shown == 0 {
				fmt.Fprintf(out, "%-5s  %-19s  %-8s  %-8s  %-28s  %-6s  %-6s  %-7s  %s\n",
					"ID", "Timestamp", "Run", "Purpose", "Model", "In", "Out", "Ms", "OK")
				fmt.Fprintln(out, strings.Repeat("─", 104))
			}
			shown++
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-8s  %-8s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.RunID, 8),
				e.Purpose,
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		if shown == 0 {
			fmt.Fprintln(out, "No LLM events found.")
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the full request and response of a model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %d\n", e.ID)
		fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Run:       %s\n", e.RunID)
		fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(out, "Model:     %s\n", e.Model)
		fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
		fmt.Fprintf(out, "Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
		}
		fmt.Fprintln(out)
		printSection(out, "REQUEST", e.RequestBody)
		printSection(out, "RESPONSE", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage, failures and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No LLM usage recorded yet.")
			return nil
		}

		rule := strings.Repeat("─", 80)
		fmt.Fprintln(out, "Usage by Purpose")
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%-10s  %6s  %6s  %10s  %10s  %10s  %8s\n",
			"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
		fmt.Fprintln(out, rule)

		var calls, failed, in, outTok int
		for _, st := range stats {
			fmt.Fprintf(out, "%-10s  %6d  %6d  %10d  %10d  %10d  %8d\n",
				st.Purpose, st.Calls, st.Failures, st.InputTokens, st.OutputTokens,
				st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
			calls += st.Calls
			failed += st.Failures
			in += st.InputTokens
			outTok += st.OutputTokens
		}
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%-10s  %6d  %6d  %10d  %10d  %10d\n", "TOTAL", calls, failed, in, outTok, in+outTok)

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Estimated Cost (USD)")
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%-36s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
		fmt.Fprintln(out, rule)

		var total float64
		var unknown []string
		for _, mu := range byModel {
			cost := llm.LookupCost(mu.Model)
			if cost == nil {
				unknown = append(unknown, mu.Model)
				fmt.Fprintf(out, "%-36s  %6d  %10d  %10d  %10s\n",
					truncate(mu.Model, 36), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
				continue
			}
			c := cost.Cost(mu.InputTokens, mu.OutputTokens)
			total += c
			fmt.Fprintf(out, "%-36s  %6d  %10d  %10d  %10s\n",
				truncate(mu.Model, 36), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
		}
		fmt.Fprintln(out, rule)
		label := "TOTAL"
		if len(unknown) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Fprintf(out, "%-36s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(total))
		if len(unknown) > 0 {
			fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
		}
		return nil
	},
}

var purposes = []pipeline.Stage{
	pipeline.StageResearch, pipeline.StageGenerate, pipeline.StageSolve, pipeline.StageValidate,
}

func checkPurpose(p string) error {
	if p == "" {
		return nil
	}
	for _, s := range purposes {
		if string(s) == p {
			return nil
		}
	}
	return fmt.Errorf("unknown purpose %q (want research, generate, solve or validate)", p)
}

func printSection(w io.Writer, title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Fprintf(w, "%s\n%s\n%s\n", sep, title, sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintln(w, body)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by stage: research, generate, solve, validate")
	llmListCmd.Flags().String("run", "", "Show every call of one run, oldest first")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
