package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/mcqflow/internal/config"
	"github.com/abhisek/mcqflow/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mcqflow",
	Short: "Research a topic and generate checked multiple-choice questions",
	Long: "mcqflow asks a language model to research a topic, write three multiple-choice\n" +
		"questions, solve them and validate the solutions, then saves the combined result.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTopic(cmd, "")
	},
}

// cfg is loaded once before any command runs.
var cfg *config.Config

// ExecuteContext runs the root command. ctx is cancelled on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ExitError carries a specific process exit status.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ./mcqflow.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides store.path)")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider: gemini, openai, anthropic, openrouter")
	rootCmd.Flags().Bool("plain", false, "Read the topic from stdin and print plain progress")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stressCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		c.LLM.Provider = p
	}
	cfg = c
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then store.path from config or MCQFLOW_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.Store.Path != "" {
		return cfg.Store.Path, store.EnsureDir(cfg.Store.Path)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
