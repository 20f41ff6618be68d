package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abhisek/mcqflow/internal/app"
	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/sink"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Run the pipeline for one topic",
	Long: "Run researches the topic, generates three MCQs, solves and validates them,\n" +
		"and saves the result. Without a topic argument it prompts for one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTopic(cmd, strings.TrimSpace(strings.Join(args, " ")))
	},
}

func init() {
	runCmd.Flags().Bool("plain", false, "Read the topic from stdin and print plain progress")
}

// runTopic opens dependencies and runs one topic, interactively when stdin
// and stdout are terminals.
func runTopic(cmd *cobra.Command, topic string) error {
	d, err := openDeps(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	plain, _ := cmd.Flags().GetBool("plain")
	if plain || !term.IsTerminal(os.Stdin.Fd()) || !term.IsTerminal(os.Stdout.Fd()) {
		return runPlain(cmd, d, topic)
	}
	return runInteractive(cmd, d, topic)
}

func runPlain(cmd *cobra.Command, d *deps, topic string) error {
	out := cmd.OutOrStdout()
	if topic == "" {
		fmt.Fprint(out, "Enter topic: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read topic: %w", err)
		}
		topic = strings.TrimSpace(line)
	}
	if topic == "" {
		return errors.New("topic must not be empty")
	}

	logger := log.New(cmd.ErrOrStderr(), "", 0)
	result, err := d.orchestrator(pipeline.LogObserver(logger)).Run(cmd.Context(), topic)
	if result != nil && !result.Failed() {
		printResult(out, result)
	}
	if err := finishRun(result, err); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSaved output to %s\n", outputPath())
	return nil
}

func runInteractive(cmd *cobra.Command, d *deps, topic string) error {
	outcome, err := app.Run(cmd.Context(), app.Options{
		Run:    d.runFunc(nil),
		Topic:  topic,
		Status: d.status(),
	})
	if err != nil {
		return err
	}
	if outcome.Canceled {
		return &ExitError{Code: 130, Err: context.Canceled}
	}
	if outcome.Result == nil && outcome.Err == nil {
		return nil
	}
	if err := finishRun(outcome.Result, outcome.Err); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s saved to %s\n", outcome.Result.ID, outputPath())
	return nil
}

// finishRun turns a run outcome into the command error: model call
// failures exit 1, error results exit 2, an interrupted run exits 130.
func finishRun(result *pipeline.RunResult, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return &ExitError{Code: 130, Err: err}
	case err != nil && result == nil:
		return err
	case err != nil:
		return fmt.Errorf("run %s completed but was not saved: %w", result.ID, err)
	case result.Failed():
		return &ExitError{Code: 2, Err: fmt.Errorf("run %s: %s", result.ID, result.Error)}
	}
	return nil
}

func outputPath() string {
	return sink.NewFileSink(cfg.Output.Dir, cfg.Output.File).Path()
}

func printResult(w io.Writer, r *pipeline.RunResult) {
	if r.Failed() {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
		return
	}

	sep := strings.Repeat("─", 60)
	fmt.Fprintf(w, "\nTopic: %s\nRun:   %s\n\n%s\nRESEARCH NOTES\n%s\n%s\n", r.Topic, r.ID, sep, sep, strings.TrimSpace(r.ResearchNotes))

	for i := range r.MCQs {
		fmt.Fprintf(w, "\n%s\nMCQ %d\n%s\n", sep, i+1, sep)
		m, err := r.MCQ(i)
		if err != nil || m.Question == "" {
			fmt.Fprintf(w, "%s\n", r.MCQs[i])
		} else {
			fmt.Fprintf(w, "%s\n", m.Question)
			for j, opt := range m.Options {
				fmt.Fprintf(w, "  %c) %s\n", 'A'+j, opt)
			}
			fmt.Fprintf(w, "Answer: %s\n", m.Answer)
		}

		if i < len(r.Solutions) {
			s := r.Solutions[i]
			if s.Error != "" {
				fmt.Fprintf(w, "Solver: %s\n", s.Error)
			} else {
				fmt.Fprintf(w, "Solver: %s (%s)\n", s.ChosenAnswer, s.Reason)
			}
		}
		if i < len(r.Validations) {
			v := r.Validations[i]
			verdict := "valid"
			if !v.Valid {
				verdict = "not valid"
			}
			fmt.Fprintf(w, "Validator: %s", verdict)
			if v.Feedback != "" {
				fmt.Fprintf(w, ": %s", v.Feedback)
			}
			if v.AnswerMatches != nil {
				fmt.Fprintf(w, " [answer matches: %v]", *v.AnswerMatches)
			}
			fmt.Fprintln(w)
		}
	}
}
