package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harkvoice/hark/internal/decompose"
	"github.com/harkvoice/hark/pkg/models"
)

var runCmd = &cobra.Command{
	Use:   "run <instruction>...",
	Short: "Execute one instruction without the dashboard",
	Long: `Run decomposes the instruction into tasks and executes them headlessly,
printing per-task results and a summary. The exit code is 1 when any task
failed.

Examples:
  hark run open my email
  hark run "check the weather and also open my email, then compose a message"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runOnce(strings.Join(args, " "))
	},
}

func runOnce(instruction string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := buildStack(cfg, true)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	s.monitor.Start(ctx)
	go s.recordEvents()

	tasks := decompose.Decompose(instruction)
	if err := decompose.ValidateTasks(tasks); err != nil {
		return fmt.Errorf("decompose: %w", err)
	}

	fmt.Printf("Decomposed into %d task(s):\n", len(tasks))
	for _, t := range tasks {
		deps := ""
		if len(t.DependsOn) > 0 {
			deps = fmt.Sprintf(" (after %s)", strings.Join(t.DependsOn, ", "))
		}
		fmt.Printf("  %s: %s%s\n", t.ID, t.Instruction, deps)
	}
	fmt.Println()

	execs := s.orch.Execute(ctx, tasks)
	summary := s.orch.Summarize(execs)
	printResults(execs, summary)

	// Returning the error lets the deferred stack close flush the event
	// store and debug log before the process exits non-zero.
	return failedError(summary)
}

// failedError maps a summary with failures to the command's exit error.
func failedError(summary models.Summary) error {
	if summary.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d task(s) failed", summary.Failed)
}

func printResults(execs map[string]*models.TaskExecution, summary models.Summary) {
	ids := make([]string, 0, len(execs))
	for id := range execs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		e := execs[id]
		switch e.Status {
		case models.TaskStatusCompleted:
			fmt.Printf("%s %s: %s", color.GreenString("✓"), id, e.Task.Instruction)
			if e.Result != nil && e.Result.Detail != "" {
				fmt.Printf(" - %s", e.Result.Detail)
			}
			fmt.Printf(" (%s)\n", e.Elapsed().Round(10*time.Millisecond))
		case models.TaskStatusFailed:
			fmt.Printf("%s %s: %s - %s\n", color.RedString("✗"), id, e.Task.Instruction, e.Error)
		default:
			fmt.Printf("%s %s: %s (%s)\n", color.YellowString("…"), id, e.Task.Instruction, e.Status)
		}
	}

	fmt.Printf("\n%d task(s): %s, %s (total execution %s)\n",
		summary.TotalTasks,
		color.GreenString("%d completed", summary.Completed),
		color.RedString("%d failed", summary.Failed),
		summary.TotalExecutionTime.Round(10*time.Millisecond))
}
