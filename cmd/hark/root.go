package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/harkvoice/hark/internal/config"
)

var debugLogDir string

var rootCmd = &cobra.Command{
	Use:   "hark",
	Short: "Voice-driven desktop automation agent",
	Long: `Hark listens for spoken instructions, decomposes them into tasks,
and executes each one through the right modality: shell commands for
anything the command library or the model can express, GUI clicks resolved
through a local vision model, and literal text injection for dictation.

Tasks joined with "and" run in parallel; tasks joined with "then" wait for
the previous one. GUI actions are always serialized: there is one mouse.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&debugLogDir, "debug-log", "", "directory for orchestrator debug logs")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the resolved configuration, applying the persistent
// debug-log flag override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if debugLogDir != "" {
		cfg.DebugLogDir = debugLogDir
	}
	return cfg, nil
}

// checkBinary reports whether a required tool is on PATH.
func checkBinary(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	return nil
}
