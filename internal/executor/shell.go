// Package executor performs atomic actions: shell command batches, GUI
// clicks resolved through the vision service, and literal text injection.
package executor

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	iexec "github.com/harkvoice/hark/internal/exec"
	"github.com/harkvoice/hark/internal/safety"
)

// DefaultCommandTimeout bounds one command within a batch.
const DefaultCommandTimeout = 120 * time.Second

// CommandResult records one command's execution within a batch.
type CommandResult struct {
	Cmd      []string `json:"cmd"`
	Dir      string   `json:"dir"`
	ExitCode int      `json:"exit_code"`
	Stdout   string   `json:"stdout,omitempty"`
	Stderr   string   `json:"stderr,omitempty"`
}

// ShellOutcome is the result of running one command batch.
type ShellOutcome struct {
	// Executed is true when the batch ran (was not cancelled at the gate).
	Executed bool `json:"executed"`
	// Cancelled is true when the user refused the safety prompt.
	Cancelled bool `json:"cancelled"`
	// AllOK is true when every executed command exited zero.
	AllOK bool `json:"all_ok"`
	// Results holds one entry per command, in batch order.
	Results []CommandResult `json:"results"`
}

// ShellExecutor runs command batches through the safety gate, tracking a
// working directory across cd commands.
type ShellExecutor struct {
	runner iexec.CommandRunner
	gate   *safety.Gate

	// in/out are the confirmation prompt's terminal; interactive batches
	// that trip the gate read an answer from in.
	in          io.Reader
	out         io.Writer
	interactive bool

	baseDir    string
	cmdTimeout time.Duration
}

// NewShellExecutor creates a ShellExecutor. When interactive is false,
// dangerous batches are cancelled without prompting.
func NewShellExecutor(runner iexec.CommandRunner, gate *safety.Gate, in io.Reader, out io.Writer, interactive bool) *ShellExecutor {
	return &ShellExecutor{
		runner:      runner,
		gate:        gate,
		in:          in,
		out:         out,
		interactive: interactive,
		cmdTimeout:  DefaultCommandTimeout,
	}
}

// SetBaseDir sets the starting working directory for batches.
func (e *ShellExecutor) SetBaseDir(dir string) {
	e.baseDir = dir
}

// Run executes one command batch. A dangerous batch requires an exact
// "yes" at the prompt; refusal short-circuits with a cancelled, non-error
// outcome. A single command's failure is recorded and does not stop the
// rest of the batch.
func (e *ShellExecutor) Run(ctx context.Context, commands [][]string) *ShellOutcome {
	outcome := &ShellOutcome{AllOK: true}

	batch := make([][]string, 0, len(commands))
	for _, cmd := range commands {
		if len(cmd) > 0 {
			batch = append(batch, cmd)
		}
	}
	if len(batch) == 0 {
		return outcome
	}

	if e.gate.RequiresConfirmation(batch) {
		if !e.interactive || !e.gate.Confirm(e.in, e.out, batch) {
			outcome.Cancelled = true
			outcome.AllOK = false
			return outcome
		}
	}

	outcome.Executed = true
	cur := e.baseDir
	if cur == "" {
		cur = "."
	}

	for _, cmd := range batch {
		if cmd[0] == "cd" {
			cur = e.changeDir(cur, cmd)
			outcome.Results = append(outcome.Results, CommandResult{Cmd: cmd, Dir: cur})
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, e.cmdTimeout)
		stdout, stderr, code, err := e.runner.RunSplit(cctx, cur, cmd[0], cmd[1:]...)
		cancel()

		result := CommandResult{
			Cmd:      cmd,
			Dir:      cur,
			ExitCode: code,
			Stdout:   string(stdout),
			Stderr:   string(stderr),
		}
		if err != nil {
			result.ExitCode = -1
			result.Stderr = err.Error()
		}
		if result.ExitCode != 0 {
			outcome.AllOK = false
		}
		outcome.Results = append(outcome.Results, result)
	}

	return outcome
}

// changeDir resolves a cd command against the current directory without
// spawning a process. "~" expands to the user's home.
func (e *ShellExecutor) changeDir(cur string, cmd []string) string {
	target := "."
	if len(cmd) > 1 {
		target = cmd[1]
	}

	if target == "~" || strings.HasPrefix(target, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			target = filepath.Join(home, strings.TrimPrefix(target, "~"))
		}
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(cur, target)
}
