// Package exec provides an interface for command execution.
package exec

import (
	"context"
)

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunSplit executes a command and returns stdout and stderr separately
	// along with the process exit code. A non-zero exit is not an error;
	// err is non-nil only when the process could not be started or was
	// killed by the context.
	RunSplit(ctx context.Context, workDir string, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)

	// Start launches a command without waiting for it. The returned stop
	// function interrupts the process and waits for it to exit.
	Start(ctx context.Context, workDir string, name string, args ...string) (stop func() error, err error)
}
