package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	iexec "github.com/harkvoice/hark/internal/exec"
	"github.com/harkvoice/hark/pkg/models"
)

// Pointer moves and clicks the mouse. Injected so GUI actions can run
// against a fake in tests.
type Pointer interface {
	Position(ctx context.Context) (models.Point, error)
	MoveTo(ctx context.Context, x, y int) error
	Click(ctx context.Context, x, y int) error
}

// CliClickPointer drives the mouse through the cliclick tool.
type CliClickPointer struct {
	runner iexec.CommandRunner
}

// NewPointer creates a CliClickPointer.
func NewPointer(runner iexec.CommandRunner) *CliClickPointer {
	return &CliClickPointer{runner: runner}
}

// Position reports the current pointer position.
func (p *CliClickPointer) Position(ctx context.Context) (models.Point, error) {
	out, err := p.runner.Run(ctx, "", "cliclick", "p")
	if err != nil {
		return models.Point{}, fmt.Errorf("pointer position: %w", err)
	}
	return parsePoint(strings.TrimSpace(string(out)))
}

// MoveTo moves the pointer to absolute coordinates.
func (p *CliClickPointer) MoveTo(ctx context.Context, x, y int) error {
	if out, err := p.runner.Run(ctx, "", "cliclick", fmt.Sprintf("m:%d,%d", x, y)); err != nil {
		return fmt.Errorf("pointer move: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Click issues a single primary-button click at absolute coordinates.
func (p *CliClickPointer) Click(ctx context.Context, x, y int) error {
	if out, err := p.runner.Run(ctx, "", "cliclick", fmt.Sprintf("c:%d,%d", x, y)); err != nil {
		return fmt.Errorf("pointer click: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// parsePoint parses cliclick's "x,y" position output.
func parsePoint(s string) (models.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return models.Point{}, fmt.Errorf("unexpected pointer output %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return models.Point{}, fmt.Errorf("unexpected pointer output %q", s)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return models.Point{}, fmt.Errorf("unexpected pointer output %q", s)
	}
	return models.Point{X: x, Y: y}, nil
}

// Verify CliClickPointer implements Pointer at compile time.
var _ Pointer = (*CliClickPointer)(nil)
