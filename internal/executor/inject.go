package executor

import (
	"context"
	"fmt"
	"strings"

	iexec "github.com/harkvoice/hark/internal/exec"
)

// OsaInjector types text and keyboard chords through osascript.
type OsaInjector struct {
	runner iexec.CommandRunner
}

// NewInjector creates an OsaInjector.
func NewInjector(runner iexec.CommandRunner) *OsaInjector {
	return &OsaInjector{runner: runner}
}

// Inject types the literal text followed by a trailing space. Blank text
// is a no-op.
func (i *OsaInjector) Inject(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	script := fmt.Sprintf(`tell application "System Events" to keystroke %s`, quoteAppleScript(text+" "))
	if out, err := i.runner.Run(ctx, "", "osascript", "-e", script); err != nil {
		return fmt.Errorf("inject text: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Chord presses a key with the given modifiers (e.g. "n", "command").
func (i *OsaInjector) Chord(ctx context.Context, key string, modifiers ...string) error {
	script := fmt.Sprintf(`tell application "System Events" to keystroke %s`, quoteAppleScript(key))
	if len(modifiers) > 0 {
		downs := make([]string, len(modifiers))
		for j, m := range modifiers {
			downs[j] = m + " down"
		}
		script += fmt.Sprintf(" using {%s}", strings.Join(downs, ", "))
	}

	if out, err := i.runner.Run(ctx, "", "osascript", "-e", script); err != nil {
		return fmt.Errorf("press chord: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// quoteAppleScript renders text as an AppleScript string literal.
func quoteAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
