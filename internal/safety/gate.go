// Package safety provides confirmation gates and static filters for
// dangerous shell commands.
package safety

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
)

// DefaultPatterns match command text that requires human confirmation.
// Matching runs against the joined, lowercased command string.
var DefaultPatterns = []string{
	`\brm\b.*-rf`,
	`\bkillall\b`,
	`\bshutdown\b`,
	`\breboot\b`,
	`\bsudo\b.*\brm\b`,
	`\bdd\b.*if=`,
	`\bmkfs\b`,
	`\bformat\b`,
}

// DefaultBlocked are joined command strings that always require
// confirmation, matched exactly.
var DefaultBlocked = []string{
	"rm -rf /",
	"sudo rm -rf /",
	"format c:",
}

// blockedTokens are stripped outright from model-generated commands.
var blockedTokens = map[string]struct{}{
	"rm":       {},
	"shutdown": {},
	"reboot":   {},
	"kill":     {},
	"killall":  {},
}

// Gate classifies command batches as dangerous or safe. Dangerous batches
// require an exact "yes" from the user before execution; the static
// filters drop dangerous entries without prompting.
type Gate struct {
	patterns []*regexp.Regexp
	blocked  map[string]struct{}
	mu       sync.RWMutex
}

// New creates a Gate with the built-in deny rules.
func New() *Gate {
	g := &Gate{
		blocked: make(map[string]struct{}, len(DefaultBlocked)),
	}
	for _, p := range DefaultPatterns {
		g.patterns = append(g.patterns, regexp.MustCompile(`(?i)`+p))
	}
	for _, b := range DefaultBlocked {
		g.blocked[b] = struct{}{}
	}
	return g
}

// RequiresConfirmation reports whether any command in the batch matches a
// blocked string or a dangerous pattern.
func (g *Gate) RequiresConfirmation(commands [][]string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, cmd := range commands {
		if g.dangerousLocked(cmd) {
			return true
		}
	}
	return false
}

func (g *Gate) dangerousLocked(cmd []string) bool {
	cmdStr := strings.ToLower(strings.Join(cmd, " "))
	if _, ok := g.blocked[cmdStr]; ok {
		return true
	}
	for _, re := range g.patterns {
		if re.MatchString(cmdStr) {
			return true
		}
	}
	return false
}

// Prompt renders the confirmation prompt for a dangerous batch. Every
// command is listed verbatim.
func (g *Gate) Prompt(commands [][]string) string {
	var b strings.Builder
	b.WriteString("\nDANGEROUS OPERATION DETECTED\n\n")
	b.WriteString("The following commands will be executed:\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "  %s\n", strings.Join(cmd, " "))
	}
	b.WriteString("\nThis could potentially harm your system or data.\n")
	b.WriteString("Type 'yes' to confirm, or anything else to cancel: ")
	return b.String()
}

// Confirm writes the prompt and reads one response line. Only an exact
// "yes" (case-insensitive, surrounding whitespace ignored) approves the
// batch; any other response or end of input cancels.
func (g *Gate) Confirm(in io.Reader, out io.Writer, commands [][]string) bool {
	fmt.Fprint(out, g.Prompt(commands))

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	return strings.ToLower(strings.TrimSpace(scanner.Text())) == "yes"
}

// FilterSafe drops commands that match a blocked string or dangerous
// pattern. Non-interactive counterpart to Confirm.
func (g *Gate) FilterSafe(commands [][]string) [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	safe := make([][]string, 0, len(commands))
	for _, cmd := range commands {
		if !g.dangerousLocked(cmd) {
			safe = append(safe, cmd)
		}
	}
	return safe
}

// FilterGenerated strips model-generated commands containing a blocked
// token or the rm/-rf combination.
func (g *Gate) FilterGenerated(commands [][]string) [][]string {
	filtered := make([][]string, 0, len(commands))
	for _, cmd := range commands {
		tokens := make([]string, len(cmd))
		for i, t := range cmd {
			tokens[i] = strings.ToLower(t)
		}
		if containsBlockedToken(tokens) {
			continue
		}
		if containsToken(tokens, "rm") && containsToken(tokens, "-rf") {
			continue
		}
		filtered = append(filtered, cmd)
	}
	return filtered
}

func containsBlockedToken(tokens []string) bool {
	for _, t := range tokens {
		if _, ok := blockedTokens[t]; ok {
			return true
		}
	}
	return false
}

func containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
