// Package route decides which execution path an instruction takes:
// dictation, shell, or gui.
package route

import (
	"context"
	"log"
	"strings"

	"github.com/harkvoice/hark/internal/library"
	"github.com/harkvoice/hark/internal/safety"
	"github.com/harkvoice/hark/pkg/models"
)

// guiKeywords is the UI-action verb set that routes an instruction to the
// GUI executor. Checked as lowercase substrings.
var guiKeywords = []string{
	"click", "press", "compose", "scroll", "select", "button",
	"menu", "tab", "play", "pause", "submit", "open compose",
}

// availableOps describes the low-level operations the agent can perform.
// Passed to the command generator as context.
var availableOps = []string{
	"pointer.moveto(x,y)",
	"pointer.click(x,y)",
	"keyboard.type(text)",
	"keyboard.chord(key,modifiers)",
	"screen.capture()",
}

// Libraries provides the current command-library tables. The hot-reloading
// *library.Library satisfies this.
type Libraries interface {
	Tables() library.Tables
}

// Generator produces shell commands for an instruction the library cannot
// answer. Best-effort: implementations return an empty list on failure.
type Generator interface {
	Generate(ctx context.Context, instruction string, tables library.Tables, ops []string) ([][]string, error)
}

// Router resolves one instruction to a RouteDecision. Resolution order:
// deterministic library lookup, GUI-intent heuristic, generative fallback,
// dictation.
type Router struct {
	lib  Libraries
	gen  Generator
	gate *safety.Gate
}

// New creates a Router. gen may be nil, in which case the generative step
// is skipped.
func New(lib Libraries, gen Generator, gate *safety.Gate) *Router {
	return &Router{lib: lib, gen: gen, gate: gate}
}

// Route decides the execution path for one instruction. It never fails:
// anything unresolvable falls through to dictation.
func (r *Router) Route(ctx context.Context, instruction string) models.RouteDecision {
	text := strings.TrimSpace(instruction)
	low := strings.ToLower(text)

	// 1) Deterministic lookup against the command library.
	if decision, ok := r.lookup(low); ok {
		return decision
	}

	// 2) UI verbs route to the GUI executor; target resolution is deferred.
	for _, k := range guiKeywords {
		if strings.Contains(low, k) {
			return models.RouteDecision{Path: models.RouteGui, Via: "keyword"}
		}
	}

	// 3) Generative fallback, filtered for dangerous tokens.
	if r.gen != nil {
		commands, err := r.gen.Generate(ctx, text, r.lib.Tables(), availableOps)
		if err != nil {
			log.Printf("[route] command generation failed: %v", err)
			commands = nil
		}
		commands = r.gate.FilterGenerated(commands)
		if len(commands) > 0 {
			return models.RouteDecision{Path: models.RouteShell, Commands: commands, Via: "generated"}
		}
	}

	// 4) Nothing matched: inject the instruction as literal text.
	return models.RouteDecision{Path: models.RouteDictation, Via: "fallback"}
}

// lookup is the deterministic match against aliases, apps, and workflows.
func (r *Router) lookup(low string) (models.RouteDecision, bool) {
	tables := r.lib.Tables()

	// Aliases match on the whole phrase or any underscore-split word of it.
	for alias, url := range tables.Aliases {
		key := strings.ToLower(alias)
		if strings.Contains(low, key) || anyWordIn(low, strings.Split(key, "_")) {
			return models.RouteDecision{
				Path:     models.RouteShell,
				Commands: [][]string{{"open", url}},
				Via:      "alias",
			}, true
		}
	}

	for app, cmd := range tables.Apps {
		if strings.Contains(low, strings.ToLower(app)) {
			return models.RouteDecision{
				Path:     models.RouteShell,
				Commands: [][]string{cmd},
				Via:      "app",
			}, true
		}
	}

	// Workflows match when at least half the key phrase's words appear.
	for workflow, commands := range tables.Workflows {
		keyWords := strings.Fields(strings.ReplaceAll(strings.ToLower(workflow), "_", " "))
		if len(keyWords) == 0 {
			continue
		}
		hits := 0
		for _, w := range keyWords {
			if strings.Contains(low, w) {
				hits++
			}
		}
		if hits > 0 && hits >= len(keyWords)/2 {
			return models.RouteDecision{
				Path:     models.RouteShell,
				Commands: commands,
				Via:      "workflow",
			}, true
		}
	}

	return models.RouteDecision{}, false
}

func anyWordIn(low string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(low, w) {
			return true
		}
	}
	return false
}
