package models

// RoutePath is the execution modality chosen for one instruction.
type RoutePath string

const (
	// RouteDictation injects the instruction as literal text.
	RouteDictation RoutePath = "dictation"
	// RouteShell executes one or more shell commands.
	RouteShell RoutePath = "shell"
	// RouteGui resolves and clicks an on-screen target.
	RouteGui RoutePath = "gui"
)

// Valid returns true if the path is a known value.
func (p RoutePath) Valid() bool {
	switch p {
	case RouteDictation, RouteShell, RouteGui:
		return true
	default:
		return false
	}
}

// RouteDecision is the router's verdict for one instruction. It is
// produced and consumed within a single task execution.
type RouteDecision struct {
	// Path is the chosen execution modality.
	Path RoutePath `json:"path"`
	// Commands holds the token lists to run when Path is shell.
	Commands [][]string `json:"commands,omitempty"`
	// Via records which resolution step matched (alias, app, workflow,
	// keyword, generated, fallback). Informational only.
	Via string `json:"via,omitempty"`
}

// ActionResult describes what a single task execution actually did.
// Exactly the fields for the chosen path are populated.
type ActionResult struct {
	// Path is the modality the task was dispatched to.
	Path RoutePath `json:"path"`
	// Commands holds the shell commands that were considered.
	Commands [][]string `json:"commands,omitempty"`
	// Injected is the literal text typed for dictation tasks.
	Injected string `json:"injected,omitempty"`
	// Gui holds the verify-then-act outcome for gui tasks.
	Gui *GuiOutcome `json:"gui,omitempty"`
	// Cancelled is true when the user refused the safety prompt.
	Cancelled bool `json:"cancelled,omitempty"`
	// Detail is a short human-readable note about the outcome.
	Detail string `json:"detail,omitempty"`
}
