package models

// Point is a screen coordinate in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Target is one click candidate predicted by the vision service.
type Target struct {
	// X and Y are the predicted screen coordinates.
	X int `json:"x"`
	Y int `json:"y"`
	// Label is the vision service's description of the element.
	Label string `json:"label,omitempty"`
	// Confidence is the service's self-reported certainty in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Point returns the target's coordinates.
func (t Target) Point() Point {
	return Point{X: t.X, Y: t.Y}
}

// GuiOutcome is the result of one verify-then-act GUI action.
type GuiOutcome struct {
	// Success is true when a click landed or a fallback chord fired.
	Success bool `json:"success"`
	// Target is the point that was acted on, if any.
	Target *Target `json:"target,omitempty"`
	// Screenshots lists the capture paths taken during the action, in
	// order (per-attempt captures, verification shot, after shot).
	Screenshots []string `json:"screenshots,omitempty"`
	// MouseFrom is the pointer position before the action.
	MouseFrom Point `json:"mouse_from"`
	// MouseTo is the pointer position the click was issued at.
	MouseTo Point `json:"mouse_to"`
	// RetriesUsed is the zero-based attempt index that acted.
	RetriesUsed int `json:"retries_used"`
	// FallbackChord names the keyboard shortcut used, if any.
	FallbackChord string `json:"fallback_chord,omitempty"`
	// Error is the terminal failure message, if the action failed.
	Error string `json:"error,omitempty"`
}
