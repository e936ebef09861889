package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/harkvoice/hark/internal/screen"
	"github.com/harkvoice/hark/internal/vision"
	"github.com/harkvoice/hark/pkg/models"
)

// ErrNoFallback is returned when every attempt produced zero candidates
// and the instruction matches no known keyboard shortcut.
var ErrNoFallback = errors.New("no fallback available")

// retryWidthCap is the resample width for the cheaper final-attempt capture.
const retryWidthCap = 1280

// FrameSource supplies the most recent monitor frames as vision context.
// Satisfied by *screen.Monitor.
type FrameSource interface {
	Recent(n int) []string
}

// ChordPresser presses keyboard chords. Satisfied by *OsaInjector.
type ChordPresser interface {
	Chord(ctx context.Context, key string, modifiers ...string) error
}

// GuiConfig tunes the verify-then-act retry engine.
type GuiConfig struct {
	// Attempts is the number of capture/predict/verify rounds.
	Attempts int
	// VerifyRadius is the pixel distance within which a fresh target
	// confirms the chosen point.
	VerifyRadius int
	// MinConfidence rejects weak candidates on non-final attempts.
	MinConfidence float64
	// TemperatureBase/Step/Max shape the per-attempt sampling schedule.
	TemperatureBase float64
	TemperatureStep float64
	TemperatureMax  float64
	// ContextFrames is how many recent monitor frames accompany a query.
	ContextFrames int
}

func (c GuiConfig) withDefaults() GuiConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.VerifyRadius <= 0 {
		c.VerifyRadius = 32
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.5
	}
	if c.TemperatureBase <= 0 {
		c.TemperatureBase = 0.3
	}
	if c.TemperatureStep <= 0 {
		c.TemperatureStep = 0.1
	}
	if c.TemperatureMax <= 0 {
		c.TemperatureMax = 0.7
	}
	if c.ContextFrames <= 0 {
		c.ContextFrames = 3
	}
	return c
}

// GuiExecutor resolves an instruction to a screen target and clicks it,
// with per-attempt verification and a keyboard-shortcut fallback.
type GuiExecutor struct {
	cfg      GuiConfig
	capturer screen.Capturer
	frames   FrameSource
	vision   vision.Service
	pointer  Pointer
	keys     ChordPresser
}

// NewGuiExecutor creates the verify-then-act engine. frames may be nil
// when no monitor is running.
func NewGuiExecutor(cfg GuiConfig, capturer screen.Capturer, frames FrameSource, vs vision.Service, pointer Pointer, keys ChordPresser) *GuiExecutor {
	return &GuiExecutor{
		cfg:      cfg.withDefaults(),
		capturer: capturer,
		frames:   frames,
		vision:   vs,
		pointer:  pointer,
		keys:     keys,
	}
}

// decisionKind is the explicit attempt-result variant consumed by the
// retry driver.
type decisionKind int

const (
	decideActed decisionKind = iota
	decideRetry
	decideNoTargets
	decideFail
)

type attemptDecision struct {
	kind   decisionKind
	reason string
	err    error
}

// Execute drives the bounded retry loop:
// capture -> predict -> filter -> verify -> act. Exhaustion with zero
// candidates falls back to a keyboard shortcut; any other exhaustion is a
// terminal error on the outcome, never a panic.
func (e *GuiExecutor) Execute(ctx context.Context, instruction string) *models.GuiOutcome {
	out := &models.GuiOutcome{}

	for attempt := 0; attempt < e.cfg.Attempts; attempt++ {
		final := attempt == e.cfg.Attempts-1

		d := e.attempt(ctx, instruction, attempt, final, out)
		switch d.kind {
		case decideActed:
			out.Success = true
			out.RetriesUsed = attempt
			return out
		case decideRetry:
			log.Printf("[gui] attempt %d retrying: %s", attempt, d.reason)
		case decideNoTargets:
			if final {
				return e.fallback(ctx, instruction, out)
			}
			log.Printf("[gui] attempt %d produced no targets", attempt)
		case decideFail:
			out.Error = d.err.Error()
			return out
		}
	}

	out.Error = "max retries exceeded"
	out.RetriesUsed = e.cfg.Attempts
	return out
}

// attempt runs one capture/predict/filter/verify/act round. Errors retry
// on non-final attempts and surface on the final one.
func (e *GuiExecutor) attempt(ctx context.Context, instruction string, attempt int, final bool, out *models.GuiOutcome) attemptDecision {
	fail := func(err error) attemptDecision {
		if final {
			return attemptDecision{kind: decideFail, err: err}
		}
		return attemptDecision{kind: decideRetry, reason: err.Error()}
	}

	// CAPTURE, strategy by attempt number.
	shot, err := e.capturer.Capture(ctx, captureOpts(attempt))
	if err != nil {
		return fail(fmt.Errorf("capture: %w", err))
	}
	out.Screenshots = append(out.Screenshots, shot.Best())

	// PREDICT, exploring more on each retry.
	pred, err := e.vision.SuggestTargets(ctx, shot.Best(), instruction, e.recent(), e.temperature(attempt))
	if err != nil {
		return fail(fmt.Errorf("predict: %w", err))
	}
	if len(pred.Targets) == 0 {
		return attemptDecision{kind: decideNoTargets}
	}

	// FILTER: take the most confident candidate; weak guesses only pass
	// on the final attempt.
	best := pred.Targets[0]
	for _, t := range pred.Targets[1:] {
		if t.Confidence > best.Confidence {
			best = t
		}
	}
	if !final && best.Confidence < e.cfg.MinConfidence {
		return attemptDecision{kind: decideRetry, reason: fmt.Sprintf("confidence %.2f below %.2f", best.Confidence, e.cfg.MinConfidence)}
	}

	tx, ty := best.X, best.Y
	out.Target = &models.Target{X: tx, Y: ty, Label: best.Label, Confidence: best.Confidence}

	// VERIFY: re-query against a fresh capture; the UI may have changed
	// between prediction and action.
	vshot, err := e.capturer.Capture(ctx, screen.CaptureOpts{Prefix: "verify", Compress: true})
	if err != nil {
		return fail(fmt.Errorf("verify capture: %w", err))
	}
	out.Screenshots = append(out.Screenshots, vshot.Best())

	vpred, err := e.vision.SuggestTargets(ctx, vshot.Best(), instruction, e.recent(), e.cfg.TemperatureBase)
	if err != nil {
		return fail(fmt.Errorf("verify predict: %w", err))
	}

	near := false
	for _, t := range vpred.Targets {
		if dist(t.X, t.Y, tx, ty) <= float64(e.cfg.VerifyRadius) {
			near = true
			break
		}
	}
	if !near && len(vpred.Targets) > 0 {
		if !final {
			return attemptDecision{kind: decideRetry, reason: "target moved"}
		}
		// Best-effort correction: snap the click to the closest fresh
		// target rather than failing outright.
		closest := vpred.Targets[0]
		for _, t := range vpred.Targets[1:] {
			if dist(t.X, t.Y, tx, ty) < dist(closest.X, closest.Y, tx, ty) {
				closest = t
			}
		}
		tx, ty = closest.X, closest.Y
	}

	// ACT.
	prev, err := e.pointer.Position(ctx)
	if err != nil {
		return fail(fmt.Errorf("pointer position: %w", err))
	}
	if err := e.pointer.MoveTo(ctx, tx, ty); err != nil {
		return fail(fmt.Errorf("pointer move: %w", err))
	}
	if err := e.pointer.Click(ctx, tx, ty); err != nil {
		return fail(fmt.Errorf("pointer click: %w", err))
	}

	if after, err := e.capturer.Capture(ctx, screen.CaptureOpts{Prefix: "after", Compress: true}); err == nil {
		out.Screenshots = append(out.Screenshots, after.Best())
	} else {
		// The click already landed; a missing after-shot is not a failure.
		log.Printf("[gui] after-capture failed: %v", err)
	}

	out.MouseFrom = prev
	out.MouseTo = models.Point{X: tx, Y: ty}
	return attemptDecision{kind: decideActed}
}

// fallbackChords maps instruction keywords to keyboard shortcuts, tried
// in order.
var fallbackChords = []struct {
	keywords []string
	key      string
	label    string
}{
	{[]string{"compose", "new"}, "n", "cmd+n"},
	{[]string{"save"}, "s", "cmd+s"},
	{[]string{"copy"}, "c", "cmd+c"},
	{[]string{"paste"}, "v", "cmd+v"},
}

// fallback runs only when every attempt produced zero candidates. It maps
// instruction keywords to a platform shortcut chord; anything unmatched is
// a definitive error.
func (e *GuiExecutor) fallback(ctx context.Context, instruction string, out *models.GuiOutcome) *models.GuiOutcome {
	low := strings.ToLower(instruction)
	out.RetriesUsed = e.cfg.Attempts - 1

	for _, fc := range fallbackChords {
		matched := false
		for _, kw := range fc.keywords {
			if strings.Contains(low, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		if err := e.keys.Chord(ctx, fc.key, "command"); err != nil {
			out.Error = fmt.Sprintf("fallback failed: %v", err)
			return out
		}
		out.Success = true
		out.FallbackChord = fc.label
		return out
	}

	out.Error = ErrNoFallback.Error()
	return out
}

// captureOpts selects the capture strategy per attempt: standard
// compressed first, uncompressed to recover detail, then a cheaper
// width-capped pass.
func captureOpts(attempt int) screen.CaptureOpts {
	switch attempt {
	case 0:
		return screen.CaptureOpts{Prefix: "before", Compress: true}
	case 1:
		return screen.CaptureOpts{Prefix: "retry1", Compress: false}
	default:
		return screen.CaptureOpts{Prefix: "retry2", Compress: true, MaxWidth: retryWidthCap}
	}
}

// temperature increases modestly per attempt to encourage more exploratory
// answers on retry, capped at the configured maximum.
func (e *GuiExecutor) temperature(attempt int) float64 {
	t := e.cfg.TemperatureBase + float64(attempt)*e.cfg.TemperatureStep
	return math.Min(t, e.cfg.TemperatureMax)
}

func (e *GuiExecutor) recent() []string {
	if e.frames == nil {
		return nil
	}
	return e.frames.Recent(e.cfg.ContextFrames)
}

func dist(x1, y1, x2, y2 int) float64 {
	return math.Hypot(float64(x1-x2), float64(y1-y2))
}
