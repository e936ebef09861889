// Package screen captures screenshots and runs the continuous monitor that
// feeds recent frames to the GUI executor.
package screen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	iexec "github.com/harkvoice/hark/internal/exec"
)

// DefaultMaxWidth is the resample width for compressed captures.
const DefaultMaxWidth = 1920

// CaptureOpts selects the capture strategy for one shot.
type CaptureOpts struct {
	// Prefix names the output file (prefix-timestamp.png).
	Prefix string
	// Compress additionally produces a width-capped copy.
	Compress bool
	// MaxWidth overrides the resample width for the compressed copy.
	MaxWidth int
}

// Shot is one captured screenshot.
type Shot struct {
	// PNGPath is the full-resolution capture.
	PNGPath string
	// CompressedPath is the width-capped copy, when compression was requested.
	CompressedPath string
}

// Best returns the preferred path for model input: the compressed copy if
// one exists, otherwise the full PNG.
func (s Shot) Best() string {
	if s.CompressedPath != "" {
		return s.CompressedPath
	}
	return s.PNGPath
}

// Capturer takes screenshots on demand.
type Capturer interface {
	Capture(ctx context.Context, opts CaptureOpts) (Shot, error)
}

// OSCapturer captures via the screencapture and sips tools.
type OSCapturer struct {
	runner iexec.CommandRunner
	dir    string
}

// NewCapturer creates an OSCapturer writing into dir.
func NewCapturer(runner iexec.CommandRunner, dir string) *OSCapturer {
	return &OSCapturer{runner: runner, dir: dir}
}

// Capture takes one screenshot. When opts.Compress is set, a second
// width-capped file is produced alongside the PNG.
func (c *OSCapturer) Capture(ctx context.Context, opts CaptureOpts) (Shot, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return Shot{}, fmt.Errorf("create screenshots directory: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "shot"
	}
	ts := time.Now().Format("20060102-150405.000")
	pngPath := filepath.Join(c.dir, fmt.Sprintf("%s-%s.png", prefix, ts))

	// -x suppresses the capture sound.
	if out, err := c.runner.Run(ctx, "", "screencapture", "-x", pngPath); err != nil {
		return Shot{}, fmt.Errorf("screencapture: %w: %s", err, strings.TrimSpace(string(out)))
	}

	shot := Shot{PNGPath: pngPath}

	if opts.Compress {
		width := opts.MaxWidth
		if width <= 0 {
			width = DefaultMaxWidth
		}
		compressed := strings.TrimSuffix(pngPath, ".png") + fmt.Sprintf("-w%d.png", width)
		out, err := c.runner.Run(ctx, "", "sips",
			"--resampleWidth", strconv.Itoa(width), pngPath, "--out", compressed)
		if err != nil {
			// The full PNG is still usable; compression is best-effort.
			return shot, fmt.Errorf("sips resample: %w: %s", err, strings.TrimSpace(string(out)))
		}
		shot.CompressedPath = compressed
	}

	return shot, nil
}

// Verify OSCapturer implements Capturer at compile time.
var _ Capturer = (*OSCapturer)(nil)
