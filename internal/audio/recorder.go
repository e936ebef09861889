// Package audio captures push-to-talk recordings through a sox subprocess.
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	iexec "github.com/harkvoice/hark/internal/exec"
)

// Recorder captures one utterance at a time as a 16kHz mono WAV, the
// format whisper expects.
type Recorder struct {
	runner iexec.CommandRunner
	device string
	dir    string

	mu      sync.Mutex
	stop    func() error
	wavPath string
}

// NewRecorder creates a Recorder writing WAV files under dir. device is
// passed to sox as the input device; empty uses the system default.
func NewRecorder(runner iexec.CommandRunner, device, dir string) *Recorder {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Recorder{runner: runner, device: device, dir: dir}
}

// Start begins recording. It returns an error when a recording is already
// in progress.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		return fmt.Errorf("recording already in progress")
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("create recording directory: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("utterance-%d.wav", time.Now().UnixNano()))

	args := []string{"-q"}
	if r.device != "" {
		args = append(args, "-t", "coreaudio", r.device)
	} else {
		args = append(args, "-d")
	}
	args = append(args, "-r", "16000", "-c", "1", "-b", "16", path)

	stop, err := r.runner.Start(ctx, "", "sox", args...)
	if err != nil {
		return fmt.Errorf("start recorder: %w", err)
	}
	r.stop = stop
	r.wavPath = path
	return nil
}

// Stop ends the recording and returns the WAV path. Calling Stop with no
// active recording returns an error.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop == nil {
		return "", fmt.Errorf("no recording in progress")
	}
	stop := r.stop
	path := r.wavPath
	r.stop = nil
	r.wavPath = ""

	if err := stop(); err != nil {
		return "", fmt.Errorf("stop recorder: %w", err)
	}
	return path, nil
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop != nil
}
