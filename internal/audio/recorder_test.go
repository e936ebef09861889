package audio

import (
	"context"
	"strings"
	"testing"
)

type recordingRunner struct {
	started [][]string
	stopped int
}

func (r *recordingRunner) Run(context.Context, string, string, ...string) ([]byte, error) {
	return nil, nil
}

func (r *recordingRunner) RunSplit(context.Context, string, string, ...string) ([]byte, []byte, int, error) {
	return nil, nil, 0, nil
}

func (r *recordingRunner) Start(_ context.Context, _ string, name string, args ...string) (func() error, error) {
	r.started = append(r.started, append([]string{name}, args...))
	return func() error { r.stopped++; return nil }, nil
}

func TestRecorderLifecycle(t *testing.T) {
	runner := &recordingRunner{}
	rec := NewRecorder(runner, "", t.TempDir())

	if rec.Recording() {
		t.Fatal("Recording() = true before Start")
	}
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !rec.Recording() {
		t.Error("Recording() = false after Start")
	}
	if err := rec.Start(context.Background()); err == nil {
		t.Error("second Start should fail while recording")
	}

	path, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !strings.HasSuffix(path, ".wav") {
		t.Errorf("path = %q, want .wav", path)
	}
	if runner.stopped != 1 {
		t.Errorf("stopped = %d, want 1", runner.stopped)
	}
	if rec.Recording() {
		t.Error("Recording() = true after Stop")
	}
	if _, err := rec.Stop(); err == nil {
		t.Error("Stop with no recording should fail")
	}
}

func TestRecorderSoxArgs(t *testing.T) {
	runner := &recordingRunner{}
	rec := NewRecorder(runner, "", t.TempDir())

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.Stop()

	cmd := strings.Join(runner.started[0], " ")
	if !strings.HasPrefix(cmd, "sox -q -d") {
		t.Errorf("cmd = %q, want default device", cmd)
	}
	for _, want := range []string{"-r 16000", "-c 1", "-b 16"} {
		if !strings.Contains(cmd, want) {
			t.Errorf("cmd = %q, missing %q", cmd, want)
		}
	}
}

func TestRecorderNamedDevice(t *testing.T) {
	runner := &recordingRunner{}
	rec := NewRecorder(runner, "MacBook Pro Microphone", t.TempDir())

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.Stop()

	cmd := strings.Join(runner.started[0], " ")
	if !strings.Contains(cmd, "-t coreaudio MacBook Pro Microphone") {
		t.Errorf("cmd = %q, want named coreaudio device", cmd)
	}
}
