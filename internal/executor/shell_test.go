package executor

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harkvoice/hark/internal/safety"
)

// fakeRunner records every spawn and replies with scripted exit codes.
type fakeRunner struct {
	calls [][]string
	dirs  []string
	codes []int // exit code per RunSplit call, zero past the end
	err   error
}

func (f *fakeRunner) Run(_ context.Context, workDir string, name string, args ...string) ([]byte, error) {
	f.record(workDir, name, args)
	return nil, f.err
}

func (f *fakeRunner) RunSplit(_ context.Context, workDir string, name string, args ...string) ([]byte, []byte, int, error) {
	f.record(workDir, name, args)
	code := 0
	if n := len(f.calls) - 1; n < len(f.codes) {
		code = f.codes[n]
	}
	return []byte("out"), nil, code, f.err
}

func (f *fakeRunner) Start(_ context.Context, workDir string, name string, args ...string) (func() error, error) {
	f.record(workDir, name, args)
	return func() error { return nil }, f.err
}

func (f *fakeRunner) record(workDir, name string, args []string) {
	f.calls = append(f.calls, append([]string{name}, args...))
	f.dirs = append(f.dirs, workDir)
}

func newShell(runner *fakeRunner, in io.Reader, interactive bool) *ShellExecutor {
	return NewShellExecutor(runner, safety.New(), in, io.Discard, interactive)
}

func TestShellRunBatch(t *testing.T) {
	runner := &fakeRunner{}
	sh := newShell(runner, strings.NewReader(""), false)
	sh.SetBaseDir("/work")

	out := sh.Run(context.Background(), [][]string{
		{"echo", "hello"},
		{"ls", "-la"},
	})

	if !out.Executed || !out.AllOK || out.Cancelled {
		t.Fatalf("outcome = %+v", out)
	}
	if len(out.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(out.Results))
	}
	if runner.dirs[0] != "/work" || runner.dirs[1] != "/work" {
		t.Errorf("dirs = %v, want /work", runner.dirs)
	}
}

func TestShellCdDoesNotSpawn(t *testing.T) {
	runner := &fakeRunner{}
	sh := newShell(runner, strings.NewReader(""), false)
	sh.SetBaseDir("/work")

	out := sh.Run(context.Background(), [][]string{
		{"cd", "sub/dir"},
		{"ls"},
		{"cd", ".."},
		{"pwd"},
	})

	if !out.AllOK {
		t.Fatalf("outcome = %+v", out)
	}
	// Only ls and pwd reach the runner; cd is handled in-process.
	if len(runner.calls) != 2 {
		t.Fatalf("spawned = %v, want only ls and pwd", runner.calls)
	}
	if want := filepath.Join("/work", "sub/dir"); runner.dirs[0] != want {
		t.Errorf("ls dir = %q, want %q", runner.dirs[0], want)
	}
	if want := filepath.Join("/work", "sub"); runner.dirs[1] != want {
		t.Errorf("pwd dir = %q, want %q", runner.dirs[1], want)
	}
	if len(out.Results) != 4 {
		t.Errorf("results = %d, want 4 (cd entries included)", len(out.Results))
	}
}

func TestShellDangerousCancelledWithoutPrompt(t *testing.T) {
	runner := &fakeRunner{}
	sh := newShell(runner, strings.NewReader("yes\n"), false) // non-interactive

	out := sh.Run(context.Background(), [][]string{
		{"rm", "-rf", "/tmp/scratch"},
	})

	if !out.Cancelled || out.Executed || out.AllOK {
		t.Fatalf("outcome = %+v, want cancelled", out)
	}
	if len(runner.calls) != 0 {
		t.Errorf("spawned = %v, want nothing", runner.calls)
	}
}

func TestShellDangerousConfirmed(t *testing.T) {
	runner := &fakeRunner{}
	sh := newShell(runner, strings.NewReader("yes\n"), true)

	out := sh.Run(context.Background(), [][]string{
		{"rm", "-rf", "/tmp/scratch"},
	})

	if out.Cancelled || !out.Executed {
		t.Fatalf("outcome = %+v, want executed", out)
	}
	if len(runner.calls) != 1 {
		t.Errorf("spawned = %v, want one call", runner.calls)
	}
}

func TestShellDangerousRefused(t *testing.T) {
	runner := &fakeRunner{}
	sh := newShell(runner, strings.NewReader("no\n"), true)

	out := sh.Run(context.Background(), [][]string{
		{"rm", "-rf", "/tmp/scratch"},
	})

	if !out.Cancelled || out.Executed {
		t.Fatalf("outcome = %+v, want cancelled", out)
	}
	if len(runner.calls) != 0 {
		t.Errorf("spawned = %v, want nothing", runner.calls)
	}
}

func TestShellFailureDoesNotStopBatch(t *testing.T) {
	runner := &fakeRunner{codes: []int{0, 1, 0}}
	sh := newShell(runner, strings.NewReader(""), false)

	out := sh.Run(context.Background(), [][]string{
		{"true"},
		{"false"},
		{"echo", "still running"},
	})

	if !out.Executed || out.AllOK {
		t.Fatalf("outcome = %+v, want executed with AllOK=false", out)
	}
	if len(out.Results) != 3 {
		t.Fatalf("results = %d, want 3 (batch continues past failure)", len(out.Results))
	}
	if out.Results[1].ExitCode != 1 {
		t.Errorf("middle exit = %d, want 1", out.Results[1].ExitCode)
	}
	if out.Results[2].ExitCode != 0 {
		t.Errorf("last exit = %d, want 0", out.Results[2].ExitCode)
	}
}

func TestShellSpawnErrorRecorded(t *testing.T) {
	runner := &fakeRunner{err: errors.New("executable not found")}
	sh := newShell(runner, strings.NewReader(""), false)

	out := sh.Run(context.Background(), [][]string{{"nosuch"}})

	if out.AllOK {
		t.Fatal("AllOK = true, want false")
	}
	if out.Results[0].ExitCode != -1 {
		t.Errorf("exit = %d, want -1", out.Results[0].ExitCode)
	}
	if !strings.Contains(out.Results[0].Stderr, "executable not found") {
		t.Errorf("stderr = %q", out.Results[0].Stderr)
	}
}

func TestShellEmptyBatch(t *testing.T) {
	runner := &fakeRunner{}
	sh := newShell(runner, strings.NewReader(""), false)

	out := sh.Run(context.Background(), [][]string{{}, nil})

	if out.Executed || out.Cancelled || !out.AllOK {
		t.Fatalf("outcome = %+v, want empty no-op", out)
	}
}

func TestQuoteAppleScript(t *testing.T) {
	got := quoteAppleScript(`say "hi" \ bye`)
	want := `"say \"hi\" \\ bye"`
	if got != want {
		t.Errorf("quoteAppleScript = %s, want %s", got, want)
	}
}

func TestInjectBlankIsNoop(t *testing.T) {
	runner := &fakeRunner{}
	inj := NewInjector(runner)

	if err := inj.Inject(context.Background(), "   "); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("spawned = %v, want nothing for blank text", runner.calls)
	}
}

func TestInjectAppendsTrailingSpace(t *testing.T) {
	runner := &fakeRunner{}
	inj := NewInjector(runner)

	if err := inj.Inject(context.Background(), "hello world."); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("calls = %v", runner.calls)
	}
	script := runner.calls[0][len(runner.calls[0])-1]
	if !strings.Contains(script, `"hello world. "`) {
		t.Errorf("script = %q, want trailing space inside the literal", script)
	}
}

func TestChordScript(t *testing.T) {
	runner := &fakeRunner{}
	inj := NewInjector(runner)

	if err := inj.Chord(context.Background(), "n", "command"); err != nil {
		t.Fatalf("Chord: %v", err)
	}
	script := runner.calls[0][len(runner.calls[0])-1]
	if !strings.Contains(script, `keystroke "n" using {command down}`) {
		t.Errorf("script = %q", script)
	}
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		x, y    int
		wantErr bool
	}{
		{"100,200", 100, 200, false},
		{" 5 , 7 ", 5, 7, false},
		{"garbage", 0, 0, true},
		{"1,2,3", 0, 0, true},
	}
	for _, tt := range tests {
		p, err := parsePoint(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parsePoint(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsePoint(%q): %v", tt.in, err)
			continue
		}
		if p.X != tt.x || p.Y != tt.y {
			t.Errorf("parsePoint(%q) = %+v", tt.in, p)
		}
	}
}
