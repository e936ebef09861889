package orchestrator

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harkvoice/hark/internal/executor"
	"github.com/harkvoice/hark/pkg/models"
)

// routeByPrefix routes instructions by keyword: "type ..." -> dictation,
// "run ..." -> shell, anything else -> gui.
type routeByPrefix struct{}

func (routeByPrefix) Route(_ context.Context, instruction string) models.RouteDecision {
	switch {
	case strings.HasPrefix(instruction, "type"):
		return models.RouteDecision{Path: models.RouteDictation}
	case strings.HasPrefix(instruction, "run"):
		return models.RouteDecision{Path: models.RouteShell, Commands: [][]string{{"echo", "ok"}}, Via: "generated"}
	default:
		return models.RouteDecision{Path: models.RouteGui}
	}
}

type fakeShell struct {
	delay   time.Duration
	fail    bool
	cancel  bool
	mu      sync.Mutex
	batches [][][]string
}

func (f *fakeShell) Run(_ context.Context, commands [][]string) *executor.ShellOutcome {
	time.Sleep(f.delay)
	f.mu.Lock()
	f.batches = append(f.batches, commands)
	f.mu.Unlock()

	if f.cancel {
		return &executor.ShellOutcome{Cancelled: true}
	}
	out := &executor.ShellOutcome{Executed: true, AllOK: !f.fail}
	if f.fail {
		out.Results = []executor.CommandResult{{Cmd: []string{"echo", "ok"}, ExitCode: 1, Stderr: "boom"}}
	}
	return out
}

type fakeGui struct {
	delay   time.Duration
	fail    bool
	active  atomic.Int32
	maxSeen atomic.Int32
	calls   atomic.Int32
}

func (f *fakeGui) Execute(ctx context.Context, _ string) *models.GuiOutcome {
	cur := f.active.Add(1)
	for {
		max := f.maxSeen.Load()
		if cur <= max || f.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	defer f.active.Add(-1)
	f.calls.Add(1)

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return &models.GuiOutcome{Error: ctx.Err().Error()}
	}
	if f.fail {
		return &models.GuiOutcome{Error: "max retries exceeded"}
	}
	return &models.GuiOutcome{Success: true}
}

type fakeInjector struct {
	mu    sync.Mutex
	typed []string
}

func (f *fakeInjector) Inject(_ context.Context, text string) error {
	f.mu.Lock()
	f.typed = append(f.typed, text)
	f.mu.Unlock()
	return nil
}

func collab(shell *fakeShell, gui *fakeGui, inj *fakeInjector) Collaborators {
	if shell == nil {
		shell = &fakeShell{}
	}
	if gui == nil {
		gui = &fakeGui{}
	}
	if inj == nil {
		inj = &fakeInjector{}
	}
	return Collaborators{Router: routeByPrefix{}, Shell: shell, Gui: gui, Injector: inj}
}

func task(id, instruction string, deps ...string) *models.Task {
	kind := models.TaskKindParallel
	if len(deps) > 0 {
		kind = models.TaskKindSequential
	}
	return &models.Task{ID: id, Instruction: instruction, Kind: kind, DependsOn: deps}
}

func newTestOrchestrator(t *testing.T, c Collaborators, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append([]Option{WithPollInterval(5 * time.Millisecond)}, opts...)
	o, err := New(c, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(o.Shutdown)
	return o
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Collaborators{}); err == nil {
		t.Error("New with no collaborators should fail")
	}
	c := collab(nil, nil, nil)
	c.Gui = nil
	if _, err := New(c); err == nil {
		t.Error("New without gui executor should fail")
	}
}

func TestExecuteDictation(t *testing.T) {
	inj := &fakeInjector{}
	o := newTestOrchestrator(t, collab(nil, nil, inj))

	execs := o.Execute(context.Background(), []*models.Task{task("task_0", "type hello there")})

	e := execs["task_0"]
	if e.Status != models.TaskStatusCompleted {
		t.Fatalf("status = %s, error = %q", e.Status, e.Error)
	}
	if e.Result == nil || e.Result.Path != models.RouteDictation {
		t.Fatalf("result = %+v", e.Result)
	}
	if len(inj.typed) != 1 || inj.typed[0] != "type hello there" {
		t.Errorf("typed = %v", inj.typed)
	}
	if e.StartedAt.IsZero() || e.CompletedAt.IsZero() {
		t.Error("timestamps not recorded")
	}
}

func TestSequentialOrdering(t *testing.T) {
	var mu sync.Mutex
	var order []string
	inj := &fakeInjector{}
	shell := &fakeShell{delay: 50 * time.Millisecond}

	c := collab(shell, nil, inj)
	base := c.Router
	c.Router = routerFunc(func(ctx context.Context, instruction string) models.RouteDecision {
		mu.Lock()
		order = append(order, instruction)
		mu.Unlock()
		return base.Route(ctx, instruction)
	})

	o := newTestOrchestrator(t, c)
	execs := o.Execute(context.Background(), []*models.Task{
		task("task_0", "run the backup"),
		task("task_1", "type all done", "task_0"),
	})

	if execs["task_0"].Status != models.TaskStatusCompleted || execs["task_1"].Status != models.TaskStatusCompleted {
		t.Fatalf("statuses = %s, %s", execs["task_0"].Status, execs["task_1"].Status)
	}
	// task_1 must not be routed until task_0 is terminal.
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "run the backup" || order[1] != "type all done" {
		t.Errorf("routing order = %v", order)
	}
	if execs["task_1"].StartedAt.Before(execs["task_0"].CompletedAt) {
		t.Errorf("task_1 started %s before task_0 completed %s",
			execs["task_1"].StartedAt.Format(time.RFC3339Nano),
			execs["task_0"].CompletedAt.Format(time.RFC3339Nano))
	}
}

type routerFunc func(ctx context.Context, instruction string) models.RouteDecision

func (f routerFunc) Route(ctx context.Context, instruction string) models.RouteDecision {
	return f(ctx, instruction)
}

func TestParallelTasksOverlap(t *testing.T) {
	shell := &fakeShell{delay: 100 * time.Millisecond}
	o := newTestOrchestrator(t, collab(shell, nil, nil), WithWorkers(3))

	start := time.Now()
	execs := o.Execute(context.Background(), []*models.Task{
		task("task_0", "run one"),
		task("task_1", "run two"),
		task("task_2", "run three"),
	})
	elapsed := time.Since(start)

	for id, e := range execs {
		if e.Status != models.TaskStatusCompleted {
			t.Fatalf("%s status = %s", id, e.Status)
		}
	}
	// Three 100ms tasks on three workers should take well under the
	// 300ms a serial run would need.
	if elapsed > 250*time.Millisecond {
		t.Errorf("elapsed = %s, tasks did not run in parallel", elapsed)
	}
}

func TestGuiMutualExclusion(t *testing.T) {
	gui := &fakeGui{delay: 30 * time.Millisecond}
	o := newTestOrchestrator(t, collab(nil, gui, nil), WithWorkers(3))

	execs := o.Execute(context.Background(), []*models.Task{
		task("task_0", "click send"),
		task("task_1", "click save"),
		task("task_2", "click close"),
	})

	for id, e := range execs {
		if e.Status != models.TaskStatusCompleted {
			t.Fatalf("%s status = %s, error = %q", id, e.Status, e.Error)
		}
	}
	if got := gui.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent GUI actions = %d, want 1", got)
	}
	if gui.calls.Load() != 3 {
		t.Errorf("gui calls = %d, want 3", gui.calls.Load())
	}
}

func TestFailedDependencyUnblocksDownstream(t *testing.T) {
	shell := &fakeShell{fail: true}
	inj := &fakeInjector{}
	o := newTestOrchestrator(t, collab(shell, nil, inj))

	execs := o.Execute(context.Background(), []*models.Task{
		task("task_0", "run something broken"),
		task("task_1", "type report it", "task_0"),
	})

	if execs["task_0"].Status != models.TaskStatusFailed {
		t.Fatalf("task_0 status = %s", execs["task_0"].Status)
	}
	if !strings.Contains(execs["task_0"].Error, "boom") {
		t.Errorf("task_0 error = %q", execs["task_0"].Error)
	}
	// The failure unblocks task_1; it still runs.
	if execs["task_1"].Status != models.TaskStatusCompleted {
		t.Errorf("task_1 status = %s, error = %q", execs["task_1"].Status, execs["task_1"].Error)
	}
	if len(inj.typed) != 1 {
		t.Errorf("typed = %v", inj.typed)
	}
}

func TestTaskTimeout(t *testing.T) {
	gui := &fakeGui{delay: 500 * time.Millisecond}
	o := newTestOrchestrator(t, collab(nil, gui, nil), WithTaskTimeout(50*time.Millisecond))

	execs := o.Execute(context.Background(), []*models.Task{task("task_0", "click the slow thing")})

	e := execs["task_0"]
	if e.Status != models.TaskStatusFailed {
		t.Fatalf("status = %s", e.Status)
	}
	if !strings.Contains(e.Error, "timed out") {
		t.Errorf("error = %q, want timeout", e.Error)
	}
}

func TestShellCancelledIsNotFailure(t *testing.T) {
	shell := &fakeShell{cancel: true}
	o := newTestOrchestrator(t, collab(shell, nil, nil))

	execs := o.Execute(context.Background(), []*models.Task{task("task_0", "run rm everything")})

	e := execs["task_0"]
	if e.Status != models.TaskStatusCompleted {
		t.Fatalf("status = %s, error = %q", e.Status, e.Error)
	}
	if e.Result == nil || !e.Result.Cancelled {
		t.Errorf("result = %+v, want cancelled", e.Result)
	}
}

func TestEventsEmitted(t *testing.T) {
	shell := &fakeShell{fail: true}
	inj := &fakeInjector{}
	o := newTestOrchestrator(t, collab(shell, nil, inj))

	var events []Event
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range o.Events() {
			events = append(events, evt)
			if evt.Type == EventRunCompleted {
				return
			}
		}
	}()

	o.Execute(context.Background(), []*models.Task{
		task("task_0", "type hello"),
		task("task_1", "run broken"),
	})
	<-done

	counts := map[EventType]int{}
	for _, evt := range events {
		counts[evt.Type]++
		if evt.RunID == "" {
			t.Errorf("event %s missing run id", evt.Type)
		}
	}
	if counts[EventTaskStarted] != 2 {
		t.Errorf("task_started = %d, want 2", counts[EventTaskStarted])
	}
	if counts[EventTaskCompleted] != 1 || counts[EventTaskFailed] != 1 {
		t.Errorf("completed = %d, failed = %d", counts[EventTaskCompleted], counts[EventTaskFailed])
	}
	if counts[EventRunCompleted] != 1 {
		t.Errorf("run_completed = %d", counts[EventRunCompleted])
	}
}

func TestSummarize(t *testing.T) {
	o := newTestOrchestrator(t, collab(nil, &fakeGui{fail: true}, nil))

	execs := o.Execute(context.Background(), []*models.Task{
		task("task_0", "type hello"),
		task("task_1", "click something missing"),
	})
	s := o.Summarize(execs)

	if s.TotalTasks != 2 || s.Completed != 1 || s.Failed != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Running != 0 || s.Pending != 0 {
		t.Errorf("summary = %+v, want all terminal", s)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	o := newTestOrchestrator(t, collab(nil, nil, nil))
	o.Shutdown()
	o.Shutdown() // must not panic on a closed channel
}
