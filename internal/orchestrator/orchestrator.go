package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harkvoice/hark/internal/executor"
	"github.com/harkvoice/hark/pkg/models"
)

// Router chooses an execution path for one instruction.
type Router interface {
	Route(ctx context.Context, instruction string) models.RouteDecision
}

// ShellRunner executes one command batch.
type ShellRunner interface {
	Run(ctx context.Context, commands [][]string) *executor.ShellOutcome
}

// GuiActor resolves an instruction to a screen target and acts on it.
type GuiActor interface {
	Execute(ctx context.Context, instruction string) *models.GuiOutcome
}

// TextInjector types literal text into the focused application.
type TextInjector interface {
	Inject(ctx context.Context, text string) error
}

// Collaborators bundles the components the orchestrator dispatches to.
type Collaborators struct {
	Router   Router
	Shell    ShellRunner
	Gui      GuiActor
	Injector TextInjector
}

// Orchestrator runs a batch of decomposed tasks on a bounded worker pool,
// honoring dependencies and serializing GUI interactions.
type Orchestrator struct {
	collab  Collaborators
	opts    *orchestratorOptions
	emitter *EventEmitter
	logger  *DebugLogger

	// guiMu serializes GUI actions across tasks; there is one mouse and
	// one foreground window.
	guiMu sync.Mutex

	// mu guards execution status reads and writes across workers.
	mu sync.RWMutex

	shutdownOnce sync.Once
}

// New creates an Orchestrator. All four collaborators are required.
func New(collab Collaborators, opts ...Option) (*Orchestrator, error) {
	if collab.Router == nil {
		return nil, fmt.Errorf("orchestrator requires a router")
	}
	if collab.Shell == nil {
		return nil, fmt.Errorf("orchestrator requires a shell executor")
	}
	if collab.Gui == nil {
		return nil, fmt.Errorf("orchestrator requires a gui executor")
	}
	if collab.Injector == nil {
		return nil, fmt.Errorf("orchestrator requires a text injector")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Orchestrator{
		collab:  collab,
		opts:    o,
		emitter: NewEventEmitter(o.eventBuffer),
		logger:  o.logger,
	}, nil
}

// Events returns the channel of lifecycle events for this orchestrator.
func (o *Orchestrator) Events() <-chan Event {
	return o.emitter.Events()
}

// Shutdown releases the orchestrator's resources. Idempotent.
func (o *Orchestrator) Shutdown() {
	o.shutdownOnce.Do(func() {
		o.emitter.Close()
	})
}

// Execute runs every task to a terminal state and returns the execution
// record per task ID. A failed or timed-out task never aborts its
// siblings; a failed dependency unblocks downstream work.
func (o *Orchestrator) Execute(ctx context.Context, tasks []*models.Task) map[string]*models.TaskExecution {
	runID := uuid.New().String()[:8]
	o.logger.Log("run %s: executing %d tasks with %d workers", runID, len(tasks), o.opts.workers)

	executions := make(map[string]*models.TaskExecution, len(tasks))
	for _, t := range tasks {
		executions[t.ID] = &models.TaskExecution{Task: t, Status: models.TaskStatusPending}
	}

	sem := make(chan struct{}, o.opts.workers)
	var wg sync.WaitGroup

	// Submit in decomposition order; each submission first waits for the
	// task's dependencies to reach a terminal state.
	for _, t := range tasks {
		if err := o.waitForDeps(ctx, t, executions); err != nil {
			o.finishTask(runID, executions[t.ID], nil, err)
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			o.finishTask(runID, executions[t.ID], nil, ctx.Err())
			continue
		}

		wg.Add(1)
		go func(task *models.Task) {
			defer wg.Done()
			defer func() { <-sem }()
			o.runTask(ctx, runID, task, executions[task.ID])
		}(t)
	}

	wg.Wait()

	o.emitter.Emit(Event{Type: EventRunCompleted, RunID: runID, Timestamp: time.Now()})
	o.logger.Log("run %s: done", runID)
	return executions
}

// waitForDeps polls until every dependency of the task is terminal. A
// failed dependency counts as terminal: it unblocks the dependent rather
// than failing it.
func (o *Orchestrator) waitForDeps(ctx context.Context, task *models.Task, executions map[string]*models.TaskExecution) error {
	for {
		ready := true
		o.mu.RLock()
		for _, dep := range task.DependsOn {
			exec, ok := executions[dep]
			if !ok {
				continue // unknown dependency, validated upstream
			}
			if !exec.Status.Terminal() {
				ready = false
				break
			}
		}
		o.mu.RUnlock()

		if ready {
			return nil
		}

		select {
		case <-time.After(o.opts.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runTask executes one task under the per-task timeout and records the
// outcome on its TaskExecution.
func (o *Orchestrator) runTask(ctx context.Context, runID string, task *models.Task, exec *models.TaskExecution) {
	o.mu.Lock()
	exec.Status = models.TaskStatusRunning
	exec.StartedAt = time.Now()
	o.mu.Unlock()

	o.logger.Log("run %s: task %s started: %s", runID, task.ID, task.Instruction)
	o.emitter.Emit(Event{
		Type:        EventTaskStarted,
		RunID:       runID,
		TaskID:      task.ID,
		Instruction: task.Instruction,
		Timestamp:   time.Now(),
	})

	tctx, cancel := context.WithTimeout(ctx, o.opts.taskTimeout)
	defer cancel()

	type outcome struct {
		result *models.ActionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := o.executeTask(tctx, task)
		done <- outcome{result, err}
	}()

	select {
	case oc := <-done:
		o.finishTask(runID, exec, oc.result, oc.err)
	case <-tctx.Done():
		o.finishTask(runID, exec, nil, fmt.Errorf("task timed out after %s", o.opts.taskTimeout))
	}
}

// finishTask moves an execution to its terminal state and emits the
// matching event.
func (o *Orchestrator) finishTask(runID string, exec *models.TaskExecution, result *models.ActionResult, err error) {
	o.mu.Lock()
	if exec.StartedAt.IsZero() {
		exec.StartedAt = time.Now()
	}
	exec.CompletedAt = time.Now()
	exec.Result = result
	if err != nil {
		exec.Status = models.TaskStatusFailed
		exec.Error = err.Error()
	} else {
		exec.Status = models.TaskStatusCompleted
	}
	status := exec.Status
	elapsed := exec.Elapsed()
	o.mu.Unlock()

	evt := Event{
		RunID:       runID,
		TaskID:      exec.Task.ID,
		Instruction: exec.Task.Instruction,
		Result:      result,
		Elapsed:     elapsed,
		Timestamp:   time.Now(),
	}
	if status == models.TaskStatusFailed {
		evt.Type = EventTaskFailed
		evt.Error = err
		o.logger.Log("run %s: task %s failed: %v", runID, exec.Task.ID, err)
	} else {
		evt.Type = EventTaskCompleted
		o.logger.Log("run %s: task %s completed in %s", runID, exec.Task.ID, elapsed)
	}
	o.emitter.Emit(evt)
}

// executeTask routes the instruction at execution time and dispatches to
// the matching executor.
func (o *Orchestrator) executeTask(ctx context.Context, task *models.Task) (*models.ActionResult, error) {
	decision := o.collab.Router.Route(ctx, task.Instruction)

	switch decision.Path {
	case models.RouteDictation:
		if err := o.collab.Injector.Inject(ctx, task.Instruction); err != nil {
			return nil, fmt.Errorf("dictation: %w", err)
		}
		return &models.ActionResult{
			Path:     models.RouteDictation,
			Injected: task.Instruction,
			Detail:   "typed as text",
		}, nil

	case models.RouteShell:
		out := o.collab.Shell.Run(ctx, decision.Commands)
		result := &models.ActionResult{
			Path:      models.RouteShell,
			Commands:  decision.Commands,
			Cancelled: out.Cancelled,
		}
		if out.Cancelled {
			result.Detail = "cancelled at safety gate"
			return result, nil
		}
		if !out.AllOK {
			return result, fmt.Errorf("shell: %s", firstFailure(out))
		}
		result.Detail = fmt.Sprintf("ran %d commands via %s", len(out.Results), decision.Via)
		return result, nil

	case models.RouteGui:
		// One mouse, one foreground window: GUI actions never interleave.
		o.guiMu.Lock()
		out := o.collab.Gui.Execute(ctx, task.Instruction)
		o.guiMu.Unlock()

		result := &models.ActionResult{Path: models.RouteGui, Gui: out}
		if !out.Success {
			return result, fmt.Errorf("gui: %s", out.Error)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unknown route path %q", decision.Path)
	}
}

// firstFailure summarizes the first failing command in a batch.
func firstFailure(out *executor.ShellOutcome) string {
	for _, r := range out.Results {
		if r.ExitCode != 0 {
			detail := strings.TrimSpace(r.Stderr)
			if detail == "" {
				detail = fmt.Sprintf("exit %d", r.ExitCode)
			}
			return fmt.Sprintf("%s: %s", strings.Join(r.Cmd, " "), detail)
		}
	}
	return "command failed"
}

// Summarize aggregates execution records into a run summary. Always
// produced, even when every task failed.
func (o *Orchestrator) Summarize(executions map[string]*models.TaskExecution) models.Summary {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s := models.Summary{TotalTasks: len(executions)}
	for _, exec := range executions {
		switch exec.Status {
		case models.TaskStatusCompleted:
			s.Completed++
			s.TotalExecutionTime += exec.Elapsed()
		case models.TaskStatusFailed:
			s.Failed++
		case models.TaskStatusRunning:
			s.Running++
		default:
			s.Pending++
		}
	}
	return s
}
