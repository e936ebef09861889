package models

import "time"

// TaskKind describes how a task relates to its siblings in one utterance.
type TaskKind string

const (
	// TaskKindParallel indicates the task has no ordering requirement.
	TaskKindParallel TaskKind = "parallel"
	// TaskKindSequential indicates the task must wait for its dependencies.
	TaskKindSequential TaskKind = "sequential"
)

// Valid returns true if the kind is a known value.
func (k TaskKind) Valid() bool {
	switch k {
	case TaskKindParallel, TaskKindSequential:
		return true
	default:
		return false
	}
}

// TaskStatus represents the current state of a task execution.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates a worker is executing the task.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task errored or timed out.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true once the status can no longer change.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task is one atomic instruction segment produced by decomposition.
// Tasks are immutable once created; execution state lives on TaskExecution.
type Task struct {
	// ID is unique within one decomposition batch (task_0, task_1, ...).
	ID string `json:"id"`
	// Instruction is the natural-language text for this segment.
	Instruction string `json:"instruction"`
	// Kind records whether the user expressed an ordering requirement.
	Kind TaskKind `json:"kind"`
	// DependsOn lists task IDs from the same batch that must reach a
	// terminal state before this task may start.
	DependsOn []string `json:"depends_on,omitempty"`
}

// TaskExecution is the mutable execution record for one Task within one
// orchestration run. Exactly one exists per task; it is written by the
// worker that owns the task and read by the finalization step.
type TaskExecution struct {
	// Task is the immutable task being executed.
	Task *Task `json:"task"`
	// Status is the current state of the execution.
	Status TaskStatus `json:"status"`
	// Result describes what the execution actually did, if it ran.
	Result *ActionResult `json:"result,omitempty"`
	// Error contains the failure message if the execution failed.
	Error string `json:"error,omitempty"`
	// StartedAt is when the worker picked the task up.
	StartedAt time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the execution reached a terminal state.
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Elapsed returns the wall-clock execution time, or zero if the task
// never reached a terminal state.
func (e *TaskExecution) Elapsed() time.Duration {
	if e.StartedAt.IsZero() || e.CompletedAt.IsZero() {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// Summary aggregates the outcome of one orchestration run.
type Summary struct {
	// TotalTasks is the number of tasks in the run.
	TotalTasks int `json:"total_tasks"`
	// Completed is the number of tasks that finished successfully.
	Completed int `json:"completed"`
	// Failed is the number of tasks that errored or timed out.
	Failed int `json:"failed"`
	// Running is the number of tasks still marked running at read time.
	Running int `json:"running"`
	// Pending is the number of tasks that never started.
	Pending int `json:"pending"`
	// TotalExecutionTime is the summed wall-clock time of completed tasks.
	TotalExecutionTime time.Duration `json:"total_execution_time"`
}
