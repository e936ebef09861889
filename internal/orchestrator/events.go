// Package orchestrator coordinates task execution across a bounded worker
// pool, dispatching each task to the right executor by routed path.
package orchestrator

import (
	"time"

	"github.com/harkvoice/hark/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventTaskStarted indicates a worker picked a task up.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task finished successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task errored or timed out.
	EventTaskFailed EventType = "task_failed"
	// EventRunCompleted indicates every task in the run is terminal.
	EventRunCompleted EventType = "run_completed"
)

// Event is emitted by the orchestrator as tasks move through their
// lifecycle. The dashboard and the event log consume these.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// RunID identifies the orchestration run.
	RunID string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// Instruction is the task's instruction text, if applicable.
	Instruction string
	// Result describes what the task actually did, for completion events.
	Result *models.ActionResult
	// Error contains failure details for task_failed events.
	Error error
	// Elapsed is the task's wall-clock execution time, for terminal events.
	Elapsed time.Duration
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
