package orchestrator

import "time"

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds all optional configuration.
type orchestratorOptions struct {
	workers      int
	taskTimeout  time.Duration
	pollInterval time.Duration
	eventBuffer  int
	logger       *DebugLogger
}

func defaultOptions() *orchestratorOptions {
	return &orchestratorOptions{
		workers:      3,
		taskTimeout:  300 * time.Second,
		pollInterval: 100 * time.Millisecond,
		eventBuffer:  64,
		logger:       NopLogger(),
	}
}

// WithWorkers sets the maximum number of concurrently executing tasks.
func WithWorkers(n int) Option {
	return func(o *orchestratorOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTaskTimeout bounds a single task's execution time.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *orchestratorOptions) {
		if d > 0 {
			o.taskTimeout = d
		}
	}
}

// WithPollInterval sets how often a waiting task re-checks its dependencies.
func WithPollInterval(d time.Duration) Option {
	return func(o *orchestratorOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithEventBuffer sets the emitted event channel's capacity.
func WithEventBuffer(n int) Option {
	return func(o *orchestratorOptions) {
		if n > 0 {
			o.eventBuffer = n
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *orchestratorOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
