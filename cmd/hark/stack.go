package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/harkvoice/hark/internal/config"
	"github.com/harkvoice/hark/internal/events"
	iexec "github.com/harkvoice/hark/internal/exec"
	"github.com/harkvoice/hark/internal/executor"
	"github.com/harkvoice/hark/internal/library"
	"github.com/harkvoice/hark/internal/llm"
	"github.com/harkvoice/hark/internal/orchestrator"
	"github.com/harkvoice/hark/internal/route"
	"github.com/harkvoice/hark/internal/safety"
	"github.com/harkvoice/hark/internal/screen"
	"github.com/harkvoice/hark/internal/vision"
)

// stack wires the full execution pipeline from configuration. Both the
// run and listen commands build one.
type stack struct {
	cfg *config.Config

	runner    *iexec.ExecRunner
	gate      *safety.Gate
	lib       *library.Library
	ollama    *llm.OllamaClient
	router    *route.Router
	capturer  *screen.OSCapturer
	monitor   *screen.Monitor
	injector  *executor.OsaInjector
	shell     *executor.ShellExecutor
	gui       *executor.GuiExecutor
	events    *events.Store
	orch      *orchestrator.Orchestrator
	debugLog  *orchestrator.DebugLogger
	debugPath string
}

// buildStack assembles the pipeline. interactive controls whether the
// shell executor may prompt at the safety gate.
func buildStack(cfg *config.Config, interactive bool) (*stack, error) {
	s := &stack{cfg: cfg, runner: iexec.NewRunner()}

	s.gate = safety.New()
	if cfg.Safety.RulesPath != "" {
		if err := s.gate.LoadRules(cfg.Safety.RulesPath); err != nil {
			log.Printf("[stack] safety rules %s ignored: %v", cfg.Safety.RulesPath, err)
		}
	}

	lib, err := library.Load(cfg.Library.Path)
	if err != nil {
		log.Printf("[stack] library %s ignored: %v", cfg.Library.Path, err)
	}
	s.lib = lib
	if cfg.Library.Watch && cfg.Library.Path != "" {
		s.lib.Watch()
	}

	s.ollama, err = llm.NewOllamaClient(cfg.LLM.Model, cfg.LLM.CorrectModel)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	var generator route.Generator = s.ollama
	if cfg.LLM.Provider == "anthropic" {
		anthro, err := llm.NewAnthropicClient(llm.AnthropicConfig{
			Model:      cfg.Anthropic.Model,
			APIKey:     cfg.Anthropic.APIKey,
			UseBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:  cfg.AWS.Region,
			AWSProfile: cfg.AWS.Profile,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic: %w", err)
		}
		generator = anthro
	}
	s.router = route.New(s.lib, generator, s.gate)

	s.capturer = screen.NewCapturer(s.runner, cfg.Screenshots.Dir)
	s.monitor = screen.NewMonitor(s.capturer, cfg.Monitor.Interval, cfg.Monitor.Keep)

	visionSvc, err := vision.NewClient(cfg.Vision.Model)
	if err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}

	s.injector = executor.NewInjector(s.runner)
	pointer := executor.NewPointer(s.runner)
	s.gui = executor.NewGuiExecutor(executor.GuiConfig{
		Attempts:        cfg.GUI.Attempts,
		VerifyRadius:    cfg.GUI.VerifyRadius,
		MinConfidence:   cfg.GUI.MinConfidence,
		TemperatureBase: cfg.GUI.TemperatureBase,
		TemperatureStep: cfg.GUI.TemperatureStep,
		TemperatureMax:  cfg.GUI.TemperatureMax,
		ContextFrames:   cfg.GUI.ContextFrames,
	}, s.capturer, s.monitor, visionSvc, pointer, s.injector)

	s.shell = executor.NewShellExecutor(s.runner, s.gate, os.Stdin, os.Stdout, interactive)
	if home, err := os.UserHomeDir(); err == nil {
		s.shell.SetBaseDir(home)
	}

	s.events, err = events.Open(cfg.Events.DBPath)
	if err != nil {
		return nil, fmt.Errorf("event log: %w", err)
	}

	s.debugLog = orchestrator.NopLogger()
	if cfg.DebugLogDir != "" {
		s.debugPath = filepath.Join(cfg.DebugLogDir, "hark-debug.log")
		if logger, err := orchestrator.NewDebugLogger(s.debugPath); err == nil {
			s.debugLog = logger
		} else {
			log.Printf("[stack] debug log disabled: %v", err)
		}
	}

	s.orch, err = orchestrator.New(orchestrator.Collaborators{
		Router:   s.router,
		Shell:    s.shell,
		Gui:      s.gui,
		Injector: s.injector,
	},
		orchestrator.WithWorkers(cfg.Workers),
		orchestrator.WithTaskTimeout(cfg.TaskTimeout),
		orchestrator.WithPollInterval(cfg.PollInterval),
		orchestrator.WithLogger(s.debugLog),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// close tears the stack down in reverse dependency order.
func (s *stack) close() {
	s.orch.Shutdown()
	s.monitor.Stop()
	s.lib.Close()
	if s.events != nil {
		s.events.Close()
	}
	s.debugLog.Close()
}

// recordEvents drains orchestrator events into the SQLite event log.
// Runs until the orchestrator shuts down. The listen command does its own
// draining so it can feed the dashboard from the same stream.
func (s *stack) recordEvents() {
	for evt := range s.orch.Events() {
		if rec, ok := eventRecord(evt); ok {
			s.events.Append(rec)
		}
	}
}

// eventRecord converts a terminal task event into an event-log row.
func eventRecord(evt orchestrator.Event) (events.Event, bool) {
	if evt.Type != orchestrator.EventTaskCompleted && evt.Type != orchestrator.EventTaskFailed {
		return events.Event{}, false
	}
	rec := events.Event{
		RunID:     evt.RunID,
		Request:   evt.Instruction,
		Success:   evt.Type == orchestrator.EventTaskCompleted,
		ElapsedMS: evt.Elapsed.Milliseconds(),
	}
	if evt.Error != nil {
		rec.Error = evt.Error.Error()
	}
	if r := evt.Result; r != nil {
		rec.Route = string(r.Path)
		rec.Commands = r.Commands
		if g := r.Gui; g != nil {
			rec.PointerX = g.MouseTo.X
			rec.PointerY = g.MouseTo.Y
			if len(g.Screenshots) > 0 {
				rec.BeforeShot = g.Screenshots[0]
				rec.AfterShot = g.Screenshots[len(g.Screenshots)-1]
			}
		}
	}
	return rec, true
}
