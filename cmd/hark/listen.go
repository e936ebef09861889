package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harkvoice/hark/internal/asr"
	"github.com/harkvoice/hark/internal/audio"
	"github.com/harkvoice/hark/internal/decompose"
	"github.com/harkvoice/hark/internal/orchestrator"
	"github.com/harkvoice/hark/internal/tui"
	"github.com/harkvoice/hark/pkg/models"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Push-to-talk loop with the dashboard",
	Long: `Listen opens the dashboard and waits for push-to-talk input. Press r to
start recording, r again to stop; the utterance is transcribed, corrected,
decomposed into tasks, and executed. The loop repeats until you quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runListen()
	},
}

func runListen() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The dashboard owns the terminal, so the safety gate cannot prompt;
	// dangerous batches are cancelled outright.
	s, err := buildStack(cfg, false)
	if err != nil {
		return err
	}
	defer s.close()

	history, err := asr.OpenHistory(cfg.History.DBPath)
	if err != nil {
		return fmt.Errorf("transcript history: %w", err)
	}
	defer history.Close()

	recorder := audio.NewRecorder(s.runner, cfg.Audio.Device, filepath.Join(os.TempDir(), "hark-audio"))
	transcriber := asr.NewWhisperTranscriber(s.runner, cfg.ASR.Binary, cfg.ASR.ModelPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s.monitor.Start(ctx)

	toggle := make(chan bool, 1)
	app := tui.NewApp(toggle)
	program := tea.NewProgram(app, tea.WithAltScreen())

	go func() {
		<-sigCh
		cancel()
		program.Quit()
	}()

	// Bridge orchestrator events to the dashboard and the event log.
	go func() {
		for evt := range s.orch.Events() {
			if rec, ok := eventRecord(evt); ok {
				s.events.Append(rec)
			}
			forwardEvent(program, evt)
		}
	}()

	// Recording control loop: the dashboard requests toggles, this loop
	// owns the recorder and the pipeline.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case want := <-toggle:
				if want {
					if err := recorder.Start(ctx); err != nil {
						program.Send(tui.LogMsg{Line: fmt.Sprintf("recorder: %v", err)})
						continue
					}
					program.Send(tui.RecordingMsg{On: true})
					continue
				}

				wavPath, err := recorder.Stop()
				program.Send(tui.RecordingMsg{On: false})
				if err != nil {
					program.Send(tui.LogMsg{Line: fmt.Sprintf("recorder: %v", err)})
					continue
				}
				go handleUtterance(ctx, s, program, history, transcriber, wavPath)
			}
		}
	}()

	_, err = program.Run()
	return err
}

// handleUtterance runs the full pipeline for one recording: transcribe,
// correct, decompose, orchestrate.
func handleUtterance(ctx context.Context, s *stack, program *tea.Program, history *asr.History, transcriber asr.Transcriber, wavPath string) {
	raw := transcriber.Transcribe(ctx, wavPath)
	if strings.TrimSpace(raw) == "" {
		program.Send(tui.LogMsg{Line: "heard nothing"})
		return
	}

	corrected := asr.Punctuate(s.ollama.Correct(ctx, raw))
	program.Send(tui.TranscriptMsg{Raw: raw, Corrected: corrected})
	if err := history.Record(raw, corrected, wavPath); err != nil {
		program.Send(tui.LogMsg{Line: fmt.Sprintf("history: %v", err)})
	}

	tasks := decompose.Decompose(corrected)
	if err := decompose.ValidateTasks(tasks); err != nil {
		program.Send(tui.LogMsg{Line: fmt.Sprintf("decompose: %v", err)})
		return
	}
	for _, t := range tasks {
		program.Send(tui.TaskUpdateMsg{TaskID: t.ID, Instruction: t.Instruction, Status: models.TaskStatusPending})
	}

	execs := s.orch.Execute(ctx, tasks)
	program.Send(tui.RunDoneMsg{Summary: s.orch.Summarize(execs)})
}

// forwardEvent translates an orchestrator event into dashboard messages.
func forwardEvent(program *tea.Program, evt orchestrator.Event) {
	switch evt.Type {
	case orchestrator.EventTaskStarted:
		program.Send(tui.TaskUpdateMsg{
			TaskID:      evt.TaskID,
			Instruction: evt.Instruction,
			Status:      models.TaskStatusRunning,
		})
	case orchestrator.EventTaskCompleted:
		detail := ""
		if evt.Result != nil && evt.Result.Detail != "" {
			detail = evt.Result.Detail
		}
		program.Send(tui.TaskUpdateMsg{
			TaskID:      evt.TaskID,
			Instruction: evt.Instruction,
			Status:      models.TaskStatusCompleted,
			Detail:      detail,
		})
		program.Send(tui.ActionMsg{Description: actionDescription(evt), Success: true})
	case orchestrator.EventTaskFailed:
		program.Send(tui.TaskUpdateMsg{
			TaskID:      evt.TaskID,
			Instruction: evt.Instruction,
			Status:      models.TaskStatusFailed,
			Detail:      fmt.Sprintf("%v", evt.Error),
		})
		program.Send(tui.ActionMsg{Description: actionDescription(evt), Success: false})
	case orchestrator.EventRunCompleted:
		program.Send(tui.LogMsg{Line: fmt.Sprintf("run %s finished", evt.RunID)})
	}
}

// actionDescription renders a one-line action summary for the Actions tab.
func actionDescription(evt orchestrator.Event) string {
	if evt.Result == nil {
		return evt.Instruction
	}
	switch evt.Result.Path {
	case models.RouteShell:
		var parts []string
		for _, cmd := range evt.Result.Commands {
			parts = append(parts, strings.Join(cmd, " "))
		}
		return fmt.Sprintf("shell: %s", strings.Join(parts, " && "))
	case models.RouteGui:
		if g := evt.Result.Gui; g != nil && g.FallbackChord != "" {
			return fmt.Sprintf("gui: %s via %s", evt.Instruction, g.FallbackChord)
		}
		return fmt.Sprintf("gui: %s", evt.Instruction)
	case models.RouteDictation:
		return fmt.Sprintf("typed: %s", evt.Result.Injected)
	default:
		return evt.Instruction
	}
}
