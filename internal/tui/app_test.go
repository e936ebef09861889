package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harkvoice/hark/pkg/models"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabNavigation(t *testing.T) {
	tb := NewTabBar()
	if tb.Active() != TabIndexSpeech {
		t.Fatalf("initial tab = %d", tb.Active())
	}

	tb, _ = tb.Update(tea.KeyMsg{Type: tea.KeyTab})
	if tb.Active() != TabIndexTasks {
		t.Errorf("after tab = %d, want Tasks", tb.Active())
	}

	tb, _ = tb.Update(key("4"))
	if tb.Active() != TabIndexLogs {
		t.Errorf("after '4' = %d, want Logs", tb.Active())
	}

	tb, _ = tb.Update(tea.KeyMsg{Type: tea.KeyTab})
	if tb.Active() != TabIndexSpeech {
		t.Errorf("tab should wrap to Speech, got %d", tb.Active())
	}
}

func TestTranscriptsMostRecentFirstCapped(t *testing.T) {
	app := NewApp(nil)
	for i := 0; i < maxEntries+10; i++ {
		app.Update(TranscriptMsg{Corrected: string(rune('a' + i%26))})
	}
	app.Update(TranscriptMsg{Corrected: "latest utterance"})

	if len(app.transcripts) != maxEntries {
		t.Errorf("transcripts = %d, want cap %d", len(app.transcripts), maxEntries)
	}
	if app.transcripts[0].Corrected != "latest utterance" {
		t.Errorf("head = %q, want most recent first", app.transcripts[0].Corrected)
	}
}

func TestTaskUpdateUpserts(t *testing.T) {
	app := NewApp(nil)
	app.Update(TaskUpdateMsg{TaskID: "task_0", Instruction: "open my email", Status: models.TaskStatusRunning})
	app.Update(TaskUpdateMsg{TaskID: "task_1", Instruction: "check the weather", Status: models.TaskStatusPending})
	app.Update(TaskUpdateMsg{TaskID: "task_0", Status: models.TaskStatusCompleted, Detail: "done in 2s"})

	if len(app.tasks) != 2 {
		t.Fatalf("tasks = %d, want 2 (update must not duplicate)", len(app.tasks))
	}
	if app.tasks[0].status != models.TaskStatusCompleted || app.tasks[0].detail != "done in 2s" {
		t.Errorf("task_0 = %+v", app.tasks[0])
	}
	if app.tasks[0].instruction != "open my email" {
		t.Errorf("instruction lost on update: %+v", app.tasks[0])
	}
}

func TestRecordingToggleRequest(t *testing.T) {
	toggle := make(chan bool, 1)
	app := NewApp(toggle)

	app.Update(key("r"))
	select {
	case want := <-toggle:
		if !want {
			t.Error("first toggle should request recording on")
		}
	default:
		t.Fatal("no toggle request sent")
	}

	// The model reflects state only when told.
	app.Update(RecordingMsg{On: true})
	if !app.recording {
		t.Error("recording flag not set from RecordingMsg")
	}
	app.Update(key("r"))
	if want := <-toggle; want {
		t.Error("second toggle should request recording off")
	}
}

func TestViewRendersPerTab(t *testing.T) {
	app := NewApp(nil)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	app.Update(TranscriptMsg{Raw: "open my email", Corrected: "Open my email."})
	app.Update(TaskUpdateMsg{TaskID: "task_0", Instruction: "open my email", Status: models.TaskStatusRunning})
	app.Update(ActionMsg{Description: "shell: open https://mail.example.com", Success: true})
	app.Update(LogMsg{Line: "routed task_0 via alias"})
	app.Update(RunDoneMsg{Summary: models.Summary{TotalTasks: 1, Completed: 1}})

	if view := app.View(); !strings.Contains(view, "Open my email.") {
		t.Errorf("speech view missing transcript:\n%s", view)
	}

	app.tabs.SetActive(TabIndexTasks)
	if view := app.View(); !strings.Contains(view, "task_0") || !strings.Contains(view, "1 completed") {
		t.Errorf("tasks view missing rows or summary:\n%s", view)
	}

	app.tabs.SetActive(TabIndexActions)
	if view := app.View(); !strings.Contains(view, "mail.example.com") {
		t.Errorf("actions view missing action:\n%s", view)
	}

	app.tabs.SetActive(TabIndexLogs)
	if view := app.View(); !strings.Contains(view, "routed task_0 via alias") {
		t.Errorf("logs view missing line:\n%s", view)
	}
}

func TestQuitKeys(t *testing.T) {
	app := NewApp(nil)
	_, cmd := app.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should produce a quit command")
	}
}
