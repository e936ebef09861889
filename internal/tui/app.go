package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harkvoice/hark/pkg/models"
)

// maxEntries caps the speech, action, and log histories.
const maxEntries = 50

// TranscriptMsg reports one finished transcription.
type TranscriptMsg struct {
	Raw       string
	Corrected string
}

// TaskUpdateMsg reports a task lifecycle change.
type TaskUpdateMsg struct {
	TaskID      string
	Instruction string
	Status      models.TaskStatus
	Detail      string
}

// ActionMsg reports one completed action.
type ActionMsg struct {
	Description string
	Success     bool
}

// LogMsg appends one line to the Logs tab.
type LogMsg struct {
	Line string
}

// RunDoneMsg reports the summary of a finished run.
type RunDoneMsg struct {
	Summary models.Summary
}

// RecordingMsg reflects the actual recorder state.
type RecordingMsg struct {
	On bool
}

type taskRow struct {
	id          string
	instruction string
	status      models.TaskStatus
	detail      string
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	recStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	idleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	runStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// App is the dashboard's bubbletea model. Pipeline components feed it
// through Program.Send; the 'r' key requests a recording toggle on the
// provided channel.
type App struct {
	tabs    TabBar
	spin    spinner.Model
	logView viewport.Model

	width  int
	height int
	ready  bool

	recording bool
	quitting  bool

	transcripts []TranscriptMsg
	tasks       []taskRow
	taskIndex   map[string]int
	actions     []ActionMsg
	logs        []string
	summary     *models.Summary

	toggle chan<- bool
}

// NewApp creates the dashboard model. toggle may be nil when recording
// control is not wired (e.g. replaying a run).
func NewApp(toggle chan<- bool) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = recStyle

	return &App{
		tabs:      NewTabBar(),
		spin:      sp,
		taskIndex: make(map[string]int),
		toggle:    toggle,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.spin.Tick
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		case "r":
			if a.toggle != nil {
				select {
				case a.toggle <- !a.recording:
				default:
				}
			}
			return a, nil
		}
		var cmd tea.Cmd
		a.tabs, cmd = a.tabs.Update(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.logView = viewport.New(msg.Width, max(msg.Height-6, 3))
		a.logView.SetContent(strings.Join(a.logs, "\n"))
		a.ready = true

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		cmds = append(cmds, cmd)

	case TranscriptMsg:
		a.transcripts = prependCapped(a.transcripts, msg)

	case TaskUpdateMsg:
		a.applyTaskUpdate(msg)

	case ActionMsg:
		a.actions = prependCapped(a.actions, msg)

	case LogMsg:
		a.logs = append(a.logs, msg.Line)
		if len(a.logs) > maxEntries {
			a.logs = a.logs[len(a.logs)-maxEntries:]
		}
		if a.ready {
			a.logView.SetContent(strings.Join(a.logs, "\n"))
			a.logView.GotoBottom()
		}

	case RunDoneMsg:
		s := msg.Summary
		a.summary = &s

	case RecordingMsg:
		a.recording = msg.On
	}

	if a.ready && a.tabs.Active() == TabIndexLogs {
		var cmd tea.Cmd
		a.logView, cmd = a.logView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// applyTaskUpdate upserts a task row by ID, keeping decomposition order.
func (a *App) applyTaskUpdate(msg TaskUpdateMsg) {
	if i, ok := a.taskIndex[msg.TaskID]; ok {
		a.tasks[i].status = msg.Status
		if msg.Detail != "" {
			a.tasks[i].detail = msg.Detail
		}
		return
	}
	a.taskIndex[msg.TaskID] = len(a.tasks)
	a.tasks = append(a.tasks, taskRow{
		id:          msg.TaskID,
		instruction: msg.Instruction,
		status:      msg.Status,
		detail:      msg.Detail,
	})
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(a.headerView())
	b.WriteString("\n")
	b.WriteString(a.tabs.View())
	b.WriteString("\n")

	switch a.tabs.Active() {
	case TabIndexSpeech:
		b.WriteString(a.speechView())
	case TabIndexTasks:
		b.WriteString(a.tasksView())
	case TabIndexActions:
		b.WriteString(a.actionsView())
	case TabIndexLogs:
		if a.ready {
			b.WriteString(a.logView.View())
		} else {
			b.WriteString(strings.Join(a.logs, "\n"))
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/1-4 switch • r record • q quit"))
	return b.String()
}

func (a *App) headerView() string {
	title := titleStyle.Render("hark")
	if a.recording {
		return fmt.Sprintf("%s  %s %s", title, a.spin.View(), recStyle.Render("RECORDING"))
	}
	return fmt.Sprintf("%s  %s", title, idleStyle.Render("idle - press r to record"))
}

func (a *App) speechView() string {
	if len(a.transcripts) == 0 {
		return dimStyle.Render("no transcripts yet")
	}
	var b strings.Builder
	for _, tr := range a.transcripts {
		b.WriteString(okStyle.Render("» "))
		b.WriteString(tr.Corrected)
		if tr.Raw != "" && tr.Raw != tr.Corrected {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  (heard: %s)", tr.Raw)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) tasksView() string {
	if len(a.tasks) == 0 {
		return dimStyle.Render("no tasks yet")
	}
	var b strings.Builder
	for _, t := range a.tasks {
		b.WriteString(statusBadge(t.status))
		b.WriteString(" ")
		b.WriteString(t.id)
		b.WriteString("  ")
		b.WriteString(t.instruction)
		if t.detail != "" {
			b.WriteString(dimStyle.Render("  " + t.detail))
		}
		b.WriteString("\n")
	}
	if a.summary != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf(
			"\n%d tasks: %d completed, %d failed (%s)",
			a.summary.TotalTasks, a.summary.Completed, a.summary.Failed,
			a.summary.TotalExecutionTime.Round(10*time.Millisecond))))
	}
	return b.String()
}

func (a *App) actionsView() string {
	if len(a.actions) == 0 {
		return dimStyle.Render("no actions yet")
	}
	var b strings.Builder
	for _, act := range a.actions {
		if act.Success {
			b.WriteString(okStyle.Render("✓ "))
		} else {
			b.WriteString(failStyle.Render("✗ "))
		}
		b.WriteString(act.Description)
		b.WriteString("\n")
	}
	return b.String()
}

func statusBadge(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusCompleted:
		return okStyle.Render("[done]")
	case models.TaskStatusFailed:
		return failStyle.Render("[fail]")
	case models.TaskStatusRunning:
		return runStyle.Render("[run ]")
	default:
		return dimStyle.Render("[wait]")
	}
}

// prependCapped inserts at the front and trims to maxEntries.
func prependCapped[T any](list []T, item T) []T {
	list = append([]T{item}, list...)
	if len(list) > maxEntries {
		list = list[:maxEntries]
	}
	return list
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
