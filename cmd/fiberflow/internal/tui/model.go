package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FiberRow tracks one pipeline's state for display.
type FiberRow struct {
	ID           string
	Status       string // "active", "parked" or "cancelled"; completed and failed rows are removed
	ItemsEmitted int
	LastError    string
}

// Model is the bubbletea model backing the dashboard.
type Model struct {
	MaxWorkers int
	Styles     Styles

	Fibers         map[string]*FiberRow
	CompletedCount int
	FailedCount    int
	CancelledCount int
	StartTime      time.Time
	LogLines       []string
	LogLimit       int
	Width          int
	Height         int

	Quitting bool
	Done     bool
}

// NewModel creates a dashboard model sized for maxWorkers concurrent
// fibers.
func NewModel(maxWorkers int) *Model {
	return &Model{
		MaxWorkers: maxWorkers,
		Styles:     DefaultStyles(),
		Fibers:     make(map[string]*FiberRow),
		StartTime:  time.Now(),
		LogLimit:   200,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

// TickMsg drives the elapsed-time display.
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// DoneMsg signals the dashboard should exit after its last render.
type DoneMsg struct{}

// QuitMsg signals the user requested quit (q or Ctrl+C).
type QuitMsg struct{}

// FiberSubscribedMsg reports a new pipeline subscription.
type FiberSubscribedMsg struct{ ID string }

// FiberItemMsg reports an item delivered downstream.
type FiberItemMsg struct{ ID string }

// FiberParkedMsg reports a worker parking on exhausted demand or an
// idle upstream.
type FiberParkedMsg struct{ ID string }

// FiberResumedMsg reports a parked worker waking up.
type FiberResumedMsg struct{ ID string }

// FiberCancelledMsg reports a pipeline cancellation.
type FiberCancelledMsg struct{ ID string }

// FiberCompletedMsg reports a pipeline reaching OnComplete.
type FiberCompletedMsg struct{ ID string }

// FiberFailedMsg reports a pipeline reaching OnError.
type FiberFailedMsg struct {
	ID  string
	Err string
}

// LogMsg appends a line to the scrolling log pane.
type LogMsg string
