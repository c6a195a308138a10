package tui

import (
	"github.com/corewell/fiberflow/events"

	tea "github.com/charmbracelet/bubbletea"
)

// Bridge forwards events.Bus notifications to a running bubbletea
// program as typed messages.
type Bridge struct {
	program *tea.Program
}

// NewBridge wraps program for delivery of lifecycle events.
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// Handler returns an events.Handler suitable for events.Bus.Listen.
func (b *Bridge) Handler() events.Handler {
	return func(e events.Event) {
		if msg := b.eventToMsg(e); msg != nil {
			b.program.Send(msg)
		}
	}
}

func (b *Bridge) eventToMsg(e events.Event) tea.Msg {
	id := e.Fiber.String()
	switch e.Type {
	case events.Subscribed:
		return FiberSubscribedMsg{ID: id}
	case events.ItemEmitted:
		return FiberItemMsg{ID: id}
	case events.Parked:
		return FiberParkedMsg{ID: id}
	case events.Resumed:
		return FiberResumedMsg{ID: id}
	case events.Cancelled:
		return FiberCancelledMsg{ID: id}
	case events.Completed:
		return FiberCompletedMsg{ID: id}
	case events.Failed:
		return FiberFailedMsg{ID: id, Err: e.Error}
	default:
		return nil
	}
}

// SendDone asks the program to exit after its next render.
func (b *Bridge) SendDone() {
	b.program.Send(DoneMsg{})
}
