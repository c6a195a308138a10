package tui

import tea "github.com/charmbracelet/bubbletea"

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case TickMsg:
		return m, tickCmd()

	case DoneMsg:
		m.Done = true
		return m, tea.Quit

	case QuitMsg:
		m.Quitting = true
		return m, tea.Quit

	case FiberSubscribedMsg:
		m.Fibers[msg.ID] = &FiberRow{ID: msg.ID, Status: "active"}

	case FiberItemMsg:
		if f, ok := m.Fibers[msg.ID]; ok {
			f.ItemsEmitted++
			f.Status = "active"
		}

	case FiberParkedMsg:
		if f, ok := m.Fibers[msg.ID]; ok {
			f.Status = "parked"
		}

	case FiberResumedMsg:
		if f, ok := m.Fibers[msg.ID]; ok {
			f.Status = "active"
		}

	case FiberCancelledMsg:
		if f, ok := m.Fibers[msg.ID]; ok {
			f.Status = "cancelled"
		}
		m.CancelledCount++
		delete(m.Fibers, msg.ID)

	case FiberCompletedMsg:
		delete(m.Fibers, msg.ID)
		m.CompletedCount++

	case FiberFailedMsg:
		delete(m.Fibers, msg.ID)
		m.FailedCount++

	case LogMsg:
		m.LogLines = append(m.LogLines, string(msg))
		if len(m.LogLines) > m.LogLimit {
			m.LogLines = m.LogLines[len(m.LogLines)-m.LogLimit:]
		}
	}

	return m, nil
}
