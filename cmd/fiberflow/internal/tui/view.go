package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.Done || m.Quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderFibers())
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	return fmt.Sprintf("%s  %s  %s",
		m.Styles.Title.Render("fiberflow"),
		m.Styles.Timer.Render(elapsed.String()),
		m.Styles.Workers.Render(fmt.Sprintf("workers=%d", m.MaxWorkers)))
}

func (m *Model) renderFibers() string {
	if len(m.Fibers) == 0 {
		return m.Styles.Workers.Render("(no active fibers)") + "\n"
	}

	ids := make([]string, 0, len(m.Fibers))
	for id := range m.Fibers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		f := m.Fibers[id]
		b.WriteString(m.renderFiberLine(f))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderFiberLine(f *FiberRow) string {
	icon, style := IconActive, m.Styles.FiberActive
	switch f.Status {
	case "parked":
		icon, style = IconParked, m.Styles.FiberParked
	case "cancelled":
		icon, style = IconCancelled, m.Styles.FiberCancelled
	}
	name := f.ID
	if len(name) > 8 {
		name = name[:8]
	}
	return fmt.Sprintf("%s %s items=%d",
		style.Render(icon),
		m.Styles.FiberName.Render(name),
		f.ItemsEmitted)
}

func (m *Model) renderStatusLine() string {
	return fmt.Sprintf("%s  %s  %s",
		m.Styles.StatusActive.Render(fmt.Sprintf("active=%d", len(m.Fibers))),
		m.Styles.StatusComplete.Render(fmt.Sprintf("complete=%d", m.CompletedCount)),
		m.Styles.StatusFailed.Render(fmt.Sprintf("failed=%d", m.FailedCount)))
}

func (m *Model) renderFooter() string {
	return m.Styles.Footer.Render(
		m.Styles.FooterKey.Render("q") + " quit")
}
