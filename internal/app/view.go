package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/notify"
	"github.com/jwulff/chime/internal/trigger"
	"github.com/jwulff/chime/internal/ui"
)

// View renders the full TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.width
	if width == 0 {
		width = 60
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))
	sections = append(sections, m.renderTabs())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", width)))

	switch m.tab {
	case TabAlarm:
		sections = append(sections, m.renderAlarm())
	case TabTimer:
		sections = append(sections, m.renderTimer(width))
	default:
		sections = append(sections, m.renderCalendar(width))
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", width)))
	if m.toast != nil {
		sections = append(sections, m.renderToast(width))
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader(width int) string {
	title := ui.TitleStyle.Render("CHIME")
	now := ui.DimStyle.Render(m.now.Format("Mon Jan 2  15:04:05"))

	var rec string
	for i, s := range m.sessions {
		if s.Recording() {
			rec = "  " + ui.RecordingDotStyle.Render("● REC "+captureTarget(i).String())
			break
		}
	}

	left := title + rec
	gap := width - lipgloss.Width(left) - lipgloss.Width(now)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + now
}

func (m Model) renderTabs() string {
	var parts []string
	for i, name := range tabNames {
		label := name
		switch Tab(i) {
		case TabAlarm:
			if m.alarm.Armed() {
				label += " ●"
			}
		case TabTimer:
			if m.timer.Armed() {
				label += " ●"
			}
		case TabCalendar:
			if n := m.book.Pending(); n > 0 {
				label += fmt.Sprintf(" %d", n)
			}
		}
		if Tab(i) == m.tab {
			parts = append(parts, ui.TabActiveStyle.Render(label))
		} else {
			parts = append(parts, ui.TabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderAlarm() string {
	var lines []string
	lines = append(lines, "")

	if m.alarm.Armed() {
		lines = append(lines, "  "+ui.BigClockStyle.Render(m.alarmLabel())+"  "+ui.ArmedStyle.Render("SET"))
		if wc, ok := m.alarm.Trigger().(*trigger.WallClock); ok {
			lines = append(lines, ui.DimStyle.Render("  rings "+wc.Due().Format("Mon Jan 2 15:04")))
		}
	} else {
		lines = append(lines, "  "+ui.BigClockStyle.Render(maskDigits(m.alarmDigits))+"  "+ui.DimStyle.Render("OFF"))
		lines = append(lines, ui.DimStyle.Render("  type HHMM, then Enter"))
	}

	lines = append(lines, "")
	lines = append(lines, "  "+m.renderRecording(captureAlarm))
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m Model) renderTimer(width int) string {
	now := m.clock.Now()
	elapsed := m.timer.Elapsed(now)

	var state string
	switch {
	case m.timer.Armed() && m.timer.Paused():
		state = ui.PausedStyle.Render("PAUSED")
	case m.timer.Armed():
		state = ui.ArmedStyle.Render("RUNNING")
	default:
		state = ui.DimStyle.Render("STOPPED")
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "  "+ui.BigClockStyle.Render(formatElapsed(elapsed))+"  "+state)
	lines = append(lines, "  "+renderProgress(elapsed, m.timerTarget, max(10, min(40, width-20)))+" "+
		ui.DimStyle.Render("target "+formatTarget(m.timerTarget)))

	sound := "default chime"
	if m.timerCustom && m.recordings[captureTimer] != nil {
		sound = "custom recording"
	}
	lines = append(lines, ui.DimStyle.Render("  sound: "+sound))
	lines = append(lines, "")
	lines = append(lines, "  "+m.renderRecording(captureTimer))
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderProgress(elapsed, target time.Duration, barLen int) string {
	filled := 0
	if target > 0 {
		filled = int(int64(barLen) * int64(elapsed) / int64(target))
	}
	filled = min(barLen, max(0, filled))

	var bar strings.Builder
	for i := 0; i < barLen; i++ {
		switch {
		case i >= filled:
			bar.WriteString(ui.LevelGrayStyle.Render("░"))
		case float64(i)/float64(barLen) > 0.8:
			bar.WriteString(ui.LevelYellowStyle.Render("█"))
		default:
			bar.WriteString(ui.LevelGreenStyle.Render("█"))
		}
	}
	return bar.String()
}

func (m Model) renderRecording(target captureTarget) string {
	s := m.sessions[target]
	switch {
	case s.Recording():
		return ui.RecordingDotStyle.Render("● REC") + " " + ui.DimStyle.Render(formatBytes(s.Bytes()))
	case m.busy[target]:
		return ui.DimStyle.Render("… working")
	case m.recordings[target] != nil:
		return ui.ArmedStyle.Render("♪ message") + " " + ui.DimStyle.Render(formatBytes(m.recordings[target].Size()))
	}
	return ui.IdleDotStyle.Render("○ no recording")
}

func (m Model) renderCalendar(width int) string {
	grid := m.renderMonth()

	listWidth := max(20, width-lipgloss.Width(strings.Split(grid, "\n")[0])-4)
	var side string
	if m.form != nil {
		side = m.renderForm(listWidth)
	} else {
		side = m.renderReminderList(listWidth)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, grid, "    ", side)
}

func (m Model) renderMonth() string {
	d := m.selected
	today := clock.DateOf(m.now)
	first := clock.Date{Year: d.Year, Month: d.Month, Day: 1}
	// Monday-first grid.
	offset := (int(first.Weekday()) + 6) % 7

	var lines []string
	lines = append(lines, ui.PanelTitleActiveStyle.Render(fmt.Sprintf("%s %d", d.Month, d.Year)))
	lines = append(lines, ui.DimStyle.Render("Mo Tu We Th Fr Sa Su"))

	var row []string
	for i := 0; i < offset; i++ {
		row = append(row, "  ")
	}
	for day := 1; day <= clock.DaysIn(d.Year, d.Month); day++ {
		date := clock.Date{Year: d.Year, Month: d.Month, Day: day}
		cell := fmt.Sprintf("%2d", day)
		switch {
		case date.Equal(d):
			cell = ui.SelectedDayStyle.Render(cell)
		case m.marks[date] > 0:
			cell = ui.MarkedDayStyle.Render(cell)
		case date.Equal(today):
			cell = ui.TodayStyle.Render(cell)
		}
		row = append(row, cell)
		if len(row) == 7 {
			lines = append(lines, strings.Join(row, " "))
			row = nil
		}
	}
	if len(row) > 0 {
		lines = append(lines, strings.Join(row, " "))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderReminderList(width int) string {
	var lines []string
	lines = append(lines, ui.PanelTitleStyle.Render(fmt.Sprintf("REMINDERS %s (%d)", m.selected, len(m.reminders))))

	if len(m.reminders) == 0 {
		lines = append(lines, ui.DimStyle.Render("  Nothing on this day"))
		lines = append(lines, ui.DimStyle.Render("  Press n to add a reminder"))
		return strings.Join(lines, "\n")
	}

	for i, r := range m.reminders {
		marker := "○"
		if m.book.IsPending(r.ID) {
			marker = "●"
		}
		text := r.Time + " " + marker
		if r.Note != "" {
			text += " " + r.Note
		}
		if i == m.cursor {
			lines = append(lines, truncateToWidth(ui.SelectedStyle.Render("> "+text), width))
		} else {
			lines = append(lines, truncateToWidth("  "+text, width))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderForm(width int) string {
	f := m.form
	label := func(field int, name string) string {
		if f.field == field {
			return ui.SelectedStyle.Render("> " + name)
		}
		return ui.DimStyle.Render("  " + name)
	}

	var lines []string
	lines = append(lines, ui.PanelTitleActiveStyle.Render("NEW REMINDER "+m.selected.String()))
	lines = append(lines, label(0, "Time ")+" "+maskDigits(f.digits))
	note := f.note
	if f.field == 1 {
		note += "▌"
	}
	wrapped := wrapText(note, max(10, width-8))
	lines = append(lines, label(1, "Note ")+" "+wrapped[0])
	for _, wl := range wrapped[1:] {
		lines = append(lines, "        "+wl)
	}
	lines = append(lines, "  "+m.renderRecording(captureReminder))
	return strings.Join(lines, "\n")
}

func (m Model) renderToast(width int) string {
	text := m.toast.title
	if m.toast.body != "" {
		text += ": " + m.toast.body
	}
	if m.toast.severity == notify.Destructive {
		return truncateToWidth(ui.ErrorStyle.Render("! ")+ui.ErrorTextStyle.Render(text), width)
	}
	return truncateToWidth(ui.ToastStyle.Render("✓ "+text), width)
}

func (m Model) renderFooter() string {
	var parts []string
	key := func(k, desc string) {
		parts = append(parts, ui.FooterKeyStyle.Render(k)+ui.FooterDescStyle.Render(" "+desc))
	}

	if m.form != nil {
		key("Tab", "Field")
		key("^R", "Record")
		key("Enter", "Save")
		key("Esc", "Cancel")
		return strings.Join(parts, "  ")
	}

	switch m.tab {
	case TabAlarm:
		if m.alarm.Armed() {
			key("Enter", "Cancel")
		} else {
			key("0-9", "Time")
			key("Enter", "Set")
			key("r", "Record")
		}
		key("p", "Preview")
	case TabTimer:
		switch {
		case !m.timer.Armed():
			key("Space", "Start")
			key("+/-", "Target")
		case m.timer.Paused():
			key("Space", "Resume")
		default:
			key("Space", "Pause")
		}
		key("x", "Reset")
		key("c", "Custom")
		key("r", "Record")
		key("d", "Delete")
		key("p", "Test")
	case TabCalendar:
		key("←→↑↓", "Day")
		key("[ ]", "Month")
		key("n", "New")
		key("J/K", "Select")
		key("p", "Play")
	}
	key("Tab", "Switch")
	key("q", "Quit")

	return strings.Join(parts, "  ")
}

// Helpers

// maskDigits renders partial HHMM input as "07:3_".
func maskDigits(digits string) string {
	padded := (digits + "____")[:4]
	return padded[:2] + ":" + padded[2:]
}

// formatElapsed renders a stopwatch reading as MM:SS.cc.
func formatElapsed(d time.Duration) string {
	cs := d.Milliseconds() / 10
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, cs/100%60, cs%100)
}

func formatTarget(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func formatBytes(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	// Simple truncation for non-styled strings
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
