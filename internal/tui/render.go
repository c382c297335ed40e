package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"assetscan/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	statusStyles = map[models.TaskStatus]lipgloss.Style{
		models.TaskStatusPending:    dimStyle,
		models.TaskStatusProcessing: infoStyle,
		models.TaskStatusCompleted:  successStyle,
		models.TaskStatusError:      errorStyle,
	}
)

const cellWidth = 18

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("assetscan"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  provider:%s  queue:%d", a.sess.Provider(), len(a.proc.Tasks()))))
	b.WriteString("\n\n")

	switch a.mode {
	case "queue":
		b.WriteString(a.renderQueue())
	case "history":
		b.WriteString(a.renderHistory())
	default:
		b.WriteString(a.renderTable())
	}

	b.WriteString("\n")
	if a.note != nil {
		b.WriteString(a.renderNotification(*a.note))
		b.WriteString("\n")
	}
	if a.message != "" {
		b.WriteString(dimStyle.Render(a.message))
		b.WriteString("\n")
	}

	b.WriteString("\n> ")
	b.WriteString(a.input.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("tab: views  ↑↓: row  ←→: page  ctrl+t: select  ctrl+s: select page  ctrl+d: delete selected  ctrl+c: quit"))

	return b.String()
}

func (a *App) renderTable() string {
	page := a.eng.Page()
	cols := a.eng.VisibleColumns()
	sortCfg := a.eng.SortConfig()

	var b strings.Builder

	header := make([]string, 0, len(cols)+1)
	header = append(header, pad(" ", 3))
	for _, col := range cols {
		label := col
		if sortCfg.Key == col {
			switch sortCfg.Direction {
			case models.SortAsc:
				label += " ▲"
			case models.SortDesc:
				label += " ▼"
			}
		}
		header = append(header, pad(label, cellWidth))
	}
	b.WriteString(headerStyle.Render(strings.Join(header, " ")))
	b.WriteString("\n")

	if len(page) == 0 {
		b.WriteString(dimStyle.Render("  No records. Use: add <files> to ingest reports."))
		b.WriteString("\n")
	}

	editID, editing := a.eng.Editing()
	for i, row := range page {
		rec := row.Record
		if editing && row.ID == editID {
			rec = a.eng.Scratch()
		}

		mark := " "
		if a.eng.Selected(row.ID) {
			mark = "✓"
		}
		cells := make([]string, 0, len(cols)+1)
		cells = append(cells, pad(mark, 3))
		for _, col := range cols {
			cells = append(cells, pad(rec.Get(col), cellWidth))
		}

		line := strings.Join(cells, " ")
		switch {
		case editing && row.ID == editID:
			line = selectedStyle.Render(line + "  [editing]")
		case i == a.cursor:
			line = cursorStyle.Render(line)
		case a.eng.Selected(row.ID):
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := fmt.Sprintf("Page %d/%d  %d record(s)", a.eng.CurrentPage(), a.eng.TotalPages(), a.eng.Total())
	if n := a.eng.SelectedCount(); n > 0 {
		status += fmt.Sprintf("  %d selected", n)
	}
	if s := a.eng.Search(); s != "" {
		status += fmt.Sprintf("  search:%q", s)
	}
	if f := a.eng.Filters(); len(f) > 0 {
		status += fmt.Sprintf("  %d filter(s)", len(f))
	}
	b.WriteString(dimStyle.Render(status))
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderQueue() string {
	tasks := a.proc.Tasks()

	var b strings.Builder
	b.WriteString(headerStyle.Render("Ingestion Queue"))
	b.WriteString("\n\n")

	if len(tasks) == 0 {
		b.WriteString(dimStyle.Render("  Queue is empty."))
		b.WriteString("\n")
		return b.String()
	}

	for _, t := range tasks {
		style, ok := statusStyles[t.Status]
		if !ok {
			style = dimStyle
		}
		line := fmt.Sprintf("  %-40s %s", truncate(t.Filename, 40), style.Render(string(t.Status)))
		if t.Retries > 0 {
			line += dimStyle.Render(fmt.Sprintf(" (retry %d)", t.Retries))
		}
		if t.ErrorMessage != "" {
			line += " " + errorStyle.Render(truncate(t.ErrorMessage, 60))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderHistory() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Extraction History"))
	b.WriteString("\n\n")

	if len(a.history) == 0 {
		b.WriteString(dimStyle.Render("  No extractions recorded."))
		b.WriteString("\n")
		return b.String()
	}

	for i, entry := range a.history {
		line := fmt.Sprintf("  %s  %-40s %d record(s)",
			entry.CreatedAt.Format("2006-01-02 15:04"),
			truncate(entry.Filename, 40),
			len(entry.Records))
		if i == a.historyIdx {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderNotification(n models.Notification) string {
	switch n.Kind {
	case models.NotifyError:
		return errorStyle.Render("✗ " + n.Message)
	case models.NotifySuccess:
		return successStyle.Render("✓ " + n.Message)
	default:
		return infoStyle.Render("• " + n.Message)
	}
}

func pad(s string, width int) string {
	s = truncate(s, width)
	if len(s) < width {
		return s + strings.Repeat(" ", width-len(s))
	}
	return s
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
