// Package tui provides the interactive terminal UI for assetscan.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"assetscan/internal/export"
	"assetscan/internal/models"
	"assetscan/internal/queue"
	"assetscan/internal/session"
	"assetscan/internal/store"
	"assetscan/internal/view"
)

// App is the main TUI application model.
type App struct {
	sess  *session.Session
	proc  *queue.Processor
	eng   *view.Engine
	store *store.Store

	input  textinput.Model
	width  int
	height int
	mode   string // "table", "queue", "history"

	cursor     int // row cursor within the current page
	historyIdx int
	history    []models.HistoryEntry

	note    *models.Notification
	noteSeq int

	message string
}

// New creates the TUI application. st may be nil when durable storage is
// unavailable; the history view then stays empty.
func New(sess *session.Session, proc *queue.Processor, eng *view.Engine, st *store.Store) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: add <files> | search <term> | sort <column> | export csv <path> | help"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 80

	return &App{
		sess:  sess,
		proc:  proc,
		eng:   eng,
		store: st,
		input: ti,
		mode:  "table",
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.waitForNotification(),
		a.tickCmd(),
	)
}

type notificationMsg models.Notification

type noteDismissMsg struct {
	seq int
}

type historyLoadedMsg struct {
	entries []models.HistoryEntry
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type tickMsg time.Time

// waitForNotification blocks on the session notifier until a message
// arrives.
func (a *App) waitForNotification() tea.Cmd {
	return func() tea.Msg {
		return notificationMsg(<-a.sess.Notifier.C())
	}
}

// tickCmd drives periodic repaints so queue status stays fresh.
func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		if a.store == nil {
			return historyLoadedMsg{}
		}
		entries, err := a.store.ListHistory(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return historyLoadedMsg{entries}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4

	case notificationMsg:
		a.note = (*models.Notification)(&msg)
		a.noteSeq++
		seq := a.noteSeq
		// consumer-side auto-dismiss after 5 seconds
		cmds = append(cmds, a.waitForNotification(), tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return noteDismissMsg{seq: seq}
		}))

	case noteDismissMsg:
		if msg.seq == a.noteSeq {
			a.note = nil
		}

	case historyLoadedMsg:
		a.history = msg.entries
		if a.historyIdx >= len(a.history) {
			a.historyIdx = maxInt(0, len(a.history)-1)
		}

	case tickMsg:
		cmds = append(cmds, a.tickCmd())

	case commandResultMsg:
		a.message = msg.message

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// handleKey processes navigation keys. It reports whether the key was
// consumed; unconsumed keys fall through to the text input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true

	case "esc":
		if _, editing := a.eng.Editing(); editing {
			a.eng.CancelEdit()
			a.message = "Edit cancelled"
			return nil, true
		}
		if a.mode != "table" {
			a.mode = "table"
			return nil, true
		}

	case "up":
		switch a.mode {
		case "table":
			if a.cursor > 0 {
				a.cursor--
			}
		case "history":
			if a.historyIdx > 0 {
				a.historyIdx--
			}
		}
		return nil, true

	case "down":
		switch a.mode {
		case "table":
			if a.cursor < len(a.eng.Page())-1 {
				a.cursor++
			}
		case "history":
			if a.historyIdx < len(a.history)-1 {
				a.historyIdx++
			}
		}
		return nil, true

	case "left":
		if a.mode == "table" {
			a.eng.PrevPage()
			a.cursor = 0
		}
		return nil, true

	case "right":
		if a.mode == "table" {
			a.eng.NextPage()
			a.cursor = 0
		}
		return nil, true

	case "tab":
		switch a.mode {
		case "table":
			a.mode = "queue"
		case "queue":
			a.mode = "history"
			return a.fetchHistory(), true
		default:
			a.mode = "table"
		}
		return nil, true

	case "ctrl+s":
		if a.mode == "table" {
			a.eng.TogglePageSelection()
			return nil, true
		}

	case "ctrl+t":
		if a.mode == "table" {
			page := a.eng.Page()
			if a.cursor < len(page) {
				a.eng.ToggleSelect(page[a.cursor].ID)
			}
			return nil, true
		}

	case "ctrl+d":
		if a.mode == "table" {
			if n := a.eng.DeleteSelected(); n > 0 {
				a.message = fmt.Sprintf("Deleted %d record(s)", n)
				a.clampCursor()
			} else {
				a.message = "No records selected"
			}
			return nil, true
		}

	case "enter":
		cmd := strings.TrimSpace(a.input.Value())
		if cmd != "" {
			a.input.SetValue("")
			return a.executeCommand(cmd), true
		}
		return nil, true
	}

	return nil, false
}

func (a *App) clampCursor() {
	if n := len(a.eng.Page()); a.cursor >= n {
		a.cursor = maxInt(0, n-1)
	}
}

// executeCommand parses and runs one command-bar entry.
func (a *App) executeCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "add":
		return a.addFiles(args)

	case "search":
		a.eng.SetSearch(strings.Join(args, " "))
		a.cursor = 0
		if len(args) == 0 {
			return resultCmd("Search cleared")
		}
		return resultCmd(fmt.Sprintf("Search: %q (%d match(es))", strings.Join(args, " "), a.eng.Total()))

	case "sort":
		col, ok := resolveColumn(strings.Join(args, " "))
		if !ok {
			return resultCmd("Unknown column: " + strings.Join(args, " "))
		}
		a.eng.ToggleSort(col)
		cfg := a.eng.SortConfig()
		if cfg.Direction == models.SortNone {
			return resultCmd("Sort cleared")
		}
		return resultCmd(fmt.Sprintf("Sorted by %s (%s)", cfg.Key, cfg.Direction))

	case "filter":
		return a.filterCommand(args)

	case "col":
		col, ok := resolveColumn(strings.Join(args, " "))
		if !ok {
			return resultCmd("Unknown column: " + strings.Join(args, " "))
		}
		if !a.eng.ToggleColumn(col) {
			return resultCmd("At least one column must stay visible")
		}
		return resultCmd("Toggled column: " + col)

	case "pagesize":
		if len(args) != 1 {
			return resultCmd("Usage: pagesize 10|25|50|100")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return resultCmd("Usage: pagesize 10|25|50|100")
		}
		a.eng.SetPageSize(n)
		a.cursor = 0
		return resultCmd(fmt.Sprintf("Page size: %d", a.eng.PageSize()))

	case "provider":
		if len(args) != 1 || (args[0] != "gemini" && args[0] != "glm") {
			return resultCmd("Usage: provider gemini|glm")
		}
		a.sess.SetProvider(args[0])
		a.proc.Kick()
		return resultCmd("Provider: " + args[0])

	case "edit":
		if !a.eng.BeginEdit(a.cursor) {
			return resultCmd("No row under cursor")
		}
		return resultCmd("Editing row. Use: set <column> <value>, then save or cancel")

	case "set":
		if _, editing := a.eng.Editing(); !editing {
			return resultCmd("Not editing. Use: edit")
		}
		if len(args) < 1 {
			return resultCmd("Usage: set <column> <value>")
		}
		col, rest, ok := splitColumnArg(args)
		if !ok {
			return resultCmd("Unknown column: " + strings.Join(args, " "))
		}
		a.eng.SetField(col, rest)
		return resultCmd(fmt.Sprintf("%s = %q (unsaved)", col, rest))

	case "save":
		if a.eng.SaveEdit() {
			return resultCmd("Row saved")
		}
		return resultCmd("Nothing to save")

	case "cancel":
		a.eng.CancelEdit()
		return resultCmd("Edit cancelled")

	case "delete":
		if n := a.eng.DeleteRow(a.cursor); n > 0 {
			a.clampCursor()
			return resultCmd("Record deleted")
		}
		return resultCmd("No row under cursor")

	case "export":
		return a.exportCommand(args)

	case "clearqueue":
		a.proc.Clear()
		return resultCmd("Queue cleared (in-flight work keeps running)")

	case "queue":
		a.mode = "queue"
		return nil

	case "history":
		a.mode = "history"
		return a.fetchHistory()

	case "help":
		return resultCmd("add | search | sort | filter | col | pagesize | provider | edit/set/save/cancel | delete | export | clearqueue | queue | history | quit")

	case "q", "quit", "exit":
		return tea.Quit

	default:
		return resultCmd(fmt.Sprintf("Unknown: %s (try: help)", cmd))
	}
}

func (a *App) addFiles(patterns []string) tea.Cmd {
	if len(patterns) == 0 {
		return resultCmd("Usage: add <files or globs>")
	}
	return func() tea.Msg {
		var files []queue.File
		for _, pattern := range patterns {
			matches, err := filepath.Glob(pattern)
			if err != nil || len(matches) == 0 {
				matches = []string{pattern}
			}
			for _, path := range matches {
				content, err := os.ReadFile(path)
				if err != nil {
					return errMsg{fmt.Errorf("read %s: %w", path, err)}
				}
				files = append(files, queue.File{Name: filepath.Base(path), Content: content})
			}
		}
		accepted := a.proc.Add(files)
		return commandResultMsg{fmt.Sprintf("Queued %d of %d file(s)", accepted, len(files))}
	}
}

func (a *App) filterCommand(args []string) tea.Cmd {
	if len(args) == 0 {
		return resultCmd("Usage: filter add <column> <operator> [value] | filter list | filter remove <n> | filter clear")
	}
	switch args[0] {
	case "clear":
		a.eng.ClearFilters()
		return resultCmd("Filters cleared")
	case "list":
		rules := a.eng.Filters()
		if len(rules) == 0 {
			return resultCmd("No filters active")
		}
		parts := make([]string, len(rules))
		for i, r := range rules {
			parts[i] = fmt.Sprintf("%d: %s %s %q", i+1, r.Column, r.Operator, r.Value)
		}
		return resultCmd(strings.Join(parts, "  |  "))
	case "remove":
		if len(args) != 2 {
			return resultCmd("Usage: filter remove <number>")
		}
		idx, err := strconv.Atoi(args[1])
		rules := a.eng.Filters()
		if err != nil || idx < 1 || idx > len(rules) {
			return resultCmd("Usage: filter remove <number> (see: filter list)")
		}
		a.eng.RemoveFilter(rules[idx-1].ID)
		return resultCmd(fmt.Sprintf("Removed filter %d (%d match(es))", idx, a.eng.Total()))
	case "add":
		if len(args) < 3 {
			return resultCmd("Usage: filter add <column> <operator> [value]")
		}
		// column names may contain spaces; the operator anchors the split
		opIdx := -1
		var op models.FilterOperator
		for i := 1; i < len(args); i++ {
			if o, ok := parseOperator(args[i]); ok {
				opIdx, op = i, o
				break
			}
		}
		if opIdx < 0 {
			return resultCmd("Operator must be one of: contains equals startsWith endsWith isEmpty isNotEmpty")
		}
		col, ok := resolveColumn(strings.Join(args[1:opIdx], " "))
		if !ok {
			return resultCmd("Unknown column: " + strings.Join(args[1:opIdx], " "))
		}
		value := strings.Join(args[opIdx+1:], " ")
		a.eng.AddFilter(col, op, value)
		a.cursor = 0
		return resultCmd(fmt.Sprintf("Filter: %s %s %q (%d match(es))", col, op, value, a.eng.Total()))
	default:
		return resultCmd("Usage: filter add <column> <operator> [value] | filter list | filter remove <n> | filter clear")
	}
}

func (a *App) exportCommand(args []string) tea.Cmd {
	if len(args) < 1 {
		return resultCmd("Usage: export csv|xlsx|json [path]")
	}
	format := args[0]
	path := "assets_export." + format
	if len(args) > 1 {
		path = args[1]
	}

	records := a.sess.Records.Records()
	return func() tea.Msg {
		var err error
		switch format {
		case "csv":
			err = export.ToCSV(records, path)
		case "xlsx":
			err = export.ToXLSX(records, path)
		case "json":
			err = export.ToJSON(records, path)
		default:
			return commandResultMsg{"Unknown format: " + format}
		}
		if err != nil {
			return errMsg{err}
		}
		return commandResultMsg{fmt.Sprintf("Exported %d record(s) to %s", len(records), path)}
	}
}

func resultCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{message}
	}
}

// resolveColumn matches a column name case-insensitively, accepting an
// unambiguous prefix.
func resolveColumn(name string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "", false
	}
	var match string
	for _, col := range models.Columns {
		lc := strings.ToLower(col)
		if lc == lower {
			return col, true
		}
		if strings.HasPrefix(lc, lower) {
			if match != "" {
				return "", false // ambiguous
			}
			match = col
		}
	}
	return match, match != ""
}

// splitColumnArg finds the longest column-name prefix of args and returns
// the remainder as the value.
func splitColumnArg(args []string) (string, string, bool) {
	for n := len(args); n >= 1; n-- {
		if col, ok := resolveColumn(strings.Join(args[:n], " ")); ok {
			return col, strings.Join(args[n:], " "), true
		}
	}
	return "", "", false
}

func parseOperator(s string) (models.FilterOperator, bool) {
	switch models.FilterOperator(s) {
	case models.OpContains, models.OpEquals, models.OpStartsWith, models.OpEndsWith, models.OpIsEmpty, models.OpIsNotEmpty:
		return models.FilterOperator(s), true
	}
	return "", false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
