// Package view implements the record view engine: a pure filter → search →
// sort → paginate pipeline over the session record store, plus selection,
// edit transactions, and column visibility.
package view

import (
	"sort"
	"strconv"
	"strings"

	"assetscan/internal/models"
	"assetscan/internal/session"
	"github.com/google/uuid"
)

// PageSizes are the allowed page size options.
var PageSizes = []int{10, 25, 50, 100}

// Engine derives the visible slice of the record store from its current
// filter, search, sort, and pagination state. The derivation is recomputed
// from scratch on every read; nothing is patched incrementally.
type Engine struct {
	store *session.RecordStore

	filters  []models.FilterRule
	search   string
	sortCfg  models.SortConfig
	page     int
	pageSize int
	visible  map[string]bool
	selected map[string]bool

	editing   bool
	editRowID string
	scratch   models.AssetRecord
}

// New creates an engine over the given store with every column visible.
func New(store *session.RecordStore, pageSize int) *Engine {
	if !validPageSize(pageSize) {
		pageSize = PageSizes[0]
	}
	visible := make(map[string]bool, len(models.Columns))
	for _, col := range models.Columns {
		visible[col] = true
	}
	return &Engine{
		store:    store,
		page:     1,
		pageSize: pageSize,
		visible:  visible,
		selected: make(map[string]bool),
	}
}

// --- Derivation pipeline ---

// processed applies filters, search, and sort over a snapshot of the store.
func (e *Engine) processed() []models.Row {
	rows := e.store.Rows()

	if len(e.filters) > 0 {
		kept := rows[:0]
		for _, row := range rows {
			if e.matchesFilters(row.Record) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	if e.search != "" {
		lower := strings.ToLower(e.search)
		kept := rows[:0]
		for _, row := range rows {
			if matchesSearch(row.Record, lower) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	if e.sortCfg.Key != "" && e.sortCfg.Direction != models.SortNone {
		key := e.sortCfg.Key
		asc := e.sortCfg.Direction == models.SortAsc
		sort.SliceStable(rows, func(i, j int) bool {
			c := compareCells(rows[i].Record.Get(key), rows[j].Record.Get(key))
			if asc {
				return c < 0
			}
			return c > 0
		})
	}

	return rows
}

func (e *Engine) matchesFilters(rec models.AssetRecord) bool {
	for _, f := range e.filters {
		raw := rec.Get(f.Column)
		cell := strings.ToLower(raw)
		val := strings.ToLower(f.Value)
		var ok bool
		switch f.Operator {
		case models.OpContains:
			ok = strings.Contains(cell, val)
		case models.OpEquals:
			ok = cell == val
		case models.OpStartsWith:
			ok = strings.HasPrefix(cell, val)
		case models.OpEndsWith:
			ok = strings.HasSuffix(cell, val)
		case models.OpIsEmpty:
			// The sentinel placeholder is real text; only "" is empty.
			ok = raw == ""
		case models.OpIsNotEmpty:
			ok = raw != ""
		default:
			ok = true
		}
		if !ok {
			return false
		}
	}
	return true
}

func matchesSearch(rec models.AssetRecord, lowerSearch string) bool {
	for _, val := range rec.Values() {
		if strings.Contains(strings.ToLower(val), lowerSearch) {
			return true
		}
	}
	return false
}

// compareCells orders two cell values: numerically when both parse as
// finite numbers, lexicographically on the lower-cased strings otherwise.
// A non-numeric value therefore falls back to string comparison even
// against a numeric-looking neighbor.
func compareCells(a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	na, errA := strconv.ParseFloat(la, 64)
	nb, errB := strconv.ParseFloat(lb, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}

// --- Pagination ---

// Total is the number of records surviving filters and search.
func (e *Engine) Total() int {
	return len(e.processed())
}

// TotalPages is at least 1, even when the filtered set is empty.
func (e *Engine) TotalPages() int {
	total := e.Total()
	pages := (total + e.pageSize - 1) / e.pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// CurrentPage is the clamped page number.
func (e *Engine) CurrentPage() int {
	return clamp(e.page, 1, e.TotalPages())
}

// PageSize returns the active page size.
func (e *Engine) PageSize() int {
	return e.pageSize
}

// Page returns the rows visible on the current page.
func (e *Engine) Page() []models.Row {
	rows := e.processed()
	page := clamp(e.page, 1, pagesFor(len(rows), e.pageSize))
	start := (page - 1) * e.pageSize
	if start >= len(rows) {
		return nil
	}
	end := start + e.pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// GoToPage moves to page p, clamped to the valid range.
func (e *Engine) GoToPage(p int) {
	e.page = clamp(p, 1, e.TotalPages())
}

// NextPage advances one page.
func (e *Engine) NextPage() { e.GoToPage(e.CurrentPage() + 1) }

// PrevPage steps back one page.
func (e *Engine) PrevPage() { e.GoToPage(e.CurrentPage() - 1) }

// SetPageSize switches the page size and resets to page 1. Sizes outside
// the option set are ignored.
func (e *Engine) SetPageSize(n int) {
	if !validPageSize(n) {
		return
	}
	e.pageSize = n
	e.page = 1
}

// --- Search and filters ---

// Search returns the quick-search string.
func (e *Engine) Search() string {
	return e.search
}

// SetSearch updates the quick search and resets to page 1.
func (e *Engine) SetSearch(s string) {
	e.search = s
	e.page = 1
}

// Filters returns a copy of the active filter rules.
func (e *Engine) Filters() []models.FilterRule {
	out := make([]models.FilterRule, len(e.filters))
	copy(out, e.filters)
	return out
}

// AddFilter appends a new rule and returns its ID.
func (e *Engine) AddFilter(column string, op models.FilterOperator, value string) string {
	rule := models.FilterRule{
		ID:       uuid.New().String(),
		Column:   column,
		Operator: op,
		Value:    value,
	}
	e.filters = append(e.filters, rule)
	return rule.ID
}

// RemoveFilter deletes the rule with the given ID.
func (e *Engine) RemoveFilter(id string) {
	kept := e.filters[:0]
	for _, f := range e.filters {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	e.filters = kept
}

// ClearFilters removes every rule.
func (e *Engine) ClearFilters() {
	e.filters = nil
}

// --- Sorting ---

// SortConfig returns the active sort.
func (e *Engine) SortConfig() models.SortConfig {
	return e.sortCfg
}

// ToggleSort cycles the named column ascending → descending → off.
func (e *Engine) ToggleSort(column string) {
	if e.sortCfg.Key == column {
		switch e.sortCfg.Direction {
		case models.SortAsc:
			e.sortCfg.Direction = models.SortDesc
		case models.SortDesc:
			e.sortCfg = models.SortConfig{}
		}
		return
	}
	e.sortCfg = models.SortConfig{Key: column, Direction: models.SortAsc}
}

// --- Selection ---

// Selected reports whether the row is selected.
func (e *Engine) Selected(rowID string) bool {
	return e.selected[rowID]
}

// SelectedCount is the size of the selection set across all pages.
func (e *Engine) SelectedCount() int {
	return len(e.selected)
}

// ToggleSelect flips one row's selection.
func (e *Engine) ToggleSelect(rowID string) {
	if e.selected[rowID] {
		delete(e.selected, rowID)
		return
	}
	e.selected[rowID] = true
}

// PageFullySelected reports whether every row on the current page is
// selected. An empty page is never "fully selected".
func (e *Engine) PageFullySelected() bool {
	page := e.Page()
	if len(page) == 0 {
		return false
	}
	for _, row := range page {
		if !e.selected[row.ID] {
			return false
		}
	}
	return true
}

// TogglePageSelection selects every row on the current page, or deselects
// them all when the page is already fully selected. Rows on other pages
// are untouched.
func (e *Engine) TogglePageSelection() {
	page := e.Page()
	if e.PageFullySelected() {
		for _, row := range page {
			delete(e.selected, row.ID)
		}
		return
	}
	for _, row := range page {
		e.selected[row.ID] = true
	}
}

// --- Edit transaction ---

// Editing reports whether a row is in edit mode and which one.
func (e *Engine) Editing() (string, bool) {
	return e.editRowID, e.editing
}

// Scratch returns the in-progress edit copy.
func (e *Engine) Scratch() models.AssetRecord {
	return e.scratch
}

// BeginEdit snapshots the row at the given index of the current page into
// a scratch copy. It reports whether the index was valid. Beginning a new
// edit discards any previous one.
func (e *Engine) BeginEdit(pageIndex int) bool {
	page := e.Page()
	if pageIndex < 0 || pageIndex >= len(page) {
		return false
	}
	e.editing = true
	e.editRowID = page[pageIndex].ID
	e.scratch = page[pageIndex].Record
	return true
}

// SetField updates one column of the scratch copy.
func (e *Engine) SetField(column, value string) {
	if !e.editing {
		return
	}
	e.scratch.Set(column, value)
}

// SaveEdit writes the scratch copy back to the store and exits edit mode.
// It reports whether the edited row still existed.
func (e *Engine) SaveEdit() bool {
	if !e.editing {
		return false
	}
	ok := e.store.Update(e.editRowID, e.scratch)
	e.resetEdit()
	return ok
}

// CancelEdit discards the scratch copy and exits edit mode.
func (e *Engine) CancelEdit() {
	e.resetEdit()
}

func (e *Engine) resetEdit() {
	e.editing = false
	e.editRowID = ""
	e.scratch = models.AssetRecord{}
}

// --- Deletion ---

// DeleteRow removes the row at the given index of the current page. The
// selection set is cleared and the page steps back if it ran off the end.
func (e *Engine) DeleteRow(pageIndex int) int {
	page := e.Page()
	if pageIndex < 0 || pageIndex >= len(page) {
		return 0
	}
	return e.deleteIDs([]string{page[pageIndex].ID})
}

// DeleteSelected removes every selected row in one atomic pass. With an
// empty selection this is a no-op, not an error.
func (e *Engine) DeleteSelected() int {
	if len(e.selected) == 0 {
		return 0
	}
	ids := make([]string, 0, len(e.selected))
	for id := range e.selected {
		ids = append(ids, id)
	}
	return e.deleteIDs(ids)
}

func (e *Engine) deleteIDs(ids []string) int {
	removed := e.store.Remove(ids)
	e.selected = make(map[string]bool)
	if e.editing {
		for _, id := range ids {
			if id == e.editRowID {
				e.resetEdit()
				break
			}
		}
	}
	if e.page > e.TotalPages() && e.page > 1 {
		e.page--
	}
	return removed
}

// --- Column visibility ---

// VisibleColumns returns the visible columns in canonical order.
func (e *Engine) VisibleColumns() []string {
	out := make([]string, 0, len(models.Columns))
	for _, col := range models.Columns {
		if e.visible[col] {
			out = append(out, col)
		}
	}
	return out
}

// ColumnVisible reports one column's visibility.
func (e *Engine) ColumnVisible(column string) bool {
	return e.visible[column]
}

// ToggleColumn flips a column's visibility. Hiding the last visible column
// is rejected; the method reports whether the toggle was applied.
func (e *Engine) ToggleColumn(column string) bool {
	if _, known := e.visible[column]; !known {
		return false
	}
	if e.visible[column] {
		if len(e.VisibleColumns()) == 1 {
			return false
		}
		e.visible[column] = false
		return true
	}
	e.visible[column] = true
	return true
}

func validPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

func pagesFor(total, pageSize int) int {
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
