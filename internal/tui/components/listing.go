package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/vidcat/internal/domain"
	"github.com/mmcdole/vidcat/internal/tui/styles"
)

// Layout constants for the listing pane
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// ListingView is a scrollable, filterable list of catalog entries
type ListingView struct {
	entries []domain.CatalogEntry
	title   string

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	loading bool

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filteredIdx  []int // indices into entries
}

// NewListingView creates an empty listing
func NewListingView() *ListingView {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &ListingView{filterInput: ti, focused: true}
}

// SetListing replaces the entries. The previous listing is discarded.
func (l *ListingView) SetListing(listing domain.CatalogListing, title string) {
	l.entries = listing.Entries()
	l.title = title
	l.loading = false
	l.cursor = 0
	l.offset = 0
	l.clearFilter()
}

// SetLoading toggles the loading marker in the title
func (l *ListingView) SetLoading(loading bool) {
	l.loading = loading
}

func (l *ListingView) SetFocused(focused bool) {
	l.focused = focused
}

func (l *ListingView) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

// ItemCount returns the number of visible (filtered) entries
func (l *ListingView) ItemCount() int {
	if l.filteredIdx != nil {
		return len(l.filteredIdx)
	}
	return len(l.entries)
}

// SelectedEntry returns the entry under the cursor
func (l *ListingView) SelectedEntry() (domain.CatalogEntry, bool) {
	if l.cursor >= l.ItemCount() {
		return nil, false
	}
	return l.entries[l.mapIndex(l.cursor)], true
}

// Cursor returns the cursor position in the visible list
func (l *ListingView) Cursor() int {
	return l.cursor
}

// SelectID moves the cursor to the entry with id, if visible
func (l *ListingView) SelectID(id string) bool {
	for i := 0; i < l.ItemCount(); i++ {
		if l.entries[l.mapIndex(i)].ID() == id {
			l.cursor = i
			l.ensureVisible()
			return true
		}
	}
	return false
}

// ToggleFilter activates the filter input
func (l *ListingView) ToggleFilter() {
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (l *ListingView) IsFiltering() bool {
	return l.filterActive
}

// IsFilterTyping returns true if filter is active AND input is focused
func (l *ListingView) IsFilterTyping() bool {
	return l.filterActive && l.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all entries
func (l *ListingView) ClearFilter() {
	l.clearFilter()
}

func (l *ListingView) Update(msg tea.Msg) tea.Cmd {
	if !l.focused {
		return nil
	}

	if l.IsFilterTyping() {
		if km, ok := msg.(tea.KeyMsg); ok {
			switch km.String() {
			case "esc":
				l.clearFilter()
				return nil
			case "enter":
				// Accept filter, keep results for navigation
				l.filterInput.Blur()
				return nil
			case "backspace":
				if l.filterInput.Value() == "" {
					l.clearFilter()
					return nil
				}
			}
		}
		var cmd tea.Cmd
		l.filterInput, cmd = l.filterInput.Update(msg)
		l.applyFilter()
		return cmd
	}

	count := l.ItemCount()
	km, ok := msg.(tea.KeyMsg)
	if !ok || count == 0 {
		return nil
	}
	switch km.String() {
	case "j", "down":
		if l.cursor < count-1 {
			l.cursor++
		}
	case "k", "up":
		if l.cursor > 0 {
			l.cursor--
		}
	case "g", "home":
		l.cursor = 0
	case "G", "end":
		l.cursor = count - 1
	case "ctrl+d", "pgdown":
		l.cursor = min(l.cursor+max(l.maxVisible/2, 1), count-1)
	case "ctrl+u", "pgup":
		l.cursor = max(l.cursor-max(l.maxVisible/2, 1), 0)
	}
	l.ensureVisible()
	return nil
}

func (l *ListingView) View() string {
	style := styles.InactiveBorder
	if l.focused {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(l.width-frameW, 0)).
		Height(max(l.height-frameH, 0)).
		Render(l.renderContent())
}

func (l *ListingView) renderContent() string {
	inner := l.width - BorderWidth
	var b strings.Builder

	title := l.title
	if l.loading {
		title += " " + styles.DimStyle.Render("(loading)")
	}
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(title, inner)))
	b.WriteString("\n")

	if l.filterActive {
		b.WriteString(l.filterInput.View())
		b.WriteString("\n")
	}

	count := l.ItemCount()
	if count == 0 {
		msg := "Empty folder"
		if l.filterActive {
			msg = "No matches"
		}
		b.WriteString(styles.DimStyle.Render(msg))
		return b.String()
	}

	if l.offset > 0 {
		b.WriteString(styles.DimStyle.Render("↑ more"))
	}
	b.WriteString("\n")

	end := min(l.offset+l.maxVisible, count)
	for i := l.offset; i < end; i++ {
		b.WriteString(l.renderRow(l.entries[l.mapIndex(i)], i == l.cursor, inner))
		b.WriteString("\n")
	}

	if end < count {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("↓ %d more", count-end)))
	}
	return b.String()
}

func (l *ListingView) renderRow(e domain.CatalogEntry, selected bool, width int) string {
	switch v := e.(type) {
	case domain.Folder:
		return styles.RenderListRow([]styles.RowPart{
			{Text: styles.FolderChar + " ", Foreground: &styles.Accent},
			{Text: styles.Truncate(v.Name, width-4)},
		}, selected, width)
	case domain.File:
		meta := v.FormattedSize()
		if badge := v.Badge(); badge != "" {
			meta = strings.TrimSpace(badge + " " + meta)
		}
		nameWidth := width - 4 - lipgloss.Width(meta) - 1
		name := styles.Truncate(v.Name, nameWidth)
		gap := max(nameWidth-lipgloss.Width(name), 0)
		return styles.RenderListRow([]styles.RowPart{
			{Text: styles.FileChar + " "},
			{Text: name + strings.Repeat(" ", gap) + " "},
			{Text: meta, Foreground: &styles.DimGray},
		}, selected, width)
	}
	return ""
}

func (l *ListingView) clearFilter() {
	l.filterActive = false
	l.filteredIdx = nil
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.recalcMaxVisible()
}

func (l *ListingView) applyFilter() {
	query := l.filterInput.Value()
	if query == "" {
		l.filteredIdx = nil
		return
	}

	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = strings.ToLower(e.DisplayName())
	}
	matches := fuzzy.Find(strings.ToLower(query), names)

	l.filteredIdx = make([]int, len(matches))
	for i, match := range matches {
		l.filteredIdx[i] = match.Index
	}
	l.cursor = 0
	l.offset = 0
}

func (l *ListingView) mapIndex(i int) int {
	if l.filteredIdx != nil {
		return l.filteredIdx[i]
	}
	return i
}

func (l *ListingView) recalcMaxVisible() {
	// Interior height minus title and scroll indicators
	l.maxVisible = l.height - BorderHeight - ScrollIndicatorLines - 1
	if l.filterActive {
		l.maxVisible--
	}
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

func (l *ListingView) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}
