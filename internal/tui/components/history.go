package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/mmcdole/vidcat/internal/domain"
	"github.com/mmcdole/vidcat/internal/tui/styles"
)

const historyVisible = 12

// HistoryModal lists recently played files with a search box
type HistoryModal struct {
	input   textinput.Model
	records []domain.PlayRecord
	cursor  int
	width   int
}

// NewHistoryModal creates a history modal
func NewHistoryModal() HistoryModal {
	ti := textinput.New()
	ti.Placeholder = "search history..."
	ti.Prompt = "› "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle
	return HistoryModal{input: ti}
}

// Open focuses the search box and resets the query
func (h *HistoryModal) Open() tea.Cmd {
	h.input.SetValue("")
	h.cursor = 0
	return h.input.Focus()
}

// Query returns the current search text
func (h *HistoryModal) Query() string {
	return h.input.Value()
}

// SetRecords replaces the displayed records
func (h *HistoryModal) SetRecords(recs []domain.PlayRecord) {
	h.records = recs
	if h.cursor >= len(recs) {
		h.cursor = max(len(recs)-1, 0)
	}
}

func (h *HistoryModal) SetWidth(width int) {
	h.width = width
}

// Selected returns the record under the cursor
func (h *HistoryModal) Selected() (domain.PlayRecord, bool) {
	if h.cursor >= len(h.records) {
		return domain.PlayRecord{}, false
	}
	return h.records[h.cursor], true
}

// Update handles cursor keys and typing. It reports whether the query changed.
func (h *HistoryModal) Update(msg tea.Msg) (tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "down", "ctrl+n":
			if h.cursor < len(h.records)-1 {
				h.cursor++
			}
			return nil, false
		case "up", "ctrl+p":
			if h.cursor > 0 {
				h.cursor--
			}
			return nil, false
		}
	}
	before := h.input.Value()
	var cmd tea.Cmd
	h.input, cmd = h.input.Update(msg)
	return cmd, h.input.Value() != before
}

func (h *HistoryModal) View() string {
	width := max(h.width, 40)
	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Recently played"))
	b.WriteString("\n")
	b.WriteString(h.input.View())
	b.WriteString("\n\n")

	if len(h.records) == 0 {
		b.WriteString(styles.DimStyle.Render("Nothing played yet"))
		return styles.ModalStyle.Render(b.String())
	}

	start := 0
	if h.cursor >= historyVisible {
		start = h.cursor - historyVisible + 1
	}
	end := min(start+historyVisible, len(h.records))
	for i := start; i < end; i++ {
		r := h.records[i]
		when := humanize.Time(r.PlayedAt)
		b.WriteString(styles.RenderListRow([]styles.RowPart{
			{Text: styles.Truncate(r.Name, width-len(when)-6) + "  "},
			{Text: when, Foreground: &styles.DimGray},
		}, i == h.cursor, width))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.HelpKeyStyle.Render("ctrl+d") + styles.HelpDescStyle.Render(" clear history"))
	return styles.ModalStyle.Render(b.String())
}
