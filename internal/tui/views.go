package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/vidcat/internal/tui/components"
	"github.com/mmcdole/vidcat/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	if m.State == StateHelp {
		return m.renderHelp()
	}

	header := components.RenderBreadcrumbs(m.Nav.Breadcrumbs(), m.Width)
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.Listing.View(),
		m.Player.View(m.session),
	)
	view := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		m.renderFooter(),
	)

	if m.State == StateHistory {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.HistoryModal.View())
	}
	return view
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.Loading:
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Loading...")
	case m.StatusMsg != "":
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	case m.busy():
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Resolving...")
	}

	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + strings.Repeat(" ", gap) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      PLAYBACK
  j/k        Up/down               Enter  Open folder / play
  h/l        Up a folder/open      x      Close player
  g/G        First/last item       o      Open in default app
  Ctrl+u/d   Scroll half page      c      Cast
  1-9        Jump to breadcrumb
  ~          Back to root

OTHER
  /          Filter                H      Recently played
  r          Refresh               q      Quit
  Esc        Clear filter          ?      This help

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}
