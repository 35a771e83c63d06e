package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/vidcat/internal/domain"
	"github.com/mmcdole/vidcat/internal/playback"
	"github.com/mmcdole/vidcat/internal/tui/styles"
)

// PlayerPane shows the media session and hosts the playback surface.
// It is shared by pointer between the model and the session controller.
type PlayerPane struct {
	*playback.Slot

	width  int
	height int
}

// NewPlayerPane creates an empty player pane
func NewPlayerPane() *PlayerPane {
	return &PlayerPane{Slot: playback.NewSlot()}
}

func (p *PlayerPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the pane for session s
func (p *PlayerPane) View(s domain.MediaSession) string {
	style := styles.InactiveBorder
	if s.Status == domain.SessionPlaying {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(p.width-frameW, 0)).
		Height(max(p.height-frameH, 0)).
		Render(p.renderContent(s, p.width-frameW))
}

func (p *PlayerPane) renderContent(s domain.MediaSession, width int) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Player"))
	b.WriteString("\n\n")

	if s.Status == domain.SessionIdle {
		b.WriteString(styles.DimStyle.Render("Select a file to play"))
		return b.String()
	}

	b.WriteString(styles.Truncate(s.SelectedKey, width))
	b.WriteString("\n")
	b.WriteString(statusBadge(s))
	if s.Strategy != domain.StrategyNone {
		b.WriteString(" " + styles.DimBadgeStyle.Render(s.Strategy.String()))
	}
	if s.CastEnabled {
		b.WriteString(" " + styles.DimBadgeStyle.Render("cast"))
	}
	b.WriteString("\n\n")

	if s.ErrorMessage != "" {
		b.WriteString(styles.ErrorStyle.Render(lipgloss.NewStyle().Width(width).Render(s.ErrorMessage)))
		b.WriteString("\n\n")
	}

	if surface := p.Current(); surface != nil {
		for _, t := range surface.TextTracks() {
			mark := "○"
			if t.Mode == playback.TrackShowing {
				mark = "●"
			}
			b.WriteString(styles.DimStyle.Render(mark + " " + t.Label + " subtitles"))
			b.WriteString("\n")
		}
	}

	if s.ResolvedURL != "" {
		b.WriteString(styles.DimStyle.Render(styles.Truncate(s.ResolvedURL, width)))
		b.WriteString("\n")
	}
	return b.String()
}

func statusBadge(s domain.MediaSession) string {
	switch s.Status {
	case domain.SessionPlaying:
		return styles.BadgeStyle.Render("playing")
	case domain.SessionErrored:
		return styles.ErrorBadgeStyle.Render("error")
	default:
		return styles.DimBadgeStyle.Render(s.Status.String())
	}
}
