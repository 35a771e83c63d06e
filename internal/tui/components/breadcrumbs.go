package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/vidcat/internal/domain"
	"github.com/mmcdole/vidcat/internal/tui/styles"
)

// RenderBreadcrumbs renders "root / a / b" with jump-key hints. Leading
// crumbs are elided when the trail does not fit in width.
func RenderBreadcrumbs(trail []domain.Breadcrumb, width int) string {
	parts := make([]string, 0, len(trail)+1)
	root := "root"
	if len(trail) == 0 {
		parts = append(parts, styles.CurrentCrumbStyle.Render(root))
	} else {
		parts = append(parts, styles.CrumbStyle.Render(root))
	}
	for i, c := range trail {
		label := c.Label
		if i < 9 {
			label = fmt.Sprintf("%d:%s", i+1, c.Label)
		}
		if i == len(trail)-1 {
			parts = append(parts, styles.CurrentCrumbStyle.Render(label))
		} else {
			parts = append(parts, styles.CrumbStyle.Render(label))
		}
	}

	line := strings.Join(parts, styles.CrumbSeparator)
	for lipgloss.Width(line) > width && len(parts) > 2 {
		parts = append([]string{styles.DimStyle.Render("…")}, parts[2:]...)
		line = strings.Join(parts, styles.CrumbSeparator)
	}
	return line
}
