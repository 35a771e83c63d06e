package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/vidcat/internal/domain"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleListing() domain.CatalogListing {
	return domain.CatalogListing{
		Prefix: "shows/",
		Folders: []domain.Folder{
			{Name: "Season 1", Prefix: "shows/s1/"},
			{Name: "Specials", Prefix: "shows/sp/"},
		},
		Files: []domain.File{
			{Key: "k-movie", Name: "movie.mkv", SizeBytes: 1 << 30},
			{Key: "k-trailer", Name: "trailer.mp4", SizeBytes: 1 << 20},
		},
	}
}

func newListing(t *testing.T) *ListingView {
	t.Helper()
	l := NewListingView()
	l.SetSize(60, 20)
	l.SetListing(sampleListing(), "shows")
	require.Equal(t, 4, l.ItemCount())
	return l
}

func selectedID(t *testing.T, l *ListingView) string {
	t.Helper()
	e, ok := l.SelectedEntry()
	require.True(t, ok)
	return e.ID()
}

func TestListingView_Filter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"single match", "spe", []string{"shows/sp/"}},
		{"case insensitive", "MOVIE", []string{"k-movie"}},
		{"no match", "zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newListing(t)
			l.ToggleFilter()
			require.True(t, l.IsFilterTyping())
			l.Update(runes(tt.query))

			var got []string
			for i := 0; i < l.ItemCount(); i++ {
				l.cursor = i
				got = append(got, selectedID(t, l))
			}
			assert.Equal(t, tt.want, got)
			if len(tt.want) == 0 {
				_, ok := l.SelectedEntry()
				assert.False(t, ok)
				assert.Contains(t, l.View(), "No matches")
			}
		})
	}
}

func TestListingView_ClearFilter(t *testing.T) {
	tests := []struct {
		name  string
		clear func(l *ListingView)
	}{
		{"esc", func(l *ListingView) { l.Update(tea.KeyMsg{Type: tea.KeyEsc}) }},
		{"backspace on empty input", func(l *ListingView) {
			l.Update(tea.KeyMsg{Type: tea.KeyBackspace})
			l.Update(tea.KeyMsg{Type: tea.KeyBackspace})
			l.Update(tea.KeyMsg{Type: tea.KeyBackspace})
			l.Update(tea.KeyMsg{Type: tea.KeyBackspace})
		}},
		{"explicit", func(l *ListingView) { l.ClearFilter() }},
		{"new listing", func(l *ListingView) { l.SetListing(sampleListing(), "shows") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newListing(t)
			l.ToggleFilter()
			l.Update(runes("spe"))
			require.Equal(t, 1, l.ItemCount())

			tt.clear(l)
			assert.False(t, l.IsFiltering())
			assert.Equal(t, 4, l.ItemCount())
			assert.Equal(t, "shows/s1/", selectedID(t, l))
		})
	}
}

func TestListingView_EnterKeepsFilterForNavigation(t *testing.T) {
	l := newListing(t)
	l.ToggleFilter()
	l.Update(runes("s"))
	filtered := l.ItemCount()
	require.Greater(t, filtered, 1)

	l.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, l.IsFiltering())
	assert.False(t, l.IsFilterTyping())

	l.Update(runes("j"))
	assert.Equal(t, 1, l.Cursor())
	assert.Equal(t, filtered, l.ItemCount())
}

func TestListingView_CursorResetOnSetListing(t *testing.T) {
	tests := []struct {
		name    string
		listing domain.CatalogListing
		wantOK  bool
	}{
		{"smaller listing", domain.CatalogListing{Files: []domain.File{{Key: "only", Name: "only.mp4"}}}, true},
		{"empty listing", domain.CatalogListing{}, false},
		{"same listing", sampleListing(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newListing(t)
			l.Update(runes("G"))
			require.Equal(t, 3, l.Cursor())

			l.SetListing(tt.listing, "next")
			assert.Equal(t, 0, l.Cursor())
			_, ok := l.SelectedEntry()
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestListingView_Navigation(t *testing.T) {
	l := newListing(t)

	l.Update(runes("k"))
	assert.Equal(t, 0, l.Cursor(), "clamped at top")

	l.Update(runes("G"))
	l.Update(runes("j"))
	assert.Equal(t, 3, l.Cursor(), "clamped at bottom")

	l.Update(runes("g"))
	assert.Equal(t, 0, l.Cursor())

	l.SetFocused(false)
	l.Update(runes("j"))
	assert.Equal(t, 0, l.Cursor(), "unfocused listing ignores keys")
}

func TestListingView_SelectID(t *testing.T) {
	tests := []struct {
		name       string
		filter     string
		id         string
		want       bool
		wantCursor int
	}{
		{"folder", "", "shows/sp/", true, 1},
		{"file", "", "k-trailer", true, 3},
		{"unknown", "", "missing", false, 0},
		{"hidden by filter", "movie", "shows/sp/", false, 0},
		{"visible through filter", "movie", "k-movie", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newListing(t)
			if tt.filter != "" {
				l.ToggleFilter()
				l.Update(runes(tt.filter))
			}
			assert.Equal(t, tt.want, l.SelectID(tt.id))
			assert.Equal(t, tt.wantCursor, l.Cursor())
			if tt.want {
				assert.Equal(t, tt.id, selectedID(t, l))
			}
		})
	}
}

func TestListingView_ViewShowsFileMeta(t *testing.T) {
	l := newListing(t)
	l.SetLoading(true)
	view := l.View()
	assert.Contains(t, view, "(loading)")
	assert.Contains(t, view, "MKV 1.0 GiB")
	assert.Contains(t, view, "Season 1")
}
