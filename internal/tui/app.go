package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/vidcat/internal/domain"
	"github.com/mmcdole/vidcat/internal/navigation"
	"github.com/mmcdole/vidcat/internal/service"
	"github.com/mmcdole/vidcat/internal/tui/components"
	"github.com/mmcdole/vidcat/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHistory
	StateHelp
)

// Layout proportions
const (
	ListingPercent = 55
	MinPaneWidth   = 20

	// Breadcrumb line on top, footer line at the bottom
	ChromeHeight = 2

	overlayPollInterval = 250 * time.Millisecond
	statusTimeout       = 3 * time.Second
	errorStatusTimeout  = 5 * time.Second
)

// OpenFunc hands a URL to the system default application
type OpenFunc func(url string) error

// CastFunc sends a URL to a cast device and returns the device name
type CastFunc func(ctx context.Context, url string) (string, error)

// Options wires the model to its services. Player must be the container
// the session controller mounts into.
type Options struct {
	Catalog *service.CatalogService
	Session *service.SessionController
	History *service.HistoryService
	Player  *components.PlayerPane

	Open OpenFunc // nil disables "open in default app"
	Cast CastFunc // nil disables casting

	StartPrefix     string // Initial folder, overrides RestoreLocation
	RestoreLocation bool
	Logger          *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	// Services
	CatalogSvc *service.CatalogService
	Session    *service.SessionController
	History    *service.HistoryService

	// Navigation
	Nav *navigation.Navigator

	// UI Components
	Listing      *components.ListingView
	Player       *components.PlayerPane
	HistoryModal components.HistoryModal
	Spinner      spinner.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	Loading     bool // A listing fetch for Nav.CurrentPrefix() is outstanding

	session    domain.MediaSession
	sessionCh  chan domain.MediaSession
	selectNext string // Entry ID to select once the pending listing arrives

	open   OpenFunc
	cast   CastFunc
	logger *slog.Logger
}

// NewModel creates a new application model and subscribes it to the
// session controller.
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	player := opts.Player
	if player == nil {
		player = components.NewPlayerPane()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		State:        StateBrowsing,
		CatalogSvc:   opts.Catalog,
		Session:      opts.Session,
		History:      opts.History,
		Nav:          navigation.New(),
		Listing:      components.NewListingView(),
		Player:       player,
		HistoryModal: components.NewHistoryModal(),
		Spinner:      sp,
		sessionCh:    make(chan domain.MediaSession, 1),
		open:         opts.Open,
		cast:         opts.Cast,
		logger:       logger,
	}
	m.Session.SetObserver(NewChannelObserver(m.sessionCh))
	m.session = m.Session.Current()

	switch {
	case opts.StartPrefix != "":
		if err := m.Nav.Restore(navigation.TrailFor(opts.StartPrefix)); err != nil {
			logger.Warn("invalid start prefix", "prefix", opts.StartPrefix, "error", err)
		}
	case opts.RestoreLocation && m.History != nil:
		if trail, ok := m.History.LastLocation(); ok {
			if err := m.Nav.Restore(trail); err != nil {
				logger.Warn("discarding saved location", "error", err)
			}
		}
	}
	m.Loading = true
	m.Listing.SetLoading(true)
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadListingCmd(m.CatalogSvc, m.Nav.CurrentPrefix()),
		ListenSessionCmd(m.sessionCh),
		m.Spinner.Tick,
		TickCmd(overlayPollInterval),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.session.Status == domain.SessionPlaying && m.session.Strategy == domain.StrategyAdaptive {
			m.Session.SyncOverlay()
		}
		return m, TickCmd(overlayPollInterval)

	case ListingLoadedMsg:
		// A listing for a prefix we already left is stale
		if msg.Prefix != m.Nav.CurrentPrefix() {
			return m, nil
		}
		m.Loading = false
		m.Listing.SetListing(msg.Listing, navigation.Label(msg.Prefix))
		if m.selectNext != "" {
			m.Listing.SelectID(m.selectNext)
			m.selectNext = ""
		}
		return m, nil

	case ListingFailedMsg:
		if msg.Prefix != m.Nav.CurrentPrefix() {
			return m, nil
		}
		// Keep the previous listing on screen
		m.Loading = false
		m.Listing.SetLoading(false)
		m.logger.Error("listing failed", "prefix", msg.Prefix, "error", msg.Err)
		return m.setStatus(ErrMsg{Err: msg.Err, Context: "Listing failed"}.Error(), true)

	case SessionChangedMsg:
		prev := m.session
		m.session = msg.Session
		cmds := []tea.Cmd{ListenSessionCmd(m.sessionCh)}
		if msg.Session.Status == domain.SessionResolving && prev.Status != domain.SessionResolving {
			cmds = append(cmds, m.Spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case SelectionDoneMsg:
		if msg.Err != nil && !isSuperseded(msg.Err) {
			m.logger.Debug("selection failed", "key", msg.Key, "error", msg.Err)
		}
		return m, nil

	case OpenedMsg:
		if msg.Err != nil {
			return m.setStatus(ErrMsg{Err: msg.Err, Context: "Open failed"}.Error(), true)
		}
		return m.setStatus("Opened in default application", false)

	case CastDoneMsg:
		if msg.Err != nil {
			return m.setStatus(ErrMsg{Err: msg.Err, Context: "Cast failed"}.Error(), true)
		}
		return m.setStatus("Casting to "+msg.Device, false)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// handleKeyMsg processes keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil
	case StateHistory:
		return m.handleHistoryKey(msg)
	}

	// Filter input captures everything but ctrl+c
	if m.Listing.IsFilterTyping() {
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		return m, m.Listing.Update(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m.quit()

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.Listing.IsFiltering() {
			m.Listing.ClearFilter()
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.Listing.ToggleFilter()
		return m, nil

	case key.Matches(msg, Keys.Refresh):
		if m.Loading {
			return m, nil
		}
		if e, ok := m.Listing.SelectedEntry(); ok {
			m.selectNext = e.ID()
		}
		return m, m.refresh()

	case key.Matches(msg, Keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, Keys.Back):
		left := m.Nav.CurrentPrefix()
		if !m.Nav.Ascend() {
			return m, nil
		}
		m.selectNext = left
		return m, m.refresh()

	case key.Matches(msg, Keys.Root):
		m.Nav.Reset()
		return m, m.refresh()

	case key.Matches(msg, Keys.Jump):
		idx := int(msg.Runes[0] - '1')
		if err := m.Nav.JumpTo(idx); err != nil {
			return m, nil
		}
		return m, m.refresh()

	case key.Matches(msg, Keys.Close):
		if !m.session.IsActive() {
			return m, nil
		}
		ctrl := m.Session
		return m, func() tea.Msg {
			ctrl.Close()
			return nil
		}

	case key.Matches(msg, Keys.OpenDirect):
		if m.open == nil {
			return m.setStatus("No default application available", true)
		}
		if m.session.ResolvedURL == "" {
			return m.setStatus("Nothing is playing", false)
		}
		return m, OpenDirectCmd(m.open, m.session.ResolvedURL)

	case key.Matches(msg, Keys.Cast):
		if m.cast == nil {
			return m.setStatus("Casting is disabled", false)
		}
		if m.session.ResolvedURL == "" {
			return m.setStatus("Nothing is playing", false)
		}
		m.StatusMsg = "Looking for cast devices..."
		m.StatusIsErr = false
		return m, CastCmd(m.cast, m.session.ResolvedURL)

	case key.Matches(msg, Keys.History):
		if m.History == nil {
			return m, nil
		}
		m.State = StateHistory
		m.HistoryModal.SetRecords(m.History.Recent())
		return m, m.HistoryModal.Open()
	}

	return m, m.Listing.Update(msg)
}

// handleEnter descends into folders and plays files
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	entry, ok := m.Listing.SelectedEntry()
	if !ok {
		return m, nil
	}
	switch e := entry.(type) {
	case domain.Folder:
		m.Nav.Descend(e.Prefix)
		return m, m.refresh()
	case domain.File:
		return m, m.play(e, m.Nav.CurrentPrefix())
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		m.State = StateBrowsing
		return m, nil
	case "ctrl+d":
		if err := m.History.Clear(); err != nil {
			return m.setStatus(ErrMsg{Err: err, Context: "Clear history failed"}.Error(), true)
		}
		m.HistoryModal.SetRecords(nil)
		return m.setStatus("History cleared", false)
	case "enter":
		rec, ok := m.HistoryModal.Selected()
		m.State = StateBrowsing
		if !ok {
			return m, nil
		}
		var cmds []tea.Cmd
		if rec.Prefix != m.Nav.CurrentPrefix() {
			if err := m.Nav.Restore(navigation.TrailFor(rec.Prefix)); err != nil {
				m.Nav.Reset()
			}
			cmds = append(cmds, m.refresh())
		}
		m.selectNext = rec.Key
		if m.Nav.CurrentPrefix() == rec.Prefix && !m.Loading {
			m.Listing.SelectID(rec.Key)
			m.selectNext = ""
		}
		cmds = append(cmds, m.play(domain.File{Key: rec.Key, Name: rec.Name}, rec.Prefix))
		return m, tea.Batch(cmds...)
	}

	cmd, changed := m.HistoryModal.Update(msg)
	if changed {
		m.HistoryModal.SetRecords(m.History.Search(m.HistoryModal.Query()))
	}
	return m, cmd
}

// play records the file in the history and starts a session for it
func (m *Model) play(f domain.File, prefix string) tea.Cmd {
	if m.History != nil {
		m.History.Record(f, prefix)
		m.History.SaveLocation(m.Nav.Breadcrumbs())
	}
	return SelectFileCmd(m.Session, f.Key)
}

// refresh fetches the listing of the current prefix. Called exactly once
// per navigation change.
func (m *Model) refresh() tea.Cmd {
	m.Loading = true
	m.Listing.SetLoading(true)
	return tea.Batch(
		LoadListingCmd(m.CatalogSvc, m.Nav.CurrentPrefix()),
		m.Spinner.Tick,
	)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.History != nil {
		m.History.SaveLocation(m.Nav.Breadcrumbs())
	}
	return m, tea.Quit
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	if isErr {
		return m, ClearStatusCmd(errorStatusTimeout)
	}
	return m, ClearStatusCmd(statusTimeout)
}

// busy reports whether the spinner should animate
func (m Model) busy() bool {
	return m.Loading || m.session.Status == domain.SessionResolving
}

// CurrentSession returns the last session snapshot the model received
func (m Model) CurrentSession() domain.MediaSession {
	return m.session
}

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}
	contentHeight := max(m.Height-ChromeHeight, 1)
	listingWidth := max(m.Width*ListingPercent/100, MinPaneWidth)
	playerWidth := max(m.Width-listingWidth, MinPaneWidth)

	m.Listing.SetSize(listingWidth, contentHeight)
	m.Player.SetSize(playerWidth, contentHeight)
	m.HistoryModal.SetWidth(min(m.Width-8, 80))
}
