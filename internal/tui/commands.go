package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/vidcat/internal/domain"
	"github.com/mmcdole/vidcat/internal/service"
)

// Command factories for async operations

const (
	listingTimeout = 30 * time.Second
	resolveTimeout = 30 * time.Second
	castTimeout    = 15 * time.Second
)

// LoadListingCmd fetches the listing under prefix
func LoadListingCmd(svc *service.CatalogService, prefix string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), listingTimeout)
		defer cancel()

		listing, err := svc.List(ctx, prefix)
		if err != nil {
			return ListingFailedMsg{Prefix: prefix, Err: err}
		}
		return ListingLoadedMsg{Prefix: prefix, Listing: listing}
	}
}

// SelectFileCmd resolves and mounts key. Session progress arrives
// separately through the session observer.
func SelectFileCmd(ctrl *service.SessionController, key string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()
		return SelectionDoneMsg{Key: key, Err: ctrl.SelectFile(ctx, key)}
	}
}

// ListenSessionCmd waits for the next session snapshot
func ListenSessionCmd(ch <-chan domain.MediaSession) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SessionChangedMsg{Session: s}
	}
}

// OpenDirectCmd hands url to the system default application
func OpenDirectCmd(open OpenFunc, url string) tea.Cmd {
	return func() tea.Msg {
		return OpenedMsg{Err: open(url)}
	}
}

// CastCmd sends url to the first discovered cast device
func CastCmd(cast CastFunc, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), castTimeout)
		defer cancel()
		device, err := cast(ctx, url)
		return CastDoneMsg{Device: device, Err: err}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// isSuperseded reports errors that only mean a newer action took over
func isSuperseded(err error) bool {
	return errors.Is(err, domain.ErrSuperseded)
}
