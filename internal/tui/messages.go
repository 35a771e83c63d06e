package tui

import (
	"github.com/mmcdole/vidcat/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ListingLoadedMsg carries the listing fetched for Prefix
type ListingLoadedMsg struct {
	Prefix  string
	Listing domain.CatalogListing
}

// ListingFailedMsg reports a failed listing fetch for Prefix
type ListingFailedMsg struct {
	Prefix string
	Err    error
}

// SessionChangedMsg carries a media session snapshot
type SessionChangedMsg struct {
	Session domain.MediaSession
}

// SelectionDoneMsg signals that a SelectFile call returned
type SelectionDoneMsg struct {
	Key string
	Err error
}

// CastDoneMsg signals that a cast attempt finished
type CastDoneMsg struct {
	Device string
	Err    error
}

// OpenedMsg signals that the URL was handed to the default application
type OpenedMsg struct {
	Err error
}

// TickMsg drives periodic overlay syncing
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
