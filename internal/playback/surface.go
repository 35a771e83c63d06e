package playback

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TrackMode mirrors a text track's display mode
type TrackMode int

const (
	TrackDisabled TrackMode = iota
	TrackHidden
	TrackShowing
)

// TextTrack is a subtitle track declared on a surface
type TextTrack struct {
	Kind     string // "subtitles"
	Label    string
	Language string // BCP 47 ("en") for surface tracks
	URL      string
	Default  bool
	Mode     TrackMode
}

// Surface is one playback element: a fresh one is created per mount and
// attached to the caller's container.
type Surface struct {
	ID  string
	Src string

	mu     sync.Mutex
	tracks []TextTrack
}

// NewSurface creates a surface for src
func NewSurface(src string) *Surface {
	return &Surface{ID: uuid.NewString(), Src: src}
}

// AddTrack declares a passive text track
func (s *Surface) AddTrack(t TextTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append(s.tracks, t)
}

// TextTracks returns a copy of the declared tracks
func (s *Surface) TextTracks() []TextTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TextTrack, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// SetTrackMode changes the mode of track i
func (s *Surface) SetTrackMode(i int, mode TrackMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.tracks) {
		return fmt.Errorf("no text track %d", i)
	}
	s.tracks[i].Mode = mode
	return nil
}

// Container hosts at most one surface at a time (the TUI player pane)
type Container interface {
	Attach(s *Surface)
	Detach(s *Surface) error
	Contains(s *Surface) bool
}

// Slot is a minimal Container holding the last attached surface
type Slot struct {
	mu      sync.Mutex
	current *Surface
}

// NewSlot creates an empty slot
func NewSlot() *Slot {
	return &Slot{}
}

func (c *Slot) Attach(s *Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = s
}

func (c *Slot) Detach(s *Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != s {
		return fmt.Errorf("surface %s is not attached", s.ID)
	}
	c.current = nil
	return nil
}

func (c *Slot) Contains(s *Surface) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return s != nil && c.current == s
}

// Current returns the attached surface, or nil
func (c *Slot) Current() *Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
