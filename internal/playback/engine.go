package playback

import "context"

// Preferences are the language choices applied before a load
type Preferences struct {
	AudioLanguage string // ISO 639-2
	TextLanguage  string
}

// DefaultPreferences prefers English audio and subtitles
var DefaultPreferences = Preferences{AudioLanguage: "eng", TextLanguage: "eng"}

// Engine is a controllable adaptive streaming player
type Engine interface {
	Configure(prefs Preferences) error
	Load(ctx context.Context, url string) error
	Destroy() error
}

// EngineFactory builds an engine bound to surface
type EngineFactory func(surface *Surface) (Engine, error)

// SubtitleTrack is a sidecar track handed to an engine
type SubtitleTrack struct {
	URL      string
	Language string // ISO 639-2
	Kind     string
	MIMEType string
	Label    string
}

// TextTrackAdder is an engine that can add a subtitle track synchronously
type TextTrackAdder interface {
	AddTextTrack(ctx context.Context, track SubtitleTrack) error
}

// AsyncTextTrackAdder is an engine whose track addition completes later
type AsyncTextTrackAdder interface {
	AddTextTrackAsync(track SubtitleTrack) <-chan error
}

// TextTrackVisibilitySetter is an engine that can toggle subtitle display
type TextTrackVisibilitySetter interface {
	SetTextTrackVisibility(visible bool) error
}

// ErrorSource is an engine that raises errors after a successful load
type ErrorSource interface {
	OnError(fn func(error))
}
