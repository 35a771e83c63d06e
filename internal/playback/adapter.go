// Package playback mounts resolved media URLs onto a player.
//
// Two adapters share one contract: Direct hands a progressive file to an
// external player, Adaptive drives a controllable streaming engine and
// adds sidecar subtitles and cast controls.
package playback

import (
	"context"
	"net/url"
	"path"
	"strings"
)

// ManifestSuffix marks an adaptive streaming manifest
const ManifestSuffix = ".m3u8"

// ErrorReporter receives human-readable playback failures
type ErrorReporter func(message string)

// Adapter mounts src into container. Mount returns immediately; any slow
// initialisation continues in the background and reports failures through
// report. The returned handle is never nil.
type Adapter interface {
	Mount(ctx context.Context, container Container, src string, report ErrorReporter) Handle
}

// Handle is a mounted adapter instance
type Handle interface {
	// Teardown releases every resource. Safe to call repeatedly and before
	// initialisation has finished; never panics or returns an error.
	Teardown()

	// Overlay returns the control overlay, nil until one is wired
	Overlay() *Overlay
}

// Overlay is the control surface offered next to the player
type Overlay struct {
	Src  string
	Cast bool // Cast controls are offered
}

// IsAdaptive reports whether src names an adaptive manifest. Only the URL
// path is inspected, so signed query strings do not interfere. The suffix
// match is case sensitive.
func IsAdaptive(src string) bool {
	p := src
	if u, err := url.Parse(src); err == nil {
		p = u.Path
	}
	return strings.HasSuffix(p, ManifestSuffix)
}

// titleFromURL returns the unescaped last path segment of src
func titleFromURL(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.Path == "" {
		return ""
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}

// Selector picks an adapter by URL suffix
type Selector struct {
	Direct   Adapter
	Adaptive Adapter
}

// Select returns the adaptive adapter for manifests and the direct one otherwise
func (s Selector) Select(src string) (Adapter, bool) {
	if IsAdaptive(src) {
		return s.Adaptive, true
	}
	return s.Direct, false
}
