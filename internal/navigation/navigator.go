// Package navigation tracks the browser's position in the catalog tree.
package navigation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/vidcat/internal/domain"
)

// RootLabel is the label used for the root and for prefixes without a name
const RootLabel = "root"

var (
	// ErrIndexOutOfRange is returned by JumpTo for a position outside the trail
	ErrIndexOutOfRange = errors.New("breadcrumb index out of range")

	// ErrInvalidTrail is returned by Restore when a trail breaks the ancestor invariant
	ErrInvalidTrail = errors.New("breadcrumb trail is not a root-to-leaf path")
)

// Navigator is the navigation state machine: the current prefix plus the
// breadcrumb trail from root to it. The zero value is positioned at root.
//
// Not safe for concurrent use; the TUI owns it on its update loop.
type Navigator struct {
	prefix string
	trail  []domain.Breadcrumb
}

// New creates a navigator positioned at root
func New() *Navigator {
	return &Navigator{}
}

// CurrentPrefix returns the active prefix ("" = root)
func (n *Navigator) CurrentPrefix() string {
	return n.prefix
}

// Breadcrumbs returns a copy of the trail
func (n *Navigator) Breadcrumbs() []domain.Breadcrumb {
	out := make([]domain.Breadcrumb, len(n.trail))
	copy(out, n.trail)
	return out
}

// Depth returns the trail length (0 = root)
func (n *Navigator) Depth() int {
	return len(n.trail)
}

// AtRoot returns true if the trail is empty
func (n *Navigator) AtRoot() bool {
	return len(n.trail) == 0
}

// Descend enters target, appending a breadcrumb labelled with its last
// non-empty path segment. Depth is unbounded.
func (n *Navigator) Descend(target string) {
	n.trail = append(n.trail, domain.Breadcrumb{
		Label:  Label(target),
		Prefix: target,
	})
	n.prefix = target
}

// Ascend goes up one level. Returns false (and does nothing) at root.
func (n *Navigator) Ascend() bool {
	if len(n.trail) == 0 {
		return false
	}
	n.trail = n.trail[:len(n.trail)-1]
	n.prefix = ""
	if len(n.trail) > 0 {
		n.prefix = n.trail[len(n.trail)-1].Prefix
	}
	return true
}

// JumpTo truncates the trail to index+1 entries and moves to that
// breadcrumb. An index outside the trail is a caller error and leaves the
// state untouched.
func (n *Navigator) JumpTo(index int) error {
	if index < 0 || index >= len(n.trail) {
		return fmt.Errorf("%w: %d (depth %d)", ErrIndexOutOfRange, index, len(n.trail))
	}
	n.trail = n.trail[:index+1]
	n.prefix = n.trail[index].Prefix
	return nil
}

// Reset returns to root
func (n *Navigator) Reset() {
	n.trail = nil
	n.prefix = ""
}

// Restore reinstates a previously saved trail. Each prefix must be an
// ancestor-or-self of the next one.
func (n *Navigator) Restore(trail []domain.Breadcrumb) error {
	for i := 1; i < len(trail); i++ {
		if !strings.HasPrefix(trail[i].Prefix, trail[i-1].Prefix) {
			return fmt.Errorf("%w: %q is not under %q", ErrInvalidTrail, trail[i].Prefix, trail[i-1].Prefix)
		}
	}

	n.trail = make([]domain.Breadcrumb, len(trail))
	copy(n.trail, trail)
	n.prefix = ""
	if len(n.trail) > 0 {
		n.prefix = n.trail[len(n.trail)-1].Prefix
	}
	return nil
}

// Label derives a display label from a prefix: its last non-empty
// "/"-separated segment, or RootLabel if there is none.
func Label(prefix string) string {
	trimmed := strings.TrimRight(prefix, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if trimmed == "" {
		return RootLabel
	}
	return trimmed
}

// TrailFor rebuilds the trail that descending segment by segment would
// produce for a "/"-delimited prefix, e.g. "a/b/" gives [a/, a/b/].
func TrailFor(prefix string) []domain.Breadcrumb {
	var trail []domain.Breadcrumb
	for i := 0; i < len(prefix); i++ {
		if prefix[i] != '/' {
			continue
		}
		p := prefix[:i+1]
		if Label(p) == RootLabel {
			continue
		}
		trail = append(trail, domain.Breadcrumb{Label: Label(p), Prefix: p})
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		trail = append(trail, domain.Breadcrumb{Label: Label(prefix), Prefix: prefix})
	}
	return trail
}
