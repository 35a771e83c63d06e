package playback

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/vidcat/internal/domain"
)

// PlayerProcess is a running external player
type PlayerProcess interface {
	Done() <-chan struct{}
	Err() error
	Kill() error
	IsDetached() bool
}

// LaunchFunc starts an external player for url
type LaunchFunc func(url, title string) (PlayerProcess, error)

// DirectAdapter hands progressive files to an external player
type DirectAdapter struct {
	launch LaunchFunc
	logger *slog.Logger
}

// NewDirectAdapter creates a direct adapter
func NewDirectAdapter(launch LaunchFunc, logger *slog.Logger) *DirectAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectAdapter{launch: launch, logger: logger}
}

// Mount attaches a surface for src and launches the player.
// A player that exits with an error reports UnsupportedMediaMessage.
func (a *DirectAdapter) Mount(ctx context.Context, container Container, src string, report ErrorReporter) Handle {
	h := &directHandle{
		container: container,
		surface:   NewSurface(src),
		stop:      make(chan struct{}),
		watched:   make(chan struct{}),
		logger:    a.logger,
	}
	container.Attach(h.surface)
	h.overlay = &Overlay{Src: src}

	proc, err := a.launch(src, titleFromURL(src))
	if err != nil {
		perr := newPlaybackError(DiagnosticMessage(err), err)
		h.lastErr.Store(perr)
		a.logger.Error("direct playback launch failed", "error", perr)
		close(h.watched)
		report(perr.Message)
		return h
	}
	a.logger.Info("direct playback started", "detached", proc.IsDetached())
	h.proc = proc

	go h.watch(report)
	return h
}

type directHandle struct {
	container Container
	surface   *Surface
	overlay   *Overlay
	proc      PlayerProcess
	logger    *slog.Logger

	stop     chan struct{}
	watched  chan struct{}
	stopOnce sync.Once
	lastErr  atomic.Pointer[domain.PlaybackError]
}

func (h *directHandle) watch(report ErrorReporter) {
	defer close(h.watched)
	select {
	case <-h.stop:
		return
	case <-h.proc.Done():
	}
	select {
	case <-h.stop:
		return
	default:
	}
	if err := h.proc.Err(); err != nil && !h.proc.IsDetached() {
		perr := newPlaybackError(UnsupportedMediaMessage, err)
		h.lastErr.Store(perr)
		h.logger.Warn("player exited with error", "error", err)
		report(perr.Message)
	}
}

// Err returns the last reported failure, matching domain.ErrPlayback
func (h *directHandle) Err() error {
	if perr := h.lastErr.Load(); perr != nil {
		return perr
	}
	return nil
}

func (h *directHandle) Overlay() *Overlay {
	return h.overlay
}

func (h *directHandle) Teardown() {
	h.stopOnce.Do(func() {
		close(h.stop)
		steps := []releaseStep{{name: "detach surface", fn: func() error {
			if !h.container.Contains(h.surface) {
				return nil
			}
			return h.container.Detach(h.surface)
		}}}
		if h.proc != nil {
			steps = append([]releaseStep{{name: "kill player", fn: h.proc.Kill}}, steps...)
		}
		releaseAll(h.logger, steps...)
		<-h.watched
	})
}
