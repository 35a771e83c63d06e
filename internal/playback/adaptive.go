package playback

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// AdaptiveOptions configures an AdaptiveAdapter
type AdaptiveOptions struct {
	Engine      EngineFactory
	Cast        CastDetector // nil disables cast controls
	CastWait    time.Duration
	CastPoll    time.Duration
	Prober      Prober
	Preferences Preferences
	Logger      *slog.Logger
}

// AdaptiveAdapter plays HLS manifests through an Engine
type AdaptiveAdapter struct {
	opts AdaptiveOptions
}

// NewAdaptiveAdapter creates an adaptive adapter, filling unset options
func NewAdaptiveAdapter(opts AdaptiveOptions) *AdaptiveAdapter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CastWait == 0 {
		opts.CastWait = DefaultCastWait
	}
	if opts.CastPoll == 0 {
		opts.CastPoll = DefaultCastPoll
	}
	if opts.Prober == nil {
		opts.Prober = NewHTTPProber(nil, opts.Logger)
	}
	if opts.Preferences == (Preferences{}) {
		opts.Preferences = DefaultPreferences
	}
	return &AdaptiveAdapter{opts: opts}
}

// Mount starts initialisation in the background and returns at once
func (a *AdaptiveAdapter) Mount(ctx context.Context, container Container, src string, report ErrorReporter) Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &AdaptiveHandle{
		opts:      a.opts,
		logger:    a.opts.Logger.With("src_kind", "adaptive"),
		container: container,
		src:       src,
		report:    report,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go h.init(ctx)
	return h
}

// AdaptiveHandle is a mounted adaptive player
type AdaptiveHandle struct {
	opts      AdaptiveOptions
	logger    *slog.Logger
	container Container
	src       string
	report    ErrorReporter
	cancel    context.CancelFunc
	done      chan struct{}

	destroyed    atomic.Bool
	teardownOnce sync.Once

	mu      sync.Mutex
	surface *Surface
	engine  Engine
	overlay *Overlay
	lastErr error
}

// Done is closed once background initialisation has finished or aborted
func (h *AdaptiveHandle) Done() <-chan struct{} {
	return h.done
}

func (h *AdaptiveHandle) Overlay() *Overlay {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.overlay
}

// Err returns the last reported failure, matching domain.ErrPlayback
func (h *AdaptiveHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Surface returns the mounted surface, nil before it is attached
func (h *AdaptiveHandle) Surface() *Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.surface
}

func (h *AdaptiveHandle) fail(err error) {
	if h.destroyed.Load() {
		return
	}
	perr := newPlaybackError(DiagnosticMessage(err), err)
	h.mu.Lock()
	h.lastErr = perr
	h.mu.Unlock()
	h.logger.Error("adaptive playback failed", "error", perr)
	h.report(perr.Message)
}

func (h *AdaptiveHandle) init(ctx context.Context) {
	defer close(h.done)

	castOK := WaitForCast(ctx, h.opts.Cast, h.opts.CastWait, h.opts.CastPoll)
	if ctx.Err() != nil {
		return
	}

	engine, surface, err := h.mount(castOK)
	if err != nil {
		h.fail(err)
		return
	}
	if engine == nil {
		return
	}

	if err := engine.Configure(h.opts.Preferences); err != nil {
		h.logger.Warn("engine configure failed", "error", err)
	}
	if src, ok := engine.(ErrorSource); ok {
		src.OnError(h.fail)
	}

	if err := engine.Load(ctx, h.src); err != nil {
		h.fail(err)
		return
	}
	if h.destroyed.Load() {
		return
	}
	h.logger.Info("manifest loaded", "cast", castOK)

	h.attachSidecar(ctx, engine, surface)
}

// mount creates the surface, engine and overlay under the lock so a
// concurrent teardown sees either nothing or all of them.
// A nil engine with a nil error means the handle was already torn down.
func (h *AdaptiveHandle) mount(castOK bool) (Engine, *Surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed.Load() {
		return nil, nil, nil
	}

	h.surface = NewSurface(h.src)
	h.container.Attach(h.surface)

	engine, err := h.opts.Engine(h.surface)
	if err != nil {
		return nil, nil, err
	}
	h.engine = engine
	h.overlay = &Overlay{Src: h.src, Cast: castOK}
	return engine, h.surface, nil
}

// attachSidecar adds subs.vtt next to a master manifest. Every failure
// here is swallowed.
func (h *AdaptiveHandle) attachSidecar(ctx context.Context, engine Engine, surface *Surface) {
	sidecar := DeriveSidecarURL(h.src)
	if sidecar == "" {
		return
	}
	if !h.opts.Prober.Exists(ctx, sidecar) {
		h.logger.Debug("no sidecar subtitles")
		return
	}
	if h.destroyed.Load() {
		return
	}

	track := SubtitleTrack{
		URL:      sidecar,
		Language: h.opts.Preferences.TextLanguage,
		Kind:     "subtitles",
		MIMEType: "text/vtt",
		Label:    "English",
	}

	var err error
	added := true
	switch e := engine.(type) {
	case TextTrackAdder:
		err = e.AddTextTrack(ctx, track)
	case AsyncTextTrackAdder:
		select {
		case err = <-e.AddTextTrackAsync(track):
		case <-ctx.Done():
			err = ctx.Err()
		}
	default:
		added = false
	}

	if !added {
		surface.AddTrack(TextTrack{
			Kind:     "subtitles",
			Label:    "English",
			Language: "en",
			URL:      sidecar,
			Default:  true,
		})
		if len(surface.TextTracks()) > 0 {
			_ = surface.SetTrackMode(0, TrackShowing)
		}
		return
	}
	if err != nil {
		h.logger.Debug("sidecar attach failed", "error", err)
		return
	}
	if v, ok := engine.(TextTrackVisibilitySetter); ok {
		if err := v.SetTextTrackVisibility(true); err != nil {
			h.logger.Debug("subtitle visibility failed", "error", err)
		}
	}
}

func (h *AdaptiveHandle) Teardown() {
	h.teardownOnce.Do(func() {
		h.destroyed.Store(true)
		h.cancel()

		h.mu.Lock()
		engine, surface := h.engine, h.surface
		h.mu.Unlock()

		var steps []releaseStep
		if engine != nil {
			steps = append(steps, releaseStep{name: "destroy engine", fn: engine.Destroy})
		}
		if surface != nil {
			steps = append(steps, releaseStep{name: "detach surface", fn: func() error {
				if !h.container.Contains(surface) {
					return nil
				}
				return h.container.Detach(surface)
			}})
		}
		releaseAll(h.logger, steps...)
	})
}
