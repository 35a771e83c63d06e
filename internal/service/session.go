package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mmcdole/vidcat/internal/domain"
	"github.com/mmcdole/vidcat/internal/playback"
)

// resolver turns a file key into a playable URL (consumer-defined interface)
type resolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// adapterSelector picks the playback adapter for a resolved URL
type adapterSelector interface {
	Select(src string) (playback.Adapter, bool)
}

// SessionController owns the single live MediaSession. The most recent
// SelectFile or Close wins: results of older calls are discarded.
type SessionController struct {
	resolver  resolver
	selector  adapterSelector
	container playback.Container
	logger    *slog.Logger

	mu       sync.Mutex
	gen      uint64 // Bumped by every SelectFile and Close
	rev      uint64 // Bumped by every state change
	session  domain.MediaSession
	handle   playback.Handle
	observer domain.SessionObserver

	notifyMu  sync.Mutex
	delivered uint64
}

// NewSessionController creates an idle controller
func NewSessionController(
	resolver resolver,
	selector adapterSelector,
	container playback.Container,
	logger *slog.Logger,
) *SessionController {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionController{
		resolver:  resolver,
		selector:  selector,
		container: container,
		logger:    logger,
		observer:  domain.NoOpSessionObserver{},
	}
}

// SetObserver sets the receiver of session changes
func (c *SessionController) SetObserver(obs domain.SessionObserver) {
	if obs == nil {
		obs = domain.NoOpSessionObserver{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = obs
}

// Current returns a snapshot of the session
func (c *SessionController) Current() domain.MediaSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SelectFile tears down any live adapter, resolves key and mounts the
// matching adapter. Returns domain.ErrSuperseded if a newer SelectFile or
// Close started while this one was resolving.
func (c *SessionController) SelectFile(ctx context.Context, key string) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	old := c.handle
	c.handle = nil
	rev, snap := c.setLocked(domain.MediaSession{Status: domain.SessionResolving, SelectedKey: key})
	c.mu.Unlock()

	c.teardown(old)
	c.notify(rev, snap)

	url, err := c.resolver.Resolve(ctx, key)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded resolve", "key", key)
		return domain.ErrSuperseded
	}
	if err != nil {
		rev, snap = c.setLocked(domain.MediaSession{
			Status:       domain.SessionErrored,
			SelectedKey:  key,
			ErrorMessage: UserMessage(err),
		})
		c.mu.Unlock()
		c.notify(rev, snap)
		return err
	}

	adapter, adaptive := c.selector.Select(url)
	strategy := domain.StrategyDirect
	if adaptive {
		strategy = domain.StrategyAdaptive
	}
	c.setLocked(domain.MediaSession{
		Status:      domain.SessionPlaying,
		SelectedKey: key,
		ResolvedURL: url,
		Strategy:    strategy,
	})
	c.mu.Unlock()

	c.logger.Info("mounting playback", "key", key, "strategy", strategy.String())
	handle := adapter.Mount(context.WithoutCancel(ctx), c.container, url, c.reporter(gen))

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		handle.Teardown()
		return domain.ErrSuperseded
	}
	c.handle = handle
	rev, snap = c.rev, c.session
	c.mu.Unlock()

	c.notify(rev, snap)
	return nil
}

// Close tears down the live adapter and returns to idle. No-op when idle.
func (c *SessionController) Close() {
	c.mu.Lock()
	if c.session.Status == domain.SessionIdle && c.handle == nil {
		c.mu.Unlock()
		return
	}
	c.gen++
	old := c.handle
	c.handle = nil
	rev, snap := c.setLocked(domain.MediaSession{})
	c.mu.Unlock()

	c.teardown(old)
	c.notify(rev, snap)
}

// SyncOverlay copies the adapter's cast availability into the session,
// since adaptive adapters wire their overlay after Mount returns.
func (c *SessionController) SyncOverlay() {
	c.mu.Lock()
	if c.handle == nil {
		c.mu.Unlock()
		return
	}
	ov := c.handle.Overlay()
	castOK := ov != nil && ov.Cast
	if castOK == c.session.CastEnabled {
		c.mu.Unlock()
		return
	}
	next := c.session
	next.CastEnabled = castOK
	rev, snap := c.setLocked(next)
	c.mu.Unlock()
	c.notify(rev, snap)
}

// reporter routes adapter failures into the session of generation gen
func (c *SessionController) reporter(gen uint64) playback.ErrorReporter {
	return func(msg string) {
		c.mu.Lock()
		if gen != c.gen || c.session.Status == domain.SessionIdle {
			c.mu.Unlock()
			return
		}
		next := c.session
		next.Status = domain.SessionErrored
		next.ErrorMessage = msg
		rev, snap := c.setLocked(next)
		c.mu.Unlock()

		c.logger.Warn("playback error", "key", snap.SelectedKey, "message", msg)
		c.notify(rev, snap)
	}
}

func (c *SessionController) setLocked(s domain.MediaSession) (uint64, domain.MediaSession) {
	c.rev++
	c.session = s
	return c.rev, s
}

func (c *SessionController) teardown(h playback.Handle) {
	if h != nil {
		h.Teardown()
	}
}

// notify delivers snapshots in revision order, dropping stale ones
func (c *SessionController) notify(rev uint64, snap domain.MediaSession) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if rev <= c.delivered {
		return
	}
	c.delivered = rev

	c.mu.Lock()
	obs := c.observer
	c.mu.Unlock()
	obs.OnSessionChange(snap)
}

// UserMessage renders err for display
func UserMessage(err error) string {
	var ce *domain.CatalogError
	if errors.As(err, &ce) && ce.Sentinel != nil {
		return ce.Sentinel.Error()
	}
	return err.Error()
}
