package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type fakeProcess struct {
	done     chan struct{}
	err      error
	detached bool
	kills    atomic.Int32
	once     sync.Once
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) exit(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) IsDetached() bool      { return p.detached }

func (p *fakeProcess) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *fakeProcess) Kill() error {
	p.kills.Add(1)
	p.exit(errors.New("signal: killed"))
	return nil
}

type reports struct {
	mu   sync.Mutex
	msgs []string
}

func (r *reports) report(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *reports) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

type fakeEngine struct {
	mu             sync.Mutex
	prefs          Preferences
	loaded         string
	loadErr        error
	destroys       int
	destroyErr     error
	panicOnDestroy bool
}

func (e *fakeEngine) Configure(p Preferences) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs = p
	return nil
}

func (e *fakeEngine) Load(_ context.Context, url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadErr != nil {
		return e.loadErr
	}
	e.loaded = url
	return nil
}

func (e *fakeEngine) Destroy() error {
	e.mu.Lock()
	e.destroys++
	p := e.panicOnDestroy
	e.mu.Unlock()
	if p {
		panic("engine already gone")
	}
	return e.destroyErr
}

func (e *fakeEngine) destroyCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroys
}

type syncAdderEngine struct {
	*fakeEngine
	tracks  []SubtitleTrack
	visible bool
}

func (e *syncAdderEngine) AddTextTrack(_ context.Context, t SubtitleTrack) error {
	e.tracks = append(e.tracks, t)
	return nil
}

func (e *syncAdderEngine) SetTextTrackVisibility(v bool) error {
	e.visible = v
	return nil
}

type asyncAdderEngine struct {
	*fakeEngine
	tracks []SubtitleTrack
}

func (e *asyncAdderEngine) AddTextTrackAsync(t SubtitleTrack) <-chan error {
	ch := make(chan error, 1)
	e.tracks = append(e.tracks, t)
	ch <- nil
	return ch
}

type staticProber bool

func (p staticProber) Exists(context.Context, string) bool { return bool(p) }
