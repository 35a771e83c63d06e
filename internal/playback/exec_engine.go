package playback

import (
	"context"
	"fmt"
	"sync"
)

// ExecEngine runs an adaptive manifest in an external player with no
// control channel. It has no text-track capabilities.
type ExecEngine struct {
	launch LaunchFunc
	title  string

	mu      sync.Mutex
	proc    PlayerProcess
	onError func(error)
	stop    chan struct{}
	once    sync.Once
	watched chan struct{}
}

// NewExecEngineFactory returns an EngineFactory backed by launch
func NewExecEngineFactory(launch LaunchFunc) EngineFactory {
	return func(s *Surface) (Engine, error) {
		return &ExecEngine{
			launch: launch,
			title:  titleFromURL(s.Src),
			stop:   make(chan struct{}),
		}, nil
	}
}

// Configure is a no-op; external players keep their own language settings
func (e *ExecEngine) Configure(Preferences) error {
	return nil
}

func (e *ExecEngine) OnError(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = fn
}

func (e *ExecEngine) Load(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	proc, err := e.launch(url, e.title)
	if err != nil {
		return &EngineError{Detail: &ErrorDetail{Category: "launch"}, Err: err}
	}

	e.mu.Lock()
	select {
	case <-e.stop:
		// Destroyed while the player was starting
		e.mu.Unlock()
		_ = proc.Kill()
		return context.Canceled
	default:
	}
	e.proc = proc
	e.watched = make(chan struct{})
	e.mu.Unlock()

	go e.watch(proc)
	return nil
}

func (e *ExecEngine) watch(proc PlayerProcess) {
	defer close(e.watched)
	select {
	case <-e.stop:
		return
	case <-proc.Done():
	}
	err := proc.Err()
	if err == nil || proc.IsDetached() {
		return
	}
	select {
	case <-e.stop:
		return
	default:
	}

	e.mu.Lock()
	fn := e.onError
	e.mu.Unlock()
	if fn != nil {
		fn(&EngineError{Detail: &ErrorDetail{Message: fmt.Sprintf("player exited: %v", err)}, Err: err})
	}
}

func (e *ExecEngine) Destroy() error {
	var err error
	e.once.Do(func() {
		close(e.stop)
		e.mu.Lock()
		proc, watched := e.proc, e.watched
		e.mu.Unlock()
		if proc != nil {
			err = proc.Kill()
			<-watched
		}
	})
	return err
}
