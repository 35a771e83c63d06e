package mpv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/vidcat/internal/playback"
)

const (
	dialTimeout  = 5 * time.Second
	dialInterval = 50 * time.Millisecond
	quitTimeout  = 500 * time.Millisecond
)

// process is a started mpv instance
type process interface {
	Kill() error
	Done() <-chan struct{}
}

type startFunc func(args []string) (process, error)
type dialFunc func(ctx context.Context, socket string) (net.Conn, error)

// Engine is a playback.Engine backed by an mpv process
type Engine struct {
	title  string
	socket string
	start  startFunc
	dial   dialFunc
	logger *slog.Logger

	mu      sync.Mutex
	prefs   playback.Preferences
	proc    process
	client  *Client
	onError func(error)
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewEngineFactory returns a factory that runs command (default "mpv")
func NewEngineFactory(command string, logger *slog.Logger) playback.EngineFactory {
	if command == "" {
		command = "mpv"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(s *playback.Surface) (playback.Engine, error) {
		if _, err := exec.LookPath(command); err != nil {
			return nil, fmt.Errorf("adaptive player %q not found: %w", command, err)
		}
		return newEngine(s.Src, execStart(command), dialUnix, logger), nil
	}
}

func newEngine(title string, start startFunc, dial dialFunc, logger *slog.Logger) *Engine {
	return &Engine{
		title:  title,
		socket: filepath.Join(os.TempDir(), "vidcat-mpv-"+uuid.NewString()+".sock"),
		start:  start,
		dial:   dial,
		logger: logger.With("component", "mpv"),
		prefs:  playback.DefaultPreferences,
		stop:   make(chan struct{}),
	}
}

func (e *Engine) Configure(prefs playback.Preferences) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs = prefs
	return nil
}

func (e *Engine) OnError(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = fn
}

func (e *Engine) args() []string {
	return []string{
		"--idle=yes",
		"--force-window=yes",
		"--input-ipc-server=" + e.socket,
		"--alang=" + e.prefs.AudioLanguage,
		"--slang=" + e.prefs.TextLanguage,
		"--title=" + e.title,
	}
}

// Load starts mpv, connects to its socket and waits for the file to load
func (e *Engine) Load(ctx context.Context, url string) error {
	e.mu.Lock()
	if e.stopped() {
		e.mu.Unlock()
		return context.Canceled
	}
	proc, err := e.start(e.args())
	if err != nil {
		e.mu.Unlock()
		return &playback.EngineError{Detail: &playback.ErrorDetail{Category: "launch"}, Err: err}
	}
	e.proc = proc
	e.mu.Unlock()

	conn, err := e.connect(ctx, proc)
	if err != nil {
		return err
	}

	client := NewClient(conn, e.logger)
	e.mu.Lock()
	if e.stopped() {
		e.mu.Unlock()
		_ = client.Close()
		return context.Canceled
	}
	e.client = client
	e.mu.Unlock()

	if _, err := client.Command(ctx, "loadfile", url, "replace"); err != nil {
		return err
	}
	if err := e.awaitLoaded(ctx, client, proc); err != nil {
		return err
	}

	// stop is closed under mu, so Destroy cannot reach wg.Wait before this Add
	e.mu.Lock()
	if e.stopped() {
		e.mu.Unlock()
		return context.Canceled
	}
	e.wg.Add(1)
	e.mu.Unlock()
	go e.watch(client)
	return nil
}

func (e *Engine) stopped() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// connect retries until mpv has created its socket
func (e *Engine) connect(ctx context.Context, proc process) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	ticker := time.NewTicker(dialInterval)
	defer ticker.Stop()

	for {
		conn, err := e.dial(ctx, e.socket)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to mpv: %w", err)
		case <-e.stop:
			return nil, context.Canceled
		case <-proc.Done():
			return nil, &playback.EngineError{Detail: &playback.ErrorDetail{Message: "mpv exited before accepting commands"}}
		case <-ticker.C:
		}
	}
}

func (e *Engine) awaitLoaded(ctx context.Context, client *Client, proc process) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stop:
			return context.Canceled
		case <-proc.Done():
			return &playback.EngineError{Detail: &playback.ErrorDetail{Message: "mpv exited during load"}}
		case ev, ok := <-client.Events():
			if !ok {
				return ErrClosed
			}
			switch {
			case ev.Name == "file-loaded":
				return nil
			case ev.Name == "end-file" && ev.Reason == "error":
				return endFileError(ev)
			}
		}
	}
}

func endFileError(ev Event) error {
	return &playback.EngineError{Detail: &playback.ErrorDetail{Message: ev.FileError, Category: "end-file"}}
}

// watch forwards playback errors raised after the load
func (e *Engine) watch(client *Client) {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case ev, ok := <-client.Events():
			if !ok {
				return
			}
			if ev.Name != "end-file" || ev.Reason != "error" {
				continue
			}
			e.mu.Lock()
			fn := e.onError
			e.mu.Unlock()
			if fn != nil {
				fn(endFileError(ev))
			}
		}
	}
}

// AddTextTrack adds and selects an external subtitle file
func (e *Engine) AddTextTrack(ctx context.Context, track playback.SubtitleTrack) error {
	client, err := e.activeClient()
	if err != nil {
		return err
	}
	_, err = client.Command(ctx, "sub-add", track.URL, "select", track.Label, track.Language)
	return err
}

func (e *Engine) SetTextTrackVisibility(visible bool) error {
	client, err := e.activeClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
	defer cancel()
	_, err = client.Command(ctx, "set_property", "sub-visibility", visible)
	return err
}

func (e *Engine) activeClient() (*Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil || e.stopped() {
		return nil, ErrClosed
	}
	return e.client, nil
}

// Destroy quits mpv and releases the socket. Safe to call repeatedly.
func (e *Engine) Destroy() error {
	var errs []error
	e.once.Do(func() {
		e.mu.Lock()
		close(e.stop)
		client, proc := e.client, e.proc
		e.mu.Unlock()

		if client != nil {
			ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
			if _, err := client.Command(ctx, "quit"); err != nil {
				e.logger.Debug("mpv quit failed", "error", err)
			}
			cancel()
			if err := client.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if proc != nil {
			if err := proc.Kill(); err != nil {
				errs = append(errs, err)
			}
			<-proc.Done()
		}
		e.wg.Wait()
		if err := os.Remove(e.socket); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func execStart(command string) startFunc {
	return func(args []string) (process, error) {
		cmd := exec.Command(command, args...)
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		p := &execProcess{cmd: cmd, done: make(chan struct{})}
		go func() {
			_ = cmd.Wait()
			close(p.done)
		}()
		return p, nil
	}
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}

func (p *execProcess) Kill() error {
	var err error
	p.once.Do(func() {
		select {
		case <-p.done:
		default:
			err = p.cmd.Process.Kill()
		}
	})
	return err
}

func dialUnix(ctx context.Context, socket string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", socket)
}
