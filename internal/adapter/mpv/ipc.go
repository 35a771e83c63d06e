// Package mpv drives an mpv process over its JSON IPC socket.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/vidcat/internal/playback"
)

// ErrClosed is returned for commands issued after the connection closed
var ErrClosed = errors.New("mpv ipc closed")

// Event is an asynchronous mpv notification
type Event struct {
	Name      string
	Reason    string // end-file: eof, stop, quit, error
	FileError string
}

// message is any line mpv writes: a command reply or an event
type message struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int64           `json:"request_id"`
	Event     string          `json:"event"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// Client multiplexes commands and events over one IPC connection
type Client struct {
	conn   net.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan message

	events chan Event
	closed chan struct{}
	once   sync.Once
}

// NewClient wraps conn and starts reading from it
func NewClient(conn net.Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		conn:    conn,
		logger:  logger,
		pending: make(map[int64]chan message),
		events:  make(chan Event, 16),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Events delivers notifications; closed when the connection ends
func (c *Client) Events() <-chan Event {
	return c.events
}

// Closed is closed once the connection has ended
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

// Command sends one command and waits for its reply
func (c *Client) Command(ctx context.Context, args ...any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	reply := make(chan message, 1)

	c.mu.Lock()
	select {
	case <-c.closed:
		c.mu.Unlock()
		return nil, ErrClosed
	default:
	}
	c.pending[id] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	line, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("encode mpv command: %w", err)
	}
	c.writeMu.Lock()
	_, err = c.conn.Write(append(line, '\n'))
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write mpv command: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrClosed
	case m := <-reply:
		if m.Error != "success" {
			return nil, &playback.EngineError{Detail: &playback.ErrorDetail{
				Message:  fmt.Sprintf("mpv %v: %s", args[0], m.Error),
				Category: "ipc",
			}}
		}
		return m.Data, nil
	}
}

func (c *Client) readLoop() {
	defer c.shutdown()
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for scanner.Scan() {
		var m message
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			c.logger.Debug("skipping mpv line", "error", err)
			continue
		}
		if m.Event != "" {
			select {
			case c.events <- Event{Name: m.Event, Reason: m.Reason, FileError: m.FileError}:
			default:
				c.logger.Debug("dropping mpv event", "event", m.Event)
			}
			continue
		}
		c.mu.Lock()
		reply, ok := c.pending[m.RequestID]
		c.mu.Unlock()
		if ok {
			reply <- m
		}
	}
}

func (c *Client) shutdown() {
	c.once.Do(func() {
		c.mu.Lock()
		close(c.closed)
		c.mu.Unlock()
		close(c.events)
	})
}

// Close closes the connection and waits for the reader to stop
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.closed
	return err
}
