package playback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/vidcat/internal/domain"
)

// GenericPlaybackMessage is reported when an error carries no text at all
const GenericPlaybackMessage = "Playback error"

// UnsupportedMediaMessage is reported when the direct player rejects a file
const UnsupportedMediaMessage = "This file may not be supported by your player (MKV/codec)."

// ErrorDetail is the structured payload of an engine error
type ErrorDetail struct {
	Message  string
	Category string // e.g. "network", "manifest"
	Code     int
}

// String renders the detail without its message
func (d *ErrorDetail) String() string {
	if d == nil {
		return ""
	}
	var parts []string
	if d.Category != "" {
		parts = append(parts, d.Category)
	}
	if d.Code != 0 {
		parts = append(parts, fmt.Sprintf("code %d", d.Code))
	}
	return strings.Join(parts, " ")
}

// EngineError is an error raised by a streaming engine
type EngineError struct {
	Detail *ErrorDetail
	Err    error
}

func (e *EngineError) Error() string {
	if e.Detail != nil && e.Detail.Message != "" {
		return e.Detail.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Detail.String()
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// DiagnosticMessage picks the most specific text available in err:
// detail message, then detail, then the error string, then a generic message.
func DiagnosticMessage(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) && ee.Detail != nil {
		if ee.Detail.Message != "" {
			return ee.Detail.Message
		}
		if s := ee.Detail.String(); s != "" {
			return s
		}
	}
	if err != nil {
		if s := strings.TrimSpace(err.Error()); s != "" {
			return s
		}
	}
	return GenericPlaybackMessage
}

// newPlaybackError pairs the reported message with its cause
func newPlaybackError(msg string, err error) *domain.PlaybackError {
	return &domain.PlaybackError{Message: msg, Err: err}
}
