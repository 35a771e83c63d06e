package cast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vishen/go-chromecast/application"

	"github.com/mmcdole/vidcat/internal/playback"
)

// ErrNoDevice is returned when casting with no known device
var ErrNoDevice = errors.New("no cast device found")

const (
	hlsContentType = "application/x-mpegURL"
	mp4ContentType = "video/mp4"
)

// castApp is the part of a go-chromecast application used here
type castApp interface {
	Start(addr string, port int) error
	Close(stopMedia bool) error
}

// Load's parameter list differs between go-chromecast releases
type loaderWithStart interface {
	Load(filenameOrURL string, startTime int, contentType string, transcode, detach, forceDetach bool) error
}

type loader interface {
	Load(filenameOrURL, contentType string, transcode, detach, forceDetach bool) error
}

// Caster plays URLs on cast devices
type Caster struct {
	newApp func() castApp
	logger *slog.Logger
}

// NewCaster creates a caster backed by go-chromecast
func NewCaster(logger *slog.Logger) *Caster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Caster{
		newApp: func() castApp {
			return application.NewApplication(
				application.WithDebug(false),
				application.WithCacheDisabled(true),
			)
		},
		logger: logger.With("component", "cast"),
	}
}

// ContentType picks the MIME type announced to the receiver
func ContentType(url string) string {
	if playback.IsAdaptive(url) {
		return hlsContentType
	}
	return mp4ContentType
}

// Cast loads url on dev and detaches, leaving the receiver playing
func (c *Caster) Cast(ctx context.Context, dev Device, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	app := c.newApp()
	if err := app.Start(dev.Addr.String(), dev.Port); err != nil {
		return fmt.Errorf("connect to %s: %w", dev.Name, err)
	}
	defer func() {
		if err := app.Close(false); err != nil {
			c.logger.Debug("cast connection close failed", "error", err)
		}
	}()

	var err error
	switch l := app.(type) {
	case loaderWithStart:
		err = l.Load(url, 0, ContentType(url), false, true, false)
	case loader:
		err = l.Load(url, ContentType(url), false, true, false)
	default:
		err = fmt.Errorf("cast application cannot load media")
	}
	if err != nil {
		return fmt.Errorf("cast to %s: %w", dev.Name, err)
	}
	c.logger.Info("casting", "device", dev.Name)
	return nil
}

// CastFirst casts to the first device known to d
func (c *Caster) CastFirst(ctx context.Context, d *Discovery, url string) (Device, error) {
	devices := d.Devices()
	if len(devices) == 0 {
		return Device{}, ErrNoDevice
	}
	dev := devices[0]
	return dev, c.Cast(ctx, dev, url)
}
