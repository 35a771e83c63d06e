// Package cast finds Chromecast devices on the local network and hands
// stream URLs to them.
package cast

import (
	"context"
	"log/slog"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	castService = "_googlecast._tcp"
	castDomain  = "local."

	// DefaultBrowseTimeout bounds one mDNS browse round
	DefaultBrowseTimeout = 5 * time.Second
)

// Device is a discovered cast receiver
type Device struct {
	UUID  string
	Name  string // Friendly name, e.g. "Living Room TV"
	Model string
	Addr  net.IP
	Port  int
}

// browseFunc streams service entries until ctx ends
type browseFunc func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error

// Discovery keeps the set of cast devices seen on the network.
// It satisfies playback.CastDetector.
type Discovery struct {
	browse  browseFunc
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.RWMutex
	devices map[string]Device

	wg sync.WaitGroup
}

// NewDiscovery creates a discovery using mDNS
func NewDiscovery(timeout time.Duration, logger *slog.Logger) *Discovery {
	return newDiscovery(browseMDNS, timeout, logger)
}

func newDiscovery(browse browseFunc, timeout time.Duration, logger *slog.Logger) *Discovery {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		browse:  browse,
		timeout: timeout,
		logger:  logger.With("component", "cast"),
		devices: make(map[string]Device),
	}
}

func browseMDNS(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return err
	}
	return resolver.Browse(ctx, castService, castDomain, entries)
}

// Start browses in the background, repeating every browse timeout until
// ctx ends. Call Wait after cancelling ctx.
func (d *Discovery) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			if err := d.Browse(ctx); err != nil {
				d.logger.Warn("cast discovery failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.timeout):
			}
		}
	}()
}

// Wait blocks until a Start loop has exited
func (d *Discovery) Wait() {
	d.wg.Wait()
}

// Browse runs one discovery round
func (d *Discovery) Browse(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-entries:
				if !ok {
					return
				}
				if dev, ok := deviceFromEntry(e); ok {
					d.add(dev)
				}
			}
		}
	}()

	err := d.browse(ctx, entries)
	if err == nil {
		<-ctx.Done()
	}
	<-collected
	return err
}

func (d *Discovery) add(dev Device) {
	d.mu.Lock()
	_, known := d.devices[dev.UUID]
	d.devices[dev.UUID] = dev
	d.mu.Unlock()
	if !known {
		d.logger.Info("cast device found", "name", dev.Name, "model", dev.Model, "addr", dev.Addr.String())
	}
}

// Available reports whether any device has been seen
func (d *Discovery) Available() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.devices) > 0
}

// Devices returns known devices sorted by name
func (d *Discovery) Devices() []Device {
	d.mu.RLock()
	out := make([]Device, 0, len(d.devices))
	for _, dev := range d.devices {
		out = append(out, dev)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// deviceFromEntry reads the Chromecast TXT record (id, fn, md)
func deviceFromEntry(e *zeroconf.ServiceEntry) (Device, bool) {
	if e == nil || len(e.AddrIPv4) == 0 {
		return Device{}, false
	}
	dev := Device{Addr: e.AddrIPv4[0], Port: e.Port}
	for _, txt := range e.Text {
		k, v, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch k {
		case "id":
			dev.UUID = v
		case "fn":
			dev.Name = v
		case "md":
			dev.Model = v
		}
	}
	if dev.UUID == "" {
		dev.UUID = e.Instance
	}
	if dev.Name == "" {
		dev.Name = e.Instance
	}
	return dev, dev.UUID != ""
}
