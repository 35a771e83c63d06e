package cast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mmcdole/vidcat/internal/playback"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func entry(instance string, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, castService, castDomain)
	e.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	e.Port = 8009
	e.Text = txt
	return e
}

func TestDiscoveryBrowse(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	browse := func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error {
		entries <- entry("Chromecast-abc", "id=abc", "fn=Living Room", "md=Chromecast Ultra")
		entries <- entry("Chromecast-def", "id=def", "fn=Bedroom")
		entries <- &zeroconf.ServiceEntry{} // no address
		return nil
	}
	d := newDiscovery(browse, 20*time.Millisecond, nopLogger())
	assert.False(t, d.Available())

	require.NoError(t, d.Browse(context.Background()))
	assert.True(t, d.Available())

	devices := d.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, "Bedroom", devices[0].Name)
	assert.Equal(t, "Living Room", devices[1].Name)
	assert.Equal(t, "Chromecast Ultra", devices[1].Model)
	assert.Equal(t, 8009, devices[1].Port)
}

func TestDiscoveryBrowseError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	d := newDiscovery(func(context.Context, chan<- *zeroconf.ServiceEntry) error {
		return errors.New("no multicast interface")
	}, time.Second, nopLogger())
	assert.Error(t, d.Browse(context.Background()))
	assert.False(t, d.Available())
}

func TestDiscoveryStartIsCastDetector(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	d := newDiscovery(func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error {
		entries <- entry("tv", "id=tv", "fn=TV")
		return nil
	}, 10*time.Millisecond, nopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	var detector playback.CastDetector = d
	assert.True(t, playback.WaitForCast(ctx, detector, time.Second, time.Millisecond))

	cancel()
	d.Wait()
}

func TestDeviceFromEntryFallsBackToInstance(t *testing.T) {
	dev, ok := deviceFromEntry(entry("Kitchen speaker"))
	require.True(t, ok)
	assert.Equal(t, "Kitchen speaker", dev.UUID)
	assert.Equal(t, "Kitchen speaker", dev.Name)

	_, ok = deviceFromEntry(nil)
	assert.False(t, ok)
}

type fakeApp struct {
	startAddr   string
	startPort   int
	startErr    error
	loaded      string
	contentType string
	detach      bool
	closed      bool
}

func (a *fakeApp) Start(addr string, port int) error {
	a.startAddr, a.startPort = addr, port
	return a.startErr
}

func (a *fakeApp) Close(bool) error {
	a.closed = true
	return nil
}

func (a *fakeApp) Load(url string, _ int, contentType string, _, detach, _ bool) error {
	a.loaded, a.contentType, a.detach = url, contentType, detach
	return nil
}

func TestCasterCast(t *testing.T) {
	app := &fakeApp{}
	c := &Caster{newApp: func() castApp { return app }, logger: nopLogger()}
	dev := Device{Name: "TV", Addr: net.ParseIP("10.0.0.5"), Port: 8009}

	require.NoError(t, c.Cast(context.Background(), dev, "https://cdn/x/master.m3u8?sig=1"))
	assert.Equal(t, "10.0.0.5", app.startAddr)
	assert.Equal(t, 8009, app.startPort)
	assert.Equal(t, "https://cdn/x/master.m3u8?sig=1", app.loaded)
	assert.Equal(t, hlsContentType, app.contentType)
	assert.True(t, app.detach)
	assert.True(t, app.closed)
}

func TestCasterConnectFailure(t *testing.T) {
	app := &fakeApp{startErr: errors.New("connection refused")}
	c := &Caster{newApp: func() castApp { return app }, logger: nopLogger()}

	err := c.Cast(context.Background(), Device{Name: "TV", Addr: net.ParseIP("10.0.0.5")}, "https://cdn/a.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to TV")
	assert.Empty(t, app.loaded)
}

func TestCastFirstWithoutDevices(t *testing.T) {
	c := &Caster{newApp: func() castApp { return &fakeApp{} }, logger: nopLogger()}
	d := newDiscovery(nil, time.Second, nopLogger())
	_, err := c.CastFirst(context.Background(), d, "https://cdn/a.mp4")
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, hlsContentType, ContentType("https://cdn/x/master.m3u8"))
	assert.Equal(t, mp4ContentType, ContentType("https://cdn/x/movie.mp4"))
}
