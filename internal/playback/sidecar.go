package playback

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// ManifestFilename is the master playlist name that has a sidecar
	ManifestFilename = "master.m3u8"

	// SidecarFilename is the subtitle file expected next to the manifest
	SidecarFilename = "subs.vtt"

	defaultProbeTimeout = 5 * time.Second
)

// DeriveSidecarURL returns the subs.vtt URL next to a master.m3u8
// manifest, or "" if manifest is not a master.m3u8 URL.
// Query and fragment are preserved.
func DeriveSidecarURL(manifest string) string {
	u, err := url.Parse(manifest)
	if err != nil || u.Scheme == "" {
		return ""
	}
	if !strings.HasSuffix(u.Path, "/"+ManifestFilename) {
		return ""
	}
	u.Path = strings.TrimSuffix(u.Path, ManifestFilename) + SidecarFilename
	u.RawPath = ""
	return u.String()
}

// Prober checks whether a sidecar URL exists
type Prober interface {
	Exists(ctx context.Context, rawURL string) bool
}

// HTTPProber probes with HEAD, falling back to GET when HEAD fails or is
// refused. Any failure reads as "absent".
type HTTPProber struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPProber creates a prober; a nil client gets a short default timeout
func NewHTTPProber(client *http.Client, logger *slog.Logger) *HTTPProber {
	if client == nil {
		client = &http.Client{Timeout: defaultProbeTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPProber{client: client, logger: logger}
}

func (p *HTTPProber) Exists(ctx context.Context, rawURL string) bool {
	if p.try(ctx, http.MethodHead, rawURL) {
		return true
	}
	return p.try(ctx, http.MethodGet, rawURL)
}

func (p *HTTPProber) try(ctx context.Context, method, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("sidecar probe failed", "method", method, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	p.logger.Debug("sidecar probe", "method", method, "status", resp.StatusCode, "exists", ok)
	return ok
}
