package playback

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAdaptive(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"https://cdn.example.com/show/master.m3u8", true},
		{"https://cdn.example.com/show/master.m3u8?X-Sig=abc", true},
		{"https://cdn.example.com/show/MASTER.M3U8", false},
		{"https://cdn.example.com/movie.mp4", false},
		{"https://cdn.example.com/movie.mp4?next=a.m3u8", false},
		{"https://cdn.example.com?file=a.m3u8", false},
		{"https://cdn.example.com#a.m3u8", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAdaptive(tt.src))
		})
	}
}

func TestSelector(t *testing.T) {
	direct := NewDirectAdapter(nil, nil)
	adaptive := NewAdaptiveAdapter(AdaptiveOptions{})
	s := Selector{Direct: direct, Adaptive: adaptive}

	a, isAdaptive := s.Select("https://cdn/x/master.m3u8")
	assert.True(t, isAdaptive)
	assert.Same(t, adaptive, a)

	a, isAdaptive = s.Select("https://cdn/x/movie.mkv")
	assert.False(t, isAdaptive)
	assert.Same(t, direct, a)
}

func TestDeriveSidecarURL(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     string
	}{
		{"master", "https://cdn/x/master.m3u8", "https://cdn/x/subs.vtt"},
		{"query kept", "https://cdn/x/master.m3u8?sig=1&exp=2", "https://cdn/x/subs.vtt?sig=1&exp=2"},
		{"root", "https://cdn/master.m3u8", "https://cdn/subs.vtt"},
		{"other manifest", "https://cdn/x/video.m3u8", ""},
		{"suffix only", "https://cdn/x/notmaster.m3u8", ""},
		{"progressive", "https://cdn/x/movie.mp4", ""},
		{"relative", "master.m3u8", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveSidecarURL(tt.manifest))
		})
	}
}

func TestDiagnosticMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"detail message", &EngineError{Detail: &ErrorDetail{Message: "manifest 403", Code: 1001}}, "manifest 403"},
		{"detail only", &EngineError{Detail: &ErrorDetail{Category: "network", Code: 1002}}, "network code 1002"},
		{"wrapped detail", errorsJoin(&EngineError{Detail: &ErrorDetail{Message: "bad segment"}}), "bad segment"},
		{"plain error", errors.New("socket closed"), "socket closed"},
		{"empty detail falls through", &EngineError{Detail: &ErrorDetail{}, Err: errors.New("eof")}, "eof"},
		{"blank", errors.New("  "), GenericPlaybackMessage},
		{"nil", nil, GenericPlaybackMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiagnosticMessage(tt.err))
		})
	}
}

func errorsJoin(err error) error {
	return errors.Join(errors.New("load"), err)
}

func TestWaitForCast(t *testing.T) {
	ctx := context.Background()

	t.Run("nil detector", func(t *testing.T) {
		assert.False(t, WaitForCast(ctx, nil, time.Second, time.Millisecond))
	})

	t.Run("ready immediately", func(t *testing.T) {
		assert.True(t, WaitForCast(ctx, CastDetectorFunc(func() bool { return true }), time.Second, time.Millisecond))
	})

	t.Run("ready after polls", func(t *testing.T) {
		var calls atomic.Int32
		d := CastDetectorFunc(func() bool { return calls.Add(1) >= 3 })
		assert.True(t, WaitForCast(ctx, d, time.Second, time.Millisecond))
	})

	t.Run("timeout", func(t *testing.T) {
		start := time.Now()
		assert.False(t, WaitForCast(ctx, CastDetectorFunc(func() bool { return false }), 30*time.Millisecond, 5*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.False(t, WaitForCast(cctx, CastDetectorFunc(func() bool { return false }), time.Hour, time.Millisecond))
	})
}

func TestHTTPProber(t *testing.T) {
	t.Run("head ok", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		assert.True(t, NewHTTPProber(srv.Client(), nil).Exists(context.Background(), srv.URL+"/subs.vtt"))
	})

	t.Run("head refused falls back to get", func(t *testing.T) {
		var methods []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			methods = append(methods, r.Method)
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			_, _ = w.Write([]byte("WEBVTT\n"))
		}))
		defer srv.Close()
		assert.True(t, NewHTTPProber(srv.Client(), nil).Exists(context.Background(), srv.URL+"/subs.vtt"))
		assert.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
	})

	t.Run("missing", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		assert.False(t, NewHTTPProber(srv.Client(), nil).Exists(context.Background(), srv.URL+"/subs.vtt"))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		assert.False(t, NewHTTPProber(nil, nil).Exists(context.Background(), url+"/subs.vtt"))
	})
}

func TestSlot(t *testing.T) {
	slot := NewSlot()
	a, b := NewSurface("a"), NewSurface("b")

	slot.Attach(a)
	assert.True(t, slot.Contains(a))
	assert.Error(t, slot.Detach(b))

	slot.Attach(b)
	assert.False(t, slot.Contains(a))
	require.NoError(t, slot.Detach(b))
	assert.Nil(t, slot.Current())
	assert.False(t, slot.Contains(nil))
}

func TestSurfaceTracks(t *testing.T) {
	s := NewSurface("src")
	assert.Error(t, s.SetTrackMode(0, TrackShowing))

	s.AddTrack(TextTrack{Kind: "subtitles", Language: "en"})
	require.NoError(t, s.SetTrackMode(0, TrackShowing))
	assert.Equal(t, TrackShowing, s.TextTracks()[0].Mode)
	assert.NotEmpty(t, s.ID)
}

func TestReleaseAllContinuesPastFailures(t *testing.T) {
	var ran []string
	releaseAll(nopLogger(),
		releaseStep{name: "a", fn: func() error { ran = append(ran, "a"); return errors.New("boom") }},
		releaseStep{name: "b", fn: func() error { ran = append(ran, "b"); panic("gone") }},
		releaseStep{name: "c", fn: func() error { ran = append(ran, "c"); return nil }},
	)
	assert.Equal(t, []string{"a", "b", "c"}, ran)
}
