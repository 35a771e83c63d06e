package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/vidcat/internal/adapter"
	"github.com/mmcdole/vidcat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	s := httptest.NewServer(handler)
	t.Cleanup(s.Close)
	return NewClient(s.URL, Options{HTTPClient: &http.Client{Timeout: 500 * time.Millisecond}}, adapter.NullLogger())
}

func TestClientListCatalog(t *testing.T) {
	var gotPath, gotPrefix, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPrefix = r.URL.Query().Get("prefix")
		gotRequestID = r.Header.Get("X-Request-Id")
		_, _ = w.Write([]byte(`{"body":"{\"prefix\":\"Shows/\",\"folders\":[{\"type\":\"folder\",\"name\":\"Lost\",\"prefix\":\"Shows/Lost/\"}],\"files\":[{\"type\":\"file\",\"key\":\"Shows/pilot.mkv\",\"name\":\"pilot.mkv\",\"size\":2048}]}"}`))
	})

	listing, err := c.ListCatalog(context.Background(), "Shows/")
	require.NoError(t, err)

	assert.Equal(t, "/catalog", gotPath)
	assert.Equal(t, "Shows/", gotPrefix)
	assert.NotEmpty(t, gotRequestID)

	assert.Equal(t, "Shows/", listing.Prefix)
	assert.Equal(t, []domain.Folder{{Name: "Lost", Prefix: "Shows/Lost/"}}, listing.Folders)
	assert.Equal(t, []domain.File{{Key: "Shows/pilot.mkv", Name: "pilot.mkv", SizeBytes: 2048}}, listing.Files)
}

func TestClientListCatalogRootSendsEmptyPrefix(t *testing.T) {
	var hasPrefix bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasPrefix = r.URL.Query()["prefix"]
		_, _ = w.Write([]byte(`{"prefix":"","folders":[],"files":[]}`))
	})

	listing, err := c.ListCatalog(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, hasPrefix)
	assert.True(t, listing.IsEmpty())
}

func TestClientListCatalogMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})

	_, err := c.ListCatalog(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	var cerr *domain.CatalogError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, OpList, cerr.Operation)
}

func TestClientListCatalog5xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "fail", http.StatusBadGateway)
	})

	_, err := c.ListCatalog(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)

	var cerr *domain.CatalogError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusBadGateway, cerr.Status)
}

func TestClientListCatalogTransportFailure(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	base := s.URL
	s.Close()

	c := NewClient(base, Options{Timeout: 200 * time.Millisecond}, adapter.NullLogger())
	_, err := c.ListCatalog(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestClientResolvePlayURL(t *testing.T) {
	bodies := []string{
		`{"playUrl":"https://x/a.mp4"}`,
		`{"url":"https://x/a.mp4"}`,
		`{"signedUrl":"https://x/a.mp4"}`,
		`"https://x/a.mp4"`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			var gotKey string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/play", r.URL.Path)
				gotKey = r.URL.Query().Get("key")
				_, _ = w.Write([]byte(body))
			})

			got, err := c.ResolvePlayURL(context.Background(), "Movies/a b.mp4")
			require.NoError(t, err)
			assert.Equal(t, "https://x/a.mp4", got)
			assert.Equal(t, "Movies/a b.mp4", gotKey)
		})
	}
}

func TestClientResolvePlayURLMissing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"expires":3600}`))
	})

	_, err := c.ResolvePlayURL(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrMissingURL)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.example/prod/", NormalizeBaseURL("https://api.example/prod"))
	assert.Equal(t, "https://api.example/prod/", NormalizeBaseURL(" https://api.example/prod/ "))
	assert.Equal(t, "", NormalizeBaseURL(""))
}

func TestDemoCatalog(t *testing.T) {
	assert.True(t, IsPlaceholder("https://REPLACE_ME.execute-api.ap-south-1.amazonaws.com/prod/"))
	assert.True(t, IsPlaceholder(""))
	assert.False(t, IsPlaceholder("https://api.example/prod/"))

	demo := NewDemoCatalog()
	root, err := demo.ListCatalog(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []domain.Folder{{Name: "Movies", Prefix: "Movies/"}, {Name: "Shows", Prefix: "Shows/"}}, root.Folders)

	sub, err := demo.ListCatalog(context.Background(), "Movies/")
	require.NoError(t, err)
	assert.True(t, sub.IsEmpty())

	u, err := demo.ResolvePlayURL(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, demoPlayURL, u)
}
