package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/vidcat/internal/domain"
)

const (
	testWait = 2 * time.Second
	tick     = time.Millisecond
)

type countingRepo struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (r *countingRepo) ListCatalog(ctx context.Context, prefix string) (domain.CatalogListing, error) {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return domain.CatalogListing{}, r.err
	}
	return domain.CatalogListing{
		Prefix:  prefix,
		Folders: []domain.Folder{{Name: "Movies", Prefix: prefix + "Movies/"}},
	}, nil
}

func (r *countingRepo) ResolvePlayURL(ctx context.Context, key string) (string, error) {
	r.calls.Add(1)
	if r.err != nil {
		return "", r.err
	}
	return "https://cdn/" + key, nil
}

func TestCatalogServiceSharesConcurrentLists(t *testing.T) {
	repo := &countingRepo{release: make(chan struct{})}
	svc := NewCatalogService(repo, nopLogger())

	var wg sync.WaitGroup
	results := make([]domain.CatalogListing, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := svc.List(context.Background(), "")
			assert.NoError(t, err)
			results[i] = l
		}(i)
	}
	require.Eventually(t, func() bool { return repo.calls.Load() == 1 }, testWait, tick)
	time.Sleep(20 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	assert.LessOrEqual(t, repo.calls.Load(), int32(3))
	for _, l := range results {
		assert.Equal(t, "Movies/", l.Folders[0].Prefix)
	}
}

func TestCatalogServiceErrors(t *testing.T) {
	repo := &countingRepo{err: &domain.CatalogError{Sentinel: domain.ErrNetwork, Operation: "list"}}
	svc := NewCatalogService(repo, nopLogger())

	_, err := svc.List(context.Background(), "x/")
	assert.True(t, errors.Is(err, domain.ErrNetwork))

	_, err = svc.Resolve(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestCatalogServiceResolve(t *testing.T) {
	svc := NewCatalogService(&countingRepo{}, nopLogger())
	url, err := svc.Resolve(context.Background(), "a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.mp4", url)
}
