package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/vidcat/internal/domain"
)

// CatalogService fronts the catalog repository. Concurrent requests for
// the same prefix or key share one round-trip; nothing is cached.
type CatalogService struct {
	repo   domain.CatalogRepository
	logger *slog.Logger
	group  singleflight.Group
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo domain.CatalogRepository, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{repo: repo, logger: logger}
}

// List returns the listing under prefix
func (s *CatalogService) List(ctx context.Context, prefix string) (domain.CatalogListing, error) {
	v, err, shared := s.group.Do(listKey(prefix), func() (any, error) {
		return s.repo.ListCatalog(ctx, prefix)
	})
	if err != nil {
		s.logger.Error("failed to list catalog", "error", err, "prefix", prefix)
		return domain.CatalogListing{}, err
	}
	listing := v.(domain.CatalogListing)
	s.logger.Info("loaded listing", "prefix", prefix, "folders", len(listing.Folders), "files", len(listing.Files), "shared", shared)
	return listing, nil
}

// Resolve returns a playable URL for key
func (s *CatalogService) Resolve(ctx context.Context, key string) (string, error) {
	v, err, _ := s.group.Do(playKey(key), func() (any, error) {
		return s.repo.ResolvePlayURL(ctx, key)
	})
	if err != nil {
		s.logger.Error("failed to resolve play URL", "error", err, "key", key)
		return "", err
	}
	return v.(string), nil
}
