package catalog

import (
	"context"
	"strings"

	"github.com/mmcdole/vidcat/internal/domain"
)

// placeholderMarker appears in the sample API base shipped before a backend is deployed
const placeholderMarker = "REPLACE_ME"

// demoPlayURL is a tiny public MP4 clip
const demoPlayURL = "https://interactive-examples.mdn.mozilla.net/media/cc0-videos/flower.mp4"

// IsPlaceholder returns true if base is unset or still the sample placeholder
func IsPlaceholder(base string) bool {
	base = strings.TrimSpace(base)
	return base == "" || strings.Contains(base, placeholderMarker)
}

// DemoCatalog is a fixed in-memory catalog so the browser still renders
// when no API is configured.
type DemoCatalog struct{}

// NewDemoCatalog creates the demo catalog
func NewDemoCatalog() *DemoCatalog {
	return &DemoCatalog{}
}

func (DemoCatalog) ListCatalog(ctx context.Context, prefix string) (domain.CatalogListing, error) {
	if err := ctx.Err(); err != nil {
		return domain.CatalogListing{}, &domain.CatalogError{Sentinel: domain.ErrNetwork, Operation: OpList, Err: err}
	}

	listing := domain.CatalogListing{
		Prefix:  prefix,
		Folders: []domain.Folder{},
		Files:   []domain.File{},
	}
	if prefix == "" {
		listing.Folders = []domain.Folder{
			{Name: "Movies", Prefix: "Movies/"},
			{Name: "Shows", Prefix: "Shows/"},
		}
	}
	return listing, nil
}

func (DemoCatalog) ResolvePlayURL(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.CatalogError{Sentinel: domain.ErrNetwork, Operation: OpPlay, Err: err}
	}
	return demoPlayURL, nil
}
