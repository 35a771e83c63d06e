package domain

import "context"

// CatalogRepository: Network operations against the remote catalog
// (implemented by the catalog HTTP client and the demo catalog)
type CatalogRepository interface {
	// ListCatalog fetches the listing under prefix ("" = root)
	ListCatalog(ctx context.Context, prefix string) (CatalogListing, error)

	// ResolvePlayURL resolves a file key to a playable URL
	ResolvePlayURL(ctx context.Context, key string) (string, error)
}
