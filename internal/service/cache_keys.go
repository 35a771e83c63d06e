package service

// Request key prefixes for deduplicating in-flight catalog calls
const (
	// PrefixList is the prefix for listing requests (list:{prefix})
	PrefixList = "list:"

	// PrefixPlay is the prefix for play URL requests (play:{key})
	PrefixPlay = "play:"
)

// listKey returns the request key for the listing under prefix
func listKey(prefix string) string {
	return PrefixList + prefix
}

// playKey returns the request key for resolving key
func playKey(key string) string {
	return PrefixPlay + key
}
