package redis

const (
	// KeyPrefixViews is the prefix for page view counters
	KeyPrefixViews = "patterns:views:"
	// KeyPages is the set of page IDs that have a view counter
	KeyPages = "patterns:pages"
	// KeySidebar holds the JSON of the last built sidebar
	KeySidebar = "patterns:sidebar"
)

// ViewsKey returns the Redis key for the view counter of a page
func ViewsKey(id string) string {
	return KeyPrefixViews + id
}
