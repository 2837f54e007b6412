package cache

// Cache key namespaces. The namespace and operation segments stay readable
// in every key (see Fingerprinter.Fingerprint) so invalidation can target
// them with glob patterns.
const (
	NamespaceFeed = "feed"
	NamespacePost = "post"
)

// universityScopeNone marks feed pages computed for viewers without a
// primary university.
const universityScopeNone = "none"

// FeedOp builds the operation segment for a feed page key:
// "<feedType>:u=<universityID>". The university scope is part of the visible
// key, not just the digest, so a post mutation can evict every page scoped
// to its university with one pattern.
func FeedOp(feedType string, universityID string) string {
	if universityID == "" {
		universityID = universityScopeNone
	}
	return feedType + ":u=" + universityID
}

// PostKey builds the cache key for a single-post entry.
func (f *Fingerprinter) PostKey(postID string) (string, error) {
	return f.Fingerprint(NamespacePost, postID, nil, nil)
}

// UniversityFeedPattern matches every feed page scoped to the university.
func UniversityFeedPattern(universityID string) string {
	return NamespaceFeed + ":*:u=" + universityID + ":*"
}

// GlobalFeedPattern matches every global feed page regardless of viewer scope.
func GlobalFeedPattern() string {
	return NamespaceFeed + ":global:*"
}
