package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when the same cache backend serves multiple package
// indexes (e.g. pypi.org and an internal mirror) whose entries must not
// collide.
//
// Example usage:
//
//	// Keys for an internal mirror
//	mirrorKeyer := NewScopedKeyer(NewDefaultKeyer(), "mirror:corp:")
//
//	// Keys for the public index
//	publicKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ReachKey generates a prefixed key for reachability table caching.
func (k *ScopedKeyer) ReachKey(snapshotHash, direction string) string {
	return k.prefix + k.inner.ReachKey(snapshotHash, direction)
}

// SummaryKey generates a prefixed key for summary table caching.
func (k *ScopedKeyer) SummaryKey(snapshotHash string) string {
	return k.prefix + k.inner.SummaryKey(snapshotHash)
}
