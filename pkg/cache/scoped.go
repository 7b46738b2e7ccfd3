package cache

// ScopedKeyer wraps a Keyer with a prefix, so studies stored in a shared
// Redis can be separated per user or per machine.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "host:studio-1:")
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

// StippleKey generates a prefixed key for point sets.
func (k *ScopedKeyer) StippleKey(imageHash string, opts StippleKeyOpts) string {
	return k.prefix + k.inner.StippleKey(imageHash, opts)
}

// RenderKey generates a prefixed key for rendered images.
func (k *ScopedKeyer) RenderKey(studyHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(studyHash, opts)
}
