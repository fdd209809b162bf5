package store

import "strings"

// Keyer maps layout names to store keys.
type Keyer interface {
	// LayoutKey returns the key a layout is stored under.
	LayoutKey(name string) string
	// LayoutPrefix is the common prefix of every layout key.
	LayoutPrefix() string
}

// DefaultKeyer stores layouts under "layout:<name>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns "layout:" + name.
func (DefaultKeyer) LayoutKey(name string) string { return "layout:" + name }

// LayoutPrefix returns "layout:".
func (DefaultKeyer) LayoutPrefix() string { return "layout:" }

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation, so
// several servers or users can share one backend without seeing each
// other's layouts.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "team-a:")
//	k.LayoutKey("home") // "team-a:layout:home"
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
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(name string) string {
	return k.prefix + k.inner.LayoutKey(name)
}

// LayoutPrefix returns the scope prefix followed by the inner prefix.
func (k *ScopedKeyer) LayoutPrefix() string {
	return k.prefix + k.inner.LayoutPrefix()
}

// layoutName strips the keyer's prefix from key.
func layoutName(k Keyer, key string) (string, bool) {
	return strings.CutPrefix(key, k.LayoutPrefix())
}
