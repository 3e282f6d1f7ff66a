package intersection

import (
	"github.com/go-drift/intersect/pkg/observer"
)

// ChangeFunc receives one change entry and the native handle that reported it.
type ChangeFunc func(entry observer.Entry, handle observer.Handle)

// Props are the inputs of a Subscription.
type Props struct {
	// Root is the viewport element. Nil means the top-level viewport.
	Root observer.Element
	// RootMargin grows or shrinks the root's box ("10px 0px", "5%").
	// Empty means "0px".
	RootMargin string
	// Threshold lists the visible ratios that trigger a change. Empty means [0].
	Threshold []float64
	// Disabled suspends observation without unmounting.
	Disabled bool
	// OnlyOnce stops observation after the first intersecting entry.
	OnlyOnce bool
	// OnChange receives every change entry.
	OnChange ChangeFunc
}

// Options returns the pool configuration described by p.
func (p Props) Options() observer.Options {
	return observer.Options{
		Root:       p.Root,
		RootMargin: p.RootMargin,
		Threshold:  p.Threshold,
	}
}

// configChanged reports whether next needs a different pooled resource.
// Disabled, OnlyOnce and OnChange never do.
func (p Props) configChanged(next Props) bool {
	return !p.Options().Equivalent(next.Options())
}
