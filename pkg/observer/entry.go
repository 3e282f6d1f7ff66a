package observer

import (
	"time"

	"github.com/go-drift/intersect/pkg/geometry"
)

// Entry describes one intersection change of one observed element.
type Entry struct {
	// Target is the observed element.
	Target Element
	// Time is when the change was recorded.
	Time time.Time
	// RootBounds is the root's rectangle; nil when the root is the implicit
	// viewport and the host cannot report it.
	RootBounds *geometry.Rect
	// BoundingClientRect is the target's rectangle.
	BoundingClientRect geometry.Rect
	// IntersectionRect is the visible part of the target.
	IntersectionRect geometry.Rect
	// IntersectionRatio is the visible fraction of the target, in [0, 1].
	IntersectionRatio float64
	// IsIntersecting reports whether the target intersects the root. Some
	// hosts omit it, leaving it nil.
	IsIntersecting *bool
}

// Intersecting returns the IsIntersecting value and whether it was reported.
func (e Entry) Intersecting() (value, ok bool) {
	if e.IsIntersecting == nil {
		return false, false
	}
	return *e.IsIntersecting, true
}

// Bool returns a pointer to b, for filling Entry.IsIntersecting.
func Bool(b bool) *bool {
	return &b
}
