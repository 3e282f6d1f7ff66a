package observer

import (
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-drift/intersect/pkg/errors"
)

const (
	// DefaultRootMargin is used when Options.RootMargin is empty.
	DefaultRootMargin = "0px"
)

// Options configures one native observation resource.
type Options struct {
	// Root is the element used as the viewport. Nil means the implicit
	// top-level viewport.
	Root Element
	// RootMargin grows or shrinks the root's box, in CSS margin shorthand
	// with px or % units ("10px", "5% 0%", "1px 2px 3px 4px").
	RootMargin string
	// Threshold lists the visible ratios at which changes are reported.
	// Order and duplicates are irrelevant. Empty means [0].
	Threshold []float64
}

// Thresholds is a convenience for building Options.Threshold.
func Thresholds(values ...float64) []float64 {
	return values
}

// Validate reports the first malformed option as a *errors.ConfigurationError.
func (o Options) Validate() error {
	if o.Root != nil && !Comparable(o.Root) {
		return &errors.ConfigurationError{
			Field:  "root",
			Value:  reflect.TypeOf(o.Root).String(),
			Reason: "root element must be comparable",
		}
	}
	if _, err := ParseRootMargin(o.RootMargin); err != nil {
		return err
	}
	for _, t := range o.Threshold {
		if math.IsNaN(t) || t < 0 || t > 1 {
			return &errors.ConfigurationError{
				Field:  "threshold",
				Value:  t,
				Reason: "threshold must be a number between 0 and 1 inclusively",
			}
		}
	}
	return nil
}

// Normalized returns a copy with defaults applied and the threshold list
// sorted and deduplicated.
func (o Options) Normalized() Options {
	n := Options{Root: o.Root, RootMargin: o.RootMargin}
	if strings.TrimSpace(n.RootMargin) == "" {
		n.RootMargin = DefaultRootMargin
	}
	n.Threshold = canonicalThreshold(o.Threshold)
	return n
}

// Key is the comparable identity of a set of equivalent Options.
type Key struct {
	Root       Element
	RootMargin string
	Threshold  string
}

// Key returns the canonical key of o. Options with equal keys are equivalent.
// Call Validate first: a non-comparable Root makes the key unusable as a map
// key.
func (o Options) Key() Key {
	n := o.Normalized()
	parts := make([]string, len(n.Threshold))
	for i, t := range n.Threshold {
		parts[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	return Key{
		Root:       n.Root,
		RootMargin: n.RootMargin,
		Threshold:  strings.Join(parts, ","),
	}
}

// Equivalent reports whether o and other configure the same resource:
// the same root by identity, equal margins and equal threshold sets.
func (o Options) Equivalent(other Options) bool {
	if !sameRoot(o.Root, other.Root) {
		return false
	}
	a, b := o.Normalized(), other.Normalized()
	return a.RootMargin == b.RootMargin && slices.Equal(a.Threshold, b.Threshold)
}

func sameRoot(a, b Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !Comparable(a) {
		return false
	}
	return a == b
}

func canonicalThreshold(values []float64) []float64 {
	if len(values) == 0 {
		return []float64{0}
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if v == 0 {
			v = 0 // folds -0
		}
		out[i] = v
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// MarginUnit is the unit of one root margin side.
type MarginUnit string

const (
	// Pixels is an absolute margin.
	Pixels MarginUnit = "px"
	// Percent is relative to the root's size on the same axis.
	Percent MarginUnit = "%"
)

// MarginValue is one side of a parsed root margin.
type MarginValue struct {
	Value float64
	Unit  MarginUnit
}

// Margin is a parsed root margin in top, right, bottom, left order.
type Margin [4]MarginValue

var marginPart = regexp.MustCompile(`^(-?\d*\.?\d+)(px|%)$`)

// ParseRootMargin parses CSS margin shorthand with px or % units.
// One to four values are accepted and expanded the way CSS expands them.
// An empty string parses as DefaultRootMargin.
func ParseRootMargin(s string) (Margin, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		fields = []string{DefaultRootMargin}
	}
	if len(fields) > 4 {
		return Margin{}, &errors.ConfigurationError{
			Field:  "rootMargin",
			Value:  s,
			Reason: "at most four values are allowed",
		}
	}
	values := make([]MarginValue, len(fields))
	for i, f := range fields {
		m := marginPart.FindStringSubmatch(f)
		if m == nil {
			return Margin{}, &errors.ConfigurationError{
				Field:  "rootMargin",
				Value:  s,
				Reason: "rootMargin must be specified in pixels or percent",
			}
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Margin{}, &errors.ConfigurationError{Field: "rootMargin", Value: s, Reason: err.Error()}
		}
		values[i] = MarginValue{Value: v, Unit: MarginUnit(m[2])}
	}
	switch len(values) {
	case 1:
		return Margin{values[0], values[0], values[0], values[0]}, nil
	case 2:
		return Margin{values[0], values[1], values[0], values[1]}, nil
	case 3:
		return Margin{values[0], values[1], values[2], values[1]}, nil
	default:
		return Margin{values[0], values[1], values[2], values[3]}, nil
	}
}
