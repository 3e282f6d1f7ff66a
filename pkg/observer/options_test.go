package observer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/intersect/pkg/errors"
)

type node struct{ id string }

func TestOptionsEquivalent(t *testing.T) {
	win := &node{id: "window"}
	doc := &node{id: "document"}

	tests := []struct {
		name string
		a, b Options
		want bool
	}{
		{"zero values", Options{}, Options{}, true},
		{"default margin", Options{}, Options{RootMargin: "0px"}, true},
		{"default threshold", Options{}, Options{Threshold: Thresholds(0)}, true},
		{"threshold order", Options{Threshold: Thresholds(0, 0.5, 1)}, Options{Threshold: Thresholds(1, 0, 0.5)}, true},
		{"threshold duplicates", Options{Threshold: Thresholds(0.5, 0.5)}, Options{Threshold: Thresholds(0.5)}, true},
		{"negative zero", Options{Threshold: Thresholds(math.Copysign(0, -1))}, Options{Threshold: Thresholds(0)}, true},
		{"scalar vs list", Options{Threshold: Thresholds(0.5)}, Options{Threshold: Thresholds(0.5, 1)}, false},
		{"threshold value", Options{Threshold: Thresholds(0.5)}, Options{Threshold: Thresholds(1)}, false},
		{"margin", Options{RootMargin: "10% 20%"}, Options{RootMargin: "20% 10%"}, false},
		{"same root", Options{Root: win}, Options{Root: win}, true},
		{"root identity", Options{Root: win}, Options{Root: doc}, false},
		{"root equal fields", Options{Root: &node{id: "a"}}, Options{Root: &node{id: "a"}}, false},
		{"root vs viewport", Options{Root: win}, Options{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equivalent(tt.b))
			assert.Equal(t, tt.want, tt.a.Key() == tt.b.Key(), "keys must agree with Equivalent")
		})
	}
}

func TestOptionsNormalized(t *testing.T) {
	in := Options{RootMargin: "  ", Threshold: Thresholds(1, 0.25, 1, 0)}
	got := in.Normalized()

	assert.Equal(t, DefaultRootMargin, got.RootMargin)
	assert.Equal(t, []float64{0, 0.25, 1}, got.Threshold)
	assert.Equal(t, []float64{1, 0.25, 1, 0}, in.Threshold, "input must not be modified")
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"valid", Options{RootMargin: "10px 5%", Threshold: Thresholds(0, 1)}, ""},
		{"nan threshold", Options{Threshold: Thresholds(math.NaN())}, "threshold"},
		{"negative threshold", Options{Threshold: Thresholds(-0.1)}, "threshold"},
		{"threshold above one", Options{Threshold: Thresholds(1.5)}, "threshold"},
		{"margin unit", Options{RootMargin: "10em"}, "rootMargin"},
		{"margin word", Options{RootMargin: "auto"}, "rootMargin"},
		{"margin too many", Options{RootMargin: "1px 2px 3px 4px 5px"}, "rootMargin"},
		{"non-comparable root", Options{Root: []int{1}}, "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *errors.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))
		})
	}
}

func TestParseRootMargin(t *testing.T) {
	px := func(v float64) MarginValue { return MarginValue{Value: v, Unit: Pixels} }
	pct := func(v float64) MarginValue { return MarginValue{Value: v, Unit: Percent} }

	tests := []struct {
		in   string
		want Margin
	}{
		{"", Margin{px(0), px(0), px(0), px(0)}},
		{"10px", Margin{px(10), px(10), px(10), px(10)}},
		{"50% 0%", Margin{pct(50), pct(0), pct(50), pct(0)}},
		{"1px 2px 3px", Margin{px(1), px(2), px(3), px(2)}},
		{"1px -2% .5px 4px", Margin{px(1), pct(-2), px(0.5), px(4)}},
	}
	for _, tt := range tests {
		got, err := ParseRootMargin(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestEntryIntersecting(t *testing.T) {
	v, ok := Entry{}.Intersecting()
	assert.False(t, ok)
	assert.False(t, v)

	v, ok = Entry{IsIntersecting: Bool(true)}.Intersecting()
	assert.True(t, ok)
	assert.True(t, v)
}

func TestFactoryFunc(t *testing.T) {
	var gotOpts Options
	f := FactoryFunc(func(cb Callback, opts Options) Handle {
		gotOpts = opts
		return nil
	})
	f.Create(nil, Options{RootMargin: "1px"})
	assert.Equal(t, "1px", gotOpts.RootMargin)
}
