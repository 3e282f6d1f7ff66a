package testing

import (
	"slices"
	"sync"

	"github.com/go-drift/intersect/pkg/geometry"
	"github.com/go-drift/intersect/pkg/observer"
)

// FakeNative is an observer.Factory whose handles report only what the test
// tells them to.
type FakeNative struct {
	mu      sync.Mutex
	clock   *FakeClock
	handles []*FakeHandle
}

// NewFakeNative returns a native primitive stamping entries with clock.
// A nil clock uses a fresh FakeClock.
func NewFakeNative(clock *FakeClock) *FakeNative {
	if clock == nil {
		clock = NewFakeClock()
	}
	return &FakeNative{clock: clock}
}

// Create implements observer.Factory.
func (n *FakeNative) Create(callback observer.Callback, opts observer.Options) observer.Handle {
	h := &FakeHandle{native: n, callback: callback, options: opts}
	n.mu.Lock()
	n.handles = append(n.handles, h)
	n.mu.Unlock()
	return h
}

// Handles returns every handle created so far, in creation order.
func (n *FakeNative) Handles() []*FakeHandle {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.handles)
}

// Observing returns the live handles currently observing el.
func (n *FakeNative) Observing(el observer.Element) []*FakeHandle {
	var out []*FakeHandle
	for _, h := range n.Handles() {
		if h.IsObserving(el) {
			out = append(out, h)
		}
	}
	return out
}

// FakeHandle is one fake native observation resource.
type FakeHandle struct {
	native   *FakeNative
	callback observer.Callback
	options  observer.Options

	mu           sync.Mutex
	observed     []observer.Element
	calls        []string
	disconnected bool
}

// Observe implements observer.Handle.
func (h *FakeHandle) Observe(el observer.Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "observe")
	if h.disconnected || slices.Contains(h.observed, el) {
		return
	}
	h.observed = append(h.observed, el)
}

// Unobserve implements observer.Handle.
func (h *FakeHandle) Unobserve(el observer.Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "unobserve")
	if i := slices.Index(h.observed, el); i >= 0 {
		h.observed = slices.Delete(h.observed, i, i+1)
	}
}

// Disconnect implements observer.Handle.
func (h *FakeHandle) Disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "disconnect")
	h.disconnected = true
	h.observed = nil
}

// Options returns the options the handle was created with.
func (h *FakeHandle) Options() observer.Options {
	return h.options
}

// Observed returns the elements currently observed, in observation order.
func (h *FakeHandle) Observed() []observer.Element {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.observed)
}

// IsObserving reports whether el is currently observed.
func (h *FakeHandle) IsObserving(el observer.Element) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Contains(h.observed, el)
}

// Disconnected reports whether Disconnect was called.
func (h *FakeHandle) Disconnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disconnected
}

// Calls returns the native calls received, in order.
func (h *FakeHandle) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

// Emit delivers one batch to the handle's callback synchronously. Entries
// with a zero Time are stamped with the native clock. Entries are delivered
// as given, including entries for elements no longer observed, the way a
// host may still deliver a batch computed before an unobserve.
func (h *FakeHandle) Emit(entries ...observer.Entry) {
	batch := make([]observer.Entry, len(entries))
	for i, e := range entries {
		if e.Time.IsZero() {
			e.Time = h.native.clock.Now()
		}
		batch[i] = e
	}
	h.callback(batch, h)
}

// Entry builds an entry for target with the given visible ratio.
// IsIntersecting is true when ratio is positive.
func Entry(target observer.Element, ratio float64) observer.Entry {
	bounds := geometry.RectFromLTWH(0, 0, 100, 100)
	return observer.Entry{
		Target:             target,
		BoundingClientRect: bounds,
		IntersectionRect:   geometry.RectFromLTWH(0, 0, 100, 100*ratio),
		IntersectionRatio:  ratio,
		IsIntersecting:     observer.Bool(ratio > 0),
	}
}
