package testing

import (
	"sync"
	"testing"

	"github.com/go-drift/intersect/pkg/core"
	"github.com/go-drift/intersect/pkg/errors"
	"github.com/go-drift/intersect/pkg/layout"
	"github.com/go-drift/intersect/pkg/observer"
	"github.com/go-drift/intersect/pkg/registry"
)

// WidgetTester mounts widget trees against a fake native primitive and a
// private registry. Widgets updated by consecutive PumpWidget calls keep
// their elements when their types and keys match, the way a host re-render
// does.
type WidgetTester struct {
	buildOwner *core.BuildOwner
	root       core.Element
	clock      *FakeClock
	native     *FakeNative
	registry   *registry.Registry
	dispatches []func()

	prevRegistry *registry.Registry
	prevHandler  errors.ErrorHandler
	capture      *captureHandler
}

// NewWidgetTester creates a tester and installs its registry as
// registry.Default. Call Cleanup() when done, or use NewWidgetTesterWithT()
// instead.
func NewWidgetTester(opts ...registry.Option) *WidgetTester {
	clk := NewFakeClock()
	native := NewFakeNative(clk)
	t := &WidgetTester{
		buildOwner: core.NewBuildOwner(),
		clock:      clk,
		native:     native,
		registry:   registry.New(native, opts...),
		capture:    &captureHandler{},
	}
	t.prevRegistry = registry.Default()
	registry.SetDefault(t.registry)
	t.prevHandler = errors.Handler()
	errors.SetHandler(t.capture)
	return t
}

// NewWidgetTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewWidgetTesterWithT(t *testing.T, opts ...registry.Option) *WidgetTester {
	tester := NewWidgetTester(opts...)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the tree and restores the default registry and error
// handler. Must be called if not using NewWidgetTesterWithT.
func (t *WidgetTester) Cleanup() {
	t.Unmount()
	registry.SetDefault(t.prevRegistry)
	errors.SetHandler(t.prevHandler)
}

// Clock returns the fake clock stamping emitted entries.
func (t *WidgetTester) Clock() *FakeClock {
	return t.clock
}

// Native returns the fake native primitive.
func (t *WidgetTester) Native() *FakeNative {
	return t.native
}

// Registry returns the tester's registry.
func (t *WidgetTester) Registry() *registry.Registry {
	return t.registry
}

// PumpWidget mounts widget, or reconciles the mounted tree with it, and
// runs one frame. It returns the first error reported during the frame. A
// panic carrying an error, such as a child cardinality violation, is
// recovered and returned.
func (t *WidgetTester) PumpWidget(widget core.Widget) (err error) {
	mark := t.capture.len()
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = perr
		}
	}()
	t.root = core.UpdateRoot(t.root, widget, t.buildOwner)
	if err := t.Pump(); err != nil {
		return err
	}
	return t.capture.since(mark)
}

// Pump runs a single frame: queued dispatches, then pending rebuilds. It
// returns the first error reported during the frame.
func (t *WidgetTester) Pump() error {
	mark := t.capture.len()
	dispatches := t.dispatches
	t.dispatches = nil
	for _, fn := range dispatches {
		fn()
	}
	t.buildOwner.FlushBuild()
	return t.capture.since(mark)
}

// Dispatch queues a callback for the next frame.
func (t *WidgetTester) Dispatch(fn func()) {
	t.dispatches = append(t.dispatches, fn)
}

// EmitLater queues a batch for handle, delivered by the next Pump.
func (t *WidgetTester) EmitLater(handle *FakeHandle, entries ...observer.Entry) {
	t.Dispatch(func() {
		handle.Emit(entries...)
	})
}

// Unmount unmounts the tree, disposing every state in it.
func (t *WidgetTester) Unmount() {
	if t.root != nil {
		t.root.Unmount()
		t.root = nil
	}
}

// RootElement returns the root element of the mounted tree.
func (t *WidgetTester) RootElement() core.Element {
	return t.root
}

// RootRenderObject returns the first render object of the mounted tree.
func (t *WidgetTester) RootRenderObject() layout.RenderObject {
	return core.RenderObjectOf(t.root)
}

// Errors returns every error reported since the tester was created.
func (t *WidgetTester) Errors() []error {
	return t.capture.all()
}

// FindElements returns the mounted elements matching predicate, depth first.
func (t *WidgetTester) FindElements(predicate func(core.Element) bool) []core.Element {
	var found []core.Element
	var visit func(core.Element) bool
	visit = func(e core.Element) bool {
		if predicate(e) {
			found = append(found, e)
		}
		e.VisitChildren(visit)
		return true
	}
	if t.root != nil {
		visit(t.root)
	}
	return found
}

// FindState returns the first mounted state of type S, or the zero value.
func FindState[S core.State](t *WidgetTester) (S, bool) {
	var zero S
	found := t.FindElements(func(e core.Element) bool {
		stateful, ok := e.(*core.StatefulElement)
		if !ok {
			return false
		}
		_, ok = stateful.State().(S)
		return ok
	})
	if len(found) == 0 {
		return zero, false
	}
	return found[0].(*core.StatefulElement).State().(S), true
}

// captureHandler records reported errors instead of logging them.
type captureHandler struct {
	mu   sync.Mutex
	errs []error
}

func (h *captureHandler) HandleError(err *errors.Error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *captureHandler) HandlePanic(err *errors.PanicError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *captureHandler) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.errs)
}

func (h *captureHandler) since(mark int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.errs) > mark {
		return h.errs[mark]
	}
	return nil
}

func (h *captureHandler) all() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errs...)
}
