package intersection

import (
	"fmt"

	"github.com/go-drift/intersect/pkg/core"
	"github.com/go-drift/intersect/pkg/errors"
	"github.com/go-drift/intersect/pkg/layout"
	"github.com/go-drift/intersect/pkg/observer"
	"github.com/go-drift/intersect/pkg/registry"
)

const observerWidgetName = "intersection.Observer"

// Observer reports intersection changes of the render object produced by
// its single child.
//
// Observer renders Child unchanged. The child must produce a render object:
// a widget tree that builds to nothing cannot be observed and is reported
// as a *errors.TargetResolutionError.
type Observer struct {
	// Registry pools the native resources. Nil uses registry.Default at the
	// time the observer starts observing.
	Registry *registry.Registry

	Root       observer.Element
	RootMargin string
	Threshold  []float64
	Disabled   bool
	OnlyOnce   bool
	OnChange   ChangeFunc

	// ChildRef is called with the observed render object after mount,
	// whenever the child produces a new one, and with nil on unmount.
	ChildRef func(layout.RenderObject)

	// Child is required.
	Child core.Widget
}

// NewObserver builds an Observer from props and exactly one child. It fails
// with *errors.ChildCardinalityError for any other number of children and
// with *errors.ConfigurationError for malformed options or a nil OnChange.
func NewObserver(props Props, children ...core.Widget) (Observer, error) {
	count := 0
	for _, child := range children {
		if child != nil {
			count++
		}
	}
	if count != 1 || len(children) != 1 {
		return Observer{}, &errors.ChildCardinalityError{Widget: observerWidgetName, Count: count}
	}
	if props.OnChange == nil {
		return Observer{}, &errors.ConfigurationError{
			Field:  "onChange",
			Value:  nil,
			Reason: "a change callback is required",
		}
	}
	if err := props.Options().Validate(); err != nil {
		return Observer{}, err
	}
	return Observer{
		Root:       props.Root,
		RootMargin: props.RootMargin,
		Threshold:  props.Threshold,
		Disabled:   props.Disabled,
		OnlyOnce:   props.OnlyOnce,
		OnChange:   props.OnChange,
		Child:      children[0],
	}, nil
}

// CreateElement panics with *errors.ChildCardinalityError when Child is nil.
func (o Observer) CreateElement() core.Element {
	if o.Child == nil {
		panic(&errors.ChildCardinalityError{Widget: observerWidgetName, Count: 0})
	}
	return core.NewStatefulElement()
}

func (o Observer) Key() any {
	return nil
}

func (o Observer) CreateState() core.State {
	return &observerState{}
}

// Props returns the subscription props of o.
func (o Observer) Props() Props {
	return Props{
		Root:       o.Root,
		RootMargin: o.RootMargin,
		Threshold:  o.Threshold,
		Disabled:   o.Disabled,
		OnlyOnce:   o.OnlyOnce,
		OnChange:   o.OnChange,
	}
}

// pool returns Registry as a Pool, keeping a nil registry a nil interface so
// the subscription falls back to registry.Default.
func (o Observer) pool() Pool {
	if o.Registry == nil {
		return nil
	}
	return o.Registry
}

type observerState struct {
	core.StateBase
	sub    *Subscription
	target layout.RenderObject
}

func (s *observerState) widget() Observer {
	return s.Element().Widget().(Observer)
}

func (s *observerState) InitState() {
	w := s.widget()
	s.sub = NewSubscription(w.pool(), w.Props())
	s.OnDispose(func() { s.setTarget(nil) })
	s.OnDispose(s.sub.Unmount)
}

func (s *observerState) Build(ctx core.BuildContext) core.Widget {
	return s.widget().Child
}

func (s *observerState) DidMount() {
	target := s.Element().RenderObject()
	if target == nil {
		s.report("DidMount", s.unresolved())
		return
	}
	s.setTarget(target)
	if err := s.sub.Mount(target); err != nil {
		s.report("DidMount", err)
	}
}

func (s *observerState) DidUpdateWidget(oldWidget core.StatefulWidget) {
	w := s.widget()
	s.sub.SetPool(w.pool())
	s.sub.WillUpdate(w.Props())
}

func (s *observerState) DidCommit(oldWidget core.StatefulWidget) {
	prev := oldWidget.(Observer).Props()
	if s.widget().Child == nil {
		s.sub.Unobserve()
		s.report("DidCommit", &errors.ChildCardinalityError{Widget: observerWidgetName, Count: 0})
		return
	}
	target := s.Element().RenderObject()
	s.setTarget(target)
	var el observer.Element
	if target != nil {
		el = target
	}
	if err := s.sub.DidUpdate(prev, el); err != nil {
		if errors.KindOf(err) == errors.KindTarget {
			err = s.unresolved()
		}
		s.report("DidCommit", err)
	}
}

func (s *observerState) setTarget(target layout.RenderObject) {
	if target == s.target {
		return
	}
	s.target = target
	if ref := s.widget().ChildRef; ref != nil {
		ref(target)
	}
}

func (s *observerState) unresolved() error {
	return &errors.TargetResolutionError{
		Widget: fmt.Sprintf("%T", s.widget().Child),
		Reason: "child produced no render object",
	}
}

func (s *observerState) report(hook string, err error) {
	errors.Report(errors.Wrap(observerWidgetName+"."+hook, err))
}

// SubscriptionOf returns the subscription of an Observer element, or nil for
// any other element.
func SubscriptionOf(e core.Element) *Subscription {
	stateful, ok := e.(*core.StatefulElement)
	if !ok {
		return nil
	}
	state, ok := stateful.State().(*observerState)
	if !ok {
		return nil
	}
	return state.sub
}
