package intersection

import (
	stderrors "errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/go-drift/intersect/pkg/errors"
	"github.com/go-drift/intersect/pkg/observer"
	"github.com/go-drift/intersect/pkg/registry"
)

// ErrNoRegistry is returned by Observe when neither the subscription nor
// registry.Default names a registry.
var ErrNoRegistry = stderrors.New("intersection: no registry installed")

// Pool is the part of registry.Registry a Subscription uses.
type Pool interface {
	Observe(target observer.Element, sub registry.Subscriber, opts observer.Options) (*registry.Resource, error)
	Unobserve(target observer.Element, res *registry.Resource)
}

// Phase is the position of a Subscription in its lifecycle.
type Phase int

const (
	// PhaseUnmounted is the phase before Mount and after Unmount.
	PhaseUnmounted Phase = iota
	// PhaseIdle means mounted but not registered with a pool.
	PhaseIdle
	// PhaseObserving means registered with a pool.
	PhaseObserving
)

func (p Phase) String() string {
	switch p {
	case PhaseUnmounted:
		return "unmounted"
	case PhaseIdle:
		return "idle"
	case PhaseObserving:
		return "observing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Subscription tracks one observed element through mount, updates and
// unmount, keeping its registration in the pool consistent with its props.
//
// A Subscription is not safe for concurrent use. It is driven from the UI
// goroutine, and the registry delivers changes on the goroutine the native
// primitive reports on.
type Subscription struct {
	pool  Pool
	props Props

	target      observer.Element
	mounted     bool
	shouldReset bool
	updating    bool

	// registration currently held, if any
	bound    Pool
	resource *registry.Resource
	observed observer.Element
}

// NewSubscription creates an unmounted subscription. A nil pool resolves to
// registry.Default on every Observe.
func NewSubscription(pool Pool, props Props) *Subscription {
	return &Subscription{pool: pool, props: props}
}

// Mount records target and observes it unless the subscription is disabled.
func (s *Subscription) Mount(target observer.Element) error {
	if target == nil {
		return &errors.TargetResolutionError{Reason: "mounted without a target element"}
	}
	s.target = target
	s.mounted = true
	if s.props.Disabled {
		return nil
	}
	return s.Observe()
}

// Observe registers the current target under the options derived from the
// props. A registration held under a different target or resource is
// released after the new one succeeds.
func (s *Subscription) Observe() error {
	Logger().Debug("observe", s.fields()...)
	if s.target == nil {
		return &errors.TargetResolutionError{Reason: "no target element to observe"}
	}
	pool := s.resolvePool()
	if pool == nil {
		return ErrNoRegistry
	}
	res, err := pool.Observe(s.target, s, s.props.Options())
	if err != nil {
		return err
	}
	if s.resource != nil && (s.resource != res || !sameElement(s.observed, s.target)) {
		s.bound.Unobserve(s.observed, s.resource)
	}
	s.bound, s.resource, s.observed = pool, res, s.target
	return nil
}

// Unobserve releases the held registration. It is safe to call at any time.
func (s *Subscription) Unobserve() {
	Logger().Debug("unobserve", s.fields()...)
	if s.resource == nil {
		return
	}
	s.bound.Unobserve(s.observed, s.resource)
	s.bound, s.resource, s.observed = nil, nil, nil
}

// SetPool replaces the pool used by later observes. A registration held in
// another pool moves on the next DidUpdate.
func (s *Subscription) SetPool(pool Pool) {
	s.pool = pool
}

// WillUpdate is called before a re-render with the next props. It records
// whether the configuration changes and adopts next.
func (s *Subscription) WillUpdate(next Props) {
	s.shouldReset = s.props.configChanged(next)
	s.updating = true
	s.props = next
}

// DidUpdate is called after a re-render with the props before the update and
// the element the subscription now renders. It reconciles the registration
// with the current props and target.
func (s *Subscription) DidUpdate(prev Props, target observer.Element) error {
	reset := s.shouldReset && s.updating
	s.updating = false

	if target == nil {
		s.Unobserve()
		s.target = nil
		return &errors.TargetResolutionError{Reason: "update rendered no target element"}
	}
	if !s.mounted {
		return s.Mount(target)
	}

	retarget := !sameElement(s.target, target)
	if retarget {
		s.Unobserve()
		s.target = target
	}
	if s.resource != nil && s.bound != s.resolvePool() {
		reset = true
	}

	switch {
	case prev.Disabled && !s.props.Disabled:
		return s.Observe()
	case !prev.Disabled && s.props.Disabled:
		s.Unobserve()
	case s.props.Disabled:
	case reset:
		s.Unobserve()
		return s.Observe()
	case retarget:
		return s.Observe()
	}
	return nil
}

// Update runs WillUpdate and DidUpdate for a host without separate pre- and
// post-render hooks.
func (s *Subscription) Update(next Props, target observer.Element) error {
	prev := s.props
	s.WillUpdate(next)
	return s.DidUpdate(prev, target)
}

// Unmount releases the registration and forgets the target.
func (s *Subscription) Unmount() {
	s.Unobserve()
	s.mounted = false
	s.target = nil
}

// HandleChange implements registry.Subscriber.
//
// With OnlyOnce set, an entry without an intersecting indicator fails with
// *errors.EntryShapeError before OnChange runs, and an intersecting entry
// unobserves after OnChange returns.
func (s *Subscription) HandleChange(entry observer.Entry, handle observer.Handle) error {
	intersecting, ok := entry.Intersecting()
	if s.props.OnlyOnce && !ok {
		return &errors.EntryShapeError{Target: entry.Target}
	}
	if s.props.OnChange != nil {
		s.props.OnChange(entry, handle)
	}
	if s.props.OnlyOnce && intersecting {
		s.Unobserve()
	}
	return nil
}

// Props returns the current props.
func (s *Subscription) Props() Props {
	return s.props
}

// Options returns the pool configuration of the current props.
func (s *Subscription) Options() observer.Options {
	return s.props.Options()
}

// Resource returns the held pooled resource, or nil.
func (s *Subscription) Resource() *registry.Resource {
	return s.resource
}

// Handle returns the native handle of the held resource, or nil.
func (s *Subscription) Handle() observer.Handle {
	if s.resource == nil {
		return nil
	}
	return s.resource.Handle()
}

// Target returns the element being tracked, or nil when unmounted.
func (s *Subscription) Target() observer.Element {
	return s.target
}

// ShouldResetObserver reports whether the last WillUpdate changed the
// configuration.
func (s *Subscription) ShouldResetObserver() bool {
	return s.shouldReset
}

// Phase returns the lifecycle position.
func (s *Subscription) Phase() Phase {
	switch {
	case !s.mounted:
		return PhaseUnmounted
	case s.resource != nil:
		return PhaseObserving
	default:
		return PhaseIdle
	}
}

func (s *Subscription) resolvePool() Pool {
	if s.pool != nil {
		return s.pool
	}
	if reg := registry.Default(); reg != nil {
		return reg
	}
	return nil
}

func (s *Subscription) fields() []zap.Field {
	return []zap.Field{
		zap.String("target", fmt.Sprint(s.target)),
		zap.Stringer("phase", s.Phase()),
		zap.Bool("disabled", s.props.Disabled),
	}
}

// sameElement compares elements by identity. Elements of non-comparable
// types are never the same.
func sameElement(a, b observer.Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !observer.Comparable(a) {
		return false
	}
	return a == b
}
