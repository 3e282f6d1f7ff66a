package scenario

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/go-drift/intersect/pkg/core"
	"github.com/go-drift/intersect/pkg/errors"
	"github.com/go-drift/intersect/pkg/intersection"
	"github.com/go-drift/intersect/pkg/observer"
	"github.com/go-drift/intersect/pkg/registry"
	intersecttest "github.com/go-drift/intersect/pkg/testing"
	"github.com/go-drift/intersect/pkg/widgets"
)

// frame is how far the simulated clock advances per step.
const frame = 16 * time.Millisecond

// Change is one change delivered to an observer's callback.
type Change struct {
	Step         int
	Observer     string
	Ratio        float64
	Intersecting bool
	Time         time.Time
}

// Result summarizes a scenario run.
type Result struct {
	Changes []Change
	// Errors are the errors reported while running, in order.
	Errors []error
	// Resources is the pool size after the last step.
	Resources int
	// Registrations is the number of live registrations after the last step.
	Registrations int
}

// Runner replays scenarios against a simulated native primitive.
type Runner struct {
	// Out receives a line per step event. Nil discards them.
	Out io.Writer
	// Logger is passed to the registry. Nil means no logging.
	Logger *zap.Logger
	// Metrics, if set, receives the registry collectors.
	Metrics prometheus.Registerer
}

// Run validates s and replays its steps in order. Errors reported by
// observers while running are collected in the result rather than failing
// the run; a step that cannot be applied at all, such as updating an
// observer that is not mounted, stops the run.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	opts := []registry.Option{registry.WithLogger(logger)}
	if r.Metrics != nil {
		opts = append(opts, registry.WithMetrics(r.Metrics))
	}
	clock := intersecttest.NewFakeClock()
	native := intersecttest.NewFakeNative(clock)

	sink := &errorSink{log: errors.LogHandler{Logger: logger}}
	prev := errors.Handler()
	errors.SetHandler(sink)
	defer errors.SetHandler(prev)

	st := &state{
		out:      out,
		reg:      registry.New(native, opts...),
		owner:    core.NewBuildOwner(),
		declared: make(map[string]Observer, len(s.Observers)),
		current:  make(map[string]Observer),
		trees:    make(map[string]core.Element),
		last:     make(map[string]binding),
		result:   &Result{},
	}
	for _, o := range s.Observers {
		st.declared[o.Name] = o
	}

	for i, step := range s.Steps {
		clock.Advance(frame)
		st.step = i
		mark := sink.len()
		if err := st.apply(step); err != nil {
			return st.result, fmt.Errorf("steps[%d]: %w", i, err)
		}
		for _, err := range sink.since(mark) {
			fmt.Fprintf(out, "[%d] error: %v\n", i, err)
		}
	}

	st.result.Errors = sink.all()
	for _, res := range st.reg.Resources() {
		st.result.Resources++
		st.result.Registrations += st.reg.Registrations(res)
	}
	fmt.Fprintf(out, "pool: %d resources, %d registrations\n", st.result.Resources, st.result.Registrations)
	return st.result, nil
}

// binding is the last native handle and target an observer was registered
// with. Deliveries to an observer that has stopped observing go through it,
// the way a host may still deliver a batch computed earlier.
type binding struct {
	handle *intersecttest.FakeHandle
	target observer.Element
}

type state struct {
	out      io.Writer
	reg      *registry.Registry
	owner    *core.BuildOwner
	declared map[string]Observer
	current  map[string]Observer
	trees    map[string]core.Element
	last     map[string]binding
	result   *Result
	step     int
}

func (st *state) apply(step Step) error {
	switch {
	case len(step.Mount) > 0:
		for _, name := range step.Mount {
			if err := st.mount(name); err != nil {
				return err
			}
		}
	case step.Update != nil:
		return st.update(*step.Update)
	case len(step.Unmount) > 0:
		for _, name := range step.Unmount {
			if err := st.unmount(name); err != nil {
				return err
			}
		}
	case len(step.Dispatch) > 0:
		return st.dispatch(step.Dispatch)
	case step.Prune:
		n := st.reg.Prune()
		fmt.Fprintf(st.out, "[%d] prune: %d disposed\n", st.step, n)
	}
	return nil
}

func (st *state) mount(name string) error {
	if _, ok := st.trees[name]; ok {
		return fmt.Errorf("observer %q is already mounted", name)
	}
	o := st.declared[name]
	st.current[name] = o
	st.trees[name] = core.UpdateRoot(nil, st.widget(o), st.owner)
	st.bind(name)
	fmt.Fprintf(st.out, "[%d] mount %s (%s)\n", st.step, name, st.phase(name))
	return nil
}

func (st *state) update(u Update) error {
	tree, ok := st.trees[u.Observer]
	if !ok {
		return fmt.Errorf("observer %q is not mounted", u.Observer)
	}
	next := u.Apply(st.current[u.Observer])
	st.current[u.Observer] = next
	st.trees[u.Observer] = core.UpdateRoot(tree, st.widget(next), st.owner)
	st.bind(u.Observer)
	fmt.Fprintf(st.out, "[%d] update %s (%s)\n", st.step, u.Observer, st.phase(u.Observer))
	return nil
}

func (st *state) unmount(name string) error {
	tree, ok := st.trees[name]
	if !ok {
		return fmt.Errorf("observer %q is not mounted", name)
	}
	tree.Unmount()
	delete(st.trees, name)
	fmt.Fprintf(st.out, "[%d] unmount %s\n", st.step, name)
	return nil
}

// dispatch groups consecutive deliveries through the same handle into one
// batch.
func (st *state) dispatch(deliveries []Delivery) error {
	var (
		batch   []observer.Entry
		current *intersecttest.FakeHandle
	)
	flush := func() {
		if current != nil && len(batch) > 0 {
			current.Emit(batch...)
		}
		batch = nil
	}
	for _, d := range deliveries {
		b, ok := st.last[d.Observer]
		if !ok {
			fmt.Fprintf(st.out, "[%d] dispatch %s: never observed, skipped\n", st.step, d.Observer)
			continue
		}
		if b.handle != current {
			flush()
			current = b.handle
		}
		batch = append(batch, d.Entry(b.target))
	}
	flush()
	return nil
}

func (st *state) widget(o Observer) intersection.Observer {
	name := o.Name
	element := o.Element
	if element == "" {
		element = name
	}
	props := o.Props()
	return intersection.Observer{
		Registry:   st.reg,
		Root:       props.Root,
		RootMargin: props.RootMargin,
		Threshold:  props.Threshold,
		Disabled:   props.Disabled,
		OnlyOnce:   props.OnlyOnce,
		OnChange: func(e observer.Entry, _ observer.Handle) {
			st.record(name, e)
		},
		Child: widgets.Box{ID: element, Label: name + "/" + element},
	}
}

func (st *state) record(name string, e observer.Entry) {
	intersecting, _ := e.Intersecting()
	st.result.Changes = append(st.result.Changes, Change{
		Step:         st.step,
		Observer:     name,
		Ratio:        e.IntersectionRatio,
		Intersecting: intersecting,
		Time:         e.Time,
	})
	fmt.Fprintf(st.out, "[%d] change %s ratio=%.2f intersecting=%t\n", st.step, name, e.IntersectionRatio, intersecting)
}

// bind remembers the registration of name, if it has one.
func (st *state) bind(name string) {
	sub := intersection.SubscriptionOf(st.trees[name])
	if sub == nil || sub.Handle() == nil {
		return
	}
	handle, ok := sub.Handle().(*intersecttest.FakeHandle)
	if !ok {
		return
	}
	st.last[name] = binding{handle: handle, target: sub.Target()}
}

func (st *state) phase(name string) intersection.Phase {
	sub := intersection.SubscriptionOf(st.trees[name])
	if sub == nil {
		return intersection.PhaseUnmounted
	}
	return sub.Phase()
}

// errorSink records reported errors and logs them.
type errorSink struct {
	log  errors.LogHandler
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) HandleError(err *errors.Error) {
	s.log.HandleError(err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSink) HandlePanic(err *errors.PanicError) {
	s.log.HandlePanic(err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

func (s *errorSink) since(mark int) []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs[mark:]...)
}

func (s *errorSink) all() []error {
	return s.since(0)
}
