package registry

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/go-drift/intersect/pkg/errors"
	"github.com/go-drift/intersect/pkg/observer"
)

// Subscriber receives the change entries of one registered element.
type Subscriber interface {
	HandleChange(entry observer.Entry, handle observer.Handle) error
}

// Resource is one pooled native handle and the options it was created with.
type Resource struct {
	id      string
	handle  observer.Handle
	options observer.Options
	key     observer.Key
	created time.Time
	refs    int
}

// ID returns a unique diagnostic identifier.
func (r *Resource) ID() string { return r.id }

// Handle returns the native handle.
func (r *Resource) Handle() observer.Handle { return r.handle }

// Options returns the normalized options the handle was created with.
func (r *Resource) Options() observer.Options { return r.options }

// Created returns when the resource was created.
func (r *Resource) Created() time.Time { return r.created }

type registration struct {
	target   observer.Element
	resource *Resource
}

// Config configures a Registry.
type Config struct {
	// Logger receives debug records. Default: the package Logger().
	Logger *zap.Logger
	// Metrics registers pool collectors. Default: nil (no metrics).
	Metrics prometheus.Registerer
	// Namespace prefixes metric names (default: "intersect").
	Namespace string
}

// Option configures a Registry.
type Option func(*Config)

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics registers the registry collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Metrics = reg
	}
}

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// Registry pools native observation resources and routes their change
// batches to subscribers.
//
// The registry lock is never held while a subscriber runs, so a subscriber
// may call Observe or Unobserve from HandleChange.
type Registry struct {
	factory observer.Factory
	logger  *zap.Logger
	metrics *metrics

	mu        sync.Mutex
	resources map[observer.Key]*Resource
	order     []*Resource
	byHandle  map[observer.Handle]*Resource
	entries   map[registration]Subscriber
}

// New creates a registry that creates native resources with factory.
func New(factory observer.Factory, opts ...Option) *Registry {
	cfg := Config{Namespace: "intersect"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = Logger()
	}
	return &Registry{
		factory:   factory,
		logger:    cfg.Logger,
		metrics:   newMetrics(cfg.Metrics, cfg.Namespace),
		resources: make(map[observer.Key]*Resource),
		byHandle:  make(map[observer.Handle]*Resource),
		entries:   make(map[registration]Subscriber),
	}
}

// Observe registers target for sub under a resource equivalent to opts,
// creating the resource on first use, and starts native observation of
// target. Registering the same (target, resource) pair again replaces the
// previous subscriber.
//
// A nil or non-comparable target fails with *errors.TargetResolutionError and
// malformed options with *errors.ConfigurationError; both leave the pool
// unchanged.
func (r *Registry) Observe(target observer.Element, sub Subscriber, opts observer.Options) (*Resource, error) {
	if target == nil {
		return nil, &errors.TargetResolutionError{Reason: "target element is nil"}
	}
	if !observer.Comparable(target) {
		return nil, &errors.TargetResolutionError{
			Widget: fmt.Sprintf("%T", target),
			Reason: "target element is not comparable",
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	key := opts.Key()
	res, ok := r.resources[key]
	if !ok {
		normalized := opts.Normalized()
		res = &Resource{
			id:      uuid.NewString(),
			options: normalized,
			key:     key,
			created: time.Now(),
		}
		res.handle = r.factory.Create(r.Dispatch, normalized)
		r.resources[key] = res
		r.order = append(r.order, res)
		r.byHandle[res.handle] = res
		r.metrics.created()
		r.logger.Debug("pooled resource created",
			zap.String("resource", res.id),
			zap.String("rootMargin", normalized.RootMargin),
			zap.Float64s("threshold", normalized.Threshold),
		)
	}
	reg := registration{target: target, resource: res}
	if _, exists := r.entries[reg]; !exists {
		res.refs++
	}
	r.entries[reg] = sub
	r.metrics.setSizes(len(r.resources), len(r.entries))
	r.mu.Unlock()

	res.handle.Observe(target)
	return res, nil
}

// Unobserve removes the registration of target under res and stops native
// observation of target. The resource stays pooled even when it has no
// registrations left.
func (r *Registry) Unobserve(target observer.Element, res *Resource) {
	if res == nil || !observer.Comparable(target) {
		return
	}

	r.mu.Lock()
	reg := registration{target: target, resource: res}
	if _, ok := r.entries[reg]; ok {
		delete(r.entries, reg)
		res.refs--
	}
	pooled := r.byHandle[res.handle] == res
	r.metrics.setSizes(len(r.resources), len(r.entries))
	r.mu.Unlock()

	if pooled {
		res.handle.Unobserve(target)
	}
}

// FindSubscriber returns the subscriber registered for target under res, or
// nil if there is none.
func (r *Registry) FindSubscriber(target observer.Element, res *Resource) Subscriber {
	if res == nil || !observer.Comparable(target) {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[registration{target: target, resource: res}]
}

// Lookup returns the pooled resource owning handle, or nil.
func (r *Registry) Lookup(handle observer.Handle) *Resource {
	if handle == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byHandle[handle]
}

// Count returns the number of pooled resources.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resources)
}

// Registrations returns the number of elements registered under res.
func (r *Registry) Registrations(res *Resource) int {
	if res == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byHandle[res.handle] != res {
		return 0
	}
	return res.refs
}

// Resources returns the pooled resources in creation order.
func (r *Registry) Resources() []*Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Clear disconnects every pooled resource and forgets every registration.
func (r *Registry) Clear() {
	r.mu.Lock()
	disposed := r.order
	r.resources = make(map[observer.Key]*Resource)
	r.order = nil
	r.byHandle = make(map[observer.Handle]*Resource)
	r.entries = make(map[registration]Subscriber)
	r.metrics.setSizes(0, 0)
	r.mu.Unlock()

	for _, res := range disposed {
		res.handle.Disconnect()
	}
	if len(disposed) > 0 {
		r.logger.Debug("registry cleared", zap.Int("disposed", len(disposed)))
	}
}

// Prune disconnects and forgets the resources that have no registrations,
// returning how many were disposed.
func (r *Registry) Prune() int {
	r.mu.Lock()
	var disposed []*Resource
	kept := r.order[:0]
	for _, res := range r.order {
		if res.refs > 0 {
			kept = append(kept, res)
			continue
		}
		disposed = append(disposed, res)
		delete(r.resources, res.key)
		delete(r.byHandle, res.handle)
	}
	clear(r.order[len(kept):])
	r.order = kept
	r.metrics.setSizes(len(r.resources), len(r.entries))
	r.mu.Unlock()

	for _, res := range disposed {
		res.handle.Disconnect()
		r.logger.Debug("pooled resource disposed", zap.String("resource", res.id))
	}
	return len(disposed)
}

// Dispatch routes a batch reported by handle to the registered subscribers,
// in batch order. It is the observer.Callback given to the factory.
//
// Entries without a subscriber, or whose target is nil or not comparable,
// are dropped. A subscriber failure is reported
// to the global error handler and does not stop the batch.
func (r *Registry) Dispatch(entries []observer.Entry, handle observer.Handle) {
	batch := slices.Clone(entries)
	res := r.Lookup(handle)
	if res == nil {
		r.metrics.dropped("unknown_handle", len(batch))
		r.logger.Debug("batch for unknown handle dropped", zap.Int("entries", len(batch)))
		return
	}
	for _, entry := range batch {
		if !observer.Comparable(entry.Target) {
			r.metrics.dropped("invalid_target", 1)
			r.logger.Debug("entry with unusable target dropped",
				zap.String("target", fmt.Sprintf("%T", entry.Target)))
			continue
		}
		sub := r.FindSubscriber(entry.Target, res)
		if sub == nil {
			r.metrics.dropped("no_subscriber", 1)
			continue
		}
		r.deliver(sub, entry, handle)
	}
}

func (r *Registry) deliver(sub Subscriber, entry observer.Entry, handle observer.Handle) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.failed(errors.KindPanic.String())
			errors.ReportPanic(&errors.PanicError{
				Op:         "registry.Dispatch",
				Value:      rec,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			})
		}
	}()
	if err := sub.HandleChange(entry, handle); err != nil {
		kind := errors.KindOf(err)
		r.metrics.failed(kind.String())
		errors.Report(&errors.Error{
			Op:   "registry.Dispatch",
			Kind: kind,
			Err:  fmt.Errorf("deliver to %T: %w", sub, err),
		})
		return
	}
	r.metrics.delivered()
}

var (
	defaultRegistry *Registry
	defaultMu       sync.RWMutex
)

// Default returns the registry installed with SetDefault, or nil.
func Default() *Registry {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultRegistry
}

// SetDefault installs the registry used by observers that do not name one.
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = r
}
