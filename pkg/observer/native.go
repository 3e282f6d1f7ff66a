package observer

import "reflect"

// Element is an opaque handle to a rendered node. Values must be comparable;
// pointer types are the norm.
type Element any

// Comparable reports whether el can identify a registration. Nil and values
// of non-comparable types such as slices, maps and funcs cannot.
func Comparable(el Element) bool {
	return el != nil && reflect.TypeOf(el).Comparable()
}

// Callback receives a batch of change entries from a Handle.
type Callback func(entries []Entry, handle Handle)

// Handle is one native observation resource.
type Handle interface {
	// Observe starts reporting changes for el.
	Observe(el Element)
	// Unobserve stops reporting changes for el.
	Unobserve(el Element)
	// Disconnect stops reporting for every element and releases the resource.
	Disconnect()
}

// Factory creates native observation resources.
type Factory interface {
	Create(callback Callback, opts Options) Handle
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(callback Callback, opts Options) Handle

// Create calls f(callback, opts).
func (f FactoryFunc) Create(callback Callback, opts Options) Handle {
	return f(callback, opts)
}
