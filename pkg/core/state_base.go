package core

import "sync"

// StateBase implements the State hooks as no-ops and keeps a stack of
// cleanup functions. Embed it and override the hooks a state needs:
//
//	type tickerState struct {
//	    core.StateBase
//	    stop func()
//	}
//
//	func (s *tickerState) InitState() {
//	    s.stop = start()
//	    s.OnDispose(s.stop)
//	}
//
// Observer states register their unsubscribe here so that unmounting the
// element always releases the native registration.
type StateBase struct {
	element *StatefulElement

	mu       sync.Mutex
	cleanups []func()
	disposed bool
}

// setElement is called by StatefulElement before InitState.
func (s *StateBase) setElement(element *StatefulElement) {
	s.element = element
}

// Element returns the element this state is mounted in, or nil before mount.
func (s *StateBase) Element() *StatefulElement {
	return s.element
}

// SetState runs fn and marks the element dirty. After disposal it does
// nothing, fn included. Call it from the build goroutine only.
func (s *StateBase) SetState(fn func()) {
	if s.IsDisposed() {
		return
	}
	if fn != nil {
		fn()
	}
	if s.element != nil {
		s.element.MarkNeedsBuild()
	}
}

// OnDispose pushes cleanup onto the dispose stack and returns a function that
// removes it again. Registering on a disposed state runs cleanup at once.
func (s *StateBase) OnDispose(cleanup func()) (cancel func()) {
	if cleanup == nil {
		return func() {}
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		cleanup()
		return func() {}
	}
	slot := len(s.cleanups)
	s.cleanups = append(s.cleanups, cleanup)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if slot < len(s.cleanups) {
			s.cleanups[slot] = nil
		}
		s.mu.Unlock()
	}
}

// RunDisposers pops and runs every registered cleanup, most recent first.
// Only the first call has any effect. The lock is not held while cleanups
// run.
func (s *StateBase) RunDisposers() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	stack := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top != nil {
			top()
		}
	}
}

// Dispose runs the registered cleanups. States overriding it must still call
// RunDisposers.
func (s *StateBase) Dispose() { s.RunDisposers() }

func (s *StateBase) InitState() {}

func (s *StateBase) Build(ctx BuildContext) Widget { return nil }

func (s *StateBase) DidUpdateWidget(oldWidget StatefulWidget) {}

// IsDisposed reports whether RunDisposers has run.
func (s *StateBase) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
