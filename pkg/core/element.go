package core

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-drift/intersect/pkg/errors"
	"github.com/go-drift/intersect/pkg/layout"
)

type elementBase struct {
	widget       Widget
	parent       Element
	depth        int
	slot         any
	buildOwner   *BuildOwner
	dirty        bool
	self         Element
	mounted      bool
	renderParent *RenderObjectElement // nearest ancestor that owns a render object
}

func (e *elementBase) Widget() Widget {
	return e.widget
}

func (e *elementBase) Depth() int {
	return e.depth
}

func (e *elementBase) MarkNeedsBuild() {
	if e.dirty {
		return
	}
	e.dirty = true
	if e.buildOwner != nil && e.self != nil {
		e.buildOwner.ScheduleBuild(e.self)
	}
}

func (e *elementBase) FindAncestor(predicate func(Element) bool) Element {
	current := e.parent
	for current != nil {
		if predicate(current) {
			return current
		}
		base, ok := current.(interface{ parentElement() Element })
		if !ok {
			break
		}
		current = base.parentElement()
	}
	return nil
}

func (e *elementBase) parentElement() Element {
	return e.parent
}

func (e *elementBase) setWidget(widget Widget) {
	e.widget = widget
}

func (e *elementBase) setSelf(self Element) {
	e.self = self
}

func (e *elementBase) setBuildOwner(owner *BuildOwner) {
	e.buildOwner = owner
}

func (e *elementBase) isMounted() bool {
	return e.mounted
}

func (e *elementBase) mount(parent Element, slot any) {
	e.parent = parent
	e.slot = slot
	e.depth = 0
	if parent != nil {
		e.depth = parent.Depth() + 1
	}
	e.renderParent = e.findRenderParent()
	e.mounted = true
}

// findRenderParent walks up the element tree to find the nearest RenderObjectElement.
func (e *elementBase) findRenderParent() *RenderObjectElement {
	found := e.FindAncestor(func(el Element) bool {
		_, ok := el.(*RenderObjectElement)
		return ok
	})
	if found == nil {
		return nil
	}
	return found.(*RenderObjectElement)
}

// safeBuild executes a build function with panic recovery. A panicking build
// is reported and renders nothing.
func (e *elementBase) safeBuild(buildFn func() Widget) (built Widget) {
	defer func() {
		if r := recover(); r != nil {
			errors.ReportPanic(&errors.PanicError{
				Op:         fmt.Sprintf("%s.Build", reflect.TypeOf(e.widget)),
				Value:      r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			})
			built = nil
		}
	}()
	return buildFn()
}

// StatelessElement hosts a StatelessWidget.
type StatelessElement struct {
	elementBase
	child Element
}

// NewStatelessElement creates an unmounted StatelessElement.
func NewStatelessElement() *StatelessElement {
	element := &StatelessElement{}
	element.setSelf(element)
	return element
}

func (e *StatelessElement) Mount(parent Element, slot any) {
	e.mount(parent, slot)
	e.dirty = true
	e.RebuildIfNeeded()
}

func (e *StatelessElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.MarkNeedsBuild()
}

func (e *StatelessElement) Unmount() {
	e.mounted = false
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}
}

func (e *StatelessElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false
	widget := e.widget.(StatelessWidget)
	built := e.safeBuild(func() Widget {
		return widget.Build(e)
	})
	e.child = updateChild(e.child, built, e, e.buildOwner)
}

func (e *StatelessElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

// RenderObject returns the render object from the first render-object child.
func (e *StatelessElement) RenderObject() layout.RenderObject {
	return RenderObjectOf(e.child)
}

// StatefulElement hosts a StatefulWidget and its State.
type StatefulElement struct {
	elementBase
	child     Element
	state     State
	committed bool
	oldWidget StatefulWidget
}

// NewStatefulElement creates an unmounted StatefulElement.
func NewStatefulElement() *StatefulElement {
	element := &StatefulElement{}
	element.setSelf(element)
	return element
}

// State returns the element's State, or nil before mount.
func (e *StatefulElement) State() State {
	return e.state
}

func (e *StatefulElement) Mount(parent Element, slot any) {
	e.mount(parent, slot)
	widget := e.widget.(StatefulWidget)
	e.state = widget.CreateState()
	if setter, ok := e.state.(interface{ setElement(*StatefulElement) }); ok {
		setter.setElement(e)
	}
	e.state.InitState()
	e.dirty = true
	e.RebuildIfNeeded()
	e.committed = true
	if aware, ok := e.state.(MountAware); ok {
		aware.DidMount()
	}
}

func (e *StatefulElement) Update(newWidget Widget) {
	oldWidget := e.widget.(StatefulWidget)
	e.widget = newWidget
	if e.oldWidget == nil {
		e.oldWidget = oldWidget
	}
	e.state.DidUpdateWidget(oldWidget)
	e.MarkNeedsBuild()
}

func (e *StatefulElement) Unmount() {
	e.mounted = false
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}
	if e.state != nil {
		e.state.Dispose()
	}
}

func (e *StatefulElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false
	built := e.safeBuild(func() Widget {
		return e.state.Build(e)
	})
	e.child = updateChild(e.child, built, e, e.buildOwner)

	if !e.committed {
		return
	}
	oldWidget := e.oldWidget
	e.oldWidget = nil
	if oldWidget == nil {
		oldWidget = e.widget.(StatefulWidget)
	}
	if aware, ok := e.state.(CommitAware); ok {
		aware.DidCommit(oldWidget)
	}
}

func (e *StatefulElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

// RenderObject returns the render object from the first render-object child.
func (e *StatefulElement) RenderObject() layout.RenderObject {
	return RenderObjectOf(e.child)
}

// RenderObjectElement hosts a RenderObject and at most one child.
type RenderObjectElement struct {
	elementBase
	renderObject layout.RenderObject
	child        Element
}

// NewRenderObjectElement creates an unmounted RenderObjectElement.
func NewRenderObjectElement() *RenderObjectElement {
	element := &RenderObjectElement{}
	element.setSelf(element)
	return element
}

func (e *RenderObjectElement) Mount(parent Element, slot any) {
	e.mount(parent, slot)

	widget := e.widget.(RenderObjectWidget)
	e.renderObject = widget.CreateRenderObject(e)

	// Attach to render tree before building children
	if e.renderParent != nil {
		e.renderParent.insertRenderObjectChild(e.renderObject)
	}

	e.dirty = true
	e.RebuildIfNeeded()
}

func (e *RenderObjectElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.MarkNeedsBuild()
}

func (e *RenderObjectElement) Unmount() {
	e.mounted = false

	// Children detach their own render objects first
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}

	if e.renderParent != nil {
		e.renderParent.removeRenderObjectChild(e.renderObject)
		e.renderParent = nil
	}
}

func (e *RenderObjectElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false

	widget := e.widget.(RenderObjectWidget)
	widget.UpdateRenderObject(e, e.renderObject)

	if typed, ok := e.widget.(interface{ ChildWidget() Widget }); ok {
		e.child = updateChild(e.child, typed.ChildWidget(), e, e.buildOwner)
	}
}

func (e *RenderObjectElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

// RenderObject exposes the backing render object for the element.
func (e *RenderObjectElement) RenderObject() layout.RenderObject {
	return e.renderObject
}

func (e *RenderObjectElement) insertRenderObjectChild(child layout.RenderObject) {
	if child == nil {
		return
	}
	if single, ok := e.renderObject.(layout.SingleChildRenderObject); ok {
		single.SetChild(child)
		return
	}
	child.SetParent(e.renderObject)
}

func (e *RenderObjectElement) removeRenderObjectChild(child layout.RenderObject) {
	if child == nil {
		return
	}
	if single, ok := e.renderObject.(layout.SingleChildRenderObject); ok {
		if single.Child() == child {
			single.SetChild(nil)
		}
		return
	}
	child.SetParent(nil)
}

func updateChild(existing Element, widget Widget, parent Element, owner *BuildOwner) Element {
	if widget == nil {
		if existing != nil {
			existing.Unmount()
		}
		return nil
	}
	if existing != nil && canUpdateWidget(existing.Widget(), widget) {
		existing.Update(widget)
		existing.RebuildIfNeeded()
		return existing
	}
	if existing != nil {
		existing.Unmount()
	}
	element := inflateWidget(widget, owner)
	element.Mount(parent, nil)
	return element
}

func canUpdateWidget(existing Widget, next Widget) bool {
	if existing == nil || next == nil {
		return false
	}
	if reflect.TypeOf(existing) != reflect.TypeOf(next) {
		return false
	}
	return reflect.DeepEqual(existing.Key(), next.Key())
}

func inflateWidget(widget Widget, owner *BuildOwner) Element {
	element := widget.CreateElement()
	if setter, ok := element.(interface{ setWidget(Widget) }); ok {
		setter.setWidget(widget)
	}
	if setter, ok := element.(interface{ setBuildOwner(*BuildOwner) }); ok {
		setter.setBuildOwner(owner)
	}
	if setter, ok := element.(interface{ setSelf(Element) }); ok {
		setter.setSelf(element)
	}
	return element
}

// MountRoot inflates widget and mounts it as the root of a tree.
func MountRoot(widget Widget, owner *BuildOwner) Element {
	return updateChild(nil, widget, nil, owner)
}

// UpdateRoot reconciles the root of a tree with widget, updating root in
// place when the widget types and keys match and replacing it otherwise.
// Pending rebuilds are flushed before it returns.
func UpdateRoot(root Element, widget Widget, owner *BuildOwner) Element {
	root = updateChild(root, widget, nil, owner)
	if owner != nil {
		owner.FlushBuild()
	}
	return root
}
