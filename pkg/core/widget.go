package core

import (
	"github.com/go-drift/intersect/pkg/layout"
)

// Widget is an immutable description of part of the UI.
type Widget interface {
	CreateElement() Element
	Key() any
}

// Element is the instantiation of a Widget at a location in the tree.
type Element interface {
	Widget() Widget
	Mount(parent Element, slot any)
	Update(newWidget Widget)
	Unmount()
	RebuildIfNeeded()
	MarkNeedsBuild()
	Depth() int
	VisitChildren(visitor func(Element) bool)
}

// BuildContext is the handle a widget receives while building.
type BuildContext interface {
	Widget() Widget
	FindAncestor(predicate func(Element) bool) Element
}

// StatelessWidget builds its subtree from its own configuration.
type StatelessWidget interface {
	Widget
	Build(ctx BuildContext) Widget
}

// StatefulWidget owns a State that survives rebuilds.
type StatefulWidget interface {
	Widget
	CreateState() State
}

// State is the mutable half of a StatefulWidget.
type State interface {
	InitState()
	Build(ctx BuildContext) Widget
	DidUpdateWidget(oldWidget StatefulWidget)
	Dispose()
}

// MountAware is implemented by states that run code once their first
// build has been mounted.
type MountAware interface {
	DidMount()
}

// CommitAware is implemented by states that run code after every rebuild
// following mount. oldWidget is the widget before the update that caused
// the rebuild, or the current widget for a rebuild without update.
type CommitAware interface {
	DidCommit(oldWidget StatefulWidget)
}

// RenderObjectWidget creates a render object directly.
type RenderObjectWidget interface {
	Widget
	CreateRenderObject(ctx BuildContext) layout.RenderObject
	UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject)
}

// StatelessBase provides default CreateElement and Key implementations for
// stateless widgets.
type StatelessBase struct{}

// CreateElement returns a new StatelessElement.
func (StatelessBase) CreateElement() Element { return NewStatelessElement() }

// Key returns nil (no key).
func (StatelessBase) Key() any { return nil }

// StatefulBase provides default CreateElement and Key implementations for
// stateful widgets.
type StatefulBase struct{}

// CreateElement returns a new StatefulElement.
func (StatefulBase) CreateElement() Element { return NewStatefulElement() }

// Key returns nil (no key).
func (StatefulBase) Key() any { return nil }

// RenderObjectBase provides default CreateElement and Key implementations for
// render object widgets.
type RenderObjectBase struct{}

// CreateElement returns a new RenderObjectElement.
func (RenderObjectBase) CreateElement() Element { return NewRenderObjectElement() }

// Key returns nil (no key).
func (RenderObjectBase) Key() any { return nil }

// RenderObjectOf returns the render object hosted by e or by its first
// render object descendant, or nil if e produces none.
func RenderObjectOf(e Element) layout.RenderObject {
	if e == nil {
		return nil
	}
	if ro, ok := e.(interface{ RenderObject() layout.RenderObject }); ok {
		return ro.RenderObject()
	}
	return nil
}
