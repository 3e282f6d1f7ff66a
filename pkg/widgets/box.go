package widgets

import (
	"github.com/go-drift/intersect/pkg/core"
	"github.com/go-drift/intersect/pkg/layout"
)

// Box is a render object widget with an optional single child.
//
// Box keeps its render object across updates as long as its ID is
// unchanged. Changing ID rebuilds the subtree with a new render object,
// which observers treat as a new target:
//
//	Box{ID: "card", Label: "card", Child: content}
type Box struct {
	// ID is the reconciliation key. Boxes with different IDs never share
	// a render object.
	ID any
	// Label is copied to the render object for diagnostics.
	Label string
	Child core.Widget
}

func (b Box) CreateElement() core.Element {
	return core.NewRenderObjectElement()
}

func (b Box) Key() any {
	return b.ID
}

func (b Box) ChildWidget() core.Widget {
	return b.Child
}

func (b Box) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	box := &RenderBox{label: b.Label}
	box.SetSelf(box)
	return box
}

func (b Box) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {
	if box, ok := renderObject.(*RenderBox); ok {
		box.label = b.Label
	}
}

// RenderBox is the render object created by Box.
type RenderBox struct {
	renderPassthrough
	label string
}

// Label returns the diagnostic label of the box.
func (r *RenderBox) Label() string {
	return r.label
}

// String implements fmt.Stringer.
func (r *RenderBox) String() string {
	if r.label == "" {
		return "RenderBox"
	}
	return "RenderBox(" + r.label + ")"
}
