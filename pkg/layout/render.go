// Package layout defines the render object contract of the widget tree.
//
// Render objects are the concrete nodes produced by render object widgets.
// Their identity is what observers watch: a rebuilt subtree that produces a
// new render object is a new observation target even when its widget
// configuration is unchanged.
package layout

// RenderObject is a concrete node of the render tree.
type RenderObject interface {
	// Parent returns the parent render object, or nil for a root.
	Parent() RenderObject
	// SetParent is called by the framework when the node is attached or detached.
	SetParent(parent RenderObject)
	// ParentData returns the parent-assigned data for this node.
	ParentData() any
	// SetParentData assigns parent-controlled data to this node.
	SetParentData(data any)
}

// SingleChildRenderObject is implemented by render objects with at most one child.
type SingleChildRenderObject interface {
	RenderObject
	Child() RenderObject
	SetChild(child RenderObject)
}

// RenderBoxBase provides base behavior for render objects. Embed it and
// call SetSelf with the embedding value.
type RenderBoxBase struct {
	self       RenderObject
	parent     RenderObject
	parentData any
	depth      int
}

// SetSelf records the embedding render object.
func (r *RenderBoxBase) SetSelf(self RenderObject) {
	r.self = self
}

// Self returns the embedding render object.
func (r *RenderBoxBase) Self() RenderObject {
	return r.self
}

// Parent returns the parent render object.
func (r *RenderBoxBase) Parent() RenderObject {
	return r.parent
}

// SetParent sets the parent and recomputes the depth.
func (r *RenderBoxBase) SetParent(parent RenderObject) {
	r.parent = parent
	r.depth = 0
	if d, ok := parent.(interface{ Depth() int }); ok {
		r.depth = d.Depth() + 1
	}
}

// Depth returns the distance from the root of the render tree.
func (r *RenderBoxBase) Depth() int {
	return r.depth
}

// ParentData returns the parent-assigned data for this render object.
func (r *RenderBoxBase) ParentData() any {
	return r.parentData
}

// SetParentData assigns parent-controlled data to this render object.
func (r *RenderBoxBase) SetParentData(data any) {
	r.parentData = data
}

// SetParentOnChild updates child's parent pointer, clearing it when parent is nil.
func SetParentOnChild(child, parent RenderObject) {
	if child == nil {
		return
	}
	if parent == nil && child.Parent() == nil {
		return
	}
	child.SetParent(parent)
}
