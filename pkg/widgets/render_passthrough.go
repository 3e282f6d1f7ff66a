package widgets

import (
	"github.com/go-drift/intersect/pkg/layout"
)

// renderPassthrough provides the shared single-child bookkeeping of render
// objects that simply hold their child.
type renderPassthrough struct {
	layout.RenderBoxBase
	child layout.RenderObject
}

func (r *renderPassthrough) Child() layout.RenderObject {
	return r.child
}

func (r *renderPassthrough) SetChild(child layout.RenderObject) {
	layout.SetParentOnChild(r.child, nil)
	r.child = child
	layout.SetParentOnChild(r.child, r.Self())
}

func (r *renderPassthrough) VisitChildren(visitor func(layout.RenderObject)) {
	if r.child != nil {
		visitor(r.child)
	}
}
