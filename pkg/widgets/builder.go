package widgets

import (
	"github.com/go-drift/intersect/pkg/core"
)

// Builder delegates its subtree to a closure.
//
//	Builder{Builder: func(ctx core.BuildContext) core.Widget {
//	    return Box{Label: "lazy"}
//	}}
type Builder struct {
	core.StatelessBase
	Builder func(ctx core.BuildContext) core.Widget
}

func (b Builder) Build(ctx core.BuildContext) core.Widget {
	if b.Builder == nil {
		return nil
	}
	return b.Builder(ctx)
}
