// Package intersection binds widgets to a pooled native intersection
// primitive.
//
// The Observer widget wraps exactly one child and reports changes in the
// visibility of the child's render object through OnChange:
//
//	intersection.Observer{
//	    Threshold: observer.Thresholds(0, 0.5, 1),
//	    OnChange: func(e observer.Entry, _ observer.Handle) {
//	        fmt.Println(e.IntersectionRatio)
//	    },
//	    Child: widgets.Box{Label: "hero"},
//	}
//
// Observers with equivalent Root, RootMargin and Threshold share one native
// resource held by a registry.Registry. The registry named by the widget is
// used when set, otherwise registry.Default.
//
// Subscription is the framework-agnostic state machine behind the widget.
// Hosts other than drift drive it directly with Mount, WillUpdate,
// DidUpdate and Unmount.
package intersection
