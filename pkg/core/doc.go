// Package core provides the widget and element framework interfaces and lifecycle.
//
// Widgets are immutable descriptions of part of the UI. Elements instantiate
// widgets at a location in the tree and carry their identity across
// rebuilds. Render object widgets produce layout.RenderObject values, the
// concrete nodes that observers watch.
//
// # Stateful Widgets
//
// For widgets that need mutable state, embed StateBase in your state struct:
//
//	type myState struct {
//	    core.StateBase
//	}
//
//	func (s *myState) Build(ctx core.BuildContext) core.Widget {
//	    return s.Element().Widget().(MyWidget).Child
//	}
//
// # Lifecycle
//
// A StatefulElement drives its State through:
//
//	InitState -> Build -> DidMount            (mount)
//	DidUpdateWidget(old) -> Build -> DidCommit(old)  (update)
//	Dispose                                   (unmount)
//
// DidUpdateWidget runs before the new widget is built, DidCommit after the
// subtree has been reconciled, so the render objects reachable from the
// element are the committed ones. DidMount and DidCommit are optional: a
// State opts in by implementing MountAware or CommitAware.
package core
