// Package testing provides a widget tester and a fake native intersection
// primitive.
//
// # Quick Start
//
// Create a tester, pump a widget tree containing observers, then report
// changes through the fake native handles:
//
//	func TestVisibility(t *testing.T) {
//	    tester := intersecttest.NewWidgetTesterWithT(t)
//	    var seen []observer.Entry
//	    tester.PumpWidget(intersection.Observer{
//	        OnChange: func(e observer.Entry, _ observer.Handle) { seen = append(seen, e) },
//	        Child:    widgets.Box{Label: "hero"},
//	    })
//
//	    handle := tester.Native().Handles()[0]
//	    target := tester.RootRenderObject()
//	    handle.Emit(intersecttest.Entry(target, 1))
//	}
//
// The tester installs its registry as registry.Default and captures every
// error reported through pkg/errors until Cleanup.
//
// # Asynchronous Delivery
//
// Real hosts deliver batches between frames. EmitLater queues a batch that
// the next Pump delivers before rebuilding.
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import intersecttest "github.com/go-drift/intersect/pkg/testing"
package testing
