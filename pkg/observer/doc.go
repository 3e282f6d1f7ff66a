// Package observer defines the contract of the native intersection primitive
// and the option and entry values exchanged with it.
//
// A native primitive is any Factory. Each Handle it creates multiplexes many
// observed elements under one set of Options and reports changes by invoking
// the Callback it was created with, one batch of entries at a time:
//
//	handle := factory.Create(func(entries []observer.Entry, h observer.Handle) {
//	    for _, e := range entries {
//	        fmt.Println(e.Target, e.IntersectionRatio)
//	    }
//	}, observer.Options{RootMargin: "10px", Threshold: []float64{0, 1}})
//	handle.Observe(node)
//
// Elements are opaque, comparable handles to rendered nodes; in the widget
// binding they are layout.RenderObject values.
package observer
