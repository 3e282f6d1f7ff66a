// Package widgets provides the concrete widgets observers wrap.
//
// Widgets are built with struct literals:
//
//	intersection.Observer{
//	    OnChange: onVisible,
//	    Child: widgets.Box{Label: "hero", Child: content},
//	}
//
// Box produces a render object and is therefore a valid observation target.
// Builder produces no render object of its own; it forwards the one built by
// its child, or none if the builder returns nil.
package widgets
