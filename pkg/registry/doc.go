// Package registry pools native intersection resources.
//
// A Registry keeps one observer.Handle per distinct set of equivalent
// observer.Options and remembers, for every (element, resource) pair, the
// Subscriber that owns it. When a handle reports a batch of entries the
// registry routes each entry to its subscriber, in batch order, and silently
// drops entries whose subscriber has gone away.
//
// Resources are never disposed implicitly. Clear disconnects everything and
// is meant for test isolation; Prune disconnects only resources that no
// longer have registrations.
package registry
