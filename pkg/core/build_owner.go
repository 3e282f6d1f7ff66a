package core

import (
	"cmp"
	"slices"
	"sync"
)

// BuildOwner queues elements marked dirty by SetState until the next frame.
// Rebuilding a StatefulElement commits it, which is where observer states
// reconcile their registrations, so FlushBuild is the point at which
// subscriptions follow a state change.
type BuildOwner struct {
	mu      sync.Mutex
	pending []Element
	queued  map[Element]struct{}

	// OnNeedsFrame, if set, is called when the queue goes from holding no
	// element to holding one.
	OnNeedsFrame func()
}

// NewBuildOwner returns an empty BuildOwner.
func NewBuildOwner() *BuildOwner {
	return &BuildOwner{queued: make(map[Element]struct{})}
}

// ScheduleBuild queues element for the next FlushBuild. Elements already
// queued are ignored.
func (b *BuildOwner) ScheduleBuild(element Element) {
	b.mu.Lock()
	if _, ok := b.queued[element]; ok {
		b.mu.Unlock()
		return
	}
	if b.queued == nil {
		b.queued = make(map[Element]struct{})
	}
	b.queued[element] = struct{}{}
	b.pending = append(b.pending, element)
	first := len(b.pending) == 1
	b.mu.Unlock()

	if first && b.OnNeedsFrame != nil {
		b.OnNeedsFrame()
	}
}

// NeedsWork reports whether any element is queued.
func (b *BuildOwner) NeedsWork() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending) > 0
}

// FlushBuild rebuilds queued elements, shallowest first, until the queue
// stays empty. Elements unmounted since they were queued are skipped.
func (b *BuildOwner) FlushBuild() {
	for {
		batch := b.take()
		if len(batch) == 0 {
			return
		}
		for _, element := range batch {
			if m, ok := element.(interface{ isMounted() bool }); ok && !m.isMounted() {
				continue
			}
			element.RebuildIfNeeded()
		}
	}
}

func (b *BuildOwner) take() []Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	batch := b.pending
	b.pending = nil
	clear(b.queued)
	slices.SortStableFunc(batch, func(x, y Element) int {
		return cmp.Compare(x.Depth(), y.Depth())
	})
	return batch
}
