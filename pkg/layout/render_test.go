package layout

import "testing"

type testBox struct {
	RenderBoxBase
	child RenderObject
}

func newTestBox() *testBox {
	b := &testBox{}
	b.SetSelf(b)
	return b
}

func (b *testBox) Child() RenderObject { return b.child }

func (b *testBox) SetChild(child RenderObject) {
	SetParentOnChild(b.child, nil)
	b.child = child
	SetParentOnChild(child, b)
}

func TestSetChildUpdatesParentAndDepth(t *testing.T) {
	root := newTestBox()
	mid := newTestBox()
	leaf := newTestBox()

	root.SetChild(mid)
	mid.SetChild(leaf)

	if mid.Parent() != RenderObject(root) {
		t.Errorf("mid.Parent() = %v, want root", mid.Parent())
	}
	if leaf.Depth() != 2 {
		t.Errorf("leaf.Depth() = %d, want 2", leaf.Depth())
	}

	root.SetChild(nil)
	if mid.Parent() != nil {
		t.Error("detached child should have no parent")
	}
	if mid.Depth() != 0 {
		t.Errorf("detached depth = %d, want 0", mid.Depth())
	}
}

func TestSelfAndParentData(t *testing.T) {
	b := newTestBox()
	if b.Self() != RenderObject(b) {
		t.Error("Self() should return the embedding box")
	}
	b.SetParentData("slot")
	if b.ParentData() != "slot" {
		t.Errorf("ParentData() = %v, want slot", b.ParentData())
	}
}

func TestSetParentOnChildNil(t *testing.T) {
	SetParentOnChild(nil, newTestBox())
}
