package testing

import (
	"testing"
	"time"

	"github.com/go-drift/intersect/pkg/observer"
)

func TestFakeClock_Advance(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	clk.Advance(100 * time.Millisecond)
	elapsed := clk.Now().Sub(start)

	if elapsed != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", elapsed)
	}
}

func TestFakeClock_Set(t *testing.T) {
	clk := NewFakeClock()
	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	clk.Set(target)
	if !clk.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, clk.Now())
	}
}

func TestWidgetTester_ClockStampsEntries(t *testing.T) {
	tester := NewWidgetTesterWithT(t)
	clk := tester.Clock()
	if clk == nil {
		t.Fatal("expected non-nil clock")
	}
	clk.Advance(500 * time.Millisecond)

	var got time.Time
	handle := tester.Native().Create(func(entries []observer.Entry, _ observer.Handle) {
		got = entries[0].Time
	}, observer.Options{}).(*FakeHandle)
	handle.Emit(Entry("a", 1))

	if !got.Equal(clk.Now()) {
		t.Errorf("entry time = %v, want %v", got, clk.Now())
	}
}
