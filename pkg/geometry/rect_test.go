package geometry

import "testing"

func TestRectFromLTWH(t *testing.T) {
	r := RectFromLTWH(10, 20, 30, 40)
	if r.Right != 40 || r.Bottom != 60 {
		t.Errorf("RectFromLTWH = %+v, want right=40 bottom=60", r)
	}
	if r.Width() != 30 || r.Height() != 40 {
		t.Errorf("size = %vx%v, want 30x40", r.Width(), r.Height())
	}
	if r.Area() != 1200 {
		t.Errorf("Area() = %v, want 1200", r.Area())
	}
}

func TestRectIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		want bool
	}{
		{"zero", Rect{}, true},
		{"flat", RectFromLTWH(0, 0, 10, 0), true},
		{"inverted", Rect{Left: 10, Right: 0, Top: 0, Bottom: 10}, true},
		{"box", RectFromLTWH(0, 0, 1, 1), false},
	}
	for _, tt := range tests {
		if got := tt.rect.IsEmpty(); got != tt.want {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.want)
		}
		if tt.want && tt.rect.Area() != 0 {
			t.Errorf("%s: Area() = %v, want 0", tt.name, tt.rect.Area())
		}
	}
}
