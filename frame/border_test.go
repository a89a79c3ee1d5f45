package frame

import "testing"

func TestExtendIdempotent(t *testing.T) {
	f, err := New(32, 32, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < f.Y.H; y++ {
		for x := 0; x < f.Y.W; x++ {
			f.Y.Set(x, y, byte((x*7+y*3)%256))
		}
	}
	f.Extend()
	first := append([]byte(nil), f.Y.Data...)
	f.Extend()
	second := f.Y.Data
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("extend not idempotent at byte %d: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestExtendReadableBeyondBorder(t *testing.T) {
	f, err := New(32, 32, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < f.Y.H; y++ {
		for x := 0; x < f.Y.W; x++ {
			f.Y.Set(x, y, 100)
		}
	}
	f.Extend()
	// Reads at (-Border,-Border) must land inside the replicated halo and
	// not panic, returning a value derived from the constant image (100).
	got := f.Y.At(-Border, -Border)
	if got != 100 {
		t.Fatalf("got %d want 100 (constant image, halo should match)", got)
	}
	got = f.Y.At(f.Y.W+Border-1, f.Y.H+Border-1)
	if got != 100 {
		t.Fatalf("got %d want 100", got)
	}
}

func TestExtendConstantImageUniformHalo(t *testing.T) {
	f, _ := New(16, 16, 1, 1, true)
	for y := 0; y < f.Y.H; y++ {
		for x := 0; x < f.Y.W; x++ {
			f.Y.Set(x, y, 16)
		}
	}
	f.Extend()
	for y := -Border; y < f.Y.H+Border; y++ {
		for x := -Border; x < f.Y.W+Border; x++ {
			if got := f.Y.At(x, y); got != 16 {
				t.Fatalf("at (%d,%d) got %d want 16", x, y, got)
			}
		}
	}
}
