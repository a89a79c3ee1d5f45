package frame

import "testing"

func TestNewRejectsSmallDims(t *testing.T) {
	if _, err := New(8, 8, 1, 1, false); err != ErrBadDimensions {
		t.Fatalf("got %v want ErrBadDimensions", err)
	}
}

func TestPlaneAtSet(t *testing.T) {
	f, err := New(16, 16, 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	f.Y.Set(3, 4, 200)
	if got := f.Y.At(3, 4); got != 200 {
		t.Fatalf("got %d want 200", got)
	}
}

func TestChromaDimensions420(t *testing.T) {
	f, err := New(16, 16, 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if f.U.W != 8 || f.U.H != 8 {
		t.Fatalf("got %dx%d want 8x8", f.U.W, f.U.H)
	}
}

func TestRefCounting(t *testing.T) {
	f, _ := New(16, 16, 1, 1, false)
	f.Ref()
	if f.RefCount() != 2 {
		t.Fatalf("got %d want 2", f.RefCount())
	}
	f.Release()
	f.Release()
	if f.RefCount() != 0 {
		t.Fatalf("got %d want 0", f.RefCount())
	}
}

func TestReleaseBelowZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on negative ref count")
		}
	}()
	f, _ := New(16, 16, 1, 1, false)
	f.Release()
	f.Release()
}

func TestEqual(t *testing.T) {
	a, _ := New(16, 16, 1, 1, false)
	b, _ := New(16, 16, 1, 1, false)
	if !Equal(a, b) {
		t.Fatal("two fresh zero frames should be equal")
	}
	b.Y.Set(0, 0, 1)
	if Equal(a, b) {
		t.Fatal("frames differing in one sample should not be equal")
	}
}

func TestFingerprintStable(t *testing.T) {
	a, _ := New(16, 16, 1, 1, false)
	a.Y.Set(5, 5, 42)
	_, _, _, h1 := a.Fingerprint()
	_, _, _, h2 := a.Fingerprint()
	if h1 != h2 {
		t.Fatal("fingerprint should be deterministic")
	}
}
