package bitstream

import "testing"

func TestZBRLEScenario(t *testing.T) {
	bits := []int{0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0, 1}

	buf := make([]byte, 32)
	w := NewWriter(buf)
	zw := NewZBRLEWriter(w)
	for _, b := range bits {
		if err := zw.PutBit(b); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(buf)
	zr := NewZBRLEReader(r)
	for i, want := range bits {
		got, err := zr.GetBit()
		if err != nil {
			t.Fatalf("bit %d: %v", i, err)
		}
		if got != want {
			t.Errorf("bit %d: got %d want %d", i, got, want)
		}
	}
}

func TestZBRLERunCounts(t *testing.T) {
	bits := []int{0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0, 1}
	wantRuns := []uint32{4, 2, 0, 6}

	buf := make([]byte, 32)
	w := NewWriter(buf)
	zw := NewZBRLEWriter(w)
	for _, b := range bits {
		zw.PutBit(b)
	}

	r := NewReader(buf)
	for _, want := range wantRuns {
		got, err := r.GetUEG()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got run %d want %d", got, want)
		}
	}
}

func TestZBRLEAllZero(t *testing.T) {
	buf := make([]byte, 16)
	w := NewWriter(buf)
	zw := NewZBRLEWriter(w)
	for i := 0; i < 10; i++ {
		zw.PutBit(0)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(buf)
	zr := NewZBRLEReader(r)
	for i := 0; i < 10; i++ {
		got, err := zr.GetBit()
		if err != nil || got != 0 {
			t.Fatalf("bit %d: got %d, %v", i, got, err)
		}
	}
}
