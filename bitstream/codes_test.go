package bitstream

import "testing"

func TestUEGRoundTrip(t *testing.T) {
	vals := []uint32{0, 1, 2, 3, 7, 8, 15, 16, 1023, 1_000_000}
	buf := make([]byte, 256)
	w := NewWriter(buf)
	for _, v := range vals {
		if err := w.PutUEG(v); err != nil {
			t.Fatal(err)
		}
	}
	r := NewReader(buf)
	for _, want := range vals {
		got, err := r.GetUEG()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %d want %d", got, want)
		}
	}
}

func TestSEGRoundTrip(t *testing.T) {
	vals := []int32{-1023, -1, 0, 1, 1023, -1_000_000, 1_000_000}
	buf := make([]byte, 256)
	w := NewWriter(buf)
	for _, v := range vals {
		if err := w.PutSEG(v); err != nil {
			t.Fatal(err)
		}
	}
	r := NewReader(buf)
	for _, want := range vals {
		got, err := r.GetSEG()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %d want %d", got, want)
		}
	}
}

func TestNEGRoundTrip(t *testing.T) {
	vals := []int32{-1, 1, -2, 2, -1023, 1023, -1_000_000, 1_000_000}
	buf := make([]byte, 256)
	w := NewWriter(buf)
	for _, v := range vals {
		if err := w.PutNEG(v); err != nil {
			t.Fatal(err)
		}
	}
	r := NewReader(buf)
	for _, want := range vals {
		got, err := r.GetNEG()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %d want %d", got, want)
		}
	}
}

func TestUEGExhaustiveSmallRange(t *testing.T) {
	for v := uint32(0); v < 4096; v++ {
		buf := make([]byte, 32)
		w := NewWriter(buf)
		if err := w.PutUEG(v); err != nil {
			t.Fatal(err)
		}
		r := NewReader(buf)
		got, err := r.GetUEG()
		if err != nil || got != v {
			t.Fatalf("v=%d got %d err %v", v, got, err)
		}
	}
}

func TestSEGExhaustiveSmallRange(t *testing.T) {
	for v := int32(-2048); v < 2048; v++ {
		buf := make([]byte, 32)
		w := NewWriter(buf)
		if err := w.PutSEG(v); err != nil {
			t.Fatal(err)
		}
		r := NewReader(buf)
		got, err := r.GetSEG()
		if err != nil || got != v {
			t.Fatalf("v=%d got %d err %v", v, got, err)
		}
	}
}

func TestURCRoundTrip(t *testing.T) {
	vals := []uint32{0, 1, 2, 5, 100, 1000, 0, 0, 3, 3, 3, 3}
	buf := make([]byte, 256)
	w := NewWriter(buf)
	s := &RiceState{Damp: 1}
	for _, v := range vals {
		if err := w.PutURC(s, v); err != nil {
			t.Fatal(err)
		}
	}
	r := NewReader(buf)
	rs := &RiceState{Damp: 1}
	for _, want := range vals {
		got, err := r.GetURC(rs)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %d want %d", got, want)
		}
	}
}

func TestNRCRoundTrip(t *testing.T) {
	vals := []int32{3, 1, -1, 2, -2, 100, -100, -3, 7, 5}
	buf := make([]byte, 256)
	w := NewWriter(buf)
	s := &RiceState{Damp: 2}
	for _, v := range vals {
		if err := w.PutNRC(s, v); err != nil {
			t.Fatal(err)
		}
	}
	r := NewReader(buf)
	rs := &RiceState{Damp: 2}
	for _, want := range vals {
		got, err := r.GetNRC(rs)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %d want %d", got, want)
		}
	}
}

func TestS2UInverse(t *testing.T) {
	for v := int32(-5000); v < 5000; v++ {
		u := s2u(v)
		if got := u2s(u); got != v {
			t.Fatalf("v=%d u=%d got %d", v, u, got)
		}
	}
}
