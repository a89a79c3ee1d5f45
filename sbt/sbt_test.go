package sbt

import "testing"

func TestLossless1DRoundTrip(t *testing.T) {
	x := []int32{10, 200, 3, 254, 0, 128, 99, 17, 45}
	packed := Forward1D(x, KindLossless, 1, 4, false)
	got := Inverse1D(packed, len(x), KindLossless, 1, 4, false)
	for i := range x {
		if got[i] != x[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], x[i])
		}
	}
}

func TestLossless1DRoundTripEvenLength(t *testing.T) {
	x := []int32{5, 6, 7, 8, 9, 10}
	packed := Forward1D(x, KindLossless, 1, 4, false)
	got := Inverse1D(packed, len(x), KindLossless, 1, 4, false)
	for i := range x {
		if got[i] != x[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], x[i])
		}
	}
}

func TestLossless2DRoundTrip(t *testing.T) {
	sizes := [][2]int{{8, 8}, {16, 16}, {16, 8}, {17, 9}, {32, 17}}
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		c := NewCoefPlane(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c.Data[y*w+x] = int32((x*31 + y*17) % 256)
			}
		}
		want := append([]int32(nil), c.Data...)

		p := Params{IsLuma: true, Lossless: true, NumLevels: NumLevels(w, h)}
		Forward(c, p)
		Inverse(c, p)

		for i := range want {
			if c.Data[i] != want[i] {
				t.Fatalf("size %dx%d index %d: got %d want %d", w, h, i, c.Data[i], want[i])
			}
		}
	}
}

func TestLosslessPFrameChroma2DRoundTrip(t *testing.T) {
	w, h := 16, 16
	c := NewCoefPlane(w, h)
	for i := range c.Data {
		c.Data[i] = int32(i % 200)
	}
	want := append([]int32(nil), c.Data...)
	p := Params{IsLuma: false, IsP: true, Lossless: true, NumLevels: NumLevels(w, h)}
	Forward(c, p)
	Inverse(c, p)
	for i := range want {
		if c.Data[i] != want[i] {
			t.Fatalf("index %d: got %d want %d", i, c.Data[i], want[i])
		}
	}
}

func TestNumLevels(t *testing.T) {
	cases := []struct{ w, h, want int }{
		{16, 16, 4},
		{1, 1, 1},
		{32, 17, 5},
		{8, 8, 3},
	}
	for _, c := range cases {
		if got := NumLevels(c.w, c.h); got != c.want {
			t.Errorf("%dx%d: got %d want %d", c.w, c.h, got, c.want)
		}
	}
}
