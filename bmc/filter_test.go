package bmc

import (
	"testing"

	"github.com/ausocean/dsv2/frame"
)

func TestInterpolateLumaStaysInRange(t *testing.T) {
	f, err := frame.New(32, 32, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			f.Y.Set(x, y, byte((x*11+y*3)%256))
		}
	}
	f.Extend()
	dst, err := frame.New(32, 32, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, phase := range [][2]int{{1, 0}, {0, 1}, {2, 2}, {1, 3}, {3, 1}} {
		InterpolateLuma(&dst.Y, &f.Y, 8, 8, 8, 8, 16, 16, phase[0], phase[1], 0, 0, false)
	}
}

func TestDeblockPreservesDimensions(t *testing.T) {
	f, err := frame.New(32, 32, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	f.Extend()
	before := f.Y.W
	Deblock(&f.Y)
	if f.Y.W != before {
		t.Fatalf("deblock mutated plane width")
	}
}

func TestIntraSmoothConstantBlockUnchanged(t *testing.T) {
	f, err := frame.New(32, 32, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			f.Y.Set(x, y, 77)
		}
	}
	f.Extend()
	IntraSmooth(&f.Y, 8, 8, 16, 16)
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			if f.Y.At(x, y) != 77 {
				t.Fatalf("(%d,%d): got %d want 77 on constant block", x, y, f.Y.At(x, y))
			}
		}
	}
}

func TestInterLumaFilterConstantBlockUnchanged(t *testing.T) {
	f, err := frame.New(32, 32, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			f.Y.Set(x, y, 100)
		}
	}
	f.Extend()
	InterLumaFilter(&f.Y, 8, 8, 16, 16)
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			if f.Y.At(x, y) != 100 {
				t.Fatalf("(%d,%d): got %d want 100 on constant block", x, y, f.Y.At(x, y))
			}
		}
	}
}
