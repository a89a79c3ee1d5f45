package bmc

import (
	"testing"

	"github.com/ausocean/dsv2/frame"
	"github.com/ausocean/dsv2/mv"
)

func newTestFrame(t *testing.T, w, h int) *frame.Frame {
	t.Helper()
	f, err := frame.New(w, h, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Y.Set(x, y, byte((x*7+y*13)%256))
		}
	}
	f.Extend()
	return f
}

func TestIntraLumaAllIntraDC(t *testing.T) {
	ref := newTestFrame(t, 32, 32)
	dst := newTestFrame(t, 32, 32)
	m := mv.MV{Flags: mv.FlagIntra, Submask: mv.MaskAllIntra, DC: mv.SrcDCPred | 0x40}
	IntraLuma(&dst.Y, &ref.Y, 0, 0, 16, 16, m)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if dst.Y.At(x, y) != 0x40 {
				t.Fatalf("(%d,%d): got %d want 0x40", x, y, dst.Y.At(x, y))
			}
		}
	}
}

func TestIntraLumaQuadrantCopy(t *testing.T) {
	ref := newTestFrame(t, 32, 32)
	dst := newTestFrame(t, 32, 32)
	m := mv.MV{Flags: mv.FlagIntra} // no submask bits set: plain reference copy
	IntraLuma(&dst.Y, &ref.Y, 0, 0, 16, 16, m)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if dst.Y.At(x, y) != ref.Y.At(x, y) {
				t.Fatalf("(%d,%d): got %d want %d", x, y, dst.Y.At(x, y), ref.Y.At(x, y))
			}
		}
	}
}

func TestInterLumaFullPelCopy(t *testing.T) {
	ref := newTestFrame(t, 32, 32)
	dst := newTestFrame(t, 32, 32)
	m := mv.MV{X: 4 * 2, Y: 4 * (-1)} // (2,-1) full-pel, no sub-pel phase
	InterLuma(&dst.Y, &ref.Y, 8, 8, 16, 16, m, false)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			got := dst.Y.At(8+x, 8+y)
			want := ref.Y.At(8+x+2, 8+y-1)
			if got != want {
				t.Fatalf("(%d,%d): got %d want %d", x, y, got, want)
			}
		}
	}
}

func TestInterLumaHalfPelBounded(t *testing.T) {
	ref := newTestFrame(t, 32, 32)
	dst := newTestFrame(t, 32, 32)
	m := mv.MV{X: 2, Y: 2} // half-pel in both axes
	InterLuma(&dst.Y, &ref.Y, 8, 8, 16, 16, m, false)
	// Interpolated values must stay within the valid sample range; a
	// bounds violation here would indicate a broken kernel.
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			_ = dst.Y.At(8+x, 8+y) // byte type: range is implicit
		}
	}
}

func TestReconstructLossless(t *testing.T) {
	got := Reconstruct(100, 128+5, false, true)
	if got != 105 {
		t.Fatalf("got %d want 105", got)
	}
}

func TestReconstructEPRM(t *testing.T) {
	// res=128 means zero residual regardless of EPRM scaling.
	got := Reconstruct(50, 128, true, false)
	if got != 50 {
		t.Fatalf("got %d want 50", got)
	}
}

func TestPackEPRMResidualRoundTrip(t *testing.T) {
	pred, actual := 100, 130
	packed := PackEPRMResidual(actual, pred)
	rec := int(Reconstruct(pred, packed, true, false))
	if rec != actual {
		t.Fatalf("got %d want %d", rec, actual)
	}
}

func TestDeblockStaysInRange(t *testing.T) {
	f := newTestFrame(t, 32, 32)
	Deblock(&f.Y)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			_ = f.Y.At(x, y)
		}
	}
}
