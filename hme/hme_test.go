package hme

import (
	"testing"

	"github.com/ausocean/dsv2/frame"
)

func makeFrame(t *testing.T, w, h int, fn func(x, y int) byte) *frame.Frame {
	t.Helper()
	f, err := frame.New(w, h, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Y.Set(x, y, fn(x, y))
		}
	}
	f.Extend()
	return f
}

func TestNumLevelsBounds(t *testing.T) {
	if n := NumLevels(2, 2); n != MinLevels {
		t.Fatalf("got %d want %d", n, MinLevels)
	}
	if n := NumLevels(256, 256); n != MaxLevels {
		t.Fatalf("got %d want %d", n, MaxLevels)
	}
}

func TestBuildPyramidShrinksEachLevel(t *testing.T) {
	f := makeFrame(t, 64, 64, func(x, y int) byte { return byte((x + y) % 256) })
	pyr := Build(f, 4)
	for i := 1; i < len(pyr.Levels); i++ {
		prev, cur := pyr.Levels[i-1], pyr.Levels[i]
		if cur.Plane.W <= prev.Plane.W && cur.Plane.H <= prev.Plane.H {
			t.Fatalf("level %d not coarser than level %d", i-1, i)
		}
	}
	if pyr.Levels[len(pyr.Levels)-1].Plane.W != 64 {
		t.Fatalf("finest level should match source width")
	}
}

func TestEstimateZeroMotionIdenticalFrames(t *testing.T) {
	pattern := func(x, y int) byte { return byte((x*3 + y*7) % 256) }
	src := makeFrame(t, 64, 64, pattern)
	ref := makeFrame(t, 64, 64, pattern)

	res := Estimate(src, ref, 16, 16, 40, nil)
	for by := 0; by < res.Field.H; by++ {
		for bx := 0; bx < res.Field.W; bx++ {
			v := res.Field.At(bx, by)
			if !v.Skip() {
				t.Fatalf("block (%d,%d): expected SKIP on identical frames, got flags=%x", bx, by, v.Flags)
			}
		}
	}
	if res.Stats.AvgBlockError != 0 {
		t.Fatalf("got avg block error %v want 0", res.Stats.AvgBlockError)
	}
}

func TestEstimateTranslatedFrameFindsMotion(t *testing.T) {
	ref := makeFrame(t, 64, 64, func(x, y int) byte { return byte((x*5 + y*11) % 256) })
	// src is ref shifted by (+4, 0) full-pel.
	src := makeFrame(t, 64, 64, func(x, y int) byte { return byte(((x-4)*5 + y*11) % 256) })

	res := Estimate(src, ref, 16, 16, 40, nil)
	if res.Stats.AvgBlockError < 0 {
		t.Fatalf("avg block error should be non-negative")
	}
	// Interior blocks (away from the edge wrap caused by the shift) should
	// find a vector close to (-16 quarter-pel units, 0).
	bx, by := res.Field.W/2, res.Field.H/2
	v := res.Field.At(bx, by)
	if v.X > -8 || v.X < -24 {
		t.Fatalf("block (%d,%d): got mv.X=%d, want near -16", bx, by, v.X)
	}
}
