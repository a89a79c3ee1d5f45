/*
DESCRIPTION
  pyramid.go builds the luma image pyramid hierarchical motion estimation
  searches: num_levels levels, each a simple 2x2-average downsample of the
  previous, coarsest first (§4.6).
*/

// Package hme implements hierarchical motion estimation: pyramid search,
// candidate seeding, sub-pel refinement, and the per-block mode/flag
// decisions that feed the picture encoder.
package hme

import "github.com/ausocean/dsv2/frame"

// MinLevels and MaxLevels bound the auto-selected pyramid depth.
const (
	MinLevels = 3
	MaxLevels = 5
)

// NumLevels picks the pyramid depth for a picture of nblocksH x nblocksV
// blocks: the largest level count such that 2^levels does not exceed the
// larger block grid dimension, clamped to [MinLevels, MaxLevels].
func NumLevels(nblocksH, nblocksV int) int {
	maxDim := nblocksH
	if nblocksV > maxDim {
		maxDim = nblocksV
	}
	levels := 0
	for (1 << uint(levels+1)) <= maxDim {
		levels++
	}
	if levels < MinLevels {
		levels = MinLevels
	}
	if levels > MaxLevels {
		levels = MaxLevels
	}
	return levels
}

// Level is one luma plane of the pyramid along with the scale factor
// (relative to the full-resolution source) it was downsampled by.
type Level struct {
	Plane *frame.Plane
	Scale int // 1, 2, 4, 8, ...
}

// Pyramid is a coarsest-to-finest sequence of downsampled luma planes;
// Levels[0] is the coarsest, Levels[len-1] is full resolution.
type Pyramid struct {
	Levels []Level
}

func downsample2x(src *frame.Plane) *frame.Plane {
	w, h := (src.W+1)/2, (src.H+1)/2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := &frame.Plane{W: w, H: h, Stride: w, Data: make([]byte, w*h)}
	clampX := func(x int) int {
		if x >= src.W {
			return src.W - 1
		}
		return x
	}
	clampY := func(y int) int {
		if y >= src.H {
			return src.H - 1
		}
		return y
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x*2, y*2
			sx1, sy1 := clampX(sx+1), clampY(sy+1)
			sum := int(src.At(sx, sy)) + int(src.At(sx1, sy)) + int(src.At(sx, sy1)) + int(src.At(sx1, sy1))
			dst.Set(x, y, byte((sum+2)/4))
		}
	}
	return dst
}

// Build constructs a pyramid of numLevels levels from the luma plane of f
// (which must be bordered, so downsample2x's +1 reads stay defined at the
// original edges).
func Build(f *frame.Frame, numLevels int) *Pyramid {
	p := &Pyramid{Levels: make([]Level, numLevels)}
	cur := &f.Y
	scale := 1
	finest := numLevels - 1
	p.Levels[finest] = Level{Plane: cur, Scale: scale}
	for lvl := finest - 1; lvl >= 0; lvl-- {
		cur = downsample2x(cur)
		scale *= 2
		p.Levels[lvl] = Level{Plane: cur, Scale: scale}
	}
	return p
}
