/*
DESCRIPTION
  transform.go implements the multi-level 2-D subband decomposition:
  each level runs the 1-D lifting pass over every row, then every column,
  of the current low-pass sub-image, and recurses into the resulting
  (smaller) low-pass corner. Block-adaptive kinds (L2Adaptive) consult the
  block metadata array via the fixed-point dbx/dby mapping described in
  §4.3, at row/column granularity (a documented simplification of the
  per-coefficient adaptivity the source codec performs -- see DESIGN.md).
*/

package sbt

import "github.com/ausocean/dsv2/blockmeta"

// CoefPlane is a 2-D signed coefficient array the same size as its source
// plane, row-major.
type CoefPlane struct {
	W, H int
	Data []int32
}

// NewCoefPlane allocates a zeroed w x h coefficient plane.
func NewCoefPlane(w, h int) *CoefPlane {
	return &CoefPlane{W: w, H: h, Data: make([]int32, w*h)}
}

func (c *CoefPlane) row(y, w int) []int32 {
	return c.Data[y*c.W : y*c.W+w]
}

func (c *CoefPlane) setRow(y, w int, v []int32) {
	copy(c.Data[y*c.W:y*c.W+w], v)
}

func (c *CoefPlane) col(x, h int) []int32 {
	out := make([]int32, h)
	for y := 0; y < h; y++ {
		out[y] = c.Data[y*c.W+x]
	}
	return out
}

func (c *CoefPlane) setCol(x, h int, v []int32) {
	for y := 0; y < h; y++ {
		c.Data[y*c.W+x] = v[y]
	}
}

// Rect is an axis-aligned sub-rectangle of a CoefPlane, in coefficient
// coordinates.
type Rect struct{ X, Y, W, H int }

// SubRect copies out the samples of r in raster order.
func (c *CoefPlane) SubRect(r Rect) []int32 {
	out := make([]int32, 0, r.W*r.H)
	for y := r.Y; y < r.Y+r.H; y++ {
		out = append(out, c.Data[y*c.W+r.X:y*c.W+r.X+r.W]...)
	}
	return out
}

// SetSubRect writes v (raster order) into r.
func (c *CoefPlane) SetSubRect(r Rect, v []int32) {
	i := 0
	for y := r.Y; y < r.Y+r.H; y++ {
		copy(c.Data[y*c.W+r.X:y*c.W+r.X+r.W], v[i:i+r.W])
		i += r.W
	}
}

// LevelRect describes the geometry of one decomposition level: the
// sub-rectangle it operated on (W, H, at the origin) and the resulting LL
// corner size for the next (coarser) level.
type LevelRect struct {
	Lvl      int
	W, H     int
	LLW, LLH int
}

// Levels returns the sequence of level geometries Forward/Inverse visit,
// finest (lvl=1) to coarsest.
func Levels(w, h, numLevels int) []LevelRect {
	var out []LevelRect
	for lvl := 1; lvl <= numLevels && (w > 1 || h > 1); lvl++ {
		llw, llh := (w+1)/2, (h+1)/2
		out = append(out, LevelRect{Lvl: lvl, W: w, H: h, LLW: llw, LLH: llh})
		w, h = llw, llh
	}
	return out
}

// Quadrants returns the LL, HL (high-horizontal/low-vertical), LH
// (low-horizontal/high-vertical) and HH sub-rectangles of a level of size
// W x H with LL corner LLW x LLH, all relative to the plane origin (0,0)
// since every level operates on the current top-left corner.
func (lr LevelRect) Quadrants() (ll, hl, lh, hh Rect) {
	ll = Rect{0, 0, lr.LLW, lr.LLH}
	hl = Rect{lr.LLW, 0, lr.W - lr.LLW, lr.LLH}
	lh = Rect{0, lr.LLH, lr.LLW, lr.H - lr.LLH}
	hh = Rect{lr.LLW, lr.LLH, lr.W - lr.LLW, lr.H - lr.LLH}
	return ll, hl, lh, hh
}

// scaleMap maps a coordinate in a subband of width subW back to a block
// column index, using the fixed-point ratio dbx = (nblocksH<<14)/subW
// described in §4.3.
func scaleMap(pos, subLen, nblocks int) int {
	if subLen == 0 {
		return 0
	}
	d := (nblocks << 14) / subLen
	bi := (pos*d + (1 << 13)) >> 14
	if bi >= nblocks {
		bi = nblocks - 1
	}
	return bi
}

// AdaptiveCtx carries the block metadata needed by block-adaptive filter
// kinds.
type AdaptiveCtx struct {
	Blocks             *blockmeta.Array
	NBlocksH, NBlocksV int
}

func (a *AdaptiveCtx) rowRinging(y, subH int) bool {
	if a == nil || a.Blocks == nil {
		return false
	}
	by := scaleMap(y, subH, a.NBlocksV)
	ringing := 0
	for bx := 0; bx < a.NBlocksH; bx++ {
		if a.Blocks.Ringing(bx, by) {
			ringing++
		}
	}
	return ringing*2 >= a.NBlocksH
}

func (a *AdaptiveCtx) colRinging(x, subW int) bool {
	if a == nil || a.Blocks == nil {
		return false
	}
	bx := scaleMap(x, subW, a.NBlocksH)
	ringing := 0
	for by := 0; by < a.NBlocksV; by++ {
		if a.Blocks.Ringing(bx, by) {
			ringing++
		}
	}
	return ringing*2 >= a.NBlocksV
}

// Params bundles the per-plane context needed to pick a filter Kind at
// every level.
type Params struct {
	IsLuma    bool
	IsP       bool
	Lossless  bool
	NumLevels int
	Adaptive  *AdaptiveCtx
}

// Forward runs the full multi-level forward transform in place over c,
// operating on progressively smaller top-left LL corners.
func Forward(c *CoefPlane, p Params) {
	w, h := c.W, c.H
	for lvl := 1; lvl <= p.NumLevels && (w > 1 || h > 1); lvl++ {
		k := Select(p.IsLuma, p.IsP, p.Lossless, lvl, p.NumLevels)
		forwardLevel(c, w, h, k, lvl, p.NumLevels, p.Adaptive)
		w = (w + 1) / 2
		h = (h + 1) / 2
	}
}

func forwardLevel(c *CoefPlane, w, h int, k Kind, lvl, numLevels int, adapt *AdaptiveCtx) {
	// Horizontal pass: transform every row of the w x h sub-rectangle.
	for y := 0; y < h; y++ {
		ringing := false
		if k == KindL2Adaptive {
			ringing = adapt.rowRinging(y, h)
		}
		packed := Forward1D(c.row(y, w), k, lvl, numLevels, ringing)
		c.setRow(y, w, packed)
	}
	// Vertical pass: transform every column of the same sub-rectangle.
	for x := 0; x < w; x++ {
		ringing := false
		if k == KindL2Adaptive {
			ringing = adapt.colRinging(x, w)
		}
		packed := Forward1D(c.col(x, h), k, lvl, numLevels, ringing)
		c.setCol(x, h, packed)
	}
}

// Inverse runs the full multi-level inverse transform in place over c,
// undoing the same sequence of levels Forward applied, from coarsest to
// finest.
func Inverse(c *CoefPlane, p Params) {
	// Recompute the sequence of (w,h) sub-rectangle sizes Forward visited,
	// so Inverse can replay them from coarsest to finest.
	type dims struct{ w, h, lvl int }
	var sizes []dims
	w, h := c.W, c.H
	for lvl := 1; lvl <= p.NumLevels && (w > 1 || h > 1); lvl++ {
		sizes = append(sizes, dims{w, h, lvl})
		w = (w + 1) / 2
		h = (h + 1) / 2
	}
	for i := len(sizes) - 1; i >= 0; i-- {
		s := sizes[i]
		k := Select(p.IsLuma, p.IsP, p.Lossless, s.lvl, p.NumLevels)
		inverseLevel(c, s.w, s.h, k, s.lvl, p.NumLevels, p.Adaptive)
	}
}

func inverseLevel(c *CoefPlane, w, h int, k Kind, lvl, numLevels int, adapt *AdaptiveCtx) {
	// Vertical un-pass first (exact mirror of Forward's pass order).
	for x := 0; x < w; x++ {
		ringing := false
		if k == KindL2Adaptive {
			ringing = adapt.colRinging(x, w)
		}
		orig := Inverse1D(c.col(x, h), h, k, lvl, numLevels, ringing)
		c.setCol(x, h, orig)
	}
	for y := 0; y < h; y++ {
		ringing := false
		if k == KindL2Adaptive {
			ringing = adapt.rowRinging(y, h)
		}
		orig := Inverse1D(c.row(y, w), w, k, lvl, numLevels, ringing)
		c.setRow(y, w, orig)
	}
}
