/*
DESCRIPTION
  filter.go implements the quarter-pel luma interpolation kernels (§4.5.1)
  and the three in-loop filters applied to reconstructed frames (§4.5.2):
  a deblocking filter across block edges, an intra smoothing filter, and an
  inter texture-restoring filter for luma and chroma.
*/

package bmc

import "github.com/ausocean/dsv2/frame"

// The two 4-tap interpolation kernels used for half/quarter-pel luma
// positions. Kernel A is the softer (larger support, lower ringing)
// filter used at odd quarter-pel phases; Kernel B is the sharper filter
// used at the half-pel phase.
//
//	A: 19*(b+c) - 3*(a+d), >> 5
//	B: 20*(b+c) - 4*(a+d), >> 5
func tapA(a, b, c, d int) int { return (19*(b+c) - 3*(a+d) + 16) >> 5 }
func tapB(a, b, c, d int) int { return (20*(b+c) - 4*(a+d) + 16) >> 5 }

// kernel picks tapA or tapB for a given quarter-pel phase (1..3); phase 2
// (half-pel) uses the sharper kernel B, phases 1 and 3 use A.
func kernel(phase int) func(a, b, c, d int) int {
	if phase == 2 {
		return tapB
	}
	return tapA
}

// interp1D runs a 4-tap kernel horizontally (dir=0) or vertically (dir=1)
// at integer position (x,y), reading one extra sample on each side.
func interp1D(p *frame.Plane, x, y, dir, phase int) int {
	f := kernel(phase)
	if dir == 0 {
		return f(int(p.At(x-1, y)), int(p.At(x, y)), int(p.At(x+1, y)), int(p.At(x+2, y)))
	}
	return f(int(p.At(x, y-1)), int(p.At(x, y)), int(p.At(x, y+1)), int(p.At(x, y+2)))
}

// InterpolateLuma fills a bw x bh block of dst starting at (dx,dy) with the
// quarter-pel interpolated prediction from ref at integer position (sx,sy)
// with sub-pel phase (phaseX,phaseY) in quarter-pel units (0..3). The
// kernel depends on the phase alone; mvx, mvy and temporalMC are accepted
// but not used, and when both phases are non-zero the passes always run
// horizontal first, then vertical.
func InterpolateLuma(dst, ref *frame.Plane, dx, dy, sx, sy, bw, bh, phaseX, phaseY, mvx, mvy int, temporalMC bool) {
	_ = mvx
	_ = mvy
	_ = temporalMC
	switch {
	case phaseX != 0 && phaseY == 0:
		for j := 0; j < bh; j++ {
			for i := 0; i < bw; i++ {
				v := interp1D(ref, sx+i, sy+j, 0, phaseX)
				dst.Set(dx+i, dy+j, clamp8(v))
			}
		}
	case phaseX == 0 && phaseY != 0:
		for j := 0; j < bh; j++ {
			for i := 0; i < bw; i++ {
				v := interp1D(ref, sx+i, sy+j, 1, phaseY)
				dst.Set(dx+i, dy+j, clamp8(v))
			}
		}
	default:
		// Two-pass separable filter: horizontal first into a temporary
		// strip (extended by 3 rows for the vertical tap's reach), then
		// vertical across the strip.
		tmpH := bh + 3
		tmp := make([]int, bw*tmpH)
		for j := 0; j < tmpH; j++ {
			for i := 0; i < bw; i++ {
				tmp[j*bw+i] = interp1D(ref, sx+i, sy+j-1, 0, phaseX)
			}
		}
		for j := 0; j < bh; j++ {
			for i := 0; i < bw; i++ {
				a := tmp[(j+0)*bw+i]
				b := tmp[(j+1)*bw+i]
				c := tmp[(j+2)*bw+i]
				d := tmp[(j+3)*bw+i]
				v := kernel(phaseY)(a, b, c, d)
				dst.Set(dx+i, dy+j, clamp8(v))
			}
		}
	}
}

// degrad4x4 is the small 4-entry "how much to trust this edge" weighting
// used by the inter texture filter, indexed by the absolute difference
// between neighbouring reconstructed samples clamped to 0..3.
var degrad4x4 = [4]int{4, 3, 2, 1}

func edgeClass(diff int) int {
	if diff < 0 {
		diff = -diff
	}
	if diff > 3 {
		diff = 3
	}
	return diff
}

// hfilter4x4 deblocks a single horizontal 4x4 boundary at (x,y) by
// averaging the two samples straddling the edge, weighted down when the
// local gradient (edgeClass) suggests real picture content rather than
// blocking.
func hfilter4x4(p *frame.Plane, x, y int) {
	for j := 0; j < 4; j++ {
		a := int(p.At(x-1, y+j))
		b := int(p.At(x, y+j))
		w := degrad4x4[edgeClass(a-b)]
		v := (a*(4-w) + b*w + 2) >> 2
		p.Set(x-1, y+j, clamp8(v))
		p.Set(x, y+j, clamp8((a+b+1)/2))
	}
}

// vfilter4x4 is hfilter4x4's vertical-edge counterpart.
func vfilter4x4(p *frame.Plane, x, y int) {
	for i := 0; i < 4; i++ {
		a := int(p.At(x+i, y-1))
		b := int(p.At(x+i, y))
		w := degrad4x4[edgeClass(a-b)]
		v := (a*(4-w) + b*w + 2) >> 2
		p.Set(x+i, y-1, clamp8(v))
		p.Set(x+i, y, clamp8((a+b+1)/2))
	}
}

// Deblock runs the in-loop deblocking filter across every internal 4x4
// boundary of a reconstructed plane, per §4.5.2's ihfilter4x4/ivfilter4x4.
func Deblock(p *frame.Plane) {
	for y := 4; y < p.H; y += 4 {
		for x := 0; x < p.W; x += 4 {
			vfilter4x4(p, x, y)
		}
	}
	for x := 4; x < p.W; x += 4 {
		for y := 0; y < p.H; y += 4 {
			hfilter4x4(p, x, y)
		}
	}
}

// IntraSmooth applies the intra-block low-pass filter: a gentle 3-tap
// blur along rows then columns, meant to suppress intra-prediction
// ringing before display.
func IntraSmooth(p *frame.Plane, bx, by, bw, bh int) {
	for y := by; y < by+bh; y++ {
		for x := bx; x < bx+bw; x++ {
			l := int(p.At(x-1, y))
			c := int(p.At(x, y))
			r := int(p.At(x+1, y))
			p.Set(x, y, clamp8((l+2*c+r+2)>>2))
		}
	}
	for x := bx; x < bx+bw; x++ {
		for y := by; y < by+bh; y++ {
			u := int(p.At(x, y-1))
			c := int(p.At(x, y))
			d := int(p.At(x, y+1))
			p.Set(x, y, clamp8((u+2*c+d+2)>>2))
		}
	}
}

// InterLumaFilter restores high-frequency texture attenuated by sub-pel
// interpolation: an unsharp pass weighted by degrad4x4's edge classes so
// flat regions are left alone.
func InterLumaFilter(p *frame.Plane, bx, by, bw, bh int) {
	for y := by; y < by+bh; y++ {
		for x := bx; x < bx+bw; x++ {
			c := int(p.At(x, y))
			n := int(p.At(x, y-1))
			s := int(p.At(x, y+1))
			e := int(p.At(x+1, y))
			w := int(p.At(x-1, y))
			avg := (n + s + e + w) / 4
			d := degrad4x4[edgeClass(c-avg)]
			v := c + (c-avg)*d/8
			p.Set(x, y, clamp8(v))
		}
	}
}

// InterChromaFilter is InterLumaFilter's milder chroma counterpart (chroma
// gets a smaller restoring gain since subsampling already halves its
// effective sub-pel error).
func InterChromaFilter(p *frame.Plane, bx, by, bw, bh int) {
	for y := by; y < by+bh; y++ {
		for x := bx; x < bx+bw; x++ {
			c := int(p.At(x, y))
			n := int(p.At(x, y-1))
			s := int(p.At(x, y+1))
			e := int(p.At(x+1, y))
			w := int(p.At(x-1, y))
			avg := (n + s + e + w) / 4
			d := degrad4x4[edgeClass(c-avg)]
			v := c + (c-avg)*d/16
			p.Set(x, y, clamp8(v))
		}
	}
}
