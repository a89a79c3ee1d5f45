/*
DESCRIPTION
  bmc.go implements block motion compensation (§4.5): intra reconstruction
  (solid per-quadrant DC, or verbatim reference copy), and inter
  reconstruction (direct copy or sub-pel interpolated prediction), followed
  by residual application with EPRM's extended dynamic range.
*/

// Package bmc implements DSV-2 block motion compensation: intra and inter
// prediction, sub-pel luma/chroma interpolation, and the in-loop
// deblocking/texture filters applied to reconstructed frames.
package bmc

import (
	"github.com/ausocean/dsv2/frame"
	"github.com/ausocean/dsv2/mv"
)

// BlockSize holds the block geometry for one picture.
type BlockSize struct {
	W, H int // in {16, 32}
}

func clamp8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// avgBlock returns the rounded average sample value of an w x h block of
// ref starting at (x, y).
func avgBlock(p *frame.Plane, x, y, w, h int) int {
	sum := 0
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			sum += int(p.At(x+i, y+j))
		}
	}
	return (sum + (w*h)/2) / (w * h)
}

// copyBlock copies a w x h block from ref(x,y) into dst(dx,dy).
func copyBlock(dst, ref *frame.Plane, dx, dy, x, y, w, h int) {
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			dst.Set(dx+i, dy+j, ref.At(x+i, y+j))
		}
	}
}

// fillBlock fills a w x h block of dst with a constant value.
func fillBlock(dst *frame.Plane, dx, dy, w, h int, v byte) {
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			dst.Set(dx+i, dy+j, v)
		}
	}
}

// IntraLuma reconstructs an intra luma block per §4.5: for each quadrant,
// either a solid DC (transmitted or reference-average) or a verbatim
// reference copy, depending on the submask bit and the all-intra sentinel.
func IntraLuma(dst, ref *frame.Plane, bx, by, bw, bh int, m mv.MV) {
	mx, my := int(m.X)>>2, int(m.Y)>>2 // intra vectors are full-pel already
	hw, hh := bw/2, bh/2
	for q := 0; q < 4; q++ {
		qx := bx + (q%2)*hw
		qy := by + (q/2)*hh
		rx := bx + mx + (q%2)*hw
		ry := by + my + (q/2)*hh
		if m.QuadrantIntra(q) {
			var dc int
			if m.SrcDC() {
				dc = int(m.DCValue())
			} else {
				dc = avgBlock(ref, rx, ry, hw, hh)
			}
			fillBlock(dst, qx, qy, hw, hh, clamp8(dc))
			continue
		}
		copyBlock(dst, ref, qx, qy, rx, ry, hw, hh)
	}
}

// IntraChroma reconstructs an intra chroma block: DC is always the
// reference average (no transmitted chroma DC), otherwise a verbatim
// reference copy, per quadrant.
func IntraChroma(dst, ref *frame.Plane, bx, by, bw, bh int, m mv.MV) {
	mx, my := int(m.X)>>2, int(m.Y)>>2
	hw, hh := bw/2, bh/2
	for q := 0; q < 4; q++ {
		qx := bx + (q%2)*hw
		qy := by + (q/2)*hh
		rx := bx + mx + (q%2)*hw
		ry := by + my + (q/2)*hh
		if m.QuadrantIntra(q) {
			dc := avgBlock(ref, rx, ry, hw, hh)
			fillBlock(dst, qx, qy, hw, hh, clamp8(dc))
			continue
		}
		copyBlock(dst, ref, qx, qy, rx, ry, hw, hh)
	}
}

// InterLuma reconstructs an inter luma block: a direct copy when the
// vector has no sub-pel component, otherwise a sub-pel interpolated
// prediction (§4.5.1).
func InterLuma(dst, ref *frame.Plane, bx, by, bw, bh int, m mv.MV, temporalMC bool) {
	fx, fy := int(m.X)>>2, int(m.Y)>>2
	px, py := bx+fx, by+fy
	phaseX, phaseY := int(m.X)&3, int(m.Y)&3
	if phaseX == 0 && phaseY == 0 {
		copyBlock(dst, ref, bx, by, px, py, bw, bh)
		return
	}
	InterpolateLuma(dst, ref, bx, by, px, py, bw, bh, phaseX, phaseY, int(m.X), int(m.Y), temporalMC)
}

// InterChroma reconstructs an inter chroma block with bilinear sub-pel
// interpolation, after shifting the luma vector by the chroma subsampling
// shifts.
func InterChroma(dst, ref *frame.Plane, bx, by, bw, bh int, m mv.MV, shiftX, shiftY int) {
	// The luma quarter-pel vector is read in chroma units of 1/(4*2^sh)
	// pel per subsampled axis (one extra fraction bit per halving), which
	// halves the displacement without dropping its lowest bit.
	cx := int(m.X)
	cy := int(m.Y)
	fracBits := 2 + shiftX
	fracBitsY := 2 + shiftY
	fx := cx >> uint(fracBits)
	fy := cy >> uint(fracBitsY)
	phaseX := cx & ((1 << uint(fracBits)) - 1)
	phaseY := cy & ((1 << uint(fracBitsY)) - 1)
	px, py := bx+fx, by+fy

	if phaseX == 0 && phaseY == 0 {
		copyBlock(dst, ref, bx, by, px, py, bw, bh)
		return
	}
	denomX := 1 << uint(fracBits)
	denomY := 1 << uint(fracBitsY)
	for j := 0; j < bh; j++ {
		for i := 0; i < bw; i++ {
			a := int(ref.At(px+i, py+j))
			b := int(ref.At(px+i+1, py+j))
			c := int(ref.At(px+i, py+j+1))
			d := int(ref.At(px+i+1, py+j+1))
			top := a*(denomX-phaseX) + b*phaseX
			bot := c*(denomX-phaseX) + d*phaseX
			v := top*(denomY-phaseY) + bot*phaseY
			v = (v + (denomX*denomY)/2) / (denomX * denomY)
			dst.Set(bx+i, by+j, clamp8(v))
		}
	}
}

// Reconstruct applies a decoded residual to a prediction, honouring EPRM's
// extended dynamic range and the lossless centered-residual convention.
func Reconstruct(pred, res int, eprm, lossless bool) byte {
	if lossless {
		return clamp8(pred + res - 128)
	}
	if eprm {
		return clamp8(pred + 2*(res-128))
	}
	return clamp8(pred + res - 128)
}

// PackEPRMResidual halves a residual for EPRM transmission, per the
// encoder-side packing rule in §4.5: (res - pred + 256) >> 1.
func PackEPRMResidual(res, pred int) int {
	return (res - pred + 256) >> 1
}
