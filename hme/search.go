/*
DESCRIPTION
  search.go implements the per-candidate refinement passes (§4.6 steps
  4-6): a one-step full-pel diamond search around the winning candidate,
  followed (at the finest level only) by a quarter-pel diamond search on an
  interpolated sub-pel grid built from a 4-tap ME-side half-pel filter
  (hpfME).
*/

package hme

import "github.com/ausocean/dsv2/frame"

// diamond9 is the one-step 9-point (including center) full-pel refinement
// pattern.
var diamond9 = [9]cand{
	{0, 0},
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// pickBest evaluates every candidate in cands (full-pel, level-relative
// coordinates) against src at (sx,sy) using ref, returns the winner and
// its scored cost.
func pickBest(src, ref *frame.Plane, sx, sy, bw, bh, level, qp, predX, predY int, cands []cand) (cand, int) {
	best := cands[0]
	bestCost := 1<<31 - 1
	for _, c := range cands {
		rx, ry := sx+c.x, sy+c.y
		m := blockMetric(src, ref, sx, sy, rx, ry, bw, bh, level)
		cost := m + mvCost(c.x, c.y, predX, predY, qp, level)
		if cost < bestCost {
			bestCost = cost
			best = c
		}
	}
	return best, bestCost
}

// refineDiamond runs one step of the 9-point diamond search centered on
// base, returning the best position found (which may be base itself).
func refineDiamond(src, ref *frame.Plane, sx, sy, bw, bh, level, qp, predX, predY int, base cand) (cand, int) {
	cands := make([]cand, len(diamond9))
	for i, d := range diamond9 {
		cands[i] = cand{base.x + d.x, base.y + d.y}
	}
	return pickBest(src, ref, sx, sy, bw, bh, level, qp, predX, predY, cands)
}

// hpfME is the ME-side half-pel filter (DSV_HPF_ME): a softer 4-tap
// low-pass than the decoder's reconstruction filter since it only needs to
// rank candidates, not produce a final displayed sample. a,d are the outer
// taps and b,c are the two samples straddling the half-pel point.
func hpfME(a, b, c, d int) int {
	return (-a + 9*b + 9*c - d + 8) >> 4
}

// halfPelLuma returns the half-pel-interpolated luma sample at
// (x+0.5, y) or (x, y+0.5) depending on dir (0=horizontal, 1=vertical).
func halfPelLuma(p *frame.Plane, x, y, dir int) int {
	if dir == 0 {
		return clampSample(hpfME(int(p.At(x-1, y)), int(p.At(x, y)), int(p.At(x+1, y)), int(p.At(x+2, y))))
	}
	return clampSample(hpfME(int(p.At(x, y-1)), int(p.At(x, y)), int(p.At(x, y+1)), int(p.At(x, y+2))))
}

func clampSample(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// qpelSample returns the motion-estimation-side quarter-pel interpolated
// sample at integer position (x,y) plus a quarter-pel offset
// (qx,qy in 0..3), built from hpfME half-pel values bilinearly blended to
// quarter-pel, per §4.6's "bilinear averaging to quarter-pel" note.
func qpelSample(p *frame.Plane, x, y, qx, qy int) int {
	if qx == 0 && qy == 0 {
		return int(p.At(x, y))
	}
	full := int(p.At(x, y))
	h := halfPelLuma(p, x, y, 0)
	v := halfPelLuma(p, x, y, 1)
	// Diagonal half-pel approximated as the average of horizontal and
	// vertical half-pel taps, a cheap ME-only approximation (the decoder
	// uses its own exact two-pass filter for reconstruction).
	d := (h + v) / 2
	corners := [4]int{full, h, v, d}
	// Bilinear blend across the quarter-pel grid using the four half/full
	// pel anchor values.
	wx, wy := qx, qy
	top := corners[0]*(4-wx) + corners[1]*wx
	bot := corners[2]*(4-wx) + corners[3]*wx
	v2 := (top*(4-wy) + bot*wy + 8) / 16
	return clampSample(v2)
}

// refineQuarterPel runs a 3x3 diamond search over the quarter-pel grid
// around a full-pel winner, evaluating qpelSample-interpolated candidates.
func refineQuarterPel(src, ref *frame.Plane, sx, sy, bw, bh, qp, predX, predY int, fullPel cand) (cand, int) {
	best := cand{fullPel.x * 4, fullPel.y * 4}
	bestCost := 1<<31 - 1
	bestSSD := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			qvx, qvy := fullPel.x*4+dx, fullPel.y*4+dy
			rx, ry := sx+(qvx>>2), sy+(qvy>>2)
			qx, qy := qvx&3, qvy&3
			sum := 0
			for j := 0; j < bh; j++ {
				for i := 0; i < bw; i++ {
					p := qpelSample(ref, rx+i, ry+j, qx, qy)
					d := int(src.At(sx+i, sy+j)) - p
					sum += d * d
				}
			}
			cost := sum + mvCost(qvx, qvy, predX, predY, qp, 0)
			if cost < bestCost {
				bestCost = cost
				bestSSD = sum
				best = cand{qvx, qvy}
			}
		}
	}
	// The returned error is the raw prediction SSD (not the cost-biased
	// value used only to pick among candidates), since callers use it as
	// the block's reconstruction-error statistic.
	return best, bestSSD
}
