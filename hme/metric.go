/*
DESCRIPTION
  metric.go implements the per-candidate block comparison metric (§4.6
  step 2): a perceptual metric at the finest pyramid level (error^2 +
  texture-difference^2 + DC-difference^2), plain sum-of-squared-differences
  at coarser levels, and the bits()-based motion vector cost.
*/

package hme

import "github.com/ausocean/dsv2/frame"

// ssd returns the sum of squared sample differences between a bw x bh
// block of src at (sx,sy) and ref at (rx,ry).
func ssd(src, ref *frame.Plane, sx, sy, rx, ry, bw, bh int) int {
	sum := 0
	for j := 0; j < bh; j++ {
		for i := 0; i < bw; i++ {
			d := int(src.At(sx+i, sy+j)) - int(ref.At(rx+i, ry+j))
			sum += d * d
		}
	}
	return sum
}

// texture returns a cheap horizontal-gradient energy measure used as the
// "texture" term of the perceptual metric.
func texture(p *frame.Plane, x, y, w, h int) int {
	sum := 0
	for j := 0; j < h; j++ {
		for i := 0; i < w-1; i++ {
			d := int(p.At(x+i+1, y+j)) - int(p.At(x+i, y+j))
			sum += d * d
		}
	}
	return sum
}

func blockMean(p *frame.Plane, x, y, w, h int) int {
	sum := 0
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			sum += int(p.At(x+i, y+j))
		}
	}
	return sum / (w * h)
}

// perceptualWeights derives (errWeight, texWeight, avgWeight) from the
// source block's own texture energy: low-texture (flat) blocks weight DC
// match more heavily, high-texture blocks weight the raw SSD term more
// heavily.
func perceptualWeights(srcTex, area int) (errW, texW, avgW int) {
	norm := srcTex / area
	switch {
	case norm < 4:
		return 4, 1, 3
	case norm < 32:
		return 6, 2, 2
	default:
		return 8, 1, 1
	}
}

// blockMetric evaluates one candidate displacement: level 0 (the finest)
// uses the perceptual metric, every coarser level uses plain SSD.
func blockMetric(src, ref *frame.Plane, sx, sy, rx, ry, bw, bh, level int) int {
	s := ssd(src, ref, sx, sy, rx, ry, bw, bh)
	if level != 0 {
		return s
	}
	area := bw * bh
	srcTex := texture(src, sx, sy, bw, bh)
	refTex := texture(ref, rx, ry, bw, bh)
	dTex := srcTex - refTex
	srcAvg := blockMean(src, sx, sy, bw, bh)
	refAvg := blockMean(ref, rx, ry, bw, bh)
	dAvg := srcAvg - refAvg
	errW, texW, avgW := perceptualWeights(srcTex, area)
	return errW*s + texW*dTex*dTex + avgW*dAvg*dAvg
}

// bits returns an approximate coded bit-length for a signed differential
// value, matching the exp-Golomb-style "bits grow with log2(|v|)" shape
// used to cost motion vectors.
func bits(v int) int {
	if v < 0 {
		v = -v
	}
	n := 1
	for v > 0 {
		n += 2
		v >>= 1
	}
	return n
}

// mvCost is the QP-scaled bit-cost penalty added to a candidate's block
// metric: linear at the finest level, squared at coarser levels (coarse
// levels are less sensitive to precise vector cost, so amplifying it keeps
// the search from drifting toward implausible long vectors).
func mvCost(dx, dy, predX, predY, qp, level int) int {
	b := bits(dx-predX) + bits(dy-predY)
	cost := b * qp >> 4
	if level != 0 {
		cost *= cost
	}
	return cost
}
