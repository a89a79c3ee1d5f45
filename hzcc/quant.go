/*
DESCRIPTION
  quant.go implements the spatial/psy-aware dead-zone quantization
  described in §4.4: a low-band quantizer (lfquant) for the single LL root
  coefficient, a high-band quantizer (hfquant) for LH/HL/HH subbands that
  accounts for frame size, chroma subsampling, frame type, and band type,
  and the per-position divisor tables (TMQ4POS_P/I) keyed by block
  metadata flags.
*/

// Package hzcc implements Hierarchical Zero Coefficient Coding: the
// coefficient quantization and zero-run entropy scheme that follows the
// subband transform.
package hzcc

import "github.com/ausocean/dsv2/blockmeta"

// MinQuant is the minimum permitted high-band quantizer divisor.
const MinQuant = 8

// Band identifies a detail subband's orientation, used by hfquant to pick
// the extra HH leniency/penalty.
type Band int

const (
	BandLH Band = iota
	BandHL
	BandHH
)

// spatialPsy returns a linear-interpolated psy factor that rises with
// frame area, from CIF up to FHD, reaching 128/128 (i.e. 1.0) at or above
// FHD area.
func spatialPsy(w, h int) int {
	const cifArea = 352 * 288
	const fhdArea = 1920 * 1080
	area := w * h
	if area <= cifArea {
		return 64
	}
	if area >= fhdArea {
		return 128
	}
	// Linear ramp from 64/128 at CIF to 128/128 at FHD.
	span := fhdArea - cifArea
	frac := (area - cifArea) * 64 / span
	return 64 + frac
}

// LFQuant computes the LL-band quantizer divisor for q (the picture QP)
// at frame size w x h, saturated differently for luma and chroma.
func LFQuant(q, w, h int, isLuma bool) int {
	psy := spatialPsy(w, h)
	v := q * psy / 128
	if isLuma {
		if v > 3072 {
			v = 3072
		}
		return v
	}
	if v > 256 {
		v = 256 + (v-256)/4
	}
	if v > 768 {
		v = 768
	}
	return v
}

// HFQuant computes the high-band quantizer divisor for q at level lvl of
// numLevels, for the given band orientation, frame type, and chroma
// subsampling shifts (0 for luma / unsubsampled chroma axes).
func HFQuant(q, w, h, lvl, numLevels int, band Band, isP, isLuma bool, chromaShiftX, chromaShiftY int) int {
	psy := spatialPsy(w, h)
	v := q * psy / 128

	if !isLuma {
		if chromaShiftX > 0 {
			v = v * 3 / 4
		}
		if chromaShiftY > 0 {
			v = v * 3 / 4
		}
	}
	if isP {
		v = v * 5 / 4
	}
	if band == BandHH {
		v *= 2
	}
	if v < MinQuant {
		v = MinQuant
	}
	return v
}

// Flag-keyed per-position divisor tables. Index by which of
// STABLE/MAINTAIN/RINGING/INTRA is set on the coefficient's block (highest
// priority flag present wins); entries are a percentage (out of 16) the
// base quantizer is scaled by, lower meaning "preserve more detail".
var tmq4posP = map[byte]int{
	blockmeta.STABLE:   16,
	blockmeta.MAINTAIN: 12,
	blockmeta.SIMCMPLX: 14,
	0:                  16,
}

var tmq4posI = map[byte]int{
	blockmeta.RINGING: 10,
	blockmeta.INTRA:   12,
	blockmeta.STABLE:  14,
	0:                 16,
}

// PositionDivisor returns the final quantizer divisor for a coefficient at
// block (bx, by), applying the TMQ4POS_P/I adjustment to base.
func PositionDivisor(base int, blocks *blockmeta.Array, bx, by int, isP bool) int {
	if blocks == nil {
		return base
	}
	flags := blocks.Get(bx, by)
	table := tmq4posI
	if isP {
		table = tmq4posP
	}
	scale := 16
	for _, bit := range []byte{blockmeta.RINGING, blockmeta.MAINTAIN, blockmeta.INTRA, blockmeta.STABLE, blockmeta.SIMCMPLX} {
		if flags&bit != 0 {
			if s, ok := table[bit]; ok {
				scale = s
				break
			}
		}
	}
	v := base * scale / 16
	if v < 1 {
		v = 1
	}
	return v
}

// Quantize divides v by q, rounding to the nearest integer with halves
// rounded away from zero (no dead zone); it is the scalar quantizer used
// for every band here.
func Quantize(v int32, q int) int32 {
	if q <= 0 {
		return v
	}
	if v >= 0 {
		return (v + int32(q)/2) / int32(q)
	}
	return -((-v + int32(q)/2) / int32(q))
}

// DequantLow is the dequantizer used for every I-frame coefficient. It
// returns the midpoint v*q; no reconstruction offset is added.
func DequantLow(v int32, q int) int32 {
	return v * int32(q)
}

// DequantDefault is the dequantizer used for every P-frame coefficient. It
// returns the midpoint v*q; no reconstruction offset is added.
func DequantDefault(v int32, q int) int32 {
	return v * int32(q)
}
