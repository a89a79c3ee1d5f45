/*
DESCRIPTION
  curve.go implements the quality-to-QP mapping (§4.8): a segmented
  exponential-like curve built from two interpolated "sample points",
  with a hardcoded linear segment at the high-quality end.
*/

// Package ratectl implements the encoder's rate controller: the
// quality<->QP curve and the CRF/ABR/CQP per-frame quality selection
// described in §4.8 of the codec design.
package ratectl

// QualityScale is the internal fixed-point scale applied to the
// user-facing 0..100 quality value, giving the 0..400 range accepted by
// the rest of this package (and by PictureHeader.QP's source quality).
const QualityScale = 4

// MaxQuality is the maximum rate-control quality value (100 * QualityScale),
// including the subdivided top value that selects mathematically lossless
// coding.
const MaxQuality = 100 * QualityScale

// MaxQP is the largest value the 12-bit wire QP field can hold.
const MaxQP = (1 << 12) - 1

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// samplePoint computes one of the two interpolation endpoints QualityToQP
// blends between: an exponential-ish curve expressed as a linear blend
// between consecutive powers of two.
func samplePoint(v int) int {
	v = 100*QualityScale - v
	whole := v / (10 * QualityScale)
	frac := v % (10 * QualityScale)
	ifrac := (10 * QualityScale) - frac
	lo := 1 << uint(whole+0)
	hi := 1 << uint(whole+1)

	qp := ((ifrac*lo + frac*hi) / (10 * QualityScale)) - 1
	return clampInt(qp*4, 0, MaxQP)
}

// QualityToQP maps a rate-control quality value in [0, MaxQuality] to a
// 12-bit wire QP. The top of the range (quality within 60 of MaxQuality,
// i.e. within 15 on the 0..100 percent scale: d_hi < 60) is a hardcoded
// high-quality segment so quality == MaxQuality reaches QP 16, the
// near-lossless floor; everywhere else, QualityToQP blends in thirds
// between two adjacent sample points.
func QualityToQP(quality int) int {
	quality = clampInt(quality, 0, MaxQuality)
	dHi := 100*QualityScale - quality
	if dHi < 60 {
		return dHi + 16
	}
	v := quality * 2
	actv := v / 3
	frac := v % 3
	a := samplePoint(actv)
	b := samplePoint(actv + 1)
	return (a*(3-frac) + frac*b) / 3
}
