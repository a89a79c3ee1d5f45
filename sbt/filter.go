/*
DESCRIPTION
  filter.go replaces the teacher corpus's macro-driven per-level filter
  specialization (see design notes: "macro-driven polymorphism over filter
  kernels") with a small tagged variant and a selection function mirroring
  §4.3's per-level filter choice table.
*/

// Package sbt implements the DSV-2 hierarchical subband transform: forward
// and inverse multi-level 2-D decomposition with a per-level adaptive
// filter choice driven by plane type, frame type, and level.
package sbt

// Kind tags which lifting filter a level uses. Dispatch on Kind replaces
// the teacher's compile-time macro specialization (DO_SIMPLE_INV,
// DO_5_TAP_LO, ...) with a runtime switch whose inner loops are written
// per variant.
type Kind int

const (
	// KindLossless is the reversible integer lifting (two-neighbour average
	// predict, update shift 1) used for every level when QP==1, guaranteeing
	// exact forward/inverse round-trip.
	KindLossless Kind = iota
	// KindHaar is the default non-lossless kind. It uses the same lifting as
	// KindLossless; no overflow-safety shift is applied at any level.
	KindHaar
	// KindCC is the chroma, I-frame, interior-level 5-tap/3-tap filter.
	KindCC
	// KindLLI is the luma I-frame top-level filter (with SHREX).
	KindLLI
	// KindLLP is the luma P-frame top-level filter (with SHREX).
	KindLLP
	// KindL2Adaptive is the luma I-frame L-2 level, block-adaptive 5-tap.
	KindL2Adaptive
	// KindL1Asymmetric is the luma I-frame L-1 level, ASF93.
	KindL1Asymmetric
)

// NumLevels returns ceil(log2(max(w,h))), the number of decomposition
// levels for a plane of the given dimensions.
func NumLevels(w, h int) int {
	m := w
	if h > m {
		m = h
	}
	n := 0
	for (1 << uint(n)) < m {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Select picks the filter Kind for level lvl (1-indexed from the finest
// detail level, with lvl==numLevels being the coarsest/top level) per
// §4.3's predicate table.
func Select(isLuma, isP, lossless bool, lvl, numLevels int) Kind {
	if lossless {
		return KindLossless
	}
	switch {
	case !isLuma && lvl >= 1 && lvl <= numLevels-2:
		return KindCC
	case isLuma && lvl == numLevels && isP:
		return KindLLP
	case isLuma && lvl == numLevels && !isP:
		return KindLLI
	case isLuma && lvl == numLevels-2 && !isP:
		return KindL2Adaptive
	case isLuma && lvl == numLevels-1 && !isP:
		return KindL1Asymmetric
	default:
		return KindHaar
	}
}
