/*
DESCRIPTION
  lifting.go implements the 1-D forward/inverse lifting step for each
  filter Kind. All non-Haar kinds share a predict/update lifting skeleton
  (the classic reversible-wavelet construction: a prediction step derives
  the high band from odd samples and their even neighbors, an update step
  folds the high band back into the even samples to form the low band),
  parameterized per Kind by predict/update radius and post-scale (SHREX).
  The pass order matches the spec's "forward pass is {high-pass
  update, low-pass update, scale-pack}; inverse is {unscale-unpack,
  low-pass un-update, high-pass un-update}" description. The predict,
  update and low-band scale steps invert exactly; the SHREX step is undone
  only approximately, so forward and inverse are exact inverses only for
  the Kinds without SHREX (KindLossless, KindHaar, KindCC,
  KindL1Asymmetric).

  Odd-length input reflects the last sample: it is carried through to the
  low band unchanged, with no paired high-band coefficient, and restored
  directly on the inverse pass.
*/

package sbt

// split separates x into even-indexed and odd-indexed samples.
func split(x []int32) (even, odd []int32) {
	n := len(x)
	even = make([]int32, (n+1)/2)
	odd = make([]int32, n/2)
	for i := range even {
		even[i] = x[2*i]
	}
	for i := range odd {
		odd[i] = x[2*i+1]
	}
	return even, odd
}

// merge is the inverse of split.
func merge(even, odd []int32) []int32 {
	n := len(even) + len(odd)
	x := make([]int32, n)
	for i := range even {
		x[2*i] = even[i]
	}
	for i := range odd {
		x[2*i+1] = odd[i]
	}
	return x
}

// neighborSum returns even[i]+even[i+1], reflecting at the right edge
// (using even[i] twice) when i+1 is out of range.
func neighborSum(even []int32, i int) int32 {
	a := even[i]
	b := a
	if i+1 < len(even) {
		b = even[i+1]
	}
	return a + b
}

// liftParams configures the shared predict/update lifting skeleton.
type liftParams struct {
	predictShift int // high[i] = odd[i] - (neighborSum(even,i) >> predictShift)
	updateShift  int // even'[i] = even[i] + (hNeighborSum(high,i) >> updateShift)
	shrex        int // post-scale shrink-expand shift applied to the high band: h += h>>shrex (0 = none)
	lowScale     int // low band scale shift: low[i] <<= lowScale (0 = none)
}

func hNeighborSum(high []int32, i int) int32 {
	var a, b int32
	if i-1 >= 0 {
		a = high[i-1]
	} else if len(high) > 0 {
		a = high[0]
	}
	if i < len(high) {
		b = high[i]
	} else if len(high) > 0 {
		b = high[len(high)-1]
	}
	return a + b
}

// forwardLift applies the shared predict -> update -> shrex -> scale
// pipeline, returning the packed [low | high] result.
func forwardLift(x []int32, p liftParams) []int32 {
	even, odd := split(x)
	high := make([]int32, len(odd))
	for i := range odd {
		high[i] = odd[i] - (neighborSum(even, i) >> uint(p.predictShift))
	}
	low := make([]int32, len(even))
	copy(low, even)
	for i := range low {
		low[i] += hNeighborSum(high, i) >> uint(p.updateShift)
	}
	if p.shrex > 0 {
		for i := range high {
			high[i] += high[i] >> uint(p.shrex)
		}
	}
	if p.lowScale > 0 {
		for i := range low {
			low[i] <<= uint(p.lowScale)
		}
	}
	return append(append([]int32{}, low...), high...)
}

// inverseLift inverts forwardLift: exactly when p.shrex is 0, and only
// approximately otherwise.
func inverseLift(packed []int32, nLow, nHigh int, p liftParams) []int32 {
	low := append([]int32{}, packed[:nLow]...)
	high := append([]int32{}, packed[nLow:nLow+nHigh]...)

	if p.lowScale > 0 {
		for i := range low {
			low[i] >>= uint(p.lowScale)
		}
	}
	if p.shrex > 0 {
		for i := range high {
			// h' = h + h>>k has no exact integer inverse in general;
			// subtracting h'>>(k+1) recovers h only approximately (for
			// k=1, h=4 gives h'=6, which comes back as 5).
			high[i] -= high[i] >> uint(p.shrex+1)
		}
	}

	even := make([]int32, nLow)
	copy(even, low)
	for i := range even {
		even[i] -= hNeighborSum(high, i) >> uint(p.updateShift)
	}
	odd := make([]int32, nHigh)
	for i := range odd {
		odd[i] = high[i] + (neighborSum(even, i) >> uint(p.predictShift))
	}
	return merge(even, odd)
}

// losslessParams is the reversible lifting used for KindLossless and
// KindHaar: predict from the average of the two even neighbours (shift 1)
// and update with shift 1, no SHREX, no scale.
var losslessParams = liftParams{predictShift: 1, updateShift: 1}

func kindParams(k Kind, lvl, numLevels int, ringing bool) liftParams {
	switch k {
	case KindLossless, KindHaar:
		return losslessParams
	case KindCC:
		return liftParams{predictShift: 1, updateShift: 2, lowScale: 1}
	case KindLLI:
		return liftParams{predictShift: 1, updateShift: 2, shrex: 2, lowScale: 1}
	case KindLLP:
		return liftParams{predictShift: 1, updateShift: 2, shrex: 1, lowScale: 1}
	case KindL2Adaptive:
		if ringing {
			return liftParams{predictShift: 1, updateShift: 3, shrex: 2}
		}
		return liftParams{predictShift: 1, updateShift: 1, shrex: 2}
	case KindL1Asymmetric:
		return liftParams{predictShift: 1, updateShift: 1, shrex: 0, lowScale: 1}
	default:
		return losslessParams
	}
}

// Forward1D runs one level of the 1-D lifting transform for Kind k on row
// (or column) x, returning the packed [low | high] sequence.
func Forward1D(x []int32, k Kind, lvl, numLevels int, ringing bool) []int32 {
	return forwardLift(x, kindParams(k, lvl, numLevels, ringing))
}

// Inverse1D inverts Forward1D given the same Kind, level, and original
// length n (needed to split low/high correctly for odd n); the round trip
// is exact for Kinds without SHREX and approximate for the others.
func Inverse1D(packed []int32, n int, k Kind, lvl, numLevels int, ringing bool) []int32 {
	nLow := (n + 1) / 2
	nHigh := n / 2
	return inverseLift(packed, nLow, nHigh, kindParams(k, lvl, numLevels, ringing))
}
