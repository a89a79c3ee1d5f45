/*
DESCRIPTION
  predict.go implements the spatial motion vector predictor used by the
  bitstream coder (§4.7): the predicted vector is whichever of (left, top)
  is closer to (left+top-topleft), a cheap stand-in for a true median that
  the source codec uses to keep the predictor symmetric between encoder and
  decoder without extra state.
*/

package mv

// Predict returns the predicted (px, py) for block (bx, by) in field f,
// derived from the left, top and top-left neighbors. Off-picture neighbors
// are treated as zero vectors, matching the decoder which has not yet
// populated them (first row/column).
func Predict(f *Field, bx, by int) (px, py int16) {
	var left, top, topleft MV
	haveLeft := bx > 0
	haveTop := by > 0
	haveTopLeft := bx > 0 && by > 0

	if haveLeft {
		left = f.At(bx-1, by)
	}
	if haveTop {
		top = f.At(bx, by-1)
	}
	if haveTopLeft {
		topleft = f.At(bx-1, by-1)
	}

	px = closer(left.X, top.X, topleft.X)
	py = closer(left.Y, top.Y, topleft.Y)
	return px, py
}

// closer returns whichever of l, t is nearer to (l+t-tl).
func closer(l, t, tl int16) int16 {
	target := int32(l) + int32(t) - int32(tl)
	dl := abs32(int32(l) - target)
	dt := abs32(int32(t) - target)
	if dl <= dt {
		return l
	}
	return t
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
