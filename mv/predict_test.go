package mv

import "testing"

// TestPredictEncodeDecodeRoundTrip exercises the property from spec §8:
// encoder (cvx-px, cvy-py) followed by decoder px+seg reproduces cvx, cvy
// for any sequence of blocks, where px is the Predict()-derived value.
func TestPredictEncodeDecodeRoundTrip(t *testing.T) {
	w, h := 5, 4
	actual := NewField(w, h)
	decoded := NewField(w, h)

	cvx := func(bx, by int) int16 { return int16((bx*7 - by*3) % 17) }
	cvy := func(bx, by int) int16 { return int16((bx*2 + by*5) % 13) }

	for by := 0; by < h; by++ {
		for bx := 0; bx < w; bx++ {
			px, py := Predict(decoded, bx, by)
			dx := cvx(bx, by) - px
			dy := cvy(bx, by) - py

			// Encoder side: store the true vector for prediction context
			// on subsequent blocks.
			actual.Set(bx, by, MV{X: cvx(bx, by), Y: cvy(bx, by)})

			// Decoder side: reconstruct purely from predictor + delta.
			rx := px + dx
			ry := py + dy
			decoded.Set(bx, by, MV{X: rx, Y: ry})

			if rx != cvx(bx, by) || ry != cvy(bx, by) {
				t.Fatalf("block (%d,%d): got (%d,%d) want (%d,%d)", bx, by, rx, ry, cvx(bx, by), cvy(bx, by))
			}
		}
	}
}

func TestPredictEdgeBlocks(t *testing.T) {
	f := NewField(3, 3)
	// First block has no neighbors; predictor should be (0,0).
	px, py := Predict(f, 0, 0)
	if px != 0 || py != 0 {
		t.Fatalf("got (%d,%d) want (0,0)", px, py)
	}
}
