/*
DESCRIPTION
  candidate.go assembles the candidate motion vectors evaluated at each
  pyramid level and block (§4.6 step 1): zero, parent-average (with
  inlier pruning), spatial neighbors, temporal neighbors from the previous
  frame's final field, and the running global motion estimate.
*/

package hme

import "gonum.org/v1/gonum/stat"

// cand is a full-pel candidate displacement in the current level's sample
// grid.
type cand struct{ x, y int }

func dedupe(cands []cand) []cand {
	seen := make(map[cand]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// parentAverage averages the coarser level's vectors in a 3x3 neighborhood
// around (bx, by) (the block grid dimensions stay fixed across pyramid
// levels here -- only the image resolution shrinks -- so the parent
// field shares the current level's block indexing directly), pruning
// outliers more than one standard deviation from the mean squared
// distance.
func parentAverage(parent []cand, pw, ph, bx, by int) (cand, bool) {
	if parent == nil {
		return cand{}, false
	}
	px, py := bx, by
	var samples []cand
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := px+dx, py+dy
			if x < 0 || x >= pw || y < 0 || y >= ph {
				continue
			}
			samples = append(samples, parent[y*pw+x])
		}
	}
	if len(samples) == 0 {
		return cand{}, false
	}
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = float64(s.x)
		ys[i] = float64(s.y)
	}
	mx, varX := stat.MeanVariance(xs, nil)
	my, varY := stat.MeanVariance(ys, nil)
	threshold := varX + varY // one std-dev in squared-distance terms

	var fx, fy, count float64
	for _, s := range samples {
		dx, dy := float64(s.x)-mx, float64(s.y)-my
		if dx*dx+dy*dy <= threshold || count == 0 {
			fx += float64(s.x)
			fy += float64(s.y)
			count++
		}
	}
	if count == 0 {
		return cand{int(mx * 2), int(my * 2)}, true
	}
	return cand{int((fx / count) * 2), int((fy / count) * 2)}, true
}

// spatialNeighbors returns the left/top/top-left vectors of the field
// being built for the current level.
func spatialNeighbors(field []cand, w, bx, by int) []cand {
	var out []cand
	if bx > 0 {
		out = append(out, field[by*w+bx-1])
	}
	if by > 0 {
		out = append(out, field[(by-1)*w+bx])
		if bx > 0 {
			out = append(out, field[(by-1)*w+bx-1])
		}
	}
	return out
}

// temporalNeighbors returns the 9-cell cross pattern around (bx,by) in the
// previous frame's finest-level final field, if available.
func temporalNeighbors(prev []cand, w, h, bx, by int) []cand {
	if prev == nil {
		return nil
	}
	var out []cand
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := bx+dx, by+dy
			if x < 0 || x >= w || y < 0 || y >= h {
				continue
			}
			out = append(out, prev[y*w+x])
		}
	}
	return out
}

// candidates assembles and deduplicates the full candidate list for one
// block. field is the in-progress vector grid for the current level
// (w blocks wide); prev is the previous frame's final field at the same
// grid dimensions (nil if unavailable, e.g. the first frame).
func candidates(zero cand, parent []cand, pw, ph int, field []cand, w, h, bx, by int, prev []cand, global cand) []cand {
	list := []cand{zero, global}
	if pa, ok := parentAverage(parent, pw, ph, bx, by); ok {
		list = append(list, pa)
	}
	list = append(list, spatialNeighbors(field, w, bx, by)...)
	list = append(list, temporalNeighbors(prev, w, h, bx, by)...)
	return dedupe(list)
}
