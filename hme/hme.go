/*
DESCRIPTION
  hme.go is the top-level hierarchical motion estimation driver: builds
  pyramids for the source and reference frames, searches coarsest-to-finest
  (§4.6 step 1-4), refines to quarter-pel at the finest level (step 6), runs
  the level-0 mode decision (mode.go), and accumulates the picture-level
  statistics (intra/scene-change percentage, average block error) the
  encoder uses to decide whether to force an I-frame.
*/

package hme

import (
	"github.com/ausocean/dsv2/blockmeta"
	"github.com/ausocean/dsv2/frame"
	"github.com/ausocean/dsv2/mv"
)

// Stats summarizes one picture's motion search, used by the encoder's
// scene-change/I-frame-forcing heuristic.
type Stats struct {
	IntraPct       float64
	SceneChangePct float64
	AvgBlockError  float64
}

// Result is the output of Estimate: the final vector field, the blockmeta
// psy flags accumulated during mode decision, and the picture statistics.
type Result struct {
	Field *mv.Field
	Meta  *blockmeta.Array
	Stats Stats
}

// sceneChangeBlockErrThresh is the per-block prediction SSD above which a
// block counts toward Stats.SceneChangePct, one of the encoder's
// force-I-frame heuristic inputs (§4.6's closing paragraph); it is a plain
// constant here since CRF/ABR-specific tuning lives in ratectl.
const (
	sceneChangeBlockErrThresh = 4096
)

// Estimate runs the full hierarchical motion search of src against ref,
// returning a finished per-block vector field plus psy metadata and
// picture statistics. prevField is the previous frame's final vector
// field at full resolution (nil for the first P-frame after an I-frame).
func Estimate(src, ref *frame.Frame, bw, bh, qp int, prevField *mv.Field) Result {
	nbH := (src.Y.W + bw - 1) / bw
	nbV := (src.Y.H + bh - 1) / bh
	numLevels := NumLevels(nbH, nbV)

	srcPyr := Build(src, numLevels)
	refPyr := Build(ref, numLevels)

	var levelField []cand
	var levelW, levelH int
	var prevCand []cand
	if prevField != nil && prevField.W == nbH && prevField.H == nbV {
		prevCand = make([]cand, len(prevField.Vecs))
		for i, v := range prevField.Vecs {
			prevCand[i] = cand{int(v.X) / 4, int(v.Y) / 4}
		}
	}

	global := cand{0, 0}
	var globalSum cand
	var globalCount int

	for lvl := 0; lvl < numLevels; lvl++ {
		sp := srcPyr.Levels[lvl]
		rp := refPyr.Levels[lvl]
		// Block dimensions shrink with the pyramid level but never below 1
		// sample; the grid dimensions stay nbH x nbV at every level (the
		// "step 2^level" in the spec means block *positions* advance by
		// 2^level in full-resolution units, which downsampling already
		// folds into sp/rp's reduced coordinate space).
		lbw := bw >> uint(numLevels-1-lvl)
		lbh := bh >> uint(numLevels-1-lvl)
		if lbw < 1 {
			lbw = 1
		}
		if lbh < 1 {
			lbh = 1
		}

		newField := make([]cand, nbH*nbV)
		var parent []cand
		var pw, ph int
		if lvl > 0 {
			parent = levelField
			pw, ph = levelW, levelH
		}

		for by := 0; by < nbV; by++ {
			for bx := 0; bx < nbH; bx++ {
				predX, predY := 0, 0
				sx, sy := bx*lbw, by*lbh
				if sx+lbw > sp.Plane.W {
					sx = sp.Plane.W - lbw
				}
				if sy+lbh > sp.Plane.H {
					sy = sp.Plane.H - lbh
				}
				if sx < 0 {
					sx = 0
				}
				if sy < 0 {
					sy = 0
				}

				var prevRow []cand
				if lvl == numLevels-1 {
					prevRow = prevCand
				}
				cands := candidates(cand{0, 0}, parent, pw, ph, newField, nbH, nbV, bx, by, prevRow, global)

				// The metric and vector cost number levels from the finest
				// (0), the reverse of the pyramid's coarsest-first order.
				mlvl := numLevels - 1 - lvl
				best, _ := pickBest(sp.Plane, rp.Plane, sx, sy, lbw, lbh, mlvl, qp, predX, predY, cands)
				best, _ = refineDiamond(sp.Plane, rp.Plane, sx, sy, lbw, lbh, mlvl, qp, predX, predY, best)
				newField[by*nbH+bx] = best
				globalSum.x += best.x
				globalSum.y += best.y
				globalCount++
			}
		}

		levelField = newField
		levelW, levelH = nbH, nbV
		if globalCount > 0 {
			global = cand{(globalSum.x / globalCount) * 2, (globalSum.y / globalCount) * 2}
		}
		globalSum, globalCount = cand{}, 0
	}

	// Finest level: quarter-pel refinement + mode decision.
	field := mv.NewField(nbH, nbV)
	meta := blockmeta.New(nbH, nbV)

	var totalErr, intraBlocks, sceneChangeBlocks int
	for by := 0; by < nbV; by++ {
		for bx := 0; bx < nbH; bx++ {
			sx, sy := bx*bw, by*bh
			lbw, lbh := bw, bh
			if sx+lbw > src.Y.W {
				lbw = src.Y.W - sx
			}
			if sy+lbh > src.Y.H {
				lbh = src.Y.H - sy
			}
			full := levelField[by*nbH+bx]

			predX, predY := mv.Predict(field, bx, by)
			qfinal, blockErr := refineQuarterPel(&src.Y, &ref.Y, sx, sy, lbw, lbh, qp, int(predX), int(predY), full)

			flags, submask, dc := decideMode(&src.Y, &ref.Y, sx, sy, lbw, lbh, qp, full, blockErr)

			v := mv.MV{
				X:       int16(qfinal.x),
				Y:       int16(qfinal.y),
				Flags:   flags,
				DC:      dc,
				Submask: submask,
				Err:     uint16(clampU16(blockErr)),
			}
			field.Set(bx, by, v)
			RingingAndIntraMeta(meta, bx, by, flags, submask)

			totalErr += blockErr
			if flags&mv.FlagIntra != 0 {
				intraBlocks++
			}
			if blockErr > sceneChangeBlockErrThresh {
				sceneChangeBlocks++
			}
		}
	}

	n := nbH * nbV
	stats := Stats{
		IntraPct:       100 * float64(intraBlocks) / float64(n),
		SceneChangePct: 100 * float64(sceneChangeBlocks) / float64(n),
		AvgBlockError:  float64(totalErr) / float64(n),
	}

	return Result{Field: field, Meta: meta, Stats: stats}
}

func clampU16(v int) int {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return v
}
