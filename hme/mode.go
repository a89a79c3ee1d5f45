/*
DESCRIPTION
  mode.go implements the level-0 mode/flag decision (§4.6): SKIP,
  per-quadrant intra submask with DC source selection, MAINTAIN, SIMCMPLX,
  NOXMITY/NOXMITC, and EPRM, each derived from simple thresholded
  comparisons between source, reference, and intra-predicted block
  statistics.
*/

package hme

import (
	"github.com/ausocean/dsv2/blockmeta"
	"github.com/ausocean/dsv2/frame"
	"github.com/ausocean/dsv2/mv"
)

// modeThresholds bundles the QP-derived thresholds the mode decision
// compares against.
type modeThresholds struct {
	skip     int
	maintain int
	simplex  int
	noXmit   int
	clipHi   int
	clipLo   int
}

func newModeThresholds(qp, blockArea int) modeThresholds {
	return modeThresholds{
		skip:     qp * blockArea >> 8,
		maintain: qp * 2,
		simplex:  qp * 3,
		noXmit:   qp >> 4,
		clipHi:   250,
		clipLo:   5,
	}
}

func quadrantRect(bx, by, bw, bh, q int) (x, y, w, h int) {
	hw, hh := bw/2, bh/2
	return bx + (q%2)*hw, by + (q/2)*hh, hw, hh
}

// decideMode evaluates one block's final full-pel-or-sub-pel vector
// against source/reference statistics and returns the flags/submask/DC the
// packet encoder will transmit.
func decideMode(src, ref *frame.Plane, bx, by, bw, bh, qp int, best cand, blockErr int) (flags uint32, submask uint8, dc uint16) {
	th := newModeThresholds(qp, bw*bh)

	zeroErr := ssd(src, ref, bx, by, bx, by, bw, bh)
	if zeroErr <= th.skip {
		flags |= mv.FlagSkip
		return flags, 0, 0
	}

	rx, ry := bx+best.x, by+best.y
	var anyIntra bool
	srcAvgWhole := blockMean(src, bx, by, bw, bh)
	allSubErrWorseThanRefAvg := true
	for q := 0; q < 4; q++ {
		qx, qy, qw, qh := quadrantRect(bx, by, bw, bh, q)
		qrx, qry := qx+best.x, qy+best.y

		refAvg := blockMean(ref, qrx, qry, qw, qh)
		srcAvg := blockMean(src, qx, qy, qw, qh)
		interErr := ssd(src, ref, qx, qy, qrx, qry, qw, qh)
		intraRefErr := dcErr(src, qx, qy, qw, qh, refAvg)
		intraSrcErr := dcErr(src, qx, qy, qw, qh, srcAvg)

		detailBias := texture(src, qx, qy, qw, qh) / (qw * qh)
		if intraRefErr+detailBias < interErr && intraRefErr <= intraSrcErr {
			anyIntra = true
			submask |= byte(1 << uint(q))
		} else if intraSrcErr+detailBias < interErr {
			anyIntra = true
			submask |= byte(1 << uint(q))
		}
		if intraRefErr <= interErr {
			allSubErrWorseThanRefAvg = false
		}
	}

	if anyIntra {
		flags |= mv.FlagIntra
		if allSubErrWorseThanRefAvg {
			dc = mv.SrcDCPred | uint16(srcAvgWhole&0xFF)
		}
	}

	refVar := variance(ref, rx, ry, bw, bh)
	srcVar := variance(src, bx, by, bw, bh)
	if rng := absInt(refVar - srcVar); rng < th.maintain {
		flags |= mv.FlagMaintain
	}
	if absInt(refVar-srcVar) < th.simplex {
		flags |= mv.FlagSimplex
	}

	residual := blockErr / (bw * bh)
	if residual < th.noXmit {
		flags |= mv.FlagNoXmitY | mv.FlagNoXmitC
	}

	if wouldClip(src, ref, bx, by, rx, ry, bw, bh) {
		flags |= mv.FlagEPRM
	}

	return flags, submask, dc
}

func dcErr(p *frame.Plane, x, y, w, h, dc int) int {
	sum := 0
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			d := int(p.At(x+i, y+j)) - dc
			sum += d * d
		}
	}
	return sum
}

func variance(p *frame.Plane, x, y, w, h int) int {
	mean := blockMean(p, x, y, w, h)
	return dcErr(p, x, y, w, h, mean) / (w * h)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// wouldClip reports whether a residual computed against either the
// reference or an intra (source/reference average) prediction would push
// a reconstructed sample outside [0,255] before clamping -- the trigger
// for EPRM's extended residual range.
func wouldClip(src, ref *frame.Plane, sx, sy, rx, ry, bw, bh int) bool {
	for j := 0; j < bh; j++ {
		for i := 0; i < bw; i++ {
			s := int(src.At(sx+i, sy+j))
			r := int(ref.At(rx+i, ry+j))
			res := s - r
			if res+r < -64 || res+r > 319 {
				return true
			}
		}
	}
	return false
}

// RingingAndIntraMeta sets the blockmeta flags carried separately from the
// motion vector field (ringing/intra psy flags accumulated over the
// picture), used by sbt's block-adaptive filter and hzcc's per-position
// divisor.
func RingingAndIntraMeta(bm *blockmeta.Array, bx, by int, flags uint32, submask uint8) {
	if flags&mv.FlagIntra != 0 {
		bm.SetIntra(bx, by, true)
	}
	if flags&mv.FlagMaintain != 0 {
		bm.SetMaintain(bx, by, true)
	}
	if flags&mv.FlagSimplex != 0 {
		bm.SetSimComplex(bx, by, true)
	}
	if submask != 0 {
		bm.SetRinging(bx, by, true)
	}
}
