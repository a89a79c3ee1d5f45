/*
DESCRIPTION
  pipeline.go holds the per-picture coding pipeline shared by Encoder and
  Decoder: the residual/prediction coefficient-domain conventions of §4.5
  (plain residual, EPRM-packed residual, no-transmit blocks), and the
  inverse path that turns a picture's HZCC-coded coefficient planes back
  into a reconstructed frame. Keeping both directions in one file ensures
  the encoder's own reference frame is built by the exact same code path
  the decoder uses, so predictive drift can only come from quantization,
  never from divergent reconstruction logic.
*/

package dsv2

import (
	"github.com/ausocean/dsv2/blockmeta"
	"github.com/ausocean/dsv2/bmc"
	"github.com/ausocean/dsv2/frame"
	"github.com/ausocean/dsv2/hzcc"
	"github.com/ausocean/dsv2/mv"
	"github.com/ausocean/dsv2/sbt"
)

// quantMeta returns the view of meta that position-adaptive quantization
// may use: unchanged for an I-frame (every flag PositionDivisor consults
// is transmitted), or, for a P-frame, a copy with only the STABLE/SKIP bit
// preserved, since MAINTAIN/SIMCMPLX/RINGING never reach the wire for
// inter pictures.
func quantMeta(meta *blockmeta.Array, isI bool) *blockmeta.Array {
	if meta == nil || isI {
		return meta
	}
	out := blockmeta.New(meta.W, meta.H)
	for by := 0; by < meta.H; by++ {
		for bx := 0; bx < meta.W; bx++ {
			out.SetSkip(bx, by, meta.Skip(bx, by))
		}
	}
	return out
}

// reconVec returns the motion vector a reconstruction pass should use for
// block (bx, by): a skipped block always reconstructs as a direct,
// zero-displacement copy of the reference, regardless of whatever
// candidate vector the motion search happened to leave in the field.
func reconVec(v mv.MV) mv.MV {
	if v.Skip() {
		return mv.MV{Flags: v.Flags}
	}
	return v
}

// predictPlane fills pred (already sized to match src) with the
// intra/inter prediction for every block, per §4.5.
func predictPlane(pred, ref *frame.Plane, field *mv.Field, bw, bh, shiftX, shiftY int, isLuma bool) {
	for by := 0; by < field.H; by++ {
		for bx := 0; bx < field.W; bx++ {
			v := reconVec(field.At(bx, by))
			px, py := (bx*bw)>>uint(shiftX), (by*bh)>>uint(shiftY)
			pw, ph := bw>>uint(shiftX), bh>>uint(shiftY)
			if px+pw > pred.W {
				pw = pred.W - px
			}
			if py+ph > pred.H {
				ph = pred.H - py
			}
			if pw <= 0 || ph <= 0 {
				continue
			}
			if v.Intra() {
				if isLuma {
					bmc.IntraLuma(pred, ref, px, py, pw, ph, v)
				} else {
					bmc.IntraChroma(pred, ref, px, py, pw, ph, v)
				}
				continue
			}
			if isLuma {
				bmc.InterLuma(pred, ref, px, py, pw, ph, v, false)
			} else {
				bmc.InterChroma(pred, ref, px, py, pw, ph, v, shiftX, shiftY)
			}
		}
	}
}

// blockFlagsAt returns the flags of the motion block covering plane pixel
// (x, y), mapped onto the luma block grid via shiftX/shiftY.
func blockFlagsAt(field *mv.Field, x, y, bw, bh, shiftX, shiftY int) mv.MV {
	bx := (x << uint(shiftX)) / bw
	by := (y << uint(shiftY)) / bh
	if bx >= field.W {
		bx = field.W - 1
	}
	if by >= field.H {
		by = field.H - 1
	}
	return field.At(bx, by)
}

// buildResidualCoef computes the coefficient-domain source array for one
// plane, ready for sbt.Forward: for an I-frame, every sample is simply
// centered (pixel-128); for a P-frame, every sample is the prediction
// error, packed through EPRM's halved range when the covering block is
// flagged EPRM, or forced to the neutral (no-op) value when the covering
// block is flagged NOXMITY/NOXMITC.
func buildResidualCoef(src, pred *frame.Plane, field *mv.Field, bw, bh, shiftX, shiftY int, isLuma bool) *sbt.CoefPlane {
	w, h := src.W, src.H
	out := sbt.NewCoefPlane(w, h)
	noXmit := mv.FlagNoXmitY
	if !isLuma {
		noXmit = mv.FlagNoXmitC
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := int(src.At(x, y))
			if field == nil {
				out.Data[y*w+x] = int32(s - 128)
				continue
			}
			v := blockFlagsAt(field, x, y, bw, bh, shiftX, shiftY)
			p := int(pred.At(x, y))
			var c int32
			switch {
			case v.Flags&noXmit != 0:
				c = 128
			case v.EPRM():
				c = int32(bmc.PackEPRMResidual(s, p))
			default:
				c = int32(s - p + 128)
			}
			out.Data[y*w+x] = c
		}
	}
	return out
}

// reconstructPlane inverts buildResidualCoef given the (already
// inverse-transformed) coefficient plane, applying Reconstruct per block
// with that block's EPRM/lossless mode.
func reconstructPlane(dst, pred *frame.Plane, coef *sbt.CoefPlane, field *mv.Field, lossless bool, bw, bh, shiftX, shiftY int, isLuma bool) {
	w, h := dst.W, dst.H
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			res := int(coef.Data[y*w+x])
			if field == nil {
				dst.Set(x, y, clamp8(res+128))
				continue
			}
			v := blockFlagsAt(field, x, y, bw, bh, shiftX, shiftY)
			p := int(pred.At(x, y))
			dst.Set(x, y, bmc.Reconstruct(p, res, v.EPRM(), lossless))
		}
	}
}

func clamp8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// reconstructPicture rebuilds a full frame from a picture's decoded (or,
// on the encoder side, round-tripped-through-the-wire) coefficient planes,
// reusing the same prediction built from ref. doFilter gates the in-loop
// deblocking/restoration pass of §4.5.2.
func reconstructPicture(ref *frame.Frame, field *mv.Field, planes [3]*sbt.CoefPlane, sbtParams [3]sbt.Params, lossless, doFilter bool, bw, bh int) (*frame.Frame, error) {
	w, h := planes[0].W, planes[0].H
	// The chroma shifts follow from the chroma plane's size relative to
	// luma, so I-frames (no ref) get the same plane geometry as P-frames.
	var chromaShiftX, chromaShiftY int
	for (w+(1<<uint(chromaShiftX))-1)>>uint(chromaShiftX) > planes[1].W {
		chromaShiftX++
	}
	for (h+(1<<uint(chromaShiftY))-1)>>uint(chromaShiftY) > planes[1].H {
		chromaShiftY++
	}
	out, err := frame.New(w, h, chromaShiftX, chromaShiftY, true)
	if err != nil {
		return nil, err
	}

	isI := field == nil
	planeShifts := [3][2]int{{0, 0}, {chromaShiftX, chromaShiftY}, {chromaShiftX, chromaShiftY}}
	dstPlanes := out.Planes()
	var refPlanes [3]*frame.Plane
	if ref != nil {
		refPlanes = ref.Planes()
	}

	for i, cp := range planes {
		cpCopy := &sbt.CoefPlane{W: cp.W, H: cp.H, Data: append([]int32(nil), cp.Data...)}
		sbt.Inverse(cpCopy, sbtParams[i])

		isLuma := i == 0
		if isI {
			reconstructPlane(dstPlanes[i], nil, cpCopy, nil, lossless, bw, bh, 0, 0, isLuma)
			if doFilter {
				applyInLoopFilters(dstPlanes[i], nil, bw, bh, planeShifts[i][0], planeShifts[i][1], isLuma)
			}
			continue
		}

		pred := blankPlane(dstPlanes[i].W, dstPlanes[i].H, dstPlanes[i].Bordered)
		predictPlane(pred, refPlanes[i], field, bw, bh, planeShifts[i][0], planeShifts[i][1], isLuma)
		reconstructPlane(dstPlanes[i], pred, cpCopy, field, lossless, bw, bh, planeShifts[i][0], planeShifts[i][1], isLuma)
		if doFilter {
			applyInLoopFilters(dstPlanes[i], field, bw, bh, planeShifts[i][0], planeShifts[i][1], isLuma)
		}
	}
	out.Extend()
	return out, nil
}

// applyInLoopFilters runs the deblocking pass over p, plus, for an I-frame
// (field == nil) the intra smoothing filter or, per block, the inter
// texture-restoring filter matching the block's coded mode.
func applyInLoopFilters(p *frame.Plane, field *mv.Field, bw, bh, shiftX, shiftY int, isLuma bool) {
	bmc.Deblock(p)
	pbw, pbh := bw>>uint(shiftX), bh>>uint(shiftY)
	if pbw < 1 {
		pbw = 1
	}
	if pbh < 1 {
		pbh = 1
	}
	if field == nil {
		for y := 0; y < p.H; y += pbh {
			for x := 0; x < p.W; x += pbw {
				w, h := clampBlock(x, pbw, p.W), clampBlock(y, pbh, p.H)
				bmc.IntraSmooth(p, x, y, w, h)
			}
		}
		return
	}
	for by := 0; by < field.H; by++ {
		for bx := 0; bx < field.W; bx++ {
			v := field.At(bx, by)
			x, y := (bx*bw)>>uint(shiftX), (by*bh)>>uint(shiftY)
			w, h := clampBlock(x, pbw, p.W), clampBlock(y, pbh, p.H)
			if w <= 0 || h <= 0 {
				continue
			}
			switch {
			case v.Intra():
				bmc.IntraSmooth(p, x, y, w, h)
			case isLuma:
				bmc.InterLumaFilter(p, x, y, w, h)
			default:
				bmc.InterChromaFilter(p, x, y, w, h)
			}
		}
	}
}

func clampBlock(pos, size, limit int) int {
	if pos+size > limit {
		size = limit - pos
	}
	return size
}

func blankPlane(w, h int, bordered bool) *frame.Plane {
	f, _ := frame.New(w, h, 0, 0, bordered)
	return &f.Y
}

func sbtParamsFor(isLuma, isP, lossless bool, w, h int, adapt *sbt.AdaptiveCtx) sbt.Params {
	return sbt.Params{
		IsLuma:    isLuma,
		IsP:       isP,
		Lossless:  lossless,
		NumLevels: sbt.NumLevels(w, h),
		Adaptive:  adapt,
	}
}

func hzccParamsFor(q int, isLuma, isP, lossless bool, shiftX, shiftY int, blocks *hzccBlocks) hzcc.Params {
	p := hzcc.Params{Q: q, IsLuma: isLuma, IsP: isP, Lossless: lossless, ChromaShiftX: shiftX, ChromaShiftY: shiftY}
	if blocks != nil {
		p.Blocks, p.NBlocksH, p.NBlocksV = blocks.meta, blocks.nbH, blocks.nbV
	}
	return p
}
