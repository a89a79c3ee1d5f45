/*
DESCRIPTION
  picture.go implements the PIC packet payload (§4.7 packet type
  0x04|is_ref<<1|has_ref): frame number, block size exponents, do_filter
  flag, QP, the stat polarity bits, the per-block stability/motion/intra
  metadata sub-streams, and the three HZCC-coded coefficient planes.
*/

package packet

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ausocean/dsv2/bitstream"
	"github.com/ausocean/dsv2/blockmeta"
	"github.com/ausocean/dsv2/hzcc"
	"github.com/ausocean/dsv2/mv"
	"github.com/ausocean/dsv2/sbt"
)

// MaxQPBits is the fixed width of the transmitted QP field.
const MaxQPBits = 12

// PictureHeader carries the per-picture fields transmitted ahead of the
// metadata/motion/plane sub-streams. The stat-stream polarity bits are not
// part of this struct: EncodePicture derives and transmits them itself, per
// block content, via choosePolarity.
type PictureHeader struct {
	FrameNumber    uint32
	BlockW, BlockH int
	IsI            bool
	DoFilter       bool
	QP             int
}

// blockSizeExponent maps a block dimension (16 or 32) to its UEG-encoded
// exponent-minus-4 value.
func blockSizeExponent(v int) (uint32, error) {
	switch v {
	case 16:
		return 0, nil
	case 32:
		return 1, nil
	default:
		return 0, errors.Errorf("packet: unsupported block size %d", v)
	}
}

func blockSizeFromExponent(e uint32) (int, error) {
	switch e {
	case 0:
		return 16, nil
	case 1:
		return 32, nil
	default:
		return 0, errors.Errorf("packet: unsupported block size exponent %d", e)
	}
}

// choosePolarity picks whichever bit value produces the shorter RLE run
// stream for bits, per §4.7's "stat bits invert the corresponding RLE
// stream" optimization.
func choosePolarity(bits []bool) bool {
	// ZBRLE codes the runs of zeros between ones, so the stream is shorter
	// when ones are the minority: invert when ones outnumber zeros.
	ones := 0
	for _, b := range bits {
		if b {
			ones++
		}
	}
	return ones*2 > len(bits)
}

func applyPolarity(bits []bool, polarity bool) []bool {
	if !polarity {
		return bits
	}
	out := make([]bool, len(bits))
	for i, b := range bits {
		out[i] = !b
	}
	return out
}

func writeZBRLEBits(w *bitstream.Writer, bits []bool) error {
	sub := make([]byte, len(bits)/4+8)
	sw := bitstream.NewWriter(sub)
	z := bitstream.NewZBRLEWriter(sw)
	for _, b := range bits {
		v := 0
		if b {
			v = 1
		}
		if err := z.PutBit(v); err != nil {
			return err
		}
	}
	if err := z.Close(); err != nil {
		return err
	}
	payload := sub[:sw.BytePos()]
	if err := w.PutUEG(uint32(len(payload))); err != nil {
		return err
	}
	w.Align()
	return w.Concat(payload)
}

func readZBRLEBits(r *bitstream.Reader, n int) ([]bool, error) {
	length, err := r.GetUEG()
	if err != nil {
		return nil, err
	}
	r.Align()
	payload, err := r.Bytes(int(length))
	if err != nil {
		return nil, err
	}
	sr := bitstream.NewReader(payload)
	z := bitstream.NewZBRLEReader(sr)
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		b, err := z.GetBit()
		if err != nil {
			return nil, err
		}
		out[i] = b != 0
	}
	return out, nil
}

// EncodePicture assembles a full PIC packet payload (everything after the
// packet header) from a set of already motion-estimated/transformed
// inputs: the per-block metadata, the motion vector field (nil for
// I-frames), and the three already-quantized coefficient planes.
func EncodePicture(hdr PictureHeader, meta *blockmeta.Array, field *mv.Field, planes [3]*sbt.CoefPlane, hzccParams [3]hzcc.Params) ([]byte, error) {
	nbH, nbV := meta.W, meta.H
	n := nbH * nbV

	// Conservative upper bound: header fields plus per-block sub-streams
	// plus the three plane payloads (each bounded by hzcc.EncodePlane's own
	// estimate of 39 bytes plus 10 bytes per coefficient).
	size := 64 + 2*n + 4096
	for _, cp := range planes {
		size += 39 + 10*cp.W*cp.H
	}
	buf := make([]byte, size)
	w := bitstream.NewWriter(buf)

	bwExp, err := blockSizeExponent(hdr.BlockW)
	if err != nil {
		return nil, err
	}
	bhExp, err := blockSizeExponent(hdr.BlockH)
	if err != nil {
		return nil, err
	}
	if err := w.PutBits(32, hdr.FrameNumber); err != nil {
		return nil, err
	}
	if err := w.PutUEG(bwExp); err != nil {
		return nil, err
	}
	if err := w.PutUEG(bhExp); err != nil {
		return nil, err
	}

	if err := w.PutBit(boolBit(hdr.DoFilter)); err != nil {
		return nil, err
	}
	if err := w.PutBits(MaxQPBits, uint32(hdr.QP)); err != nil {
		return nil, err
	}

	// Stability (P: SKIP reuses the same slot). The polarity bit is chosen
	// to minimize the ZBRLE run count, then transmitted ahead of the
	// stream so the decoder can undo it.
	stability := make([]bool, n)
	for by := 0; by < nbV; by++ {
		for bx := 0; bx < nbH; bx++ {
			if hdr.IsI {
				stability[by*nbH+bx] = meta.Stable(bx, by)
			} else {
				stability[by*nbH+bx] = meta.Skip(bx, by)
			}
		}
	}
	stablePol := choosePolarity(stability)
	if err := w.PutBit(boolBit(stablePol)); err != nil {
		return nil, err
	}

	if hdr.IsI {
		ringing := make([]bool, n)
		maintain := make([]bool, n)
		for by := 0; by < nbV; by++ {
			for bx := 0; bx < nbH; bx++ {
				ringing[by*nbH+bx] = meta.Ringing(bx, by)
				maintain[by*nbH+bx] = meta.Maintain(bx, by)
			}
		}
		maintainPol := choosePolarity(maintain)
		ringingPol := choosePolarity(ringing)
		if err := w.PutBit(boolBit(maintainPol)); err != nil {
			return nil, err
		}
		if err := w.PutBit(boolBit(ringingPol)); err != nil {
			return nil, err
		}
		if err := writeZBRLEBits(w, applyPolarity(stability, stablePol)); err != nil {
			return nil, err
		}
		if err := writeZBRLEBits(w, applyPolarity(ringing, ringingPol)); err != nil {
			return nil, err
		}
		if err := writeZBRLEBits(w, applyPolarity(maintain, maintainPol)); err != nil {
			return nil, err
		}
	} else {
		if field == nil {
			return nil, errors.New("packet: P-frame requires a motion vector field")
		}
		modeBits, eprmBits := motionStatBits(field)
		modePol := choosePolarity(modeBits)
		eprmPol := choosePolarity(eprmBits)
		if err := w.PutBit(boolBit(modePol)); err != nil {
			return nil, err
		}
		if err := w.PutBit(boolBit(eprmPol)); err != nil {
			return nil, err
		}
		if err := writeZBRLEBits(w, applyPolarity(stability, stablePol)); err != nil {
			return nil, err
		}
		if err := encodeMotionSubStreams(w, field, modeBits, eprmBits, modePol, eprmPol); err != nil {
			return nil, err
		}
	}

	// Plane payloads: each self-framed by hzcc's own length prefix.
	for i, cp := range planes {
		w.Align()
		payload, err := hzcc.EncodePlane(cp, hzccParams[i])
		if err != nil {
			return nil, errors.Wrapf(err, "encoding plane %d", i)
		}
		if err := w.Concat(payload); err != nil {
			return nil, err
		}
	}

	return buf[:w.BytePos()], nil
}

// motionStatBits extracts the per-block intra and EPRM flags from field, in
// raster order, for polarity selection and SUB_MODE/SUB_EPRM encoding.
func motionStatBits(field *mv.Field) (modeBits, eprmBits []bool) {
	nbH, nbV := field.W, field.H
	n := nbH * nbV
	modeBits = make([]bool, n)
	eprmBits = make([]bool, n)
	for by := 0; by < nbV; by++ {
		for bx := 0; bx < nbH; bx++ {
			v := field.At(bx, by)
			modeBits[by*nbH+bx] = v.Intra()
			eprmBits[by*nbH+bx] = v.EPRM()
		}
	}
	return modeBits, eprmBits
}

// encodeMotionSubStreams writes the five P-frame sub-streams: SUB_MODE
// (ZBRLE intra flag), SUB_MV_X/SUB_MV_Y (SEG-coded predicted-vector
// deltas for non-skipped blocks), SUB_SBIM (bit-packed intra submask/DC),
// and SUB_EPRM (ZBRLE). modeBits/eprmBits and their chosen polarities are
// passed in since the caller already computed them to transmit the
// polarity bits ahead of the stability stream.
func encodeMotionSubStreams(w *bitstream.Writer, field *mv.Field, modeBits, eprmBits []bool, modePol, eprmPol bool) error {
	nbH, nbV := field.W, field.H
	n := nbH * nbV

	if err := writeZBRLEBits(w, applyPolarity(modeBits, modePol)); err != nil {
		return err
	}

	// SUB_MV_X / SUB_MV_Y: SEG-coded prediction deltas for every
	// non-skipped block, in raster order.
	subX := make([]byte, 4+8*n)
	subY := make([]byte, 4+8*n)
	wx := bitstream.NewWriter(subX)
	wy := bitstream.NewWriter(subY)
	for by := 0; by < nbV; by++ {
		for bx := 0; bx < nbH; bx++ {
			v := field.At(bx, by)
			if v.Skip() {
				continue
			}
			px, py := mv.Predict(field, bx, by)
			cvx, cvy := int32(v.X), int32(v.Y)
			if v.Intra() {
				cvx, cvy = cvx/4, cvy/4
				px, py = px/4, py/4
			}
			if err := wx.PutSEG(cvx - int32(px)); err != nil {
				return err
			}
			if err := wy.PutSEG(cvy - int32(py)); err != nil {
				return err
			}
		}
	}
	wx.Align()
	wy.Align()
	if err := w.PutUEG(uint32(wx.BytePos())); err != nil {
		return err
	}
	w.Align()
	if err := w.Concat(subX[:wx.BytePos()]); err != nil {
		return err
	}
	if err := w.PutUEG(uint32(wy.BytePos())); err != nil {
		return err
	}
	w.Align()
	if err := w.Concat(subY[:wy.BytePos()]); err != nil {
		return err
	}

	// SUB_SBIM: for each intra block, 1-bit all-intra sentinel, optional
	// 4-bit submask, then 1-bit has-src-dc + 8-bit dc.
	subS := make([]byte, 4+2*n)
	ws := bitstream.NewWriter(subS)
	for by := 0; by < nbV; by++ {
		for bx := 0; bx < nbH; bx++ {
			v := field.At(bx, by)
			if !v.Intra() {
				continue
			}
			allIntra := v.AllIntra()
			if err := ws.PutBit(boolBit(allIntra)); err != nil {
				return err
			}
			if !allIntra {
				if err := ws.PutBits(4, uint32(v.Submask)); err != nil {
					return err
				}
			}
			if err := ws.PutBit(boolBit(v.SrcDC())); err != nil {
				return err
			}
			if err := ws.PutBits(8, uint32(v.DCValue())); err != nil {
				return err
			}
		}
	}
	ws.Align()
	if err := w.PutUEG(uint32(ws.BytePos())); err != nil {
		return err
	}
	w.Align()
	if err := w.Concat(subS[:ws.BytePos()]); err != nil {
		return err
	}

	if err := writeZBRLEBits(w, applyPolarity(eprmBits, eprmPol)); err != nil {
		return err
	}
	return nil
}

// DecodePicture is EncodePicture's inverse: given the block grid
// dimensions and plane sizes, parses the payload back into blockmeta,
// an (optional) motion field, and the three coefficient planes.
func DecodePicture(data []byte, hdr PictureHeader, nbH, nbV int, planeDims [3][2]int, hzccParams [3]hzcc.Params) (*blockmeta.Array, *mv.Field, [3]*sbt.CoefPlane, error) {
	r := bitstream.NewReader(data)
	n := nbH * nbV

	frameNum, err := r.GetBits(32)
	if err != nil {
		return nil, nil, [3]*sbt.CoefPlane{}, err
	}
	_ = frameNum
	bwExp, err := r.GetUEG()
	if err != nil {
		return nil, nil, [3]*sbt.CoefPlane{}, err
	}
	bhExp, err := r.GetUEG()
	if err != nil {
		return nil, nil, [3]*sbt.CoefPlane{}, err
	}
	if _, err := blockSizeFromExponent(bwExp); err != nil {
		return nil, nil, [3]*sbt.CoefPlane{}, err
	}
	if _, err := blockSizeFromExponent(bhExp); err != nil {
		return nil, nil, [3]*sbt.CoefPlane{}, err
	}

	doFilter, err := r.GetBit()
	if err != nil {
		return nil, nil, [3]*sbt.CoefPlane{}, err
	}
	_ = doFilter
	qpBits, err := r.GetBits(MaxQPBits)
	if err != nil {
		return nil, nil, [3]*sbt.CoefPlane{}, err
	}
	_ = qpBits

	stablePol, err := r.GetBit()
	if err != nil {
		return nil, nil, [3]*sbt.CoefPlane{}, err
	}
	meta := blockmeta.New(nbH, nbV)

	var maintainPol, ringingPol, modePol, eprmPol int
	if hdr.IsI {
		maintainPol, err = r.GetBit()
		if err != nil {
			return nil, nil, [3]*sbt.CoefPlane{}, err
		}
		ringingPol, err = r.GetBit()
		if err != nil {
			return nil, nil, [3]*sbt.CoefPlane{}, err
		}
	} else {
		modePol, err = r.GetBit()
		if err != nil {
			return nil, nil, [3]*sbt.CoefPlane{}, err
		}
		eprmPol, err = r.GetBit()
		if err != nil {
			return nil, nil, [3]*sbt.CoefPlane{}, err
		}
	}

	stability, err := readZBRLEBits(r, n)
	if err != nil {
		return nil, nil, [3]*sbt.CoefPlane{}, errors.Wrap(err, "decoding stability")
	}
	stability = applyPolarity(stability, stablePol != 0)
	for by := 0; by < nbV; by++ {
		for bx := 0; bx < nbH; bx++ {
			if hdr.IsI {
				meta.SetStable(bx, by, stability[by*nbH+bx])
			} else {
				meta.SetSkip(bx, by, stability[by*nbH+bx])
			}
		}
	}

	var field *mv.Field
	if hdr.IsI {
		ringing, err := readZBRLEBits(r, n)
		if err != nil {
			return nil, nil, [3]*sbt.CoefPlane{}, err
		}
		maintain, err := readZBRLEBits(r, n)
		if err != nil {
			return nil, nil, [3]*sbt.CoefPlane{}, err
		}
		ringing = applyPolarity(ringing, ringingPol != 0)
		maintain = applyPolarity(maintain, maintainPol != 0)
		for by := 0; by < nbV; by++ {
			for bx := 0; bx < nbH; bx++ {
				meta.SetRinging(bx, by, ringing[by*nbH+bx])
				meta.SetMaintain(bx, by, maintain[by*nbH+bx])
			}
		}
	} else {
		field, err = decodeMotionSubStreams(r, meta, nbH, nbV, modePol != 0, eprmPol != 0)
		if err != nil {
			return nil, nil, [3]*sbt.CoefPlane{}, err
		}
	}

	// The caller cannot have known this picture's block metadata ahead of
	// time (it is itself decoded above, from the stability/ringing/
	// maintain sub-streams) -- point each plane's quantizer at the array
	// this call just populated, so position-adaptive dequant sees the
	// same flags the encoder quantized against.
	for i := range hzccParams {
		hzccParams[i].Blocks = meta
	}

	var planes [3]*sbt.CoefPlane
	remaining := r.BytePos()
	payload := data[remaining:]
	off := 0
	for i := range planes {
		if off+4 > len(payload) {
			return nil, nil, [3]*sbt.CoefPlane{}, errors.Errorf("packet: short plane %d", i)
		}
		length := binary.BigEndian.Uint32(payload[off : off+4])
		consumed := 4 + int(length)
		if off+consumed > len(payload) {
			return nil, nil, [3]*sbt.CoefPlane{}, errors.Errorf("packet: plane %d truncated", i)
		}
		cp, err := hzcc.DecodePlane(payload[off:off+consumed], planeDims[i][0], planeDims[i][1], hzccParams[i])
		if err != nil && err != hzcc.ErrMissingEOP {
			return nil, nil, [3]*sbt.CoefPlane{}, errors.Wrapf(err, "decoding plane %d", i)
		}
		planes[i] = cp
		off += consumed
	}

	return meta, field, planes, nil
}

func decodeMotionSubStreams(r *bitstream.Reader, meta *blockmeta.Array, nbH, nbV int, modePol, eprmPol bool) (*mv.Field, error) {
	n := nbH * nbV
	modeBits, err := readZBRLEBits(r, n)
	if err != nil {
		return nil, err
	}
	modeBits = applyPolarity(modeBits, modePol)

	xLen, err := r.GetUEG()
	if err != nil {
		return nil, err
	}
	r.Align()
	xPayload, err := r.Bytes(int(xLen))
	if err != nil {
		return nil, err
	}
	yLen, err := r.GetUEG()
	if err != nil {
		return nil, err
	}
	r.Align()
	yPayload, err := r.Bytes(int(yLen))
	if err != nil {
		return nil, err
	}
	sLen, err := r.GetUEG()
	if err != nil {
		return nil, err
	}
	r.Align()
	sPayload, err := r.Bytes(int(sLen))
	if err != nil {
		return nil, err
	}
	eprmBits, err := readZBRLEBits(r, n)
	if err != nil {
		return nil, err
	}
	eprmBits = applyPolarity(eprmBits, eprmPol)

	xr := bitstream.NewReader(xPayload)
	yr := bitstream.NewReader(yPayload)
	sr := bitstream.NewReader(sPayload)

	field := mv.NewField(nbH, nbV)
	for by := 0; by < nbV; by++ {
		for bx := 0; bx < nbH; bx++ {
			i := by*nbH + bx
			var v mv.MV
			if meta.Skip(bx, by) {
				v.Flags |= mv.FlagSkip
				field.Set(bx, by, v)
				continue
			}
			if modeBits[i] {
				v.Flags |= mv.FlagIntra
			}
			if eprmBits[i] {
				v.Flags |= mv.FlagEPRM
			}
			px, py := mv.Predict(field, bx, by)
			if v.Intra() {
				px, py = px/4, py/4
			}
			dx, err := xr.GetSEG()
			if err != nil {
				return nil, errors.Wrap(err, "decoding mv.x")
			}
			dy, err := yr.GetSEG()
			if err != nil {
				return nil, errors.Wrap(err, "decoding mv.y")
			}
			cvx := int32(px) + dx
			cvy := int32(py) + dy
			if v.Intra() {
				cvx *= 4
				cvy *= 4
			}
			v.X, v.Y = int16(cvx), int16(cvy)

			if v.Intra() {
				allIntra, err := sr.GetBit()
				if err != nil {
					return nil, err
				}
				if allIntra != 0 {
					v.Submask = mv.MaskAllIntra
				} else {
					sm, err := sr.GetBits(4)
					if err != nil {
						return nil, err
					}
					v.Submask = uint8(sm)
				}
				hasDC, err := sr.GetBit()
				if err != nil {
					return nil, err
				}
				dc, err := sr.GetBits(8)
				if err != nil {
					return nil, err
				}
				v.DC = uint16(dc)
				if hasDC != 0 {
					v.DC |= mv.SrcDCPred
				}
			}
			field.Set(bx, by, v)
		}
	}
	return field, nil
}
