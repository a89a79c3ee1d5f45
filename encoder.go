/*
DESCRIPTION
  encoder.go implements the top-level Encoder described in §6:
  encoder_init/start/set_metadata/force_metadata/encode/end_of_stream/free,
  adapted to idiomatic Go as NewEncoder/SetMetadata/ForceMetadata/
  Encode/EndOfStream/Close. It wires hme (motion search), bmc
  (reconstruction), sbt (subband transform), hzcc (entropy coding), and
  packet (the wire container) into a single-reference, GOP-managed
  pipeline, with ratectl driving the per-picture QP.
*/

// Package dsv2 implements the DSV-2 video codec end to end: a GOP-managed,
// single-reference encoder and decoder built from the bitstream, blockmeta,
// bmc, frame, hme, hzcc, mv, packet, ratectl, and sbt packages.
package dsv2

import (
	"github.com/pkg/errors"

	"github.com/ausocean/dsv2/blockmeta"
	"github.com/ausocean/dsv2/frame"
	"github.com/ausocean/dsv2/hme"
	"github.com/ausocean/dsv2/hzcc"
	"github.com/ausocean/dsv2/mv"
	"github.com/ausocean/dsv2/packet"
	"github.com/ausocean/dsv2/ratectl"
	"github.com/ausocean/dsv2/sbt"
)

// ErrNotStarted is returned by Encode/Decode when called before metadata
// has been established.
var ErrNotStarted = errors.New("dsv2: metadata not set")

// ErrDimensionMismatch is returned when a frame passed to Encode does not
// match the dimensions given to SetMetadata.
var ErrDimensionMismatch = errors.New("dsv2: frame dimensions do not match stream metadata")

// hzccBlocks bundles the blockmeta array and grid dimensions HZCC's
// per-position adaptive quantizer needs.
type hzccBlocks struct {
	meta   *blockmeta.Array
	nbH    int
	nbV    int
}

// Encoder turns a sequence of raw planar YUV frames into a DSV-2 packet
// stream: a META packet ahead of the first picture, then one PIC packet
// per frame, and a final EOS packet from EndOfStream.
type Encoder struct {
	cfg EncoderConfig

	meta     packet.Metadata
	metaSent bool

	bw, bh     int
	nbH, nbV   int

	ref         *frame.Frame
	prevField   *mv.Field
	frameNumber uint32
	gopCounter  int
	lastComplexity float64

	// prevLen is the total size (header+payload) of the last packet
	// written, used to fill in each new packet's PrevLink per §4.7's
	// byte-distance chaining.
	prevLen uint32

	rc *ratectl.Controller
}

// linkPacket fills in hdr's Prev/NextLink fields from the running packet
// chain (NextLink is this packet's own total size, so the decoder can skip
// straight to the next header without parsing the payload) and advances
// the chain for the following call.
func (e *Encoder) linkPacket(hdr packet.Header, payloadLen int) []byte {
	total := uint32(packet.HeaderSize + payloadLen)
	hdr.PrevLink = e.prevLen
	hdr.NextLink = total
	e.prevLen = total
	return packet.Encode(hdr)
}

// NewEncoder validates cfg and returns a ready-to-use Encoder. Metadata
// (dimensions, subsampling, frame rate) must still be supplied via
// SetMetadata before the first call to Encode.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Encoder{cfg: cfg, lastComplexity: 50}
	e.bw, e.bh = cfg.blockSize()
	return e, nil
}

// SetMetadata establishes the stream's picture dimensions, chroma
// subsampling, and frame rate, and returns the META packet to prepend to
// the stream. It must be called exactly once, before the first Encode.
func (e *Encoder) SetMetadata(m packet.Metadata) ([]byte, error) {
	payload, err := packet.EncodeMeta(m)
	if err != nil {
		return nil, err
	}
	e.meta = m
	e.metaSent = true
	e.nbH = (m.Width + e.bw - 1) / e.bw
	e.nbV = (m.Height + e.bh - 1) / e.bh
	e.rc = ratectl.NewController(e.cfg.RC, uint32(m.FPSNum), uint32(m.FPSDen))
	hdr := e.linkPacket(packet.Header{Minor: packet.MinorVersion, Type: packet.TypeMeta}, len(payload))
	e.cfg.Logger.Debug("dsv2: metadata set", "width", m.Width, "height", m.Height, "subsamp", m.Subsamp)
	return append(hdr, payload...), nil
}

// ForceMetadata re-emits the current META packet, for callers that want to
// inject a fresh copy mid-stream (e.g. ahead of a new receiver joining a
// live feed).
func (e *Encoder) ForceMetadata() ([]byte, error) {
	if !e.metaSent {
		return nil, ErrNotStarted
	}
	payload, err := packet.EncodeMeta(e.meta)
	if err != nil {
		return nil, err
	}
	hdr := e.linkPacket(packet.Header{Minor: packet.MinorVersion, Type: packet.TypeMeta}, len(payload))
	return append(hdr, payload...), nil
}

func (e *Encoder) chromaShift() (int, int) {
	switch e.meta.Subsamp {
	case packet.Subsamp420, packet.Subsamp410:
		return 1, 1
	case packet.Subsamp422, packet.Subsamp411:
		return 1, 0
	default:
		return 0, 0
	}
}

// shouldForceIntra reports whether frameNumber must start a new GOP,
// independent of any content-driven scene-change decision.
func (e *Encoder) shouldForceIntra() bool {
	if e.ref == nil {
		return true
	}
	switch e.cfg.GOP {
	case GOPIntraOnly:
		return true
	case GOPSingleIntra:
		return false
	default:
		return e.gopCounter+1 >= e.cfg.GOP
	}
}

// Encode codes one source frame and returns its packet (or packets, for
// implementations that split pictures -- this one never does, so exactly
// one PIC packet is returned). src must match the dimensions given to
// SetMetadata.
func (e *Encoder) Encode(src *frame.Frame) ([]byte, error) {
	if !e.metaSent {
		return nil, ErrNotStarted
	}
	if src.Y.W != e.meta.Width || src.Y.H != e.meta.Height {
		return nil, ErrDimensionMismatch
	}

	forceI := e.shouldForceIntra()
	var res hme.Result
	haveRes := false
	if !forceI {
		quality := e.rc.NextQuality(true, e.lastComplexity)
		qp := ratectl.QualityToQP(quality)
		res = hme.Estimate(src, e.ref, e.bw, e.bh, qp, e.prevField)
		haveRes = true
		if e.cfg.DoSCD && res.Stats.SceneChangePct >= e.cfg.SceneChangePct {
			forceI = true
		}
		if e.cfg.VariableIInterval && res.Stats.IntraPct >= e.cfg.IntraPctThresh {
			forceI = true
		}
	}

	isI := forceI
	var field *mv.Field
	var meta *blockmeta.Array
	complexity := e.lastComplexity
	if haveRes && !isI {
		field = res.Field
		meta = res.Meta
		complexity = res.Stats.AvgBlockError / 40.96 // scale block SSD into a roughly 0..100 band
		if complexity > 100 {
			complexity = 100
		}
	} else {
		meta = blockmeta.New(e.nbH, e.nbV)
	}

	quality := e.rc.NextQuality(!isI, complexity)
	qp := ratectl.QualityToQP(quality)
	if quality == ratectl.MaxQuality {
		qp = 1 // the top quality value selects mathematically lossless coding
	}
	lossless := qp == 1

	payload, reconstructed, err := e.codePicture(src, isI, field, meta, qp, lossless)
	if err != nil {
		return nil, err
	}

	var typ byte = packet.TypePic
	if !isI {
		typ |= packet.TypeHasRef
	}
	typ |= packet.TypeIsRef
	hdr := e.linkPacket(packet.Header{Minor: packet.MinorVersion, Type: typ}, len(payload))

	if e.ref != nil {
		e.ref.Release()
	}
	e.ref = reconstructed
	e.prevField = field
	e.frameNumber++
	e.lastComplexity = complexity
	if isI {
		e.gopCounter = 0
	} else {
		e.gopCounter++
	}
	e.rc.Sample(float64(len(payload)))

	e.cfg.Logger.Debug("dsv2: encoded picture", "frame", e.frameNumber-1, "isI", isI, "qp", qp, "bytes", len(payload))
	return append(hdr, payload...), nil
}

// codePicture runs the shared encode-then-local-decode pipeline for one
// picture: builds prediction and residual coefficient planes, transforms
// and entropy-codes them into the wire payload, then round-trips the
// coded planes back through the decoder path so the encoder's reference
// frame exactly matches what a decoder will reconstruct.
func (e *Encoder) codePicture(src *frame.Frame, isI bool, field *mv.Field, meta *blockmeta.Array, qp int, lossless bool) ([]byte, *frame.Frame, error) {
	shiftX, shiftY := e.chromaShift()
	planeShifts := [3][2]int{{0, 0}, {shiftX, shiftY}, {shiftX, shiftY}}
	// A P-frame's wire format only ever transmits the STABLE(=SKIP) bit;
	// MAINTAIN/SIMCMPLX/RINGING are motion-search-only heuristics never
	// sent to the decoder. Quantizing against the untrimmed meta would
	// let the encoder take a quantizer divisor no decoder could
	// reproduce, so position-adaptive quant uses a trimmed view that
	// matches exactly what a P-frame decode can reconstruct.
	blocks := &hzccBlocks{meta: quantMeta(meta, isI), nbH: e.nbH, nbV: e.nbV}

	srcPlanes := src.Planes()
	var predPlanes [3]*frame.Plane
	if !isI {
		predPlanes[0] = blankPlane(srcPlanes[0].W, srcPlanes[0].H, true)
		predPlanes[1] = blankPlane(srcPlanes[1].W, srcPlanes[1].H, true)
		predPlanes[2] = blankPlane(srcPlanes[2].W, srcPlanes[2].H, true)
		refPlanes := e.ref.Planes()
		for i := range predPlanes {
			predictPlane(predPlanes[i], refPlanes[i], field, e.bw, e.bh, planeShifts[i][0], planeShifts[i][1], i == 0)
		}
	}

	var coefPlanes [3]*sbt.CoefPlane
	var sbtParams [3]sbt.Params
	var hzccParams [3]hzcc.Params
	for i := range coefPlanes {
		isLuma := i == 0
		var fld *mv.Field
		var pred *frame.Plane
		if !isI {
			fld, pred = field, predPlanes[i]
		}
		coefPlanes[i] = buildResidualCoef(srcPlanes[i], pred, fld, e.bw, e.bh, planeShifts[i][0], planeShifts[i][1], isLuma)

		var adapt *sbt.AdaptiveCtx
		if meta != nil {
			adapt = &sbt.AdaptiveCtx{Blocks: meta, NBlocksH: e.nbH, NBlocksV: e.nbV}
		}
		sbtParams[i] = sbtParamsFor(isLuma, !isI, lossless, coefPlanes[i].W, coefPlanes[i].H, adapt)
		sbt.Forward(coefPlanes[i], sbtParams[i])

		hzccParams[i] = hzccParamsFor(qp, isLuma, !isI, lossless, planeShifts[i][0], planeShifts[i][1], blocks)
	}

	hdr := packet.PictureHeader{
		FrameNumber: e.frameNumber,
		BlockW:      e.bw,
		BlockH:      e.bh,
		IsI:         isI,
		DoFilter:    filterEnabled(e.cfg, isI),
		QP:          qp,
	}
	payload, err := packet.EncodePicture(hdr, meta, field, coefPlanes, hzccParams)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encoding picture")
	}

	// Round-trip every plane through its own wire encoding so the local
	// reference the encoder keeps is built from exactly the quantized
	// coefficients a decoder will see, not the pre-quantization values.
	var decodedPlanes [3]*sbt.CoefPlane
	for i, cp := range coefPlanes {
		wire, err := hzcc.EncodePlane(cp, hzccParams[i])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "round-tripping plane %d", i)
		}
		dec, err := hzcc.DecodePlane(wire, cp.W, cp.H, hzccParams[i])
		if err != nil && err != hzcc.ErrMissingEOP {
			return nil, nil, errors.Wrapf(err, "round-tripping plane %d", i)
		}
		decodedPlanes[i] = dec
	}

	var ref *frame.Frame
	if !isI {
		ref = e.ref
	}
	reconstructed, err := reconstructPicture(ref, field, decodedPlanes, sbtParams, lossless, hdr.DoFilter, e.bw, e.bh)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reconstructing local reference")
	}
	return payload, reconstructed, nil
}

func filterEnabled(cfg EncoderConfig, isI bool) bool {
	if isI {
		return cfg.DoIntraFilter
	}
	return cfg.DoInterFilter
}

// EndOfStream returns the standalone EOS packet that terminates a DSV-2
// stream, chained back to whatever packet preceded it (PrevLink), with a
// zero NextLink marking the end per §4.7.
func (e *Encoder) EndOfStream() []byte {
	return packet.Encode(packet.Header{Minor: packet.MinorVersion, Type: packet.TypeEOS, PrevLink: e.prevLen})
}

// Close releases the encoder's held reference frame. The Encoder must not
// be used again afterward.
func (e *Encoder) Close() {
	if e.ref != nil {
		e.ref.Release()
		e.ref = nil
	}
}
