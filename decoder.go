/*
DESCRIPTION
  decoder.go implements the top-level Decoder described in §6:
  make_packet_buffer/decode/get_metadata/free, adapted to idiomatic Go as
  MakePacketBuffer/Decode/Metadata/Close. It walks the packet stream
  header-first, dispatches on packet type, and reuses pipeline.go's
  reconstructPicture to turn a PIC payload back into a frame.
*/

package dsv2

import (
	"github.com/pkg/errors"

	"github.com/ausocean/dsv2/bitstream"
	"github.com/ausocean/dsv2/frame"
	"github.com/ausocean/dsv2/hzcc"
	"github.com/ausocean/dsv2/packet"
	"github.com/ausocean/dsv2/sbt"
	"github.com/ausocean/utils/logging"
)

// ErrNoReference is returned when a P-frame packet arrives before any
// reference frame has been decoded.
var ErrNoReference = errors.New("dsv2: picture references a missing reference frame")

// DecoderConfig holds the handful of options the decoder itself needs;
// most picture-level parameters (block size, QP) are self-describing on
// the wire, and sequence-level ones (dimensions, subsampling) arrive via
// the stream's META packet.
type DecoderConfig struct {
	Logger logging.Logger
}

// Decoder turns a DSV-2 packet stream back into frames. It keeps at most
// one reference frame, matching Encoder's single-reference pipeline (the
// Non-goals exclude multi-reference/B-frame support).
type Decoder struct {
	cfg DecoderConfig

	meta    packet.Metadata
	hasMeta bool

	ref *frame.Frame
}

// NewDecoder returns a ready-to-use Decoder. Metadata is learned from the
// stream's first META packet.
func NewDecoder(cfg DecoderConfig) *Decoder {
	if cfg.Logger == nil {
		cfg.Logger = logging.New(logging.Error, nopWriter{}, false)
	}
	return &Decoder{cfg: cfg}
}

// Metadata returns the most recently decoded stream metadata, and whether
// any has been seen yet.
func (d *Decoder) Metadata() (packet.Metadata, bool) { return d.meta, d.hasMeta }

func (d *Decoder) chromaShift() (int, int) {
	switch d.meta.Subsamp {
	case packet.Subsamp420, packet.Subsamp410:
		return 1, 1
	case packet.Subsamp422, packet.Subsamp411:
		return 1, 0
	default:
		return 0, 0
	}
}

// Decode consumes one full packet (header plus payload, as produced by
// Encoder) and returns the frame it decoded to, or nil for packets that
// carry no picture (META, EOS).
func (d *Decoder) Decode(pkt []byte) (*frame.Frame, error) {
	hdr, err := packet.Decode(pkt)
	if err != nil {
		return nil, err
	}
	body := pkt[packet.HeaderSize:]

	switch {
	case hdr.IsEOS():
		d.cfg.Logger.Debug("dsv2: end of stream")
		return nil, nil
	case hdr.Type == packet.TypeMeta:
		m, err := packet.DecodeMeta(body)
		if err != nil {
			return nil, errors.Wrap(err, "decoding metadata packet")
		}
		d.meta = m
		d.hasMeta = true
		return nil, nil
	case hdr.IsPic():
		if !d.hasMeta {
			return nil, ErrNotStarted
		}
		return d.decodePicture(hdr, body)
	default:
		d.cfg.Logger.Warning("dsv2: unrecognized packet type", "type", hdr.Type)
		return nil, nil
	}
}

// picPrefix is the handful of fixed fields at the front of a PIC payload
// that must be known before the grid dimensions used to parse the rest of
// the payload can be computed: block size, the do_filter flag and QP.
// DecodePicture parses these itself too (they're self-describing on the
// wire each frame, since rate control varies QP per picture); peeking them
// first here is cheaper than re-deriving nbH/nbV after the fact.
type picPrefix struct {
	bw, bh   int
	doFilter bool
	qp       int
}

func peekPicPrefix(body []byte) (picPrefix, error) {
	r := bitstream.NewReader(body)
	var p picPrefix
	if _, err := r.GetBits(32); err != nil {
		return p, err
	}
	bwExp, err := r.GetUEG()
	if err != nil {
		return p, err
	}
	bhExp, err := r.GetUEG()
	if err != nil {
		return p, err
	}
	p.bw, p.bh = 16<<bwExp, 16<<bhExp
	doFilter, err := r.GetBit()
	if err != nil {
		return p, err
	}
	p.doFilter = doFilter != 0
	qpBits, err := r.GetBits(packet.MaxQPBits)
	if err != nil {
		return p, err
	}
	p.qp = int(qpBits)
	return p, nil
}

func (d *Decoder) decodePicture(hdr packet.Header, body []byte) (*frame.Frame, error) {
	isI := !hdr.HasRef()
	if !isI && d.ref == nil {
		return nil, ErrNoReference
	}

	pp, err := peekPicPrefix(body)
	if err != nil {
		return nil, errors.Wrap(err, "reading picture prefix")
	}
	lossless := pp.qp == 1

	nbH := (d.meta.Width + pp.bw - 1) / pp.bw
	nbV := (d.meta.Height + pp.bh - 1) / pp.bh

	shiftX, shiftY := d.chromaShift()
	lumaW, lumaH := d.meta.Width, d.meta.Height
	chromaW := (lumaW + (1 << shiftX) - 1) >> shiftX
	chromaH := (lumaH + (1 << shiftY) - 1) >> shiftY
	planeDims := [3][2]int{{lumaW, lumaH}, {chromaW, chromaH}, {chromaW, chromaH}}

	pHdr := packet.PictureHeader{BlockW: pp.bw, BlockH: pp.bh, IsI: isI, DoFilter: pp.doFilter, QP: pp.qp}
	hzccParams := [3]hzcc.Params{
		{Q: pp.qp, IsLuma: true, IsP: !isI, Lossless: lossless, NBlocksH: nbH, NBlocksV: nbV},
		{Q: pp.qp, IsLuma: false, IsP: !isI, Lossless: lossless, ChromaShiftX: shiftX, ChromaShiftY: shiftY, NBlocksH: nbH, NBlocksV: nbV},
		{Q: pp.qp, IsLuma: false, IsP: !isI, Lossless: lossless, ChromaShiftX: shiftX, ChromaShiftY: shiftY, NBlocksH: nbH, NBlocksV: nbV},
	}

	meta, field, planes, err := packet.DecodePicture(body, pHdr, nbH, nbV, planeDims, hzccParams)
	if err != nil {
		return nil, errors.Wrap(err, "decoding picture")
	}

	var sbtParams [3]sbt.Params
	var adapt *sbt.AdaptiveCtx
	if isI {
		adapt = &sbt.AdaptiveCtx{Blocks: meta, NBlocksH: nbH, NBlocksV: nbV}
	}
	for i, cp := range planes {
		sbtParams[i] = sbtParamsFor(i == 0, !isI, lossless, cp.W, cp.H, adapt)
	}

	var ref *frame.Frame
	if !isI {
		ref = d.ref
	}
	out, err := reconstructPicture(ref, field, planes, sbtParams, lossless, pp.doFilter, pp.bw, pp.bh)
	if err != nil {
		return nil, errors.Wrap(err, "reconstructing picture")
	}

	if d.ref != nil {
		d.ref.Release()
	}
	d.ref = out.Ref()
	return out, nil
}

// Close releases the decoder's held reference frame.
func (d *Decoder) Close() {
	if d.ref != nil {
		d.ref.Release()
		d.ref = nil
	}
}
