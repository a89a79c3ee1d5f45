/*
DESCRIPTION
  meta.go implements the META packet payload (§4.7 packet type 0x00): UEG
  of width, height, subsamp, fps_num, fps_den, aspect_num, aspect_den,
  inter_sharpen, followed by an optional 1+15 reserved bits guarded by a
  present-bit (§3).
*/

package packet

import (
	"github.com/pkg/errors"

	"github.com/ausocean/dsv2/bitstream"
)

// Subsampling wire codes, per §6.
const (
	Subsamp444 = 0x00
	Subsamp422 = 0x04
	Subsamp420 = 0x05
	Subsamp411 = 0x08
	Subsamp410 = 0x0A
	SubsampUYVY422 = 0x14
)

// Metadata is the decoded form of a META packet payload.
type Metadata struct {
	Width, Height            int
	Subsamp                  int
	FPSNum, FPSDen           int
	AspectNum, AspectDen     int
	InterSharpen             bool
	HasReserved              bool
	Reserved                 uint16 // low 15 bits meaningful
}

// ErrBadDimensions is returned when width or height fails the codec's
// minimum size invariant (mirrors frame.ErrBadDimensions at the wire
// level).
var ErrBadDimensions = errors.New("packet: metadata width/height must each be >= 16")

// ErrBadDenominator is returned when fps_den or aspect_den is zero.
var ErrBadDenominator = errors.New("packet: fps/aspect denominator must be >= 1")

// EncodeMeta writes a META packet payload.
func EncodeMeta(m Metadata) ([]byte, error) {
	if m.Width < 16 || m.Height < 16 {
		return nil, ErrBadDimensions
	}
	if m.FPSDen < 1 || m.AspectDen < 1 {
		return nil, ErrBadDenominator
	}
	buf := make([]byte, 32)
	w := bitstream.NewWriter(buf)
	fields := []uint32{
		uint32(m.Width), uint32(m.Height), uint32(m.Subsamp),
		uint32(m.FPSNum), uint32(m.FPSDen),
		uint32(m.AspectNum), uint32(m.AspectDen),
	}
	for _, f := range fields {
		if err := w.PutUEG(f); err != nil {
			return nil, errors.Wrap(err, "encoding metadata field")
		}
	}
	if err := w.PutBit(boolBit(m.InterSharpen)); err != nil {
		return nil, err
	}
	if err := w.PutBit(boolBit(m.HasReserved)); err != nil {
		return nil, err
	}
	if m.HasReserved {
		if err := w.PutBits(15, uint32(m.Reserved&0x7FFF)); err != nil {
			return nil, err
		}
	}
	w.Align()
	return buf[:w.BytePos()], nil
}

// DecodeMeta parses a META packet payload.
func DecodeMeta(data []byte) (Metadata, error) {
	r := bitstream.NewReader(data)
	vals := make([]uint32, 7)
	for i := range vals {
		v, err := r.GetUEG()
		if err != nil {
			return Metadata{}, errors.Wrap(err, "decoding metadata field")
		}
		vals[i] = v
	}
	m := Metadata{
		Width: int(vals[0]), Height: int(vals[1]), Subsamp: int(vals[2]),
		FPSNum: int(vals[3]), FPSDen: int(vals[4]),
		AspectNum: int(vals[5]), AspectDen: int(vals[6]),
	}
	interSharpen, err := r.GetBit()
	if err != nil {
		return Metadata{}, err
	}
	m.InterSharpen = interSharpen != 0
	hasReserved, err := r.GetBit()
	if err != nil {
		return Metadata{}, err
	}
	m.HasReserved = hasReserved != 0
	if m.HasReserved {
		v, err := r.GetBits(15)
		if err != nil {
			return Metadata{}, err
		}
		m.Reserved = uint16(v)
	}
	if m.Width < 16 || m.Height < 16 {
		return Metadata{}, ErrBadDimensions
	}
	if m.FPSDen < 1 || m.AspectDen < 1 {
		return Metadata{}, ErrBadDenominator
	}
	return m, nil
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
