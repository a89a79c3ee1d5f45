/*
DESCRIPTION
  hzcc.go implements the plane-level HZCC codec described in §4.4: a
  32-bit length prefix, the unquantized LL[0,0] DC value coded as SEG,
  then the zero-run/value payload (UEG run-length, NEG value) in the
  scan order LL -> {LH,HL,HH} coarsest-to-finest, terminated by an 8-bit
  EOP sentinel.
*/

package hzcc

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ausocean/dsv2/bitstream"
	"github.com/ausocean/dsv2/blockmeta"
	"github.com/ausocean/dsv2/sbt"
)

// EOP is the end-of-plane sentinel byte.
const EOP = 0x55

// ErrMissingEOP is returned when a decoded plane's payload did not end
// with the EOP sentinel; per §7 this is a recoverable error, not fatal.
var ErrMissingEOP = errors.New("hzcc: missing EOP sentinel")

// ErrBadPlaneLength is returned when a plane's length prefix exceeds twice
// the coefficient area, per §7's bad-plane-length check.
var ErrBadPlaneLength = errors.New("hzcc: implausible plane length")

// Params carries everything HZCC needs to pick quantizers and per-position
// divisors for one plane.
type Params struct {
	Q                          int
	IsLuma, IsP, Lossless      bool
	ChromaShiftX, ChromaShiftY int
	Blocks                     *blockmeta.Array
	NBlocksH, NBlocksV         int
}

// scanOrder returns the band rectangles in encode/decode order: coarsest
// level first, LH then HL then HH within each level.
func scanOrder(w, h, numLevels int) []struct {
	r    sbt.Rect
	band Band
	lvl  int
} {
	levels := sbt.Levels(w, h, numLevels)
	var out []struct {
		r    sbt.Rect
		band Band
		lvl  int
	}
	for i := len(levels) - 1; i >= 0; i-- {
		_, hl, lh, hh := levels[i].Quadrants()
		out = append(out, struct {
			r    sbt.Rect
			band Band
			lvl  int
		}{lh, BandLH, levels[i].Lvl})
		out = append(out, struct {
			r    sbt.Rect
			band Band
			lvl  int
		}{hl, BandHL, levels[i].Lvl})
		out = append(out, struct {
			r    sbt.Rect
			band Band
			lvl  int
		}{hh, BandHH, levels[i].Lvl})
	}
	return out
}

// EncodePlane quantizes and entropy-codes coef (the already subband-
// transformed plane) and returns the full wire representation (length
// prefix + DC + payload).
func EncodePlane(coef *sbt.CoefPlane, p Params) ([]byte, error) {
	w, h := coef.W, coef.H
	numLevels := sbt.NumLevels(w, h)

	// Quantize everything but the DC root first so we know the run/value
	// sequence length before framing the bitstream.
	type rv struct {
		run int
		val int32
	}
	var seq []rv
	run := 0
	for _, band := range scanOrder(w, h, numLevels) {
		vals := coef.SubRect(band.r)
		for i, v := range vals {
			x := band.r.X + i%band.r.W
			y := band.r.Y + i/band.r.W
			q := 1
			if !p.Lossless {
				base := HFQuant(p.Q, w, h, band.lvl, numLevels, band.band, p.IsP, p.IsLuma, p.ChromaShiftX, p.ChromaShiftY)
				bx, by := blockCoord(x, y, w, h, p.NBlocksH, p.NBlocksV)
				q = PositionDivisor(base, p.Blocks, bx, by, p.IsP)
			}
			qv := Quantize(v, q)
			if qv == 0 {
				run++
				continue
			}
			seq = append(seq, rv{run: run, val: qv})
			run = 0
		}
	}

	// Rough upper bound on encoded size: each run/value pair costs at
	// most ~80 bits in the worst case, plus header/footer.
	bufSize := 4 + 8 + 3 + len(seq)*10 + 8 + 16
	buf := make([]byte, bufSize)
	w2 := bitstream.NewWriter(buf)
	w2.Concat(make([]byte, 4)) // length placeholder, patched below

	dc := coef.Data[0]
	if err := w2.PutSEG(dc); err != nil {
		return nil, errors.Wrap(err, "encoding DC")
	}

	w2.Align()
	if err := w2.PutBits(24, uint32(len(seq))); err != nil {
		return nil, errors.Wrap(err, "encoding run count")
	}
	for _, e := range seq {
		if err := w2.PutUEG(uint32(e.run)); err != nil {
			return nil, errors.Wrap(err, "encoding run")
		}
		if err := w2.PutNEG(e.val); err != nil {
			return nil, errors.Wrap(err, "encoding value")
		}
	}
	w2.Align()
	if err := w2.PutBits(8, EOP); err != nil {
		return nil, errors.Wrap(err, "encoding EOP")
	}

	total := w2.BytePos()
	out := append([]byte(nil), buf[:total]...)
	binary.BigEndian.PutUint32(out[:4], uint32(total-4))
	return out, nil
}

func blockCoord(x, y, w, h, nblocksH, nblocksV int) (int, int) {
	bx := x * nblocksH / w
	by := y * nblocksV / h
	if bx >= nblocksH {
		bx = nblocksH - 1
	}
	if by >= nblocksV {
		by = nblocksV - 1
	}
	return bx, by
}

// DecodePlane parses a wire-format HZCC plane (as produced by EncodePlane)
// into a subband-transformed CoefPlane of size w x h.
func DecodePlane(data []byte, w, h int, p Params) (*sbt.CoefPlane, error) {
	if len(data) < 4 {
		return nil, errors.New("hzcc: short plane")
	}
	length := binary.BigEndian.Uint32(data[:4])
	area := w * h
	if int(length) > 2*area {
		return nil, ErrBadPlaneLength
	}
	r := bitstream.NewReader(data[4:])

	dc, err := r.GetSEG()
	if err != nil {
		return nil, errors.Wrap(err, "decoding DC")
	}

	r.Align()
	nruns, err := r.GetBits(24)
	if err != nil {
		return nil, errors.Wrap(err, "decoding run count")
	}

	coef := sbt.NewCoefPlane(w, h)
	coef.Data[0] = dc
	numLevels := sbt.NumLevels(w, h)
	order := scanOrder(w, h, numLevels)

	// Flatten scan order into an (x,y,band,lvl) position stream, skipping
	// the DC position (0,0) which is handled above.
	type pos struct {
		x, y, lvl int
		band      Band
	}
	var positions []pos
	for _, band := range order {
		for i := 0; i < band.r.W*band.r.H; i++ {
			positions = append(positions, pos{
				x:    band.r.X + i%band.r.W,
				y:    band.r.Y + i/band.r.W,
				lvl:  band.lvl,
				band: band.band,
			})
		}
	}

	idx := 0
	for i := uint32(0); i < nruns; i++ {
		runLen, err := r.GetUEG()
		if err != nil {
			return nil, errors.Wrap(err, "decoding run")
		}
		val, err := r.GetNEG()
		if err != nil {
			return nil, errors.Wrap(err, "decoding value")
		}
		idx += int(runLen)
		if idx >= len(positions) {
			return nil, errors.New("hzcc: run overruns plane")
		}
		pp := positions[idx]
		q := 1
		if !p.Lossless {
			base := HFQuant(p.Q, w, h, pp.lvl, numLevels, pp.band, p.IsP, p.IsLuma, p.ChromaShiftX, p.ChromaShiftY)
			bx, by := blockCoord(pp.x, pp.y, w, h, p.NBlocksH, p.NBlocksV)
			q = PositionDivisor(base, p.Blocks, bx, by, p.IsP)
		}
		var dv int32
		if p.Lossless {
			dv = val
		} else if p.IsP {
			dv = DequantDefault(val, q)
		} else {
			dv = DequantLow(val, q)
		}
		coef.Data[pp.y*w+pp.x] = dv
		idx++
	}

	r.Align()
	eop, err := r.GetBits(8)
	if err != nil {
		return nil, errors.Wrap(err, "reading EOP")
	}
	if eop != EOP {
		return coef, ErrMissingEOP
	}
	return coef, nil
}
