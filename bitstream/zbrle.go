/*
DESCRIPTION
  zbrle.go implements Zero-Bit Run-Length Encoding: a stream of bits
  dominated by zeros is coded as a sequence of UEG-coded run lengths, one
  per "1" bit encountered, with a final run flushed at Close.
*/

package bitstream

// ZBRLEWriter RLE-encodes a sequence of single bits where each "1" is
// preceded by the UEG-coded count of consecutive zeros since the last one
// (or since the start of the stream).
type ZBRLEWriter struct {
	w   *Writer
	run uint32
}

// NewZBRLEWriter wraps w.
func NewZBRLEWriter(w *Writer) *ZBRLEWriter {
	return &ZBRLEWriter{w: w}
}

// PutBit feeds the next bit of the source sequence into the encoder.
func (z *ZBRLEWriter) PutBit(b int) error {
	if b == 0 {
		z.run++
		return nil
	}
	if err := z.w.PutUEG(z.run); err != nil {
		return err
	}
	z.run = 0
	return nil
}

// Close flushes the trailing run (the zeros since the last 1, or the whole
// stream if it was all zero) and byte-aligns the writer.
func (z *ZBRLEWriter) Close() error {
	if err := z.w.PutUEG(z.run); err != nil {
		return err
	}
	z.run = 0
	z.w.Align()
	return nil
}

// ZBRLEReader decodes a ZBRLE stream back into individual bits.
type ZBRLEReader struct {
	r       *Reader
	remRun  uint32
	pending bool // true once remRun counted zeros are exhausted and the "1" is due
	done    bool
}

// NewZBRLEReader wraps r.
func NewZBRLEReader(r *Reader) *ZBRLEReader {
	return &ZBRLEReader{r: r}
}

// GetBit returns the next decoded bit.
func (z *ZBRLEReader) GetBit() (int, error) {
	if z.remRun == 0 && !z.pending {
		run, err := z.r.GetUEG()
		if err != nil {
			return 0, err
		}
		z.remRun = run
		z.pending = true
	}
	if z.remRun > 0 {
		z.remRun--
		return 0, nil
	}
	z.pending = false
	return 1, nil
}

// Align byte-aligns the underlying reader; call after the final bit of a
// known-length ZBRLE stream has been consumed.
func (z *ZBRLEReader) Align() {
	z.r.Align()
}
