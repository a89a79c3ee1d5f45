/*
DESCRIPTION
  y4m.go is a minimal reader for the two input shapes dsv2enc accepts: a
  bare planar YUV file (dimensions/format given on the command line) or a
  YUV4MPEG2-wrapped stream (dimensions/format read from its header line).
  This is deliberately thin -- a non-goal of the core codec per the
  specification -- and only covers what the encoder needs: width, height,
  chroma subsampling, and frame rate.
*/

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ausocean/dsv2/packet"
)

// openYUVSource sniffs r for a "YUV4MPEG2" magic; if found, its header is
// parsed and a *y4mFrameReader is returned, whose per-frame "FRAME ...\n"
// markers readFrame consumes via skipMarker. Otherwise r is treated as
// a bare concatenation of planar frames at the given width/height/subsamp.
func openYUVSource(r io.Reader, w, h, subsamp, fpsNum, fpsDen int) (io.Reader, int, int, int, int, int, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(9)
	if err == nil && string(magic) == "YUV4MPEG2" {
		hdr, err := br.ReadString('\n')
		if err != nil {
			return nil, 0, 0, 0, 0, 0, fmt.Errorf("dsv2enc: reading Y4M header: %w", err)
		}
		w, h, subsamp, fpsNum, fpsDen, err = parseY4MHeader(hdr)
		if err != nil {
			return nil, 0, 0, 0, 0, 0, err
		}
		return &y4mFrameReader{r: br}, w, h, subsamp, fpsNum, fpsDen, nil
	}
	return br, w, h, subsamp, fpsNum, fpsDen, nil
}

// parseY4MHeader parses a "YUV4MPEG2 Wwww Hhhh Fnum:den Iframe Aw:h Ccss\n"
// header line. Unrecognized tags are ignored.
func parseY4MHeader(line string) (w, h, subsamp, fpsNum, fpsDen int, err error) {
	fpsNum, fpsDen = 30, 1
	subsamp = packet.Subsamp420
	fields := strings.Fields(strings.TrimSpace(line))
	for _, f := range fields[1:] {
		if f == "" {
			continue
		}
		tag, val := f[0], f[1:]
		switch tag {
		case 'W':
			w, err = strconv.Atoi(val)
		case 'H':
			h, err = strconv.Atoi(val)
		case 'F':
			parts := strings.SplitN(val, ":", 2)
			if len(parts) == 2 {
				fpsNum, _ = strconv.Atoi(parts[0])
				fpsDen, _ = strconv.Atoi(parts[1])
			}
		case 'C':
			subsamp = y4mColorspaceToSubsamp(val)
		}
		if err != nil {
			return 0, 0, 0, 0, 0, fmt.Errorf("dsv2enc: bad Y4M header field %q: %w", f, err)
		}
	}
	if w == 0 || h == 0 {
		return 0, 0, 0, 0, 0, fmt.Errorf("dsv2enc: Y4M header missing width/height: %q", line)
	}
	return w, h, subsamp, fpsNum, fpsDen, nil
}

func y4mColorspaceToSubsamp(cs string) int {
	switch {
	case strings.HasPrefix(cs, "420"):
		return packet.Subsamp420
	case strings.HasPrefix(cs, "422"):
		return packet.Subsamp422
	case strings.HasPrefix(cs, "411"):
		return packet.Subsamp411
	case strings.HasPrefix(cs, "410"):
		return packet.Subsamp410
	case strings.HasPrefix(cs, "444"):
		return packet.Subsamp444
	default:
		return packet.Subsamp420
	}
}

// y4mFrameReader wraps a Y4M stream after its header line. Read passes the
// underlying bytes through unchanged; each "FRAME ...\n" marker is removed
// only by an explicit skipMarker call, which readFrame makes before every
// frame.
type y4mFrameReader struct {
	r *bufio.Reader
}

func (y *y4mFrameReader) Read(p []byte) (int, error) {
	return y.r.Read(p)
}

// skipMarker consumes one "FRAME ...\n" line ahead of a frame's raw bytes.
func (y *y4mFrameReader) skipMarker() error {
	line, err := y.r.ReadString('\n')
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "FRAME") {
		return fmt.Errorf("dsv2enc: expected FRAME marker, got %q", line)
	}
	return nil
}
