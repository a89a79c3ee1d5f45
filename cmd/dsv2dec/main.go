/*
DESCRIPTION
  dsv2dec is a thin command-line wrapper around the dsv2 decoder: it reads
  a DSV-2 packet stream from a file, decodes it packet by packet, and
  writes the reconstructed frames to a raw planar YUV (or Y4M-wrapped)
  output file.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements the dsv2dec command-line decoder.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/dsv2"
	"github.com/ausocean/dsv2/frame"
	"github.com/ausocean/dsv2/packet"
)

const (
	logPath      = "dsv2dec.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
)

func main() {
	inPath := flag.String("inp", "", "path to input DSV-2 stream")
	outPath := flag.String("out", "", "path to output raw YUV file")
	y4m := flag.Bool("y4m", false, "wrap output in a YUV4MPEG2 header/frame markers")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	fileLog := &lumberjack.Logger{Filename: logPath, MaxSize: logMaxSize, MaxBackups: logMaxBackup, MaxAge: logMaxAge}
	level := logging.Info
	if *verbose {
		level = logging.Debug
	}
	log := logging.New(level, io.MultiWriter(fileLog, os.Stderr), true)

	if *inPath == "" || *outPath == "" {
		log.Fatal("both -inp and -out are required")
	}

	in, err := os.Open(*inPath)
	if err != nil {
		log.Fatal("could not open input", "error", err)
	}
	defer in.Close()

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal("could not create output", "error", err)
	}
	defer out.Close()

	dec := dsv2.NewDecoder(dsv2.DecoderConfig{Logger: log})
	defer dec.Close()

	r := &packetReader{r: in}
	wroteHeader := false
	nframes := 0
	for {
		pkt, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal("could not read packet", "error", err)
		}
		f, err := dec.Decode(pkt)
		if err != nil {
			log.Fatal("could not decode packet", "frame", nframes, "error", err)
		}
		if f == nil {
			continue
		}
		if *y4m && !wroteHeader {
			m, _ := dec.Metadata()
			if err := writeY4MHeader(out, m); err != nil {
				log.Fatal("could not write Y4M header", "error", err)
			}
			wroteHeader = true
		}
		if *y4m {
			if _, err := out.WriteString("FRAME\n"); err != nil {
				log.Fatal("could not write frame marker", "error", err)
			}
		}
		if err := writeFrame(out, f); err != nil {
			log.Fatal("could not write frame", "error", err)
		}
		f.Release()
		nframes++
	}
	fmt.Printf("decoded %d frames\n", nframes)
}

// packetReader walks a DSV-2 packet stream using each header's NextLink:
// the byte distance from the packet's own start to the next packet's
// start, i.e. this packet's total on-wire size (header+payload). A
// NextLink of 0 marks the EOS packet.
type packetReader struct {
	r io.Reader
}

func (p *packetReader) next() ([]byte, error) {
	hdr := make([]byte, packet.HeaderSize)
	if _, err := io.ReadFull(p.r, hdr); err != nil {
		return nil, err
	}
	h, err := packet.Decode(hdr)
	if err != nil {
		return nil, err
	}
	if h.IsEOS() {
		return hdr, nil
	}
	body := make([]byte, int(h.NextLink)-packet.HeaderSize)
	if _, err := io.ReadFull(p.r, body); err != nil {
		return nil, err
	}
	return append(hdr, body...), nil
}

func writeFrame(w io.Writer, f *frame.Frame) error {
	for _, p := range f.Planes() {
		for y := 0; y < p.H; y++ {
			if _, err := w.Write(p.Row(y)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeY4MHeader(w io.Writer, m packet.Metadata) error {
	cs := "420"
	switch m.Subsamp {
	case packet.Subsamp444:
		cs = "444"
	case packet.Subsamp422:
		cs = "422"
	case packet.Subsamp411:
		cs = "411"
	case packet.Subsamp410:
		cs = "410"
	}
	_, err := fmt.Fprintf(w, "YUV4MPEG2 W%d H%d F%d:%d Ip A1:1 C%s\n", m.Width, m.Height, m.FPSNum, m.FPSDen, cs)
	return err
}
