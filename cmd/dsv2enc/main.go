/*
DESCRIPTION
  dsv2enc is a thin command-line wrapper around the dsv2 encoder: it reads
  a raw planar YUV (or Y4M-wrapped) file, feeds it frame-by-frame to
  dsv2.Encoder, and writes the resulting packet stream to an output file.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements the dsv2enc command-line encoder.
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
	"github.com/ausocean/dsv2/ratectl"
)

const (
	logPath      = "dsv2enc.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
)

func main() {
	inPath := flag.String("inp", "", "path to input video (raw YUV or Y4M)")
	outPath := flag.String("out", "", "path to output DSV-2 stream")
	width := flag.Int("w", 352, "width of input video, ignored for Y4M input")
	height := flag.Int("h", 288, "height of input video, ignored for Y4M input")
	subsamp := flag.Int("fmt", packet.Subsamp420, "chroma subsampling: 0=444 4=422 5=420 8=411 10=410")
	fpsNum := flag.Int("fps_num", 30, "frame rate numerator")
	fpsDen := flag.Int("fps_den", 1, "frame rate denominator")
	quality := flag.Int("qp", 85, "quality percent, 100 = mathematically lossless")
	effort := flag.Int("effort", 8, "encoder effort, 0 = least, 8 = most (stored, not consulted by the encoder)")
	gop := flag.Int("gop", 15, "group-of-pictures length, 0 = intra only")
	rcMode := flag.Int("rc_mode", int(ratectl.CRF), "rate control: 0=CRF 1=ABR 2=CQP")
	bitrate := flag.Int("bitrate", 0, "ABR target bitrate in kbit/s, must be positive with -rc_mode 1")
	scd := flag.Bool("scd", true, "insert intra frames on detected scene changes")
	ifilter := flag.Bool("ifilter", true, "enable intra-frame deringing filter")
	pfilter := flag.Bool("pfilter", true, "enable inter-frame cleanup filter")
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

	src, w, h, fn, fd, ss, err := openYUVSource(in, *width, *height, *subsamp, *fpsNum, *fpsDen)
	if err != nil {
		log.Fatal("could not open video source", "error", err)
	}

	cfg := dsv2.EncoderConfig{
		Quality:           *quality * ratectl.QualityScale,
		Effort:            *effort,
		GOP:               *gop,
		DoSCD:             *scd,
		VariableIInterval: true,
		DoTemporalAQ:      true,
		DoIntraFilter:     *ifilter,
		DoInterFilter:     *pfilter,
		RC: ratectl.Config{
			Mode:    ratectl.Mode(*rcMode),
			Bitrate: uint64(*bitrate) * 1000,
		},
		Logger: log,
	}
	enc, err := dsv2.NewEncoder(cfg)
	if err != nil {
		log.Fatal("could not create encoder", "error", err)
	}
	defer enc.Close()

	meta := packet.Metadata{Width: w, Height: h, Subsamp: ss, FPSNum: fn, FPSDen: fd}
	metaPkt, err := enc.SetMetadata(meta)
	if err != nil {
		log.Fatal("could not set metadata", "error", err)
	}
	if _, err := out.Write(metaPkt); err != nil {
		log.Fatal("could not write metadata packet", "error", err)
	}

	shiftX, shiftY := chromaShift(ss)
	nframes := 0
	for {
		f, err := readFrame(src, w, h, shiftX, shiftY)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal("could not read frame", "error", err)
		}
		pkt, err := enc.Encode(f)
		f.Release()
		if err != nil {
			log.Fatal("could not encode frame", "frame", nframes, "error", err)
		}
		if _, err := out.Write(pkt); err != nil {
			log.Fatal("could not write packet", "error", err)
		}
		nframes++
	}
	if _, err := out.Write(enc.EndOfStream()); err != nil {
		log.Fatal("could not write end-of-stream packet", "error", err)
	}
	fmt.Printf("encoded %d frames\n", nframes)
}

func chromaShift(subsamp int) (int, int) {
	switch subsamp {
	case packet.Subsamp420, packet.Subsamp410:
		return 1, 1
	case packet.Subsamp422, packet.Subsamp411:
		return 1, 0
	default:
		return 0, 0
	}
}

func readFrame(r io.Reader, w, h, shiftX, shiftY int) (*frame.Frame, error) {
	if y, ok := r.(*y4mFrameReader); ok {
		if err := y.skipMarker(); err != nil {
			return nil, err
		}
	}
	f, err := frame.New(w, h, shiftX, shiftY, true)
	if err != nil {
		return nil, err
	}
	for _, p := range f.Planes() {
		for y := 0; y < p.H; y++ {
			if _, err := io.ReadFull(r, p.Row(y)); err != nil {
				return nil, err
			}
		}
	}
	f.Extend()
	return f, nil
}
