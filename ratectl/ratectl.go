/*
DESCRIPTION
  ratectl.go implements the CRF/ABR/CQP per-frame quality controller
  (§4.8): a moving quality target blended from a configured anchor and a
  scene-complexity estimate for CRF, a proportional bytes-per-frame
  controller for ABR, and a straight pass-through for CQP. rf_avg is
  tracked as a running average over a reset-every-256-frames window
  (DSV_RF_RESET), using gonum/stat for the mean.
*/

package ratectl

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Mode selects which rate-control strategy NextQuality uses.
type Mode int

const (
	// CRF targets a moving quality level that tracks scene complexity.
	CRF Mode = iota
	// ABR targets an average output bitrate.
	ABR
	// CQP passes the configured quality straight through, unmodified.
	CQP
)

func (m Mode) String() string {
	switch m {
	case CRF:
		return "CRF"
	case ABR:
		return "ABR"
	case CQP:
		return "CQP"
	default:
		return "unknown"
	}
}

// RFResetPeriod is the number of frames after which the running rate/
// quality average resets (DSV_RF_RESET in the design notes).
const RFResetPeriod = 256

var (
	ErrBadMode    = errors.New("ratectl: unknown rate control mode")
	ErrBadQuality = errors.New("ratectl: quality out of range")
	ErrBadBitrate = errors.New("ratectl: ABR mode requires a positive bitrate")
)

// Config holds the rate-control options an encoder is configured with.
// Quality fields are all in the 0..MaxQuality internal scale; callers
// presenting a 0..100 quality to users should multiply by QualityScale
// before populating this struct.
type Config struct {
	Mode Mode

	// Quality is the CRF/CQP target quality, or the CRF anchor quality
	// CRF blends toward.
	Quality int

	// Bitrate is the ABR target, in bits per second.
	Bitrate uint64

	MinQuality       int
	MaxQuality       int
	MinIFrameQuality int

	// MinQStep/MaxQStep bound the per-frame ABR quality delta.
	MinQStep int
	MaxQStep int
}

// Validate checks Config for internally-consistent values and fills in
// zero-valued optional fields with sane defaults.
func (c *Config) Validate() error {
	if c.Mode != CRF && c.Mode != ABR && c.Mode != CQP {
		return ErrBadMode
	}
	if c.Quality < 0 || c.Quality > MaxQuality {
		return ErrBadQuality
	}
	if c.Mode == ABR && c.Bitrate == 0 {
		return ErrBadBitrate
	}
	if c.MaxQuality == 0 {
		c.MaxQuality = MaxQuality
	}
	if c.MinIFrameQuality == 0 {
		c.MinIFrameQuality = c.MinQuality
	}
	if c.MinQStep == 0 {
		c.MinQStep = 1
	}
	if c.MaxQStep == 0 {
		c.MaxQStep = MaxQuality
	}
	c.MinQStep = clampInt(c.MinQStep, 1, MaxQuality)
	c.MaxQStep = clampInt(c.MaxQStep, 1, MaxQuality)
	return nil
}

// Controller tracks rate-control state across a sequence of frames: the
// running rf_avg window, and the running average of P-frame quality that
// ABR mode uses as its base.
type Controller struct {
	cfg Config

	fpsNum, fpsDen uint32

	samples []float64
	rfAvg   float64

	avgPFrameQ int
}

// NewController returns a Controller for cfg, which must already have
// passed Validate. fpsNum/fpsDen are the stream frame rate, used by ABR
// to compute a bytes-per-frame target from cfg.Bitrate.
func NewController(cfg Config, fpsNum, fpsDen uint32) *Controller {
	if fpsNum == 0 {
		fpsNum = 1
	}
	if fpsDen == 0 {
		fpsDen = 1
	}
	return &Controller{
		cfg:        cfg,
		fpsNum:     fpsNum,
		fpsDen:     fpsDen,
		avgPFrameQ: cfg.Quality,
	}
}

// Sample records one frame's rate-control cost: bytes emitted for ABR, or
// the quality value actually used for CRF. The running average resets
// every RFResetPeriod frames per §4.8.
func (c *Controller) Sample(v float64) {
	c.samples = append(c.samples, v)
	c.rfAvg = stat.Mean(c.samples, nil)
	if len(c.samples) >= RFResetPeriod {
		c.samples = c.samples[:0]
	}
}

// NextQuality selects the quality (0..MaxQuality) to encode the next
// frame at. hasRef distinguishes a P-frame from an I-frame; complexity is
// a 0..100 scene-complexity estimate (see hme's picture statistics).
func (c *Controller) NextQuality(hasRef bool, complexity float64) int {
	switch c.cfg.Mode {
	case CQP:
		return c.cfg.Quality
	case CRF:
		return c.crfQuality(hasRef, complexity)
	case ABR:
		return c.abrQuality(hasRef, complexity)
	default:
		return c.cfg.Quality
	}
}

// crfQuality blends the configured anchor quality with the running
// rf_avg, nudged up or down by how complex the scene is relative to a
// 50% midpoint; dir > 0 (below-average complexity) pushes quality up,
// dir < 0 pushes it down. The result never drifts outside the
// configured min/max band for the frame's picture type.
func (c *Controller) crfQuality(hasRef bool, complexity float64) int {
	minQ := c.cfg.MinQuality
	if !hasRef {
		minQ = c.cfg.MinIFrameQuality
	}
	maxQ := c.cfg.MaxQuality

	plex := clampInt(int(complexity), 0, 100) - 50
	dir := 1.0
	if plex > 0 {
		dir = -1.0
	}
	aplex := math.Abs(float64(plex))
	var plexsq float64
	if aplex > 4 {
		plexsq = (aplex*aplex + 32) / 64
	} else {
		plexsq = aplex
	}

	anchor := clampInt(c.cfg.Quality, minQ, maxQ)
	clampedAvg := math.Max(c.rfAvg, float64(c.cfg.Quality))
	movingTarget := (3*float64(anchor) + clampedAvg + 2) / 4

	q := clampInt(int(movingTarget+dir*plexsq), minQ, maxQ)
	if hasRef {
		c.avgPFrameQ = (c.avgPFrameQ + q) / 2
	}
	return q
}

// abrQuality adjusts quality proportionally to how far the running
// average bytes-per-frame (tracked via Sample) deviates from the target
// implied by cfg.Bitrate, limited to MinQStep/MaxQStep per frame.
func (c *Controller) abrQuality(hasRef bool, complexity float64) int {
	minQ := c.cfg.MinQuality
	if !hasRef {
		minQ = c.cfg.MinIFrameQuality
	}
	maxQ := c.cfg.MaxQuality

	fps := float64(c.fpsNum) / float64(c.fpsDen)
	if fps <= 0 {
		fps = 1
	}
	targetRF := float64(c.cfg.Bitrate) / fps / 8
	if targetRF <= 0 {
		targetRF = 1
	}

	rf := c.rfAvg
	if rf == 0 {
		rf = targetRF
	}

	dir := 1.0
	if rf > targetRF {
		dir = -1.0
	}
	delta := math.Abs(rf-targetRF) / targetRF * MaxQuality
	delta = math.Min(delta, float64(c.cfg.MaxQStep))
	if dir < 0 && delta < float64(c.cfg.MinQStep) {
		delta = 0
	}

	base := c.avgPFrameQ
	q := clampInt(base+int(dir*delta), minQ, maxQ)
	if hasRef {
		c.avgPFrameQ = (c.avgPFrameQ + q) / 2
	}
	return q
}
