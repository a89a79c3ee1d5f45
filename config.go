/*
DESCRIPTION
  config.go defines EncoderConfig, the full set of encoder options
  described in §6. Effort, PyramidLevels and StableRefresh are stored but
  not consulted by the encoder.
*/

package dsv2

import (
	"math"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/dsv2/ratectl"
)

// Psy is a bitfield of optional perceptual encoding features.
type Psy uint32

const (
	PsyAdaptiveQuant Psy = 1 << iota
	PsyContentAnalysis
	PsyIVisualMasking
	PsyPVisualMasking
	PsyAdaptiveRinging
)

// GOPIntraOnly and GOPSingleIntra are the two non-literal values `gop`
// accepts: 0 codes every frame as an I-frame, and GOPSingleIntra emits
// exactly one I-frame at the very start of the stream.
const (
	GOPIntraOnly   = 0
	GOPSingleIntra = math.MaxInt32
)

// BlockSizeAuto, BlockSize16, BlockSize32 are the three values accepted by
// EncoderConfig's block size override fields.
const (
	BlockSizeAuto = -1
	BlockSize16   = 0
	BlockSize32   = 1
)

// EncoderConfig bundles every option the spec enumerates for the encoder
// (§6). Zero-valued fields are given sensible defaults by Validate,
// mirroring revid/config.Config's Validate/defaulting idiom.
type EncoderConfig struct {
	// Quality is the target rate-control anchor in [0, ratectl.MaxQuality],
	// including the subdivided max for mathematically lossless coding.
	Quality int

	// Effort is the encoder effort level. It is stored but not consulted:
	// the 9-point diamond, quarter-pel motion estimation and stat-polarity
	// selection (choosePolarity) run the same way at every effort value.
	Effort int

	// GOP is the group-of-pictures length: 0 = intra-only, positive = an
	// I-frame every N frames, GOPSingleIntra = one I-frame at the very
	// start of the stream.
	GOP int

	DoSCD              bool
	VariableIInterval  bool
	DoTemporalAQ       bool
	DoIntraFilter      bool
	DoInterFilter      bool
	DoDarkIntraBoost   bool
	DoPsy              Psy

	RC ratectl.Config

	// BlockSizeOverrideX/Y select the block grid geometry: BlockSizeAuto,
	// BlockSize16, or BlockSize32.
	BlockSizeOverrideX int
	BlockSizeOverrideY int

	// PyramidLevels is stored but not consulted: the pyramid depth always
	// comes from hme.NumLevels.
	PyramidLevels int

	// StableRefresh is stored but not consulted by the encoder.
	StableRefresh int

	IntraPctThresh   float64
	SceneChangePct   float64
	SkipBlockThresh  float64

	// Logger receives recoverable warnings and debug traces. A no-op
	// logger is substituted by Validate if unset.
	Logger logging.Logger
}

// Validate checks cfg for internally-consistent values and fills in
// zero-valued optional fields with their documented defaults.
func (cfg *EncoderConfig) Validate() error {
	if cfg.Quality < 0 || cfg.Quality > ratectl.MaxQuality {
		return ratectl.ErrBadQuality
	}
	if cfg.GOP < 0 {
		cfg.GOP = GOPIntraOnly
	}
	if cfg.BlockSizeOverrideX == 0 && cfg.BlockSizeOverrideY == 0 {
		cfg.BlockSizeOverrideX, cfg.BlockSizeOverrideY = BlockSizeAuto, BlockSizeAuto
	}
	if cfg.RC.Quality == 0 {
		cfg.RC.Quality = cfg.Quality
	}
	if err := cfg.RC.Validate(); err != nil {
		return err
	}
	if cfg.IntraPctThresh == 0 {
		cfg.IntraPctThresh = 50
	}
	if cfg.SceneChangePct == 0 {
		cfg.SceneChangePct = 40
	}
	if cfg.SkipBlockThresh == 0 {
		cfg.SkipBlockThresh = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New(logging.Error, nopWriter{}, false)
	}
	return nil
}

// blockSize resolves the configured block geometry to concrete pixel
// dimensions; auto always selects 16 (the pack carries no
// resolution-adaptive heuristic beyond the user override).
func (cfg *EncoderConfig) blockSize() (bw, bh int) {
	bw, bh = 16, 16
	if cfg.BlockSizeOverrideX == BlockSize32 {
		bw = 32
	}
	if cfg.BlockSizeOverrideY == BlockSize32 {
		bh = 32
	}
	return bw, bh
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
