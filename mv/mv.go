/*
DESCRIPTION
  mv.go defines the per-block motion vector type. The teacher's C union
  (DSV_MV::u.mv / u.all) becomes a struct with explicit signed fields plus
  an All() accessor for the "is any non-zero" test described in the design
  notes.
*/

// Package mv holds the per-block motion vector type and the spatial
// predictor used to code vectors differentially (§4.7 of the codec spec).
package mv

// Flag bits carried alongside a vector. These mirror blockmeta's per-block
// bits but travel with the MV field rather than the metadata array because
// they are read during motion compensation on a per-block basis.
const (
	FlagIntra    = 1 << 0
	FlagEPRM     = 1 << 1
	FlagMaintain = 1 << 2
	FlagSkip     = 1 << 3
	FlagRinging  = 1 << 4
	FlagNoXmitY  = 1 << 5
	FlagNoXmitC  = 1 << 6
	FlagSimplex  = 1 << 7
)

// Submask quadrant bits and the all-intra sentinel.
const (
	MaskIntra00 = 1
	MaskIntra01 = 2
	MaskIntra10 = 4
	MaskIntra11 = 8
	MaskAllIntra = 0xF
)

// SrcDCPred flags that MV.DC carries a transmitted DC value rather than a
// signal to derive DC from the reference block average.
const SrcDCPred = 0x100

// MV is the per-block motion data. X, Y are quarter-pel signed
// displacements (mv.x = fpel*4 + hpel*2 + qpel). Err is a coarse error
// estimate from motion search, used only by HME/rate heuristics, never
// transmitted. DC's low 8 bits hold the predicted/transmitted DC sample for
// all-intra blocks; bit SrcDCPred selects which.
type MV struct {
	X, Y    int16
	Flags   uint32
	Err     uint16
	DC      uint16
	Submask uint8
}

// All reports whether the vector carries any motion (non-zero x or y).
// Named to mirror the teacher design note's ".all" accessor over a packed
// union.
func (m MV) All() bool { return m.X != 0 || m.Y != 0 }

func (m MV) flag(f uint32) bool { return m.Flags&f != 0 }

// Intra reports FlagIntra.
func (m MV) Intra() bool { return m.flag(FlagIntra) }

// EPRM reports FlagEPRM.
func (m MV) EPRM() bool { return m.flag(FlagEPRM) }

// Skip reports FlagSkip.
func (m MV) Skip() bool { return m.flag(FlagSkip) }

// AllIntra reports whether the submask selects whole-block intra.
func (m MV) AllIntra() bool { return m.Submask == MaskAllIntra }

// QuadrantIntra reports whether quadrant q (0..3, raster order within the
// 2x2 split) is flagged intra. Only meaningful when m.Intra() is set.
func (m MV) QuadrantIntra(q int) bool {
	bits := [4]uint8{MaskIntra00, MaskIntra01, MaskIntra10, MaskIntra11}
	return m.Submask&bits[q] != 0
}

// SrcDC reports whether DC carries a transmitted value.
func (m MV) SrcDC() bool { return m.DC&SrcDCPred != 0 }

// DCValue returns the low-8-bit DC sample value, independent of SrcDC.
func (m MV) DCValue() uint8 { return uint8(m.DC & 0xFF) }

// Field is the per-picture w x h grid of motion vectors, row-major in
// block units.
type Field struct {
	W, H int
	Vecs []MV
}

// NewField allocates a zeroed w x h vector field.
func NewField(w, h int) *Field {
	return &Field{W: w, H: h, Vecs: make([]MV, w*h)}
}

func (f *Field) idx(bx, by int) int { return by*f.W + bx }

// At returns the vector for block (bx, by).
func (f *Field) At(bx, by int) MV { return f.Vecs[f.idx(bx, by)] }

// Set stores the vector for block (bx, by).
func (f *Field) Set(bx, by int, v MV) { f.Vecs[f.idx(bx, by)] = v }

// InBounds reports whether (bx, by) is a valid block coordinate.
func (f *Field) InBounds(bx, by int) bool {
	return bx >= 0 && bx < f.W && by >= 0 && by < f.H
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	out := &Field{W: f.W, H: f.H, Vecs: make([]MV, len(f.Vecs))}
	copy(out.Vecs, f.Vecs)
	return out
}
