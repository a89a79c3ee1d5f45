package packet

import (
	"math/rand"
	"testing"

	"github.com/ausocean/dsv2/blockmeta"
	"github.com/ausocean/dsv2/hzcc"
	"github.com/ausocean/dsv2/mv"
	"github.com/ausocean/dsv2/sbt"
)

func randCoefPlane(w, h int, seed int64) *sbt.CoefPlane {
	r := rand.New(rand.NewSource(seed))
	cp := sbt.NewCoefPlane(w, h)
	for i := range cp.Data {
		cp.Data[i] = int32(r.Intn(511) - 255)
	}
	return cp
}

func losslessParams(isLuma, isP bool, blocks *blockmeta.Array, nbH, nbV int) hzcc.Params {
	return hzcc.Params{
		Q: 1, IsLuma: isLuma, IsP: isP, Lossless: true,
		Blocks: blocks, NBlocksH: nbH, NBlocksV: nbV,
	}
}

func TestPictureIFrameRoundTrip(t *testing.T) {
	const nbH, nbV = 1, 1
	meta := blockmeta.New(nbH, nbV)
	meta.SetMaintain(0, 0, true)
	meta.SetRinging(0, 0, false)

	planes := [3]*sbt.CoefPlane{
		randCoefPlane(16, 16, 1),
		randCoefPlane(8, 8, 2),
		randCoefPlane(8, 8, 3),
	}
	params := [3]hzcc.Params{
		losslessParams(true, false, meta, nbH, nbV),
		losslessParams(false, false, meta, nbH, nbV),
		losslessParams(false, false, meta, nbH, nbV),
	}

	hdr := PictureHeader{FrameNumber: 7, BlockW: 16, BlockH: 16, IsI: true, QP: 1}
	data, err := EncodePicture(hdr, meta, nil, planes, params)
	if err != nil {
		t.Fatalf("EncodePicture: %v", err)
	}

	dims := [3][2]int{{16, 16}, {8, 8}, {8, 8}}
	gotMeta, gotField, gotPlanes, err := DecodePicture(data, hdr, nbH, nbV, dims, params)
	if err != nil {
		t.Fatalf("DecodePicture: %v", err)
	}
	if gotField != nil {
		t.Fatal("I-frame decode should not produce a motion field")
	}
	if !gotMeta.Maintain(0, 0) {
		t.Fatal("expected MAINTAIN to round-trip")
	}
	for i, want := range planes {
		got := gotPlanes[i]
		for j, v := range want.Data {
			if got.Data[j] != v {
				t.Fatalf("plane %d coefficient %d: got %d, want %d", i, j, got.Data[j], v)
			}
		}
	}
}

func TestPictureZeroMotionPFrame(t *testing.T) {
	const nbH, nbV = 2, 2
	meta := blockmeta.New(nbH, nbV)
	field := mv.NewField(nbH, nbV)
	for by := 0; by < nbV; by++ {
		for bx := 0; bx < nbH; bx++ {
			meta.SetSkip(bx, by, true)
			field.Set(bx, by, mv.MV{Flags: mv.FlagSkip})
		}
	}

	planes := [3]*sbt.CoefPlane{
		sbt.NewCoefPlane(32, 32),
		sbt.NewCoefPlane(16, 16),
		sbt.NewCoefPlane(16, 16),
	}
	params := [3]hzcc.Params{
		losslessParams(true, true, meta, nbH, nbV),
		losslessParams(false, true, meta, nbH, nbV),
		losslessParams(false, true, meta, nbH, nbV),
	}

	hdr := PictureHeader{FrameNumber: 1, BlockW: 16, BlockH: 16, IsI: false, QP: 64}
	data, err := EncodePicture(hdr, meta, field, planes, params)
	if err != nil {
		t.Fatalf("EncodePicture: %v", err)
	}

	dims := [3][2]int{{32, 32}, {16, 16}, {16, 16}}
	gotMeta, gotField, _, err := DecodePicture(data, hdr, nbH, nbV, dims, params)
	if err != nil {
		t.Fatalf("DecodePicture: %v", err)
	}
	for by := 0; by < nbV; by++ {
		for bx := 0; bx < nbH; bx++ {
			if !gotMeta.Skip(bx, by) {
				t.Fatalf("block (%d,%d): expected SKIP", bx, by)
			}
			v := gotField.At(bx, by)
			if !v.Skip() || v.X != 0 || v.Y != 0 || v.Intra() {
				t.Fatalf("block (%d,%d): got %+v, want zero-motion skip", bx, by, v)
			}
		}
	}

	// A near-minimal payload: well under one byte per coefficient for an
	// all-zero residual plane.
	if len(data) > 64 {
		t.Fatalf("zero-motion P-frame payload unexpectedly large: %d bytes", len(data))
	}
}

func TestPictureIntraBlockRoundTrip(t *testing.T) {
	const nbH, nbV = 1, 1
	meta := blockmeta.New(nbH, nbV)
	field := mv.NewField(nbH, nbV)
	field.Set(0, 0, mv.MV{
		Flags:   mv.FlagIntra,
		Submask: mv.MaskAllIntra,
		DC:      mv.SrcDCPred | 0x40,
	})

	planes := [3]*sbt.CoefPlane{
		randCoefPlane(16, 16, 4),
		randCoefPlane(8, 8, 5),
		randCoefPlane(8, 8, 6),
	}
	params := [3]hzcc.Params{
		losslessParams(true, true, meta, nbH, nbV),
		losslessParams(false, true, meta, nbH, nbV),
		losslessParams(false, true, meta, nbH, nbV),
	}

	hdr := PictureHeader{FrameNumber: 2, BlockW: 16, BlockH: 16, IsI: false, QP: 1}
	data, err := EncodePicture(hdr, meta, field, planes, params)
	if err != nil {
		t.Fatalf("EncodePicture: %v", err)
	}

	dims := [3][2]int{{16, 16}, {8, 8}, {8, 8}}
	_, gotField, _, err := DecodePicture(data, hdr, nbH, nbV, dims, params)
	if err != nil {
		t.Fatalf("DecodePicture: %v", err)
	}
	v := gotField.At(0, 0)
	if !v.Intra() || !v.AllIntra() || !v.SrcDC() || v.DCValue() != 0x40 {
		t.Fatalf("got %+v, want intra all-intra src-dc=0x40", v)
	}
}
