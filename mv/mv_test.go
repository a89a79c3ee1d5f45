package mv

import "testing"

func TestAll(t *testing.T) {
	z := MV{}
	if z.All() {
		t.Fatal("zero vector should report All()==false")
	}
	nz := MV{X: 1}
	if !nz.All() {
		t.Fatal("non-zero vector should report All()==true")
	}
}

func TestQuadrantIntra(t *testing.T) {
	m := MV{Submask: MaskIntra01 | MaskIntra10}
	if m.QuadrantIntra(0) || m.QuadrantIntra(3) {
		t.Fatal("quadrants 0 and 3 should not be flagged intra")
	}
	if !m.QuadrantIntra(1) || !m.QuadrantIntra(2) {
		t.Fatal("quadrants 1 and 2 should be flagged intra")
	}
}

func TestAllIntra(t *testing.T) {
	m := MV{Submask: MaskAllIntra}
	if !m.AllIntra() {
		t.Fatal("expected AllIntra true")
	}
}

func TestSrcDC(t *testing.T) {
	m := MV{DC: SrcDCPred | 200}
	if !m.SrcDC() {
		t.Fatal("expected SrcDC true")
	}
	if m.DCValue() != 200 {
		t.Fatalf("got %d want 200", m.DCValue())
	}
}

func TestFieldSetGet(t *testing.T) {
	f := NewField(4, 3)
	f.Set(2, 1, MV{X: 5, Y: -3})
	got := f.At(2, 1)
	if got.X != 5 || got.Y != -3 {
		t.Fatalf("got %+v", got)
	}
	if f.At(0, 0).X != 0 {
		t.Fatal("unset vector should be zero")
	}
}

func TestFieldClone(t *testing.T) {
	f := NewField(2, 2)
	f.Set(0, 0, MV{X: 1})
	c := f.Clone()
	c.Set(0, 0, MV{X: 2})
	if f.At(0, 0).X != 1 {
		t.Fatal("clone should not alias original")
	}
}
