package packet

import "testing"

func TestMetaRoundTrip(t *testing.T) {
	m := Metadata{
		Width: 1920, Height: 1080, Subsamp: Subsamp420,
		FPSNum: 30000, FPSDen: 1001,
		AspectNum: 16, AspectDen: 9,
		InterSharpen: true,
	}
	data, err := EncodeMeta(m)
	if err != nil {
		t.Fatalf("EncodeMeta: %v", err)
	}
	got, err := DecodeMeta(data)
	if err != nil {
		t.Fatalf("DecodeMeta: %v", err)
	}
	if got != m {
		t.Fatalf("got %+v, want %+v", got, m)
	}
}

func TestMetaWithReserved(t *testing.T) {
	m := Metadata{
		Width: 16, Height: 16, Subsamp: Subsamp444,
		FPSNum: 25, FPSDen: 1, AspectNum: 1, AspectDen: 1,
		HasReserved: true, Reserved: 0x1234 & 0x7FFF,
	}
	data, err := EncodeMeta(m)
	if err != nil {
		t.Fatalf("EncodeMeta: %v", err)
	}
	got, err := DecodeMeta(data)
	if err != nil {
		t.Fatalf("DecodeMeta: %v", err)
	}
	if got != m {
		t.Fatalf("got %+v, want %+v", got, m)
	}
}

func TestMetaRejectsSmallDimensions(t *testing.T) {
	m := Metadata{Width: 8, Height: 8, FPSNum: 1, FPSDen: 1, AspectNum: 1, AspectDen: 1}
	if _, err := EncodeMeta(m); err != ErrBadDimensions {
		t.Fatalf("got %v, want ErrBadDimensions", err)
	}
}

func TestMetaRejectsZeroDenominator(t *testing.T) {
	m := Metadata{Width: 16, Height: 16, FPSNum: 1, FPSDen: 0, AspectNum: 1, AspectDen: 1}
	if _, err := EncodeMeta(m); err != ErrBadDenominator {
		t.Fatalf("got %v, want ErrBadDenominator", err)
	}
}
