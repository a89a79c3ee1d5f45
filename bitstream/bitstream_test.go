package bitstream

import "testing"

func TestPutGetBits(t *testing.T) {
	buf := make([]byte, 4)
	w := NewWriter(buf)
	if err := w.PutBits(3, 0x5); err != nil {
		t.Fatal(err)
	}
	if err := w.PutBits(9, 0x1A3); err != nil {
		t.Fatal(err)
	}
	w.Align()
	if err := w.PutBits(8, 0xFF); err != nil {
		t.Fatal(err)
	}

	r := NewReader(buf)
	got, err := r.GetBits(3)
	if err != nil || got != 0x5 {
		t.Fatalf("got %x, %v want 0x5", got, err)
	}
	got, err = r.GetBits(9)
	if err != nil || got != 0x1A3 {
		t.Fatalf("got %x, %v want 0x1A3", got, err)
	}
	r.Align()
	got, err = r.GetBits(8)
	if err != nil || got != 0xFF {
		t.Fatalf("got %x, %v want 0xFF", got, err)
	}
}

func TestConcat(t *testing.T) {
	buf := make([]byte, 8)
	w := NewWriter(buf)
	if err := w.PutBits(8, 0xAB); err != nil {
		t.Fatal(err)
	}
	if err := w.Concat([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	want := []byte{0xAB, 1, 2, 3, 0, 0, 0, 0}
	for i, b := range want {
		if buf[i] != b {
			t.Fatalf("byte %d = %x want %x", i, buf[i], b)
		}
	}
}

func TestConcatUnaligned(t *testing.T) {
	buf := make([]byte, 4)
	w := NewWriter(buf)
	w.PutBit(1)
	if err := w.Concat([]byte{1}); err != ErrNotAligned {
		t.Fatalf("got %v want ErrNotAligned", err)
	}
}

func TestOutOfBits(t *testing.T) {
	buf := make([]byte, 1)
	w := NewWriter(buf)
	for i := 0; i < 8; i++ {
		if err := w.PutBit(1); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.PutBit(1); err != ErrOutOfBits {
		t.Fatalf("got %v want ErrOutOfBits", err)
	}
}

func TestWriterBufferZeroInitAssumption(t *testing.T) {
	buf := make([]byte, 1)
	w := NewWriter(buf)
	w.PutBit(0)
	w.PutBit(1)
	w.PutBit(0)
	if buf[0] != 0x40 {
		t.Fatalf("got %08b want %08b", buf[0], 0x40)
	}
}
