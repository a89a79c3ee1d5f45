package packet

import (
	"bytes"
	"testing"
)

func TestEOSPacketMatchesWorkedExample(t *testing.T) {
	want := []byte{0x44, 0x53, 0x56, 0x32, 0x08, 0x10, 0, 0, 0, 0, 0, 0, 0, 0}
	got := EOSPacket()
	if !bytes.Equal(got, want) {
		t.Fatalf("EOSPacket() = % x, want % x", got, want)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Minor: MinorVersion, Type: TypePic | TypeIsRef, PrevLink: 1234, NextLink: 5678}
	got, err := Decode(Encode(h))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestDecodeBadFourCC(t *testing.T) {
	buf := Encode(Header{Minor: MinorVersion, Type: TypeEOS})
	buf[0] = 'X'
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected error for bad 4CC")
	}
}

func TestDecodeShortHeader(t *testing.T) {
	if _, err := Decode(make([]byte, HeaderSize-1)); err != ErrBadHeaderSize {
		t.Fatalf("got %v, want ErrBadHeaderSize", err)
	}
}

func TestHeaderFlags(t *testing.T) {
	h := Header{Type: TypePic | TypeIsRef | TypeHasRef}
	if !h.IsPic() || !h.IsRef() || !h.HasRef() {
		t.Fatal("expected all PIC flags set")
	}
	if (Header{Type: TypeEOS}).IsPic() {
		t.Fatal("EOS must not report IsPic")
	}
	if !(Header{Type: TypeEOS}).IsEOS() {
		t.Fatal("expected IsEOS")
	}
}

func TestMakePacketBuffer(t *testing.T) {
	hdr := Encode(Header{Minor: MinorVersion, Type: TypePic, NextLink: 42})
	buf, typ, err := MakePacketBuffer(hdr, 100)
	if err != nil {
		t.Fatalf("MakePacketBuffer: %v", err)
	}
	if typ != TypePic {
		t.Fatalf("got type %x, want %x", typ, TypePic)
	}
	if len(buf) != HeaderSize+100 {
		t.Fatalf("got len %d, want %d", len(buf), HeaderSize+100)
	}
}
