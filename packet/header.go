/*
DESCRIPTION
  header.go implements the packet header described in §4.7: a literal
  'D','S','V','2' four-byte tag, a minor version byte, a packet type byte,
  and big-endian prev/next byte-distance links used to walk the packet
  stream forwards or backwards without a separate index. The worked EOS
  example in §8 scenario 1 fixes the wire size at 14 bytes (4 + 1 + 1 + 4
  + 4), which this implementation follows.
*/

// Package packet implements the DSV-2 packet container: header framing,
// the metadata packet, and the picture packet (stability/motion/intra
// metadata plus the three HZCC-coded planes).
package packet

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// HeaderSize is the fixed size of every packet header, in bytes.
const HeaderSize = 14

// MinorVersion is the version this implementation writes. Decode does not
// check the minor version byte of incoming packets.
const MinorVersion = 8

// Packet type byte values. PIC additionally carries is_ref (bit 1) and
// has_ref (bit 0) flags OR'd into the base 0x04.
const (
	TypeMeta    = 0x00
	TypePic     = 0x04
	TypeHasRef  = 0x01
	TypeIsRef   = 0x02
	TypeEOS     = 0x10
	typePicMask = 0xFC // the base PIC type bits, excluding is_ref/has_ref
)

// FourCC is the literal four-byte tag every packet header starts with.
var FourCC = [4]byte{'D', 'S', 'V', '2'}

// ErrBadFourCC is returned when a header's tag does not match FourCC.
var ErrBadFourCC = errors.New("packet: bad 4CC")

// ErrBadHeaderSize is returned when fewer than HeaderSize bytes are
// available to parse a header.
var ErrBadHeaderSize = errors.New("packet: header too short")

// Header is the parsed form of a packet's fixed-size prefix.
type Header struct {
	Minor    byte
	Type     byte
	PrevLink uint32
	NextLink uint32
}

// IsPic reports whether Type's base bits (ignoring is_ref/has_ref) are the
// picture packet type.
func (h Header) IsPic() bool { return h.Type&typePicMask == TypePic }

// IsRef reports the PIC is_ref bit.
func (h Header) IsRef() bool { return h.Type&TypeIsRef != 0 }

// HasRef reports the PIC has_ref bit.
func (h Header) HasRef() bool { return h.Type&TypeHasRef != 0 }

// IsEOS reports whether Type is the standalone end-of-stream packet.
func (h Header) IsEOS() bool { return h.Type == TypeEOS }

// Encode writes h as a fixed-size header.
func Encode(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], FourCC[:])
	buf[4] = h.Minor
	buf[5] = h.Type
	binary.BigEndian.PutUint32(buf[6:10], h.PrevLink)
	binary.BigEndian.PutUint32(buf[10:14], h.NextLink)
	return buf
}

// Decode parses a header from the front of data.
func Decode(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrBadHeaderSize
	}
	if [4]byte{data[0], data[1], data[2], data[3]} != FourCC {
		return Header{}, errors.Wrapf(ErrBadFourCC, "got %q", data[0:4])
	}
	return Header{
		Minor:    data[4],
		Type:     data[5],
		PrevLink: binary.BigEndian.Uint32(data[6:10]),
		NextLink: binary.BigEndian.Uint32(data[10:14]),
	}, nil
}

// MakePacketBuffer validates a header prefix and returns a full packet
// buffer (header + size-byte payload, payload zeroed) along with the
// packet type, per §6's make_packet_buffer contract.
func MakePacketBuffer(hdrBytes []byte, payloadSize int) ([]byte, byte, error) {
	h, err := Decode(hdrBytes)
	if err != nil {
		return nil, 0, err
	}
	buf := make([]byte, HeaderSize+payloadSize)
	copy(buf, hdrBytes[:HeaderSize])
	return buf, h.Type, nil
}

// EOSPacket returns the standalone end-of-stream packet: a bare header
// with type EOS and both links zero, matching §8 scenario 1.
func EOSPacket() []byte {
	return Encode(Header{Minor: MinorVersion, Type: TypeEOS})
}
