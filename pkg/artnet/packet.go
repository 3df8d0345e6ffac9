// Package artnet encodes and decodes Art-Net ArtDmx packets.
package artnet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// OpCodeDMX is the Art-Net operation code for DMX data.
	OpCodeDMX uint16 = 0x5000
	// ProtocolVersion is the Art-Net protocol version.
	ProtocolVersion uint16 = 14
	// DMXDataLength is the number of DMX channels per universe.
	DMXDataLength = 512
	// HeaderSize is the size of the ArtDmx header preceding the channel data.
	HeaderSize = 18
	// PacketSize is the total size of a full-universe ArtDmx packet.
	PacketSize = HeaderSize + DMXDataLength
	// DefaultPort is the standard Art-Net UDP port.
	DefaultPort = 6454
)

// ID is the Art-Net packet identifier.
var ID = [8]byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

var (
	// ErrShortPacket is returned when a buffer is too small to hold an ArtDmx packet.
	ErrShortPacket = errors.New("artnet: short packet")
	// ErrNotArtDMX is returned for buffers that are not ArtDmx packets.
	ErrNotArtDMX = errors.New("artnet: not an ArtDmx packet")
)

// DMXPacket is one ArtDmx frame.
type DMXPacket struct {
	Sequence byte
	Physical byte
	// Universe is the 1-based universe number used throughout the application.
	Universe int
	Data     [DMXDataLength]byte
}

// NewDMXPacket builds a packet for a 1-based universe. Channels beyond 512
// are ignored and missing channels are zero.
func NewDMXPacket(universe int, channels []byte, sequence byte) DMXPacket {
	p := DMXPacket{Sequence: sequence, Universe: universe}
	copy(p.Data[:], channels)
	return p
}

// MarshalBinary encodes the packet in wire format.
func (p DMXPacket) MarshalBinary() ([]byte, error) {
	if p.Universe < 1 || p.Universe > 0x8000 {
		return nil, fmt.Errorf("artnet: universe %d out of range", p.Universe)
	}
	b := make([]byte, PacketSize)
	copy(b[0:8], ID[:])
	binary.LittleEndian.PutUint16(b[8:10], OpCodeDMX)
	binary.BigEndian.PutUint16(b[10:12], ProtocolVersion)
	b[12] = p.Sequence
	b[13] = p.Physical
	binary.LittleEndian.PutUint16(b[14:16], uint16(p.Universe-1))
	binary.BigEndian.PutUint16(b[16:18], DMXDataLength)
	copy(b[HeaderSize:], p.Data[:])
	return b, nil
}

// UnmarshalBinary decodes an ArtDmx packet. Shorter data payloads are zero padded.
func (p *DMXPacket) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return ErrShortPacket
	}
	if !bytes.Equal(b[0:8], ID[:]) || binary.LittleEndian.Uint16(b[8:10]) != OpCodeDMX {
		return ErrNotArtDMX
	}
	n := int(binary.BigEndian.Uint16(b[16:18]))
	if n > DMXDataLength {
		n = DMXDataLength
	}
	if len(b) < HeaderSize+n {
		return ErrShortPacket
	}
	*p = DMXPacket{
		Sequence: b[12],
		Physical: b[13],
		Universe: int(binary.LittleEndian.Uint16(b[14:16])) + 1,
	}
	copy(p.Data[:], b[HeaderSize:HeaderSize+n])
	return nil
}
