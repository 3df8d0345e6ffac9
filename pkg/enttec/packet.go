// Package enttec frames messages for the ENTTEC DMX USB Pro widget API.
//
// Every message is: 0x7E, label, payload length (LSB, MSB), payload, 0xE7.
package enttec

import (
	"errors"
	"fmt"
)

const (
	StartDelimiter byte = 0x7E
	EndDelimiter   byte = 0xE7

	// LabelGetParameters requests the widget parameters.
	LabelGetParameters byte = 3
	// LabelSendDMX is the "Output Only Send DMX Packet" request.
	LabelSendDMX byte = 6
	// LabelGetSerial requests the widget serial number.
	LabelGetSerial byte = 10

	// DMXStartCode is the null start code that precedes channel data.
	DMXStartCode byte = 0x00
	// UniverseSize is the number of channels in one DMX universe.
	UniverseSize = 512
	// MaxPayload is the largest payload the widget accepts.
	MaxPayload = 600
)

// ErrBadFrame is returned for buffers that are not a complete widget message.
var ErrBadFrame = errors.New("enttec: malformed frame")

// Frame wraps a payload with the widget delimiters and length header.
func Frame(label byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("enttec: payload of %d bytes exceeds %d", len(payload), MaxPayload)
	}
	b := make([]byte, 0, len(payload)+5)
	b = append(b, StartDelimiter, label, byte(len(payload)&0xFF), byte(len(payload)>>8))
	b = append(b, payload...)
	return append(b, EndDelimiter), nil
}

// DMXPacket builds a Send DMX request for a full universe. Missing channels
// are zero and anything beyond 512 is ignored.
func DMXPacket(channels []byte) []byte {
	payload := make([]byte, UniverseSize+1)
	payload[0] = DMXStartCode
	copy(payload[1:], channels)
	b, _ := Frame(LabelSendDMX, payload)
	return b
}

// Parse splits a single framed message into its label and payload.
func Parse(b []byte) (label byte, payload []byte, err error) {
	if len(b) < 5 || b[0] != StartDelimiter {
		return 0, nil, ErrBadFrame
	}
	n := int(b[2]) | int(b[3])<<8
	if len(b) != n+5 || b[len(b)-1] != EndDelimiter {
		return 0, nil, ErrBadFrame
	}
	return b[1], b[4 : 4+n], nil
}
