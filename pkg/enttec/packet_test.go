package enttec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDMXPacket(t *testing.T) {
	channels := make([]byte, UniverseSize)
	channels[4] = 255

	b := DMXPacket(channels)

	require.Len(t, b, UniverseSize+6)
	assert.Equal(t, StartDelimiter, b[0])
	assert.Equal(t, LabelSendDMX, b[1])
	assert.Equal(t, byte(0x01), b[2], "513 & 0xFF")
	assert.Equal(t, byte(0x02), b[3], "513 >> 8")
	assert.Equal(t, DMXStartCode, b[4])
	assert.Equal(t, byte(255), b[5+4])
	assert.Equal(t, EndDelimiter, b[len(b)-1])
}

func TestParse_RoundTrip(t *testing.T) {
	b := DMXPacket([]byte{1, 2, 3})

	label, payload, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, LabelSendDMX, label)
	assert.Len(t, payload, UniverseSize+1)
	assert.Equal(t, []byte{0, 1, 2, 3, 0}, payload[:5])
}

func TestFrame_TooLarge(t *testing.T) {
	_, err := Frame(LabelSendDMX, make([]byte, MaxPayload+1))
	assert.Error(t, err)
}

func TestParse_Malformed(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x7E, 6, 0, 0},
		{0x00, 6, 0, 0, 0xE7},
		{0x7E, 6, 2, 0, 1, 0xE7},
		{0x7E, 6, 1, 0, 1, 0x00},
	}
	for _, c := range cases {
		_, _, err := Parse(c)
		assert.ErrorIs(t, err, ErrBadFrame, "%v", c)
	}
}
