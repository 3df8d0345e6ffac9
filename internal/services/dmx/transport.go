package dmx

import (
	"context"
	"errors"
)

var (
	// ErrNotConnected is returned when sending while no transport is open.
	ErrNotConnected = errors.New("dmx: not connected")
	// ErrDeviceGone is returned by transports whose device disappeared mid-session.
	ErrDeviceGone = errors.New("dmx: device disconnected")
)

// Transport delivers full universes to a physical or network DMX output.
// A failed Write is reported to the caller and never retried.
type Transport interface {
	Name() string
	Open(ctx context.Context) error
	Write(ctx context.Context, u Universe) error
	Close() error
}

// NullTransport accepts every frame and discards it. It backs the
// "none" output mode so the rest of the application works without hardware.
type NullTransport struct {
	frames int
}

// Name implements Transport.
func (n *NullTransport) Name() string { return "none" }

// Open implements Transport.
func (n *NullTransport) Open(_ context.Context) error { return nil }

// Write implements Transport.
func (n *NullTransport) Write(_ context.Context, _ Universe) error {
	n.frames++
	return nil
}

// Close implements Transport.
func (n *NullTransport) Close() error { return nil }

// Frames returns how many frames were written.
func (n *NullTransport) Frames() int { return n.frames }
