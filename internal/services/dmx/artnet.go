package dmx

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/bbernstein/qlove-go/pkg/artnet"
)

// ArtNetTransport broadcasts each universe as an ArtDmx packet over UDP.
type ArtNetTransport struct {
	mu        sync.Mutex
	broadcast string
	port      int
	universe  int
	sequence  byte
	conn      net.Conn
}

// NewArtNetTransport creates a transport for the given broadcast address,
// UDP port and 1-based Art-Net universe.
func NewArtNetTransport(broadcast string, port, universe int) *ArtNetTransport {
	if port <= 0 {
		port = artnet.DefaultPort
	}
	if universe <= 0 {
		universe = 1
	}
	return &ArtNetTransport{broadcast: broadcast, port: port, universe: universe}
}

// Name implements Transport.
func (a *ArtNetTransport) Name() string { return "artnet" }

// Open implements Transport.
func (a *ArtNetTransport) Open(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn != nil {
		return nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", net.JoinHostPort(a.broadcast, strconv.Itoa(a.port)))
	if err != nil {
		return fmt.Errorf("artnet dial %s: %w", a.broadcast, err)
	}
	a.conn = conn
	return nil
}

// Write implements Transport.
func (a *ArtNetTransport) Write(_ context.Context, u Universe) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		return ErrNotConnected
	}

	// Sequence 0 disables reordering on receivers, so skip it on wrap.
	a.sequence++
	if a.sequence == 0 {
		a.sequence = 1
	}

	packet, err := artnet.NewDMXPacket(a.universe, u[:], a.sequence).MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := a.conn.Write(packet); err != nil {
		return fmt.Errorf("artnet send universe %d: %w", a.universe, err)
	}
	return nil
}

// Close implements Transport.
func (a *ArtNetTransport) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}
