package dmx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/bbernstein/qlove-go/pkg/enttec"
)

// DefaultBaudRate is the baud rate used for the ENTTEC DMX USB Pro.
const DefaultBaudRate = 57600

// ftdiVendorID is the USB vendor of the FTDI chip inside ENTTEC interfaces.
const ftdiVendorID = "0403"

// ErrNoSerialPort is returned when no USB serial device can be found.
var ErrNoSerialPort = errors.New("dmx: no USB serial port found")

// PortInfo describes a serial port candidate for DMX output.
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"isUsb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	Product      string `json:"product,omitempty"`
}

// Opener opens a serial device. Replaced in tests.
type Opener func(name string, baud int) (io.WriteCloser, error)

// OpenSerial opens a real serial port in 8N2 mode, the DMX line format.
func OpenSerial(name string, baud int) (io.WriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}
	return serial.Open(name, mode)
}

// ListSerialPorts returns every serial port the OS reports.
func ListSerialPorts() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	out := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		out = append(out, PortInfo{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	return out, nil
}

// PickSerialPort chooses the most likely DMX interface: an FTDI USB device
// first, then any USB device.
func PickSerialPort(ports []PortInfo) (string, error) {
	var fallback string
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if strings.EqualFold(p.VID, ftdiVendorID) {
			return p.Name, nil
		}
		if fallback == "" {
			fallback = p.Name
		}
	}
	if fallback == "" {
		return "", ErrNoSerialPort
	}
	return fallback, nil
}

// SerialTransport writes universes to an ENTTEC DMX USB Pro compatible device.
type SerialTransport struct {
	mu       sync.Mutex
	portName string
	baud     int
	open     Opener
	port     io.WriteCloser
}

// NewSerialTransport creates a transport for portName. An empty name means
// the port is detected on Open. A nil opener uses OpenSerial.
func NewSerialTransport(portName string, baud int, open Opener) *SerialTransport {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	if open == nil {
		open = OpenSerial
	}
	return &SerialTransport{portName: portName, baud: baud, open: open}
}

// Name implements Transport.
func (s *SerialTransport) Name() string { return "serial" }

// PortName returns the configured or detected port.
func (s *SerialTransport) PortName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portName
}

// Open implements Transport.
func (s *SerialTransport) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.portName == "" {
		ports, err := ListSerialPorts()
		if err != nil {
			return err
		}
		name, err := PickSerialPort(ports)
		if err != nil {
			return err
		}
		s.portName = name
	}

	port, err := s.open(s.portName, s.baud)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.portName, err)
	}
	s.port = port
	return nil
}

// Write implements Transport. A write failure closes the port and reports
// ErrDeviceGone, since the device is usually unplugged at that point.
func (s *SerialTransport) Write(_ context.Context, u Universe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return ErrNotConnected
	}
	if _, err := s.port.Write(enttec.DMXPacket(u[:])); err != nil {
		_ = s.port.Close()
		s.port = nil
		return fmt.Errorf("%w: %v", ErrDeviceGone, err)
	}
	return nil
}

// Close implements Transport.
func (s *SerialTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
