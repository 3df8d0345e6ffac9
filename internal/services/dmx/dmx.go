// Package dmx builds DMX universes from fixtures and delivers them to an
// output transport (ENTTEC serial, Art-Net, MQTT or none).
package dmx

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bbernstein/qlove-go/internal/fixture"
	"github.com/bbernstein/qlove-go/internal/logger"
	"github.com/bbernstein/qlove-go/internal/services/pubsub"
)

// Config holds DMX output service configuration.
type Config struct {
	// KeepAliveHz re-sends the last frame at this rate while connected. 0 disables it.
	KeepAliveHz int
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() Config {
	return Config{KeepAliveHz: 1}
}

// Status describes the output connection.
type Status struct {
	Connected  bool       `json:"connected"`
	Transport  string     `json:"transport"`
	FramesSent int64      `json:"framesSent"`
	LastError  string     `json:"lastError,omitempty"`
	LastSentAt *time.Time `json:"lastSentAt,omitempty"`
}

// UniverseOutput is published on TopicDMXOutput for every frame sent.
type UniverseOutput struct {
	Universe int   `json:"universe"`
	Channels []int `json:"channels"`
}

// Service owns the output transport and the last frame sent.
type Service struct {
	mu sync.RWMutex

	transport   Transport
	connected   bool
	frame       Universe
	framesSent  int64
	lastErr     error
	lastSent    time.Time
	keepAliveHz int

	log    *logger.Log
	pubsub *pubsub.PubSub

	stopChan chan struct{}
	done     chan struct{}
}

// NewService creates a new DMX output service. ps may be nil.
func NewService(cfg Config, transport Transport, log *logger.Log, ps *pubsub.PubSub) *Service {
	if transport == nil {
		transport = &NullTransport{}
	}
	if log == nil {
		log = logger.Discard()
	}
	keepAlive := cfg.KeepAliveHz
	if keepAlive < 0 {
		keepAlive = 0
	}
	return &Service{
		transport:   transport,
		keepAliveHz: keepAlive,
		log:         log.Module("dmx"),
		pubsub:      ps,
	}
}

// Connect opens the transport and starts the keep-alive loop.
func (s *Service) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}

	if err := s.transport.Open(ctx); err != nil {
		s.lastErr = err
		return err
	}
	s.connected = true
	s.lastErr = nil

	if s.keepAliveHz > 0 {
		s.stopChan = make(chan struct{})
		s.done = make(chan struct{})
		go s.keepAliveLoop(s.stopChan, s.done, time.Second/time.Duration(s.keepAliveHz))
	}

	s.log.With(logger.Fields{"transport": s.transport.Name(), "keepAliveHz": s.keepAliveHz}).Info("DMX output connected")
	return nil
}

// Disconnect stops the keep-alive loop and closes the transport.
func (s *Service) Disconnect() error {
	s.mu.Lock()
	done := s.stopLoopLocked()
	wasConnected := s.connected
	s.connected = false
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	if !wasConnected {
		return nil
	}

	s.log.Info("DMX output disconnected")
	return s.transport.Close()
}

// stopLoopLocked signals the keep-alive loop to stop and returns its done
// channel. The caller must hold s.mu and must release it before waiting.
func (s *Service) stopLoopLocked() chan struct{} {
	if s.stopChan == nil {
		return nil
	}
	close(s.stopChan)
	s.stopChan = nil
	done := s.done
	s.done = nil
	return done
}

// IsConnected reports whether frames can be sent.
func (s *Service) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Status returns the current connection state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Connected:  s.connected,
		Transport:  s.transport.Name(),
		FramesSent: s.framesSent,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if !s.lastSent.IsZero() {
		t := s.lastSent
		st.LastSentAt = &t
	}
	return st
}

// SendUniverse writes a full frame to the transport and remembers it as
// the last frame. It returns ErrNotConnected when the output is closed.
func (s *Service) SendUniverse(ctx context.Context, u Universe) error {
	if err := s.write(ctx, u); err != nil {
		return err
	}
	s.publish(u)
	return nil
}

// SendFixtures builds the universe for fixtures and sends it.
func (s *Service) SendFixtures(ctx context.Context, fixtures []*fixture.Fixture) (Universe, error) {
	u := BuildUniverse(fixtures)
	return u, s.SendUniverse(ctx, u)
}

// ClearAll sends a blackout frame.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.SendUniverse(ctx, Universe{})
}

// LastFrame returns a copy of the last frame successfully sent.
func (s *Service) LastFrame() Universe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

func (s *Service) write(ctx context.Context, u Universe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}

	if err := s.transport.Write(ctx, u); err != nil {
		s.lastErr = err
		if errors.Is(err, ErrDeviceGone) {
			s.connected = false
			s.stopLoopLocked()
			s.log.WithError(err).Warn("DMX device gone, output disconnected")
		}
		return err
	}

	s.frame = u
	s.framesSent++
	s.lastSent = time.Now()
	return nil
}

func (s *Service) publish(u Universe) {
	if s.pubsub == nil {
		return
	}
	s.pubsub.Publish(pubsub.TopicDMXOutput, "1", UniverseOutput{Universe: 1, Channels: u.Ints()})
}

// keepAliveLoop re-sends the last frame so receivers that time out on a
// silent line keep their state.
func (s *Service) keepAliveLoop(stop <-chan struct{}, done chan<- struct{}, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame := s.LastFrame()
			if err := s.write(context.Background(), frame); err != nil {
				if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrDeviceGone) {
					return
				}
				s.log.WithError(err).Debug("keep-alive send failed")
			}
		}
	}
}
