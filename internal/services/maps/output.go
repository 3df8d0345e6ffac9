package maps

import (
	"context"

	"github.com/bbernstein/qlove-go/internal/services/dmx"
)

// Universe builds the DMX universe of a map without sending it.
func (s *Service) Universe(ctx context.Context, mapID string) (dmx.Universe, error) {
	fs, err := s.Fixtures(ctx, mapID)
	if err != nil {
		return dmx.Universe{}, err
	}
	return dmx.BuildUniverse(fs), nil
}

// Conflicts reports channels claimed more than once on a map.
func (s *Service) Conflicts(ctx context.Context, mapID string) (dmx.ConflictReport, error) {
	fs, err := s.Fixtures(ctx, mapID)
	if err != nil {
		return dmx.ConflictReport{}, err
	}
	return dmx.DetectChannelConflicts(fs), nil
}

// SendToDMX builds the map's universe and hands it to the output.
func (s *Service) SendToDMX(ctx context.Context, mapID string) (dmx.Universe, error) {
	fs, err := s.Fixtures(ctx, mapID)
	if err != nil {
		return dmx.Universe{}, err
	}
	if len(fs) == 0 {
		return dmx.Universe{}, ErrNoFixtures
	}
	if s.output == nil {
		return dmx.BuildUniverse(fs), nil
	}

	u, err := s.output.SendFixtures(ctx, fs)
	if err != nil {
		s.log.WithError(err).WithField("map", mapID).Warn("DMX send failed")
		return u, err
	}
	return u, nil
}
