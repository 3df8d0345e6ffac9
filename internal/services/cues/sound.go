package cues

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"

	"github.com/bbernstein/qlove-go/internal/database/models"
)

// ErrUnsupportedAudio is returned for files that are neither WAV nor MP3.
var ErrUnsupportedAudio = errors.New("unsupported audio format")

// AudioInfo describes a decoded audio file.
type AudioInfo struct {
	Format     string
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// ProbeAudio decodes the header of a WAV or MP3 file. The file name
// extension picks the decoder tried first.
func ProbeAudio(name string, data []byte) (AudioInfo, error) {
	probes := []func([]byte) (AudioInfo, error){probeWAV, probeMP3}
	if strings.EqualFold(filepath.Ext(name), ".mp3") {
		probes = []func([]byte) (AudioInfo, error){probeMP3, probeWAV}
	}
	for _, probe := range probes {
		if info, err := probe(data); err == nil {
			return info, nil
		}
	}
	return AudioInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedAudio, name)
}

func probeWAV(data []byte) (AudioInfo, error) {
	s, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return AudioInfo{}, err
	}
	defer s.Close()
	return audioInfo("wav", s, format), nil
}

func probeMP3(data []byte) (AudioInfo, error) {
	s, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return AudioInfo{}, err
	}
	defer s.Close()
	return audioInfo("mp3", s, format), nil
}

func audioInfo(name string, s beep.StreamSeeker, format beep.Format) AudioInfo {
	return AudioInfo{
		Format:     name,
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Duration:   format.SampleRate.D(s.Len()),
	}
}

// AttachSound stores an audio file on a sound cue, replacing any previous
// one. The file must decode as WAV or MP3.
func (s *Service) AttachSound(ctx context.Context, mapID, cueID, fileName string, data []byte, lastModified int64) (*Cue, error) {
	row, err := s.findCue(ctx, mapID, cueID)
	if err != nil {
		return nil, err
	}
	info, err := ProbeAudio(fileName, data)
	if err != nil {
		return nil, err
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if mimeType == "" {
		mimeType = "audio/" + info.Format
	}
	snd := &models.Sound{
		CueID:      cueID,
		FileName:   fileName,
		MimeType:   mimeType,
		Format:     info.Format,
		DurationMs: info.Duration.Milliseconds(),
		Size:       int64(len(data)),
		Data:       data,
	}
	if err := s.soundRepo.Save(ctx, snd); err != nil {
		return nil, fmt.Errorf("save sound: %w", err)
	}

	if err := row.SetSound(&models.SoundRef{
		Name:         fileName,
		Type:         mimeType,
		Size:         snd.Size,
		LastModified: lastModified,
		Format:       info.Format,
		DurationMs:   snd.DurationMs,
	}); err != nil {
		return nil, err
	}
	if err := s.cueRepo.Update(ctx, row); err != nil {
		return nil, err
	}

	s.log.WithField("file", fileName).WithField("duration", info.Duration).Info("Sound attached")
	s.touch(ctx, mapID)
	return fromModel(row)
}

// Sound returns the stored audio of a cue, or nil when it has none.
func (s *Service) Sound(ctx context.Context, mapID, cueID string) (*models.Sound, error) {
	if _, err := s.findCue(ctx, mapID, cueID); err != nil {
		return nil, err
	}
	return s.soundRepo.FindByCueID(ctx, cueID)
}

// DeleteSound removes the audio of a cue.
func (s *Service) DeleteSound(ctx context.Context, mapID, cueID string) (*Cue, error) {
	row, err := s.findCue(ctx, mapID, cueID)
	if err != nil {
		return nil, err
	}
	if err := s.soundRepo.DeleteByCueID(ctx, cueID); err != nil {
		return nil, err
	}
	if err := row.SetSound(nil); err != nil {
		return nil, err
	}
	if err := s.cueRepo.Update(ctx, row); err != nil {
		return nil, err
	}
	s.touch(ctx, mapID)
	return fromModel(row)
}
