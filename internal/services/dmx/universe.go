package dmx

import (
	"sort"

	"github.com/bbernstein/qlove-go/internal/fixture"
	"github.com/bbernstein/qlove-go/pkg/dmxvalue"
)

// UniverseSize is the number of channels per DMX universe.
const UniverseSize = 512

// Universe is one full DMX frame. Index i holds channel i+1.
type Universe [UniverseSize]byte

// Channel returns the value of a 1-based channel, or 0 when out of range.
func (u *Universe) Channel(ch int) byte {
	if ch < 1 || ch > UniverseSize {
		return 0
	}
	return u[ch-1]
}

// Ints returns the frame as 512 ints, the shape the API and tests consume.
func (u *Universe) Ints() []int {
	out := make([]int, UniverseSize)
	for i, v := range u {
		out[i] = int(v)
	}
	return out
}

// ActiveChannels returns the channels with a non-zero value, 1-based.
func (u *Universe) ActiveChannels() map[int]int {
	out := make(map[int]int)
	for i, v := range u {
		if v > 0 {
			out[i+1] = int(v)
		}
	}
	return out
}

// BuildChannelMap converts every fixture attribute into a channel -> DMX
// value entry. When two attributes claim the same channel the later one wins.
// Fixtures are visited in slice order and attributes in name order.
func BuildChannelMap(fixtures []*fixture.Fixture) map[int]int {
	channels := make(map[int]int)
	for _, f := range fixtures {
		for _, name := range f.AttributeNames() {
			channels[f.Attributes[name]] = dmxvalue.PercentToByte(f.Value(name))
		}
	}
	return channels
}

// BuildUniverse flattens fixtures into a 512-channel frame. Channels outside
// 1-512 are dropped and unclaimed channels are 0.
func BuildUniverse(fixtures []*fixture.Fixture) Universe {
	var u Universe
	for ch, v := range BuildChannelMap(fixtures) {
		if ch >= 1 && ch <= UniverseSize {
			u[ch-1] = byte(v)
		}
	}
	return u
}

// BuildUniverseSorted is BuildUniverse with fixtures ordered by ID first, so
// the winner of a channel collision does not depend on the caller's order.
func BuildUniverseSorted(fixtures []*fixture.Fixture) Universe {
	sorted := make([]*fixture.Fixture, len(fixtures))
	copy(sorted, fixtures)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID() < sorted[j].ID()
	})
	return BuildUniverse(sorted)
}

// Conflict is an attribute claiming a channel that an earlier attribute already uses.
type Conflict struct {
	Channel       int    `json:"channel"`
	FixtureName   string `json:"fixtureName"`
	AttributeName string `json:"attributeName"`
}

// ConflictReport is the advisory result of DetectChannelConflicts.
type ConflictReport struct {
	HasConflicts bool       `json:"hasConflicts"`
	Conflicts    []Conflict `json:"conflicts"`
}

// DetectChannelConflicts lists every attribute whose channel was already
// claimed earlier in the same visiting order BuildUniverse uses. The first
// claim of a channel is never reported.
func DetectChannelConflicts(fixtures []*fixture.Fixture) ConflictReport {
	used := make(map[int]bool)
	report := ConflictReport{Conflicts: []Conflict{}}
	for _, f := range fixtures {
		for _, name := range f.AttributeNames() {
			ch := f.Attributes[name]
			if used[ch] {
				report.Conflicts = append(report.Conflicts, Conflict{
					Channel:       ch,
					FixtureName:   f.Name,
					AttributeName: name,
				})
				continue
			}
			used[ch] = true
		}
	}
	report.HasConflicts = len(report.Conflicts) > 0
	return report
}
