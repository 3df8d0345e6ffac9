package dmx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/qlove-go/internal/fixture"
)

func newFixture(id, name string, attrs map[string]int, values map[string]float64) *fixture.Fixture {
	return fixture.New(fixture.Data{ID: id, Name: name, Attributes: attrs, Values: values})
}

func TestBuildUniverse_Empty(t *testing.T) {
	t.Parallel()

	u := BuildUniverse(nil)
	ints := u.Ints()
	require.Len(t, ints, UniverseSize)
	for i, v := range ints {
		require.Zero(t, v, "channel %d", i+1)
	}
}

func TestBuildUniverse_SingleAttribute(t *testing.T) {
	t.Parallel()

	f := newFixture("a", "LAMP", map[string]int{"Dimmer": 5}, map[string]float64{"Dimmer": 100})
	u := BuildUniverse([]*fixture.Fixture{f})

	assert.Equal(t, byte(255), u[4])
	assert.Equal(t, byte(255), u.Channel(5))
	assert.Equal(t, map[int]int{5: 255}, u.ActiveChannels())
}

func TestBuildUniverse_ScalesValues(t *testing.T) {
	t.Parallel()

	f := newFixture("a", "PAR", map[string]int{"R": 1, "G": 2, "B": 3},
		map[string]float64{"R": 50, "G": 1, "B": 0})
	u := BuildUniverse([]*fixture.Fixture{f})

	assert.Equal(t, byte(127), u.Channel(1))
	assert.Equal(t, byte(3), u.Channel(2))
	assert.Equal(t, byte(0), u.Channel(3))
}

func TestBuildUniverse_MissingValueDefaultsToZero(t *testing.T) {
	t.Parallel()

	f := newFixture("a", "PAR", map[string]int{"Dimmer": 1, "Strobe": 2}, map[string]float64{"Dimmer": 100})
	delete(f.Values, "Strobe")

	u := BuildUniverse([]*fixture.Fixture{f})
	assert.Equal(t, byte(255), u.Channel(1))
	assert.Equal(t, byte(0), u.Channel(2))
}

func TestBuildUniverse_OutOfRangeChannels(t *testing.T) {
	t.Parallel()

	f := newFixture("a", "BAD", map[string]int{"Zero": 0, "High": 600, "Neg": -3, "Last": 512},
		map[string]float64{"Zero": 100, "High": 100, "Neg": 100, "Last": 100})

	u := BuildUniverse([]*fixture.Fixture{f})
	assert.Equal(t, map[int]int{512: 255}, u.ActiveChannels())
	assert.Equal(t, byte(0), u.Channel(0))
	assert.Equal(t, byte(0), u.Channel(600))
}

func TestBuildUniverse_LastWriteWins(t *testing.T) {
	t.Parallel()

	first := newFixture("b", "FIRST", map[string]int{"Dimmer": 10}, map[string]float64{"Dimmer": 100})
	second := newFixture("a", "SECOND", map[string]int{"Dimmer": 10}, map[string]float64{"Dimmer": 20})

	var u Universe
	assert.NotPanics(t, func() { u = BuildUniverse([]*fixture.Fixture{first, second}) })
	assert.Equal(t, byte(51), u.Channel(10))

	u = BuildUniverse([]*fixture.Fixture{second, first})
	assert.Equal(t, byte(255), u.Channel(10))
}

func TestBuildUniverseSorted_IgnoresInputOrder(t *testing.T) {
	t.Parallel()

	a := newFixture("a", "A", map[string]int{"Dimmer": 10}, map[string]float64{"Dimmer": 20})
	b := newFixture("b", "B", map[string]int{"Dimmer": 10}, map[string]float64{"Dimmer": 100})

	u1 := BuildUniverseSorted([]*fixture.Fixture{a, b})
	u2 := BuildUniverseSorted([]*fixture.Fixture{b, a})
	assert.Equal(t, u1, u2)
	assert.Equal(t, byte(255), u1.Channel(10))
}

func TestBuildUniverse_Idempotent(t *testing.T) {
	t.Parallel()

	fs := []*fixture.Fixture{
		newFixture("a", "A", map[string]int{"R": 1, "G": 2}, map[string]float64{"R": 33, "G": 66}),
		newFixture("b", "B", map[string]int{"Dimmer": 3}, map[string]float64{"Dimmer": 75}),
	}
	assert.Equal(t, BuildUniverse(fs), BuildUniverse(fs))
}

func TestBuildChannelMap(t *testing.T) {
	t.Parallel()

	f := newFixture("a", "A", map[string]int{"Dimmer": 1, "Far": 700}, map[string]float64{"Dimmer": 100, "Far": 100})
	assert.Equal(t, map[int]int{1: 255, 700: 255}, BuildChannelMap([]*fixture.Fixture{f}))
}

func TestDetectChannelConflicts(t *testing.T) {
	t.Parallel()

	a := newFixture("a", "FRONTAL", map[string]int{"Dimmer": 10, "Red": 11}, nil)
	b := newFixture("b", "CONTRA", map[string]int{"Dimmer": 10, "Blue": 12}, nil)

	report := DetectChannelConflicts([]*fixture.Fixture{a, b})

	assert.True(t, report.HasConflicts)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, Conflict{Channel: 10, FixtureName: "CONTRA", AttributeName: "Dimmer"}, report.Conflicts[0])
}

func TestDetectChannelConflicts_WithinFixture(t *testing.T) {
	t.Parallel()

	f := newFixture("a", "DUP", map[string]int{"A": 3, "B": 3, "C": 3}, nil)
	report := DetectChannelConflicts([]*fixture.Fixture{f})

	require.Len(t, report.Conflicts, 2)
	assert.Equal(t, "B", report.Conflicts[0].AttributeName)
	assert.Equal(t, "C", report.Conflicts[1].AttributeName)
}

func TestDetectChannelConflicts_None(t *testing.T) {
	t.Parallel()

	f := newFixture("a", "OK", map[string]int{"A": 1, "B": 2}, nil)
	report := DetectChannelConflicts([]*fixture.Fixture{f})

	assert.False(t, report.HasConflicts)
	assert.Empty(t, report.Conflicts)
}
