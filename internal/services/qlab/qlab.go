// Package qlab renders fixtures as QLab light cue command text.
package qlab

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bbernstein/qlove-go/internal/fixture"
)

var (
	// ErrInvalidFixture is returned for a nil fixture or one without a name.
	ErrInvalidFixture = errors.New("qlab: invalid fixture data")
	// ErrNoFixtures is returned when generating code for an empty selection.
	ErrNoFixtures = errors.New("qlab: no fixtures provided")
)

// attributeOrder lists attributes by channel, then name, which matches the
// order they are patched in on the console.
func attributeOrder(f *fixture.Fixture) []string {
	names := f.AttributeNames()
	sort.SliceStable(names, func(i, j int) bool {
		return f.Attributes[names[i]] < f.Attributes[names[j]]
	})
	return names
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GenerateCode returns one "NAME.Attribute = value" line per attribute.
func GenerateCode(f *fixture.Fixture) (string, error) {
	if f == nil || f.Name == "" {
		return "", ErrInvalidFixture
	}

	names := attributeOrder(f)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s.%s = %s", f.Name, name, formatValue(f.Value(name))))
	}
	return strings.Join(lines, "\n"), nil
}

// GenerateCodeForMultiple joins the code for each fixture with a blank line.
func GenerateCodeForMultiple(fixtures []*fixture.Fixture) (string, error) {
	if len(fixtures) == 0 {
		return "", ErrNoFixtures
	}

	sections := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		code, err := GenerateCode(f)
		if err != nil {
			return "", err
		}
		sections = append(sections, code)
	}
	return strings.Join(sections, "\n\n"), nil
}

// FormatFixtureInfo returns a human readable summary of a fixture.
func FormatFixtureInfo(f *fixture.Fixture) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nombre: %s\n", f.Name)
	fmt.Fprintf(&b, "Canales: %d – %d\n", f.Channels.Start, f.Channels.End)
	if f.Interface != "" {
		fmt.Fprintf(&b, "Interfaz: %s\n", f.Interface)
	}
	b.WriteString("\nAtributos:")
	for _, name := range attributeOrder(f) {
		fmt.Fprintf(&b, "\n  %s (Canal %d): %s", name, f.Attributes[name], formatValue(f.Value(name)))
	}
	return b.String()
}
