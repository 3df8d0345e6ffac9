// Package textimport turns fixture patch text, usually OCR'd from a lighting
// console screen, into fixture seeds.
//
// Two layouts are recognized. The compact layout is
//
//	NAME
//	90 - 100
//	INTERFACE
//	Attribute
//	90
//	...
//
// and the labeled layout carries "Canales:" and "Interfaz:" lines followed by
// a "Función / Canal" table whose columns are separated by tabs or runs of
// two or more spaces.
package textimport

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bbernstein/qlove-go/internal/fixture"
)

// Messages shown to the user. The application UI is in Spanish.
const (
	msgTooShort        = "Texto insuficiente. Asegúrate de incluir nombre, canales y atributos."
	msgNoCompactAttrs  = "No se encontraron atributos en el nuevo formato."
	msgNoAttrs         = "No se encontraron atributos. Verifica el formato del texto."
	msgNameRequired    = "El nombre del foco es requerido"
	msgInvalidChannels = "Los canales son inválidos"
	msgNoAttributes    = "Debe haber al menos un atributo"
)

var (
	compactRange = regexp.MustCompile(`^\d+\s*-\s*\d+$`)
	labeledRange = regexp.MustCompile(`(\d+)\s*[–-]\s*(\d+)`)
	columnSep    = regexp.MustCompile(`\t+|\s{2,}`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	interfaceTag = regexp.MustCompile(`(?i)interfaz:`)
)

// ValidationError reports why text could not be turned into a fixture.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func invalid(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}

// ParsedFixture is the result of parsing import text.
type ParsedFixture struct {
	Name       string         `json:"name"`
	Channels   fixture.Range  `json:"channels"`
	Interface  string         `json:"interface"`
	Attributes map[string]int `json:"attributes"`
}

// Parse extracts a fixture from text. Any failure, including a result that
// does not pass Validate, is returned as a *ValidationError.
func Parse(text string) (*ParsedFixture, error) {
	lines := splitLines(text)
	if len(lines) < 3 {
		return nil, invalid(msgTooShort)
	}

	var (
		p   *ParsedFixture
		err error
	)
	if compactRange.MatchString(lines[1]) {
		p, err = parseCompact(lines)
	} else {
		p, err = parseLabeled(lines)
	}
	if err != nil {
		return nil, err
	}

	if msgs := Validate(p); len(msgs) > 0 {
		return nil, invalid(msgs...)
	}
	return p, nil
}

// Validate returns every problem with a parsed fixture, or nil.
func Validate(p *ParsedFixture) []string {
	if p == nil {
		return []string{msgNameRequired, msgInvalidChannels, msgNoAttributes}
	}
	var msgs []string
	if strings.TrimSpace(p.Name) == "" {
		msgs = append(msgs, msgNameRequired)
	}
	if !p.Channels.Valid() {
		msgs = append(msgs, msgInvalidChannels)
	}
	if len(p.Attributes) == 0 {
		msgs = append(msgs, msgNoAttributes)
	}
	return msgs
}

// ToFixtureData seeds a new fixture. Every attribute starts at 0.
func (p *ParsedFixture) ToFixtureData() fixture.Data {
	attrs := make(map[string]int, len(p.Attributes))
	values := make(map[string]float64, len(p.Attributes))
	for name, ch := range p.Attributes {
		attrs[name] = ch
		values[name] = 0
	}
	ch := p.Channels
	return fixture.Data{
		Name:       p.Name,
		Channels:   &ch,
		Interface:  p.Interface,
		Attributes: attrs,
		Values:     values,
	}
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// parseInt reads the leading integer of s, ignoring anything after it.
func parseInt(s string) (int, bool) {
	m := leadingInt.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseCompact(lines []string) (*ParsedFixture, error) {
	name := lines[0]
	if strings.HasPrefix(strings.ToLower(name), "v ") {
		name = strings.TrimSpace(name[2:])
	}

	bounds := strings.SplitN(lines[1], "-", 2)
	start, _ := parseInt(bounds[0])
	end, _ := parseInt(bounds[1])

	attrs := make(map[string]int)
	for i := 3; i+1 < len(lines); i += 2 {
		if ch, ok := parseInt(lines[i+1]); ok {
			attrs[lines[i]] = ch
		}
	}
	if len(attrs) == 0 {
		return nil, invalid(msgNoCompactAttrs)
	}

	return &ParsedFixture{
		Name:       name,
		Channels:   fixture.Range{Start: start, End: end},
		Interface:  lines[2],
		Attributes: attrs,
	}, nil
}

func parseLabeled(lines []string) (*ParsedFixture, error) {
	p := &ParsedFixture{
		Name:       lines[0],
		Channels:   fixture.Range{Start: 1, End: 1},
		Attributes: make(map[string]int),
	}

	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), "canales:") {
			if m := labeledRange.FindStringSubmatch(l); m != nil {
				p.Channels.Start, _ = strconv.Atoi(m[1])
				p.Channels.End, _ = strconv.Atoi(m[2])
			}
			break
		}
	}

	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), "interfaz:") {
			p.Interface = strings.TrimSpace(interfaceTag.ReplaceAllString(l, ""))
			break
		}
	}

	inTable := false
	for _, l := range lines {
		lower := strings.ToLower(l)
		if strings.Contains(lower, "función") && strings.Contains(lower, "canal") {
			inTable = true
			continue
		}
		if inTable {
			addColumnPair(p.Attributes, l, false)
		}
	}

	// Without a table header, accept any "name<sep>number" row after the name.
	if len(p.Attributes) == 0 {
		for _, l := range lines[1:] {
			addColumnPair(p.Attributes, l, true)
		}
	}
	if len(p.Attributes) == 0 {
		return nil, invalid(msgNoAttrs)
	}
	return p, nil
}

func addColumnPair(attrs map[string]int, line string, rejectLabels bool) {
	parts := columnSep.Split(line, -1)
	if len(parts) < 2 {
		return
	}
	name := strings.TrimSpace(parts[0])
	if name == "" || (rejectLabels && strings.Contains(name, ":")) {
		return
	}
	if ch, ok := parseInt(parts[1]); ok {
		attrs[name] = ch
	}
}
