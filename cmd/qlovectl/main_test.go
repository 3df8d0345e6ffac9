package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/qlove-go/internal/fixture"
	"github.com/bbernstein/qlove-go/internal/services/dmx"
	"github.com/bbernstein/qlove-go/internal/services/export"
	"github.com/bbernstein/qlove-go/internal/services/network"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := newApp(&buf).Run(context.Background(), append([]string{"qlovectl"}, args...))
	return buf.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func exportFile(t *testing.T, fixtures ...fixture.Data) string {
	t.Helper()
	doc := &export.Document{
		Type:    export.TypeSingleMap,
		Version: export.FormatVersion,
		Map:     &export.ExportedMap{Name: "Mapa 1", Fixtures: fixtures},
	}
	data, err := doc.ToJSON()
	require.NoError(t, err)
	return writeFile(t, "map.json", data)
}

func rgb(name string, start int, red float64) fixture.Data {
	return fixture.Data{
		Name:       name,
		Channels:   &fixture.Range{Start: start, End: start + 2},
		Attributes: map[string]int{"Red": start, "Green": start + 1, "Blue": start + 2},
		Values:     map[string]float64{"Red": red},
	}
}

func TestParse(t *testing.T) {
	path := writeFile(t, "par.txt", []byte("PAR LED\n1-3\nDMX\nRed\n1\nGreen\n2\nBlue\n3"))

	out, err := run(t, "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "PAR LED"`)
	assert.Contains(t, out, `"Blue": 3`)
}

func TestParse_MissingArgument(t *testing.T) {
	_, err := run(t, "parse")
	assert.ErrorContains(t, err, "missing FILE")
}

func TestUniverse(t *testing.T) {
	path := exportFile(t, rgb("A", 1, 100))

	out, err := run(t, "universe", path)
	require.NoError(t, err)
	assert.Contains(t, out, "  1 = 255")
	assert.NotContains(t, out, "  2 =")
}

func TestConflicts(t *testing.T) {
	out, err := run(t, "conflicts", exportFile(t, rgb("A", 1, 0), rgb("B", 3, 0)))
	require.NoError(t, err)
	assert.Contains(t, out, "channel 3: B / Red")

	out, err = run(t, "conflicts", exportFile(t, rgb("A", 1, 0), rgb("B", 4, 0)))
	require.NoError(t, err)
	assert.Equal(t, "no conflicts\n", out)
}

func TestQLab_CopiesToClipboard(t *testing.T) {
	var copied string
	old := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = old })

	path := exportFile(t, rgb("A", 1, 50), rgb("B", 4, 0))
	out, err := run(t, "qlab", "--copy", "--fixture", "a", path)
	require.NoError(t, err)
	assert.Contains(t, out, "A.Red = 50")
	assert.NotContains(t, out, "B.Red")
	assert.Equal(t, "A.Red = 50\nA.Green = 0\nA.Blue = 0", copied)
}

func TestInfo(t *testing.T) {
	out, err := run(t, "info", exportFile(t, rgb("A", 1, 0)))
	require.NoError(t, err)
	assert.Contains(t, out, "Nombre: A")
}

func TestLoadFixtures_AllMapsAndConfiguration(t *testing.T) {
	doc := &export.Document{
		Type:    export.TypeAllMaps,
		Version: export.FormatVersion,
		Maps: []export.ExportedMap{
			{Name: "Uno", Fixtures: []fixture.Data{rgb("A", 1, 0)}},
			{Name: "Dos", Fixtures: []fixture.Data{rgb("B", 10, 100)}},
		},
	}
	data, err := doc.ToJSON()
	require.NoError(t, err)
	path := writeFile(t, "all.json", data)

	out, err := run(t, "universe", "--map", "dos", path)
	require.NoError(t, err)
	assert.Contains(t, out, " 10 = 255")

	_, err = run(t, "universe", "--map", "tres", path)
	assert.ErrorContains(t, err, `map "tres" not found`)

	cfg := writeFile(t, "cfg.json", []byte(`{"name":"x","fixtures":[{"name":"C","channels":{"start":7,"end":7},"attributes":{"Dimmer":7},"values":{"Dimmer":100}}]}`))
	out, err = run(t, "universe", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "  7 = 255")

	unknown := writeFile(t, "x.json", []byte(`{"type":"other"}`))
	_, err = run(t, "universe", unknown)
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestPortsAndInterfaces(t *testing.T) {
	oldPorts, oldIfaces := listPorts, listInterfaces
	t.Cleanup(func() { listPorts, listInterfaces = oldPorts, oldIfaces })
	listPorts = func() ([]dmx.PortInfo, error) {
		return []dmx.PortInfo{{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001", Product: "FT232R"}}, nil
	}
	listInterfaces = func() ([]network.Interface, error) {
		return []network.Interface{{Name: "eth0", Broadcast: "192.168.1.255", Kind: network.KindEthernet}}, nil
	}

	out, err := run(t, "ports")
	require.NoError(t, err)
	assert.Contains(t, out, "/dev/ttyUSB0 (USB 0403:6001 FT232R)")

	out, err = run(t, "interfaces")
	require.NoError(t, err)
	assert.Contains(t, out, "192.168.1.255")
}
