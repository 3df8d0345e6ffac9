// Command qlovectl inspects QLove exports and fixture text offline.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/urfave/cli/v3"

	"github.com/bbernstein/qlove-go/internal/fixture"
	"github.com/bbernstein/qlove-go/internal/logger"
	"github.com/bbernstein/qlove-go/internal/services/dmx"
	"github.com/bbernstein/qlove-go/internal/services/export"
	"github.com/bbernstein/qlove-go/internal/services/network"
	"github.com/bbernstein/qlove-go/internal/services/qlab"
	"github.com/bbernstein/qlove-go/internal/services/textimport"
)

// Replaced in tests.
var (
	writeClipboard = clipboard.WriteAll
	listPorts      = dmx.ListSerialPorts
	listInterfaces = network.List
)

var errNoFixtures = errors.New("file has no fixtures")

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "qlovectl: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	mapFlag := &cli.StringFlag{
		Name:  "map",
		Usage: "map name to read from an all-maps export (default: first map)",
	}
	return &cli.Command{
		Name:   "qlovectl",
		Usage:  "inspect fixture maps and DMX output",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "parse fixture text (OCR output) and print it as JSON",
				ArgsUsage: "FILE",
				Action: func(_ context.Context, cmd *cli.Command) error {
					data, err := readArg(cmd)
					if err != nil {
						return err
					}
					parsed, err := textimport.Parse(string(data))
					if err != nil {
						return err
					}
					return printJSON(out, parsed.ToFixtureData())
				},
			},
			{
				Name:      "info",
				Usage:     "describe every fixture of an export",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{mapFlag},
				Action: func(_ context.Context, cmd *cli.Command) error {
					fs, err := loadFixtures(cmd)
					if err != nil {
						return err
					}
					for i, f := range fs {
						if i > 0 {
							fmt.Fprintln(out)
						}
						fmt.Fprintln(out, qlab.FormatFixtureInfo(f))
					}
					return nil
				},
			},
			{
				Name:      "universe",
				Usage:     "print the non-zero DMX channels of an export",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					mapFlag,
					&cli.BoolFlag{Name: "sorted", Usage: "visit fixtures by start channel"},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					fs, err := loadFixtures(cmd)
					if err != nil {
						return err
					}
					u := dmx.BuildUniverse(fs)
					if cmd.Bool("sorted") {
						u = dmx.BuildUniverseSorted(fs)
					}
					printChannels(out, u.ActiveChannels())
					return nil
				},
			},
			{
				Name:      "conflicts",
				Usage:     "list channels claimed by more than one attribute",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{mapFlag},
				Action: func(_ context.Context, cmd *cli.Command) error {
					fs, err := loadFixtures(cmd)
					if err != nil {
						return err
					}
					report := dmx.DetectChannelConflicts(fs)
					if !report.HasConflicts {
						fmt.Fprintln(out, "no conflicts")
						return nil
					}
					for _, c := range report.Conflicts {
						fmt.Fprintf(out, "channel %d: %s / %s\n", c.Channel, c.FixtureName, c.AttributeName)
					}
					return nil
				},
			},
			{
				Name:      "qlab",
				Usage:     "print QLab light cue code for the fixtures of an export",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					mapFlag,
					&cli.StringSliceFlag{Name: "fixture", Usage: "only fixtures with this name"},
					&cli.BoolFlag{Name: "copy", Usage: "also copy the code to the clipboard"},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					fs, err := loadFixtures(cmd)
					if err != nil {
						return err
					}
					fs = filterByName(fs, cmd.StringSlice("fixture"))
					code, err := qlab.GenerateCodeForMultiple(fs)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, code)
					if cmd.Bool("copy") {
						if err := writeClipboard(code); err != nil {
							return fmt.Errorf("copy to clipboard: %w", err)
						}
					}
					return nil
				},
			},
			{
				Name:  "ports",
				Usage: "list serial ports usable for DMX output",
				Action: func(_ context.Context, _ *cli.Command) error {
					ports, err := listPorts()
					if err != nil {
						return err
					}
					if len(ports) == 0 {
						fmt.Fprintln(out, "no serial ports found")
					}
					for _, p := range ports {
						usb := ""
						if p.IsUSB {
							usb = fmt.Sprintf(" (USB %s:%s %s)", p.VID, p.PID, p.Product)
						}
						fmt.Fprintf(out, "%s%s\n", p.Name, usb)
					}
					return nil
				},
			},
			{
				Name:  "interfaces",
				Usage: "list network interfaces and their Art-Net broadcast address",
				Action: func(_ context.Context, _ *cli.Command) error {
					list, err := listInterfaces()
					if err != nil {
						return err
					}
					for _, i := range list {
						fmt.Fprintf(out, "%-10s %-16s %s\n", i.Name, i.Broadcast, i.Kind)
					}
					return nil
				},
			},
			{
				Name:      "send",
				Usage:     "send the universe of an export over Art-Net",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					mapFlag,
					&cli.StringFlag{Name: "broadcast", Usage: "broadcast address (default: first physical interface)"},
					&cli.IntFlag{Name: "port", Value: 6454},
					&cli.IntFlag{Name: "universe", Value: 1},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fs, err := loadFixtures(cmd)
					if err != nil {
						return err
					}
					broadcast := cmd.String("broadcast")
					if broadcast == "" {
						broadcast = network.DefaultBroadcast()
					}
					transport := dmx.NewArtNetTransport(broadcast, int(cmd.Int("port")), int(cmd.Int("universe")))
					svc := dmx.NewService(dmx.Config{}, transport, logger.Discard(), nil)

					ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
					defer cancel()
					if err := svc.Connect(ctx); err != nil {
						return err
					}
					defer func() { _ = svc.Disconnect() }()

					u, err := svc.SendFixtures(ctx, fs)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "sent %d channels to %s\n", len(u.ActiveChannels()), broadcast)
					return nil
				},
			},
		},
	}
}

func readArg(cmd *cli.Command) ([]byte, error) {
	path := cmd.Args().First()
	if path == "" {
		return nil, fmt.Errorf("%s: missing FILE argument", cmd.Name)
	}
	return os.ReadFile(path)
}

// loadFixtures reads fixtures from a map export, an all-maps export, or
// a fixtures-only configuration file.
func loadFixtures(cmd *cli.Command) ([]*fixture.Fixture, error) {
	data, err := readArg(cmd)
	if err != nil {
		return nil, err
	}
	doc, err := export.ParseDocument(data)
	if err != nil {
		return nil, err
	}

	var ds []fixture.Data
	switch doc.Type {
	case export.TypeSingleMap:
		if doc.Map != nil {
			ds = doc.Map.Fixtures
		}
	case export.TypeAllMaps:
		ds, err = pickMap(doc.Maps, cmd.String("map"))
		if err != nil {
			return nil, err
		}
	default:
		var cfg export.Configuration
		if err := json.Unmarshal(data, &cfg); err != nil || cfg.Fixtures == nil {
			return nil, export.ErrUnknownFormat
		}
		ds = cfg.Fixtures
	}
	if len(ds) == 0 {
		return nil, errNoFixtures
	}
	return fixture.FromData(ds), nil
}

func pickMap(ms []export.ExportedMap, name string) ([]fixture.Data, error) {
	if len(ms) == 0 {
		return nil, errNoFixtures
	}
	if name == "" {
		return ms[0].Fixtures, nil
	}
	for _, m := range ms {
		if strings.EqualFold(m.Name, name) {
			return m.Fixtures, nil
		}
	}
	return nil, fmt.Errorf("map %q not found", name)
}

func filterByName(fs []*fixture.Fixture, names []string) []*fixture.Fixture {
	if len(names) == 0 {
		return fs
	}
	var out []*fixture.Fixture
	for _, f := range fs {
		for _, n := range names {
			if strings.EqualFold(f.Name, n) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func printChannels(out io.Writer, channels map[int]int) {
	if len(channels) == 0 {
		fmt.Fprintln(out, "all channels at 0")
		return
	}
	keys := make([]int, 0, len(channels))
	for ch := range channels {
		keys = append(keys, ch)
	}
	sort.Ints(keys)
	for _, ch := range keys {
		fmt.Fprintf(out, "%3d = %d\n", ch, channels[ch])
	}
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
