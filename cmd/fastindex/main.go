// Command fastindex is a thin demonstration CLI over the fastindex
// package: it builds a filter from a newline-separated list of u64 keys
// and reports its shape, or probes a single key against a filter rebuilt
// deterministically from a known seed.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/jonmat/fastindex"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "fastindex"
	app.Usage = "build and query XOR-filter perfect-hash indexes"
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a filter over keys read from stdin (or --file) and print its shape",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "file", Usage: "read keys from this file instead of stdin"},
				cli.IntFlag{Name: "width", Value: 8, Usage: "fingerprint width: 8, 16, or 32"},
				cli.IntFlag{Name: "segments", Value: 3, Usage: "number of hash segments"},
				cli.Uint64Flag{Name: "seed", Usage: "fixed seed (0 picks one at random)"},
			},
			Action: runBuild,
		},
		{
			Name:  "probe",
			Usage: "rebuild a filter deterministically from --seed and check one key",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "file", Usage: "read keys from this file instead of stdin"},
				cli.IntFlag{Name: "width", Value: 8, Usage: "fingerprint width: 8, 16, or 32"},
				cli.IntFlag{Name: "segments", Value: 3, Usage: "number of hash segments"},
				cli.Uint64Flag{Name: "seed", Usage: "the seed reported by build"},
				cli.Uint64Flag{Name: "key", Usage: "the key to probe"},
			},
			Action: runProbe,
		},
	}
	return app
}

func runBuild(c *cli.Context) error {
	keys, err := readKeys(c.String("file"))
	if err != nil {
		return err
	}

	cfg := fastindex.Config{
		Segments:         c.Int("segments"),
		FingerprintWidth: c.Int("width"),
		Seed:             c.Uint64("seed"),
	}

	switch cfg.FingerprintWidth {
	case 8:
		f, err := fastindex.BuildUint8(keys, cfg)
		if err != nil {
			return errors.Wrap(err, "build")
		}
		printShape(f.Size(), f.Seed(), f.Segments(), len(keys))
	case 16:
		f, err := fastindex.BuildUint16(keys, cfg)
		if err != nil {
			return errors.Wrap(err, "build")
		}
		printShape(f.Size(), f.Seed(), f.Segments(), len(keys))
	case 32:
		f, err := fastindex.BuildUint32(keys, cfg)
		if err != nil {
			return errors.Wrap(err, "build")
		}
		printShape(f.Size(), f.Seed(), f.Segments(), len(keys))
	default:
		return errors.Errorf("unsupported --width %d", cfg.FingerprintWidth)
	}
	return nil
}

func runProbe(c *cli.Context) error {
	keys, err := readKeys(c.String("file"))
	if err != nil {
		return err
	}

	seed := c.Uint64("seed")
	if seed == 0 {
		return errors.New("probe requires --seed from a prior build")
	}
	cfg := fastindex.Config{
		Segments:         c.Int("segments"),
		FingerprintWidth: c.Int("width"),
	}

	probe := c.Uint64("key")

	// Rebuild, not Build: seed here is the exact post-mix value build
	// printed, and Build would re-mix it before its first attempt,
	// reconstructing a different filter than the one build reported.
	switch cfg.FingerprintWidth {
	case 8:
		f, err := fastindex.RebuildUint8(keys, seed, cfg)
		if err != nil {
			return errors.Wrap(err, "rebuild")
		}
		printProbe(f, probe)
	case 16:
		f, err := fastindex.RebuildUint16(keys, seed, cfg)
		if err != nil {
			return errors.Wrap(err, "rebuild")
		}
		printProbe(f, probe)
	case 32:
		f, err := fastindex.RebuildUint32(keys, seed, cfg)
		if err != nil {
			return errors.Wrap(err, "rebuild")
		}
		printProbe(f, probe)
	default:
		return errors.Errorf("unsupported --width %d", cfg.FingerprintWidth)
	}
	return nil
}

type indexer interface {
	Contains(uint64) bool
	Index(uint64) int
}

func printProbe(f indexer, key uint64) {
	fmt.Printf("contains=%t index=%d\n", f.Contains(key), f.Index(key))
}

func printShape(m int, seed uint64, segments, n int) {
	fmt.Printf("keys=%d m=%d segments=%d seed=0x%x\n", n, m, segments, seed)
}

// readKeys parses one u64 per line (decimal or 0x-prefixed hex) from path,
// or from stdin when path is empty. Blank lines are skipped.
func readKeys(path string) ([]uint64, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		r = f
	}

	var keys []uint64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var k uint64
		var err error
		if hex := strings.TrimPrefix(strings.TrimPrefix(line, "0x"), "0X"); hex != line {
			k, err = strconv.ParseUint(hex, 16, 64)
		} else {
			k, err = strconv.ParseUint(line, 10, 64)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parse key %q", line)
		}
		keys = append(keys, k)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read keys")
	}
	if len(keys) == 0 {
		return nil, errors.New("no keys provided")
	}
	return keys, nil
}
