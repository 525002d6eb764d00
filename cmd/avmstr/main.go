// avmstr CLI - exercises the string core: append loops, interning and
// atom snapshots
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/avmstring/avmstr"
	"github.com/chazu/avmstring/config"
	"github.com/chazu/avmstring/heap"
)

func main() {
	configDir := flag.String("config", "", "Directory containing avmstring.toml (default: search upward from cwd)")
	steps := flag.Int("n", 10000, "Number of single-character appends to run")
	copyOnly := flag.Bool("copy", false, "Disable in-place append (copy on every concatenation)")
	internWords := flag.String("intern", "", "Comma-separated words to intern and pin")
	snapshotOut := flag.String("snapshot", "", "Write an atom snapshot (CBOR) to this file")
	restoreIn := flag.String("restore", "", "Restore atoms from a snapshot file before running")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: avmstr [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs an append loop against the string heap and reports allocation behavior.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  avmstr -n 100000                      # Amortized append loop\n")
		fmt.Fprintf(os.Stderr, "  avmstr -n 1000 -copy                  # Same loop, copying every time\n")
		fmt.Fprintf(os.Stderr, "  avmstr -intern foo,bar -snapshot a.cbor\n")
		fmt.Fprintf(os.Stderr, "  avmstr -restore a.cbor -v\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *copyOnly {
		disabled := false
		cfg.Strings.InPlaceAppend = &disabled
	}
	if *verbose && cfg.Log.Verbosity < 2 {
		cfg.Log.Verbosity = 2
	}

	h, err := heap.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer h.Close()

	if *restoreIn != "" {
		data, err := os.ReadFile(*restoreIn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading snapshot: %v\n", err)
			os.Exit(1)
		}
		created, err := h.Restore(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Restored %d new atoms from %s\n", created, *restoreIn)
	}

	if *internWords != "" {
		h.Mutate(func(c *heap.Ctx) {
			for _, w := range strings.Split(*internWords, ",") {
				a := c.Intern(c.NewUTF8(w))
				c.Pin(a)
				if *verbose {
					fmt.Printf("  interned %q (atom #%d)\n", a.String(), a.ID())
				}
			}
		})
	}

	if *steps < 0 {
		fmt.Fprintf(os.Stderr, "Error: -n must not be negative\n")
		os.Exit(1)
	}

	before := h.Stats()
	var length, capacity int
	h.Mutate(func(c *heap.Ctx) {
		s := c.NewUTF8("")
		for i := 0; i < *steps; i++ {
			s = c.Concat(s, avmstr.FromStatic("x"))
		}
		length = s.Len()
		if r := s.Repr(); r != nil {
			capacity = r.Capacity()
		}
	})
	after := h.Stats()

	mode := "in-place"
	if !cfg.InPlaceAppend() {
		mode = "copy"
	}
	fmt.Printf("Append loop (%s): %d steps, final length %d\n", mode, *steps, length)
	fmt.Printf("  fresh buffers:  %d\n", after.HeapAllocations-before.HeapAllocations)
	fmt.Printf("  bytes reserved: %d\n", after.BytesAllocated-before.BytesAllocated)
	fmt.Printf("  final capacity: %d\n", capacity)
	fmt.Printf("  in-place rate:  %.1f%%\n", 100*after.InPlaceRate())

	cs := h.Collect()
	fmt.Printf("Collection: marked %d, swept %d, weak pruned %d, freed %d bytes in %s\n",
		cs.Marked, cs.Swept, cs.WeakPruned, cs.FreedBytes, cs.Duration)
	fmt.Printf("  live objects: %d, atoms: %d\n", cs.Live, h.Interner().Len())

	if *snapshotOut != "" {
		data, err := h.Snapshot()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*snapshotOut, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d atoms to %s\n", h.Interner().Len(), *snapshotOut)
	}
}

func loadConfig(dir string) (*config.Config, error) {
	if dir != "" {
		return config.Load(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}
