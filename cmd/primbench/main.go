// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command primbench checks and times the scan, compaction and sort
// primitives against the sequential implementation.
//
// Usage:
//
//	primbench run [--pow 20] [--json results.json]
//	primbench sweep [--min-pow 0] [--max-pow 22] > times.csv
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/gudaprim"
)

type globalFlags struct {
	workers   int
	blockSize int
	memLimit  uint64
	verbose   bool
	seed      int64
}

func (f *globalFlags) config() gudaprim.Config {
	cfg := gudaprim.Config{
		Workers:     f.workers,
		BlockSize:   f.blockSize,
		MemoryLimit: f.memLimit,
	}
	if f.verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return cfg
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "primbench",
		Short:         "Check and time data-parallel scan, compaction and sort",
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.IntVar(&flags.workers, "workers", 0, "goroutines per kernel launch (0 = GOMAXPROCS)")
	pf.IntVar(&flags.blockSize, "block-size", 0, "threads per block (0 = derived from the L1 cache)")
	pf.Uint64Var(&flags.memLimit, "mem-limit", 0, "device memory limit in bytes (0 = system memory)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log allocations and launches to stderr")
	pf.Int64Var(&flags.seed, "seed", 0, "seed for generated input arrays")

	root.AddCommand(newRunCmd(flags), newSweepCmd(flags))
	return root
}

func version() string {
	v, _ := gudaprim.Version()
	if v == "" {
		return "(devel)"
	}
	return v
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("primbench: %v", err)
	}
}
