package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/gudaprim"
)

var sweepHeader = []string{
	"pow",
	"cpuScan",
	"naiveScan",
	"efficientScan",
	"referenceScan",
	"cpuCompactNoScan",
	"cpuCompactScan",
	"efficientCompact",
	"radixSort",
}

func newSweepCmd(g *globalFlags) *cobra.Command {
	var minPow, maxPow int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Print a CSV of elapsed milliseconds per implementation and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if minPow < 0 || maxPow > 30 || minPow > maxPow {
				return fmt.Errorf("invalid power range [%d, %d]", minPow, maxPow)
			}
			s, err := newSuite(g.config())
			if err != nil {
				return err
			}
			defer s.Close()

			w := csv.NewWriter(cmd.OutOrStdout())
			if err := w.Write(sweepHeader); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(g.seed))
			for pow := minPow; pow <= maxPow; pow++ {
				row, err := sweepRow(s, rng, pow)
				if err != nil {
					return fmt.Errorf("pow %d: %w", pow, err)
				}
				if err := w.Write(row); err != nil {
					return err
				}
				w.Flush()
			}
			return w.Error()
		},
	}
	cmd.Flags().IntVar(&minPow, "min-pow", 0, "smallest log2 size")
	cmd.Flags().IntVar(&maxPow, "max-pow", 22, "largest log2 size")
	return cmd
}

// sweepRow times every implementation once on a 2^pow input.
func sweepRow(s *suite, rng *rand.Rand, pow int) ([]string, error) {
	size := 1 << pow
	a := genInput(rng, size, 50)
	c := make([]int32, size)

	timed := func(t gudaprim.Timer, call func() error) (string, error) {
		clear(c)
		if err := call(); err != nil {
			return "", err
		}
		ms, err := gudaprim.ElapsedMillis(t)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(ms, 'f', 6, 64), nil
	}
	compact := func(fn func(int, []int32, []int32) (int, error)) func() error {
		return func() error {
			_, err := fn(size, c, a)
			return err
		}
	}

	steps := []struct {
		timer gudaprim.Timer
		call  func() error
	}{
		{s.cpu.Timer(), func() error { return s.cpu.Scan(size, c, a) }},
		{s.naive.Timer(), func() error { return s.naive.Scan(size, c, a) }},
		{s.efficient.Timer(), func() error { return s.efficient.Scan(size, c, a) }},
		{s.reference.Timer(), func() error { return s.reference.Scan(size, c, a) }},
		{s.cpu.Timer(), compact(s.cpu.CompactWithoutScan)},
		{s.cpu.Timer(), compact(s.cpu.CompactWithScan)},
		{s.efficient.Timer(), compact(s.efficient.Compact)},
		{s.radix.Timer(), func() error { return s.radix.Sort(size, c, a) }},
	}

	row := make([]string, 0, len(sweepHeader))
	row = append(row, strconv.Itoa(pow))
	for _, st := range steps {
		cell, err := timed(st.timer, st.call)
		if err != nil {
			return nil, err
		}
		row = append(row, cell)
	}
	return row, nil
}
